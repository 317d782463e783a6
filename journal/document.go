package journal

import (
	"slices"
	"time"
)

// DocumentVersion stamps every persisted document.
const DocumentVersion = "1.4.0"

// Counters are running totals per entry kind. They count every append,
// including entries later removed by the retention trim.
type Counters struct {
	Commands  uint64 `json:"commands"`
	Dreams    uint64 `json:"dreams"`
	Autosaves uint64 `json:"autosaves"`
	Errors    uint64 `json:"errors"`
	Shutdowns uint64 `json:"shutdowns"`
}

func (c *Counters) record(kind Kind) {
	switch kind {
	case KindCommand:
		c.Commands++
	case KindDream:
		c.Dreams++
	case KindAutosave:
		c.Autosaves++
	case KindError:
		c.Errors++
	case KindShutdown:
		c.Shutdowns++
	}
}

// Document is the persisted layout: a version stamp, creation time, the
// retained entries in append order, and aggregate counters.
type Document struct {
	Version  string    `json:"version"`
	Created  time.Time `json:"created"`
	Entries  []Entry   `json:"entries"`
	Counters Counters  `json:"counters"`
}

func newDocument(now time.Time) *Document {
	return &Document{
		Version: DocumentVersion,
		Created: now.UTC(),
		Entries: []Entry{},
	}
}

func (d *Document) clone() *Document {
	c := *d
	c.Entries = slices.Clone(d.Entries)
	return &c
}
