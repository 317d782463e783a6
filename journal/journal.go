// Package journal is the kernel's append-only log. Every entry carries a
// SHA-256 integrity hash over its canonical form, the retained set is trimmed
// to a fixed ceiling as part of each append, and the whole document is
// persisted through a pluggable Store.
//
// A journal whose backing store cannot be read or written degrades to
// memory-only operation instead of failing its caller:
//
//	j := journal.New(ctx, store, cfg, nil)
//	if j.Degraded() {
//		log.Warn("journal degraded", "cause", j.Cause())
//	}
//	entry, err := j.Append(ctx, journal.KindCommand, payload)
package journal

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Journal serializes appends and owns the in-memory document. All methods are
// safe for concurrent use.
type Journal struct {
	store      Store
	doc        *Document
	maxEntries int
	degraded   bool
	cause      error
	now        func() time.Time
	mu         sync.Mutex
}

// New loads the persisted document from store, or starts a fresh one. A load
// failure leaves the journal degraded: it keeps working in memory and never
// touches the store again. A nil store keeps the journal in memory; a nil now
// uses time.Now.
func New(ctx context.Context, store Store, cfg Config, now func() time.Time) *Journal {
	if store == nil {
		store = NewMemoryStore()
	}
	if now == nil {
		now = time.Now
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = defaultMaxEntries
	}

	j := &Journal{
		store:      store,
		maxEntries: cfg.MaxEntries,
		now:        now,
	}

	doc, err := store.Load(ctx)
	switch {
	case err != nil:
		j.degrade(err)
		j.doc = newDocument(now())
	case doc == nil:
		j.doc = newDocument(now())
	default:
		j.doc = doc
		j.trimLocked()
	}

	return j
}

// Append records a new entry of the given kind. The retention trim and the
// counter update happen in the same critical section as the append. When
// persistence fails the entry is still retained in memory, the journal
// degrades, and the returned error wraps ErrPersistence.
func (j *Journal) Append(ctx context.Context, kind Kind, payload map[string]any) (Entry, error) {
	normalized, err := normalizePayload(payload)
	if err != nil {
		return Entry{}, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entry := Entry{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Kind:      kind,
		Payload:   normalized,
		Timestamp: j.now().UTC(),
	}
	if entry.Hash, err = entry.ComputeHash(); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	j.doc.Entries = append(j.doc.Entries, entry)
	j.doc.Counters.record(kind)
	j.trimLocked()

	if j.degraded {
		return entry, nil
	}
	if err := j.store.Save(ctx, j.doc); err != nil {
		j.degrade(err)
		return entry, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return entry, nil
}

func (j *Journal) trimLocked() {
	if over := len(j.doc.Entries) - j.maxEntries; over > 0 {
		j.doc.Entries = slices.Clone(j.doc.Entries[over:])
	}
}

func (j *Journal) degrade(err error) {
	j.degraded = true
	j.cause = err
}

// Entries returns a copy of the retained entries in append order.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.doc.Entries)
}

// Last returns the most recent entry.
func (j *Journal) Last() (Entry, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.doc.Entries) == 0 {
		return Entry{}, false
	}
	return j.doc.Entries[len(j.doc.Entries)-1], true
}

func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.doc.Entries)
}

func (j *Journal) Counters() Counters {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.doc.Counters
}

// Document returns a copy of the full document.
func (j *Journal) Document() Document {
	j.mu.Lock()
	defer j.mu.Unlock()
	return *j.doc.clone()
}

// Degraded reports whether persistence has been abandoned.
func (j *Journal) Degraded() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.degraded
}

// Cause returns the error that degraded the journal, if any.
func (j *Journal) Cause() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cause
}

// Verify recomputes every retained entry's hash. Returns an error wrapping
// ErrIntegrity for the first mismatch.
func (j *Journal) Verify() error {
	return VerifyEntries(j.Entries())
}

// Close releases the backing store.
func (j *Journal) Close() error {
	return j.store.Close()
}

// VerifyEntries checks the hash of each entry in order.
func VerifyEntries(entries []Entry) error {
	for i, e := range entries {
		if !e.Verify() {
			return fmt.Errorf("%w: entry %d (%s)", ErrIntegrity, i, e.ID)
		}
	}
	return nil
}
