package kernel

import (
	"time"

	"github.com/tailored-agentic-units/assistant/feed"
	"github.com/tailored-agentic-units/assistant/journal"
	"github.com/tailored-agentic-units/assistant/resource"
	"github.com/tailored-agentic-units/assistant/speech"
)

// JournalStatus summarizes the journal for display.
type JournalStatus struct {
	Entries  int              `json:"entries"`
	Counters journal.Counters `json:"counters"`
	Degraded bool             `json:"degraded"`
}

// Snapshot is an immutable copy of the kernel's observable state. It is the
// only thing the presentation layer reads.
type Snapshot struct {
	Taken        time.Time               `json:"taken"`
	Registers    resource.RegistersState `json:"registers"`
	Uptime       time.Duration           `json:"uptime"`
	Dopamine     float64                 `json:"dopamine"`
	Emotion      resource.Label          `json:"emotion"`
	RAM          resource.RAMState       `json:"ram"`
	Light        resource.LightState     `json:"light"`
	Messages     []feed.Message          `json:"messages"`
	Journal      JournalStatus           `json:"journal"`
	Speech       speech.Stats            `json:"speech"`
	SafeMode     bool                    `json:"safe_mode"`
	QueueDropped int64                   `json:"queue_dropped"`
	Presentation Presentation            `json:"presentation"`
}

// Snapshot captures a consistent view of every aggregate.
func (k *Kernel) Snapshot() Snapshot {
	k.mu.RLock()
	defer k.mu.RUnlock()

	now := k.now()
	regs := k.registers.Snapshot()
	dopamine, label := k.emotion.State()

	return Snapshot{
		Taken:     now,
		Registers: regs,
		Uptime:    now.Sub(regs.UptimeStart),
		Dopamine:  dopamine,
		Emotion:   label,
		RAM:       k.ram.State(),
		Light:     k.light.State(),
		Messages:  k.feed.Visible(),
		Journal: JournalStatus{
			Entries:  k.journal.Len(),
			Counters: k.journal.Counters(),
			Degraded: k.journal.Degraded(),
		},
		Speech:       k.speech.Stats(),
		SafeMode:     k.validator.SafeMode(),
		QueueDropped: k.commands.Dropped(),
		Presentation: k.cfg.Presentation,
	}
}
