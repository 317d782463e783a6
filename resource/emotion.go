package resource

import (
	"math"
	"sync"
	"time"
)

// Label is the emotion state derived from the dopamine scalar.
type Label string

const (
	LabelLow       Label = "LOW"
	LabelCalm      Label = "CALM"
	LabelContent   Label = "CONTENT"
	LabelSatisfied Label = "SATISFIED"
	LabelExcited   Label = "EXCITED"
)

// Classify maps a dopamine value to its label.
func (t Thresholds) Classify(dopamine float64) Label {
	switch {
	case dopamine < t.Low:
		return LabelLow
	case dopamine < t.Calm:
		return LabelCalm
	case dopamine < t.Content:
		return LabelContent
	case dopamine < t.Satisfied:
		return LabelSatisfied
	default:
		return LabelExcited
	}
}

// Sample is one point of emotion history.
type Sample struct {
	At       time.Time `json:"at"`
	Dopamine float64   `json:"dopamine"`
	Label    Label     `json:"label"`
}

// Emotion is the dopamine-driven state machine. Adjust is the only mutator;
// the label is recomputed from the scalar on every mutation and never set on
// its own. All methods are safe for concurrent use.
type Emotion struct {
	dopamine   float64
	label      Label
	thresholds Thresholds
	decay      float64

	history []Sample
	next    int
	count   int

	now func() time.Time
	mu  sync.RWMutex
}

// NewEmotion creates an Emotion from cfg. A nil now uses time.Now.
func NewEmotion(cfg EmotionConfig, now func() time.Time) *Emotion {
	if now == nil {
		now = time.Now
	}
	size := cfg.HistorySize
	if size <= 0 {
		size = defaultHistorySize
	}

	e := &Emotion{
		dopamine:   clamp01(cfg.Initial),
		thresholds: cfg.Thresholds,
		decay:      math.Abs(cfg.DecayDelta),
		history:    make([]Sample, size),
		now:        now,
	}
	e.label = e.thresholds.Classify(e.dopamine)
	return e
}

// Adjust adds delta to the dopamine scalar, clamping the result to [0,1],
// relabels, and records a history sample.
func (e *Emotion) Adjust(delta float64) Sample {
	e.mu.Lock()
	defer e.mu.Unlock()

	if math.IsNaN(delta) {
		delta = 0
	}
	e.dopamine = clamp01(e.dopamine + delta)
	e.label = e.thresholds.Classify(e.dopamine)

	sample := Sample{At: e.now(), Dopamine: e.dopamine, Label: e.label}
	e.history[e.next] = sample
	e.next = (e.next + 1) % len(e.history)
	if e.count < len(e.history) {
		e.count++
	}
	return sample
}

// Decay applies the configured cooling delta once.
func (e *Emotion) Decay() Sample {
	return e.Adjust(-e.decay)
}

func (e *Emotion) Dopamine() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dopamine
}

func (e *Emotion) Label() Label {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.label
}

// State returns dopamine and label read under one lock.
func (e *Emotion) State() (float64, Label) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dopamine, e.label
}

// History returns the retained samples, oldest first.
func (e *Emotion) History() []Sample {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Sample, 0, e.count)
	start := (e.next - e.count + len(e.history)) % len(e.history)
	for i := range e.count {
		out = append(out, e.history[(start+i)%len(e.history)])
	}
	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
