// Package feed holds the short-lived, human-readable notices the kernel
// produces for the presentation layer.
package feed

import (
	"slices"
	"sync"
	"time"
)

const (
	defaultTTL         = 6 * time.Second
	defaultVisible     = 5
	defaultMaxMessages = 256
)

// Message is one notice. It is evicted once now - CreatedAt >= TTL.
type Message struct {
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"created_at"`
	TTL       time.Duration `json:"ttl"`
}

// Expired reports whether the message has outlived its TTL at now.
func (m Message) Expired(now time.Time) bool {
	return now.Sub(m.CreatedAt) >= m.TTL
}

// Config holds feed sizing parameters.
type Config struct {
	TTL         time.Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	Visible     int           `json:"visible,omitempty" yaml:"visible,omitempty"`
	MaxMessages int           `json:"max_messages,omitempty" yaml:"max_messages,omitempty"`
}

// DefaultConfig returns the default feed configuration.
func DefaultConfig() Config {
	return Config{
		TTL:         defaultTTL,
		Visible:     defaultVisible,
		MaxMessages: defaultMaxMessages,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.TTL > 0 {
		c.TTL = source.TTL
	}
	if source.Visible > 0 {
		c.Visible = source.Visible
	}
	if source.MaxMessages > 0 {
		c.MaxMessages = source.MaxMessages
	}
}

// Feed is an ordered, TTL-decaying message queue. All methods are safe for
// concurrent use.
type Feed struct {
	messages []Message
	cfg      Config
	now      func() time.Time
	mu       sync.RWMutex
}

// New creates a Feed. A nil now uses time.Now.
func New(cfg Config, now func() time.Time) *Feed {
	if now == nil {
		now = time.Now
	}
	def := DefaultConfig()
	def.Merge(&cfg)
	return &Feed{cfg: def, now: now}
}

// Push appends a message with the default TTL.
func (f *Feed) Push(text string) Message {
	return f.PushTTL(text, f.cfg.TTL)
}

// PushTTL appends a message with the given TTL. When the feed holds more than
// MaxMessages the oldest are dropped.
func (f *Feed) PushTTL(text string, ttl time.Duration) Message {
	if ttl <= 0 {
		ttl = f.cfg.TTL
	}
	msg := Message{Text: text, CreatedAt: f.now(), TTL: ttl}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages = append(f.messages, msg)
	if over := len(f.messages) - f.cfg.MaxMessages; over > 0 {
		f.messages = slices.Delete(f.messages, 0, over)
	}
	return msg
}

// Sweep evicts expired messages and returns how many were removed.
func (f *Feed) Sweep() int {
	now := f.now()

	f.mu.Lock()
	defer f.mu.Unlock()

	before := len(f.messages)
	f.messages = slices.DeleteFunc(f.messages, func(m Message) bool {
		return m.Expired(now)
	})
	return before - len(f.messages)
}

// Visible returns the most recent unexpired messages, at most Config.Visible,
// oldest first.
func (f *Feed) Visible() []Message {
	now := f.now()

	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []Message
	for i := len(f.messages) - 1; i >= 0 && len(out) < f.cfg.Visible; i-- {
		if !f.messages[i].Expired(now) {
			out = append(out, f.messages[i])
		}
	}
	slices.Reverse(out)
	return out
}

// Messages returns a copy of every retained message, including ones that
// have expired but not yet been swept.
func (f *Feed) Messages() []Message {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.messages)
}

func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.messages)
}
