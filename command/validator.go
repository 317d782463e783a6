// Package command validates raw text commands and routes accepted ones
// through an ordered table of (matcher, handler) pairs.
//
// Validation runs in a fixed order: emptiness, length, the safe-mode
// allow-list, then the global cooldown. Only an accepted command restarts the
// cooldown.
//
//	v := command.NewValidator(command.DefaultConfig(), nil)
//	cmd, err := v.Validate("ligar a luz 40")
//	if err != nil { ... } // ErrTooLong, ErrNotPermitted, ErrRateLimited ...
//	result, err := router.Dispatch(ctx, cmd)
package command

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Command is an accepted submission.
type Command struct {
	Raw        string    // Text exactly as submitted.
	Text       string    // Trimmed text.
	Normalized string    // Trimmed, lower-cased text used for matching.
	Accepted   time.Time // When validation accepted it.
}

// Validator enforces length, allow-list, and cooldown rules. Safe for
// concurrent use.
type Validator struct {
	maxLength int
	cooldown  time.Duration
	safeMode  bool
	allow     []string

	lastAccepted time.Time
	accepted     bool

	now func() time.Time
	mu  sync.Mutex
}

// NewValidator creates a Validator. A nil now uses time.Now.
func NewValidator(cfg Config, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = defaultMaxLength
	}

	allow := make([]string, 0, len(cfg.AllowList))
	for _, a := range cfg.AllowList {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			allow = append(allow, a)
		}
	}

	return &Validator{
		maxLength: cfg.MaxLength,
		cooldown:  cfg.Cooldown,
		safeMode:  cfg.SafeMode,
		allow:     allow,
		now:       now,
	}
}

// Validate checks raw and, when it passes, records the acceptance time for
// the cooldown.
func (v *Validator) Validate(raw string) (Command, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Command{}, ErrEmpty
	}
	if n := utf8.RuneCountInString(text); n > v.maxLength {
		return Command{}, fmt.Errorf("%w: %d > %d", ErrTooLong, n, v.maxLength)
	}

	normalized := strings.ToLower(text)
	if v.safeMode && !v.permitted(normalized) {
		return Command{}, ErrNotPermitted
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	if v.accepted {
		if elapsed := now.Sub(v.lastAccepted); elapsed < v.cooldown {
			return Command{}, fmt.Errorf("%w: retry in %v", ErrRateLimited, v.cooldown-elapsed)
		}
	}
	v.lastAccepted = now
	v.accepted = true

	return Command{
		Raw:        raw,
		Text:       text,
		Normalized: normalized,
		Accepted:   now,
	}, nil
}

func (v *Validator) permitted(normalized string) bool {
	for _, a := range v.allow {
		if strings.Contains(normalized, a) {
			return true
		}
	}
	return false
}

// SafeMode reports whether the allow-list is enforced.
func (v *Validator) SafeMode() bool {
	return v.safeMode
}
