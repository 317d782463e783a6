// Package speech is the kernel's voice channel. Callers hand text to a
// Dispatcher, which never blocks them; a single goroutine feeds the text to a
// Speaker one utterance at a time.
package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// Speaker produces audio for one utterance. Speak blocks until the utterance
// finishes or ctx ends.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// NoOpSpeaker discards every utterance. Used when voice output is disabled or
// no audio backend is present.
type NoOpSpeaker struct{}

func (NoOpSpeaker) Speak(context.Context, string) error { return nil }

// ExecSpeaker runs an espeak-compatible synthesizer per utterance.
type ExecSpeaker struct {
	binary string
	args   []string
}

// NewExecSpeaker resolves cfg.Command on PATH. Returns an error wrapping
// ErrPeripheralUnavailable when it cannot be found.
func NewExecSpeaker(cfg Config) (*ExecSpeaker, error) {
	binary, err := exec.LookPath(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPeripheralUnavailable, cfg.Command, err)
	}

	args := []string{
		"-s", strconv.Itoa(cfg.Rate),
		"-a", strconv.Itoa(amplitude(cfg.Volume)),
	}
	if cfg.Voice != "" {
		args = append(args, "-v", cfg.Voice)
	}

	return &ExecSpeaker{binary: binary, args: args}, nil
}

func (s *ExecSpeaker) Speak(ctx context.Context, text string) error {
	args := append(append([]string{}, s.args...), text)
	if out, err := exec.CommandContext(ctx, s.binary, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", s.binary, err, out)
	}
	return nil
}

// amplitude maps a 0..1 volume onto espeak's 0..200 amplitude scale, where
// 100 is the synthesizer's normal level.
func amplitude(volume float64) int {
	return int(max(0, min(2, volume)) * 100)
}

// NewSpeaker creates the configured Speaker. A disabled config yields a
// NoOpSpeaker. A missing synthesizer also yields a NoOpSpeaker, together with
// an error wrapping ErrPeripheralUnavailable so the caller can report it.
func NewSpeaker(cfg Config) (Speaker, error) {
	if !cfg.Enabled {
		return NoOpSpeaker{}, nil
	}
	s, err := NewExecSpeaker(cfg)
	if err != nil {
		return NoOpSpeaker{}, err
	}
	return s, nil
}
