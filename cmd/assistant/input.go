package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/chzyer/readline"
)

// terminal reads command lines with history and line editing.
type terminal struct {
	rl        *readline.Instance
	closeOnce sync.Once
	closeErr  error
}

func newTerminal() (*terminal, error) {
	var historyFile string
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".assistant-history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "> ",
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		UniqueEditLine:    true,

		Stdin:  readline.NewCancelableStdin(os.Stdin),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize readline: %w", err)
	}
	return &terminal{rl: rl}, nil
}

// ReadLine treats Ctrl+C on an empty line like Ctrl+D.
func (t *terminal) ReadLine() (string, error) {
	for {
		line, err := t.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return "", io.EOF
			}
			continue
		}
		return line, err
	}
}

// Stdout writes above the prompt without corrupting the edit line.
func (t *terminal) Stdout() io.Writer {
	return t.rl.Stdout()
}

// Close may be called by both the kernel and the command; only the first
// call reaches readline.
func (t *terminal) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.rl.Close()
	})
	return t.closeErr
}
