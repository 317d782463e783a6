package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

// LoggerConfig selects the sinks of the process logger.
type LoggerConfig struct {
	Level    slog.Leveler // Minimum level; nil means Info.
	Writer   io.Writer    // Text output; nil means os.Stderr.
	JSONFile string       // Optional JSON-lines file, appended to.
	Journald bool         // Also send records to the systemd journal.
}

// NewLogger builds a logger that fans every record out to a text handler, an
// optional JSON file, and optionally the systemd journal. The returned close
// function releases the JSON file. An unreachable journal is reported on the
// text handler and skipped.
func NewLogger(cfg LoggerConfig) (*slog.Logger, func() error, error) {
	level := cfg.Level
	if level == nil {
		level = slog.LevelInfo
	}
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}
	text := slog.NewTextHandler(writer, opts)
	handlers := []slog.Handler{text}
	closer := func() error { return nil }

	if cfg.JSONFile != "" {
		f, err := os.OpenFile(cfg.JSONFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
		closer = f.Close
	}

	if cfg.Journald {
		journal, err := slogjournal.NewHandler(&slogjournal.Options{
			Level: level,
			ReplaceGroup: func(key string) string {
				return journalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = journalKey(a.Key)
				return a
			},
		})
		if err != nil {
			record := slog.NewRecord(time.Now(), slog.LevelWarn, "systemd journal unavailable", 0)
			record.Add("error", err)
			_ = text.Handle(context.Background(), record)
		} else {
			handlers = append(handlers, journal)
		}
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

// journalKey converts an attribute key to a journald field name.
func journalKey(key string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, strings.ToUpper(key))
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}
