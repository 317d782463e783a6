// Package observability carries what the assistant kernel reports about
// itself: accepted and rejected commands, responses, dreams, RAM cleanups,
// journal degradation. Emitters build an Event and hand it to an Observer;
// the slog observer, the console and the Prometheus counter are the sinks.
//
// Level numbers follow OpenTelemetry SeverityNumber bands so a collector can
// ingest them unchanged. Per-tick events such as autosave and RAM cleanup
// use LevelVerbose and are dropped by the default Info logger before any
// attributes are built.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level is an event severity. Rejections and autosaves are LevelVerbose,
// dropped commands and missing peripherals LevelWarning, handler failures
// and journal degradation LevelError.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG (5-8), maps to slog.LevelDebug
	LevelInfo    Level = 9  // OTel INFO (9-12), maps to slog.LevelInfo
	LevelWarning Level = 13 // OTel WARN (13-16), maps to slog.LevelWarn
	LevelError   Level = 17 // OTel ERROR (17-20), maps to slog.LevelError
)

// String returns the OTel severity text for the level.
func (l Level) String() string {
	switch {
	case l <= 4:
		return "TRACE"
	case l <= 8:
		return "DEBUG"
	case l <= 12:
		return "INFO"
	case l <= 16:
		return "WARN"
	case l <= 20:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// SlogLevel maps this level to the corresponding slog.Level for log emission.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType names an event, dotted by emitter: "kernel.boot",
// "kernel.command.rejected", "kernel.ram.cleanup".
type EventType string

// Event is one report. Timestamp comes from the kernel clock, so tests with
// a fake clock see fake times in logs too. Source is the emitting method
// ("kernel.Submit", "kernel.dream"); Data holds route, response, dopamine,
// load and similar fields, flattened into log attributes.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives events from subsystems. OnEvent may be called while the
// emitter holds its own locks, so implementations must not call back into
// the emitter.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, event Event)

func (f ObserverFunc) OnEvent(ctx context.Context, event Event) {
	f(ctx, event)
}
