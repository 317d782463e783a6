package speech

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tailored-agentic-units/assistant/queue"
)

// Stats counts dispatcher activity.
type Stats struct {
	Spoken  int64
	Failed  int64
	Dropped int64
}

// Dispatcher serializes utterances through one consumer goroutine. Say is
// fire-and-forget; ordering follows submission order through the queue.
type Dispatcher struct {
	speaker          Speaker
	queue            *queue.Channel[string]
	logger           *slog.Logger
	utteranceTimeout time.Duration
	drainTimeout     time.Duration

	spoken atomic.Int64
	failed atomic.Int64
}

// NewDispatcher creates a Dispatcher for speaker. A nil speaker speaks
// nothing; a nil logger uses slog.Default.
func NewDispatcher(speaker Speaker, cfg Config, logger *slog.Logger) *Dispatcher {
	if speaker == nil {
		speaker = NoOpSpeaker{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	def.Merge(&cfg)

	return &Dispatcher{
		speaker:          speaker,
		queue:            queue.NewChannel[string](context.Background(), def.QueueSize),
		logger:           logger,
		utteranceTimeout: def.UtteranceTimeout,
		drainTimeout:     def.DrainTimeout,
	}
}

// Say queues text without blocking. Returns ErrQueueFull when the queue is
// full or the dispatcher has stopped.
func (d *Dispatcher) Say(text string) error {
	if text == "" {
		return nil
	}
	if !d.queue.TrySend(text) {
		d.logger.Debug(
			"utterance dropped",
			slog.Int("queue_length", d.queue.Len()),
		)
		return ErrQueueFull
	}
	return nil
}

// Run consumes the queue until ctx is cancelled, then speaks whatever is still
// queued for at most the drain timeout and returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		text, ok := d.queue.Receive(ctx)
		if !ok {
			break
		}
		d.speak(ctx, text)
	}

	d.queue.Close()

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.drainTimeout)
	defer cancel()

	for _, text := range d.queue.Drain() {
		if drainCtx.Err() != nil {
			d.logger.Debug("speech drain timed out")
			break
		}
		d.speak(drainCtx, text)
	}
	return nil
}

func (d *Dispatcher) speak(ctx context.Context, text string) {
	uctx, cancel := context.WithTimeout(ctx, d.utteranceTimeout)
	defer cancel()

	if err := d.speaker.Speak(uctx, text); err != nil {
		d.failed.Add(1)
		d.logger.Warn(
			"speech failed",
			slog.String("error", err.Error()),
		)
		return
	}
	d.spoken.Add(1)
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Spoken:  d.spoken.Load(),
		Failed:  d.failed.Load(),
		Dropped: d.queue.Dropped(),
	}
}
