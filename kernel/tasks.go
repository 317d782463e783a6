package kernel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/assistant/command"
	"github.com/tailored-agentic-units/assistant/journal"
	"github.com/tailored-agentic-units/assistant/observability"
	"github.com/tailored-agentic-units/assistant/resource"
)

// Run boots the kernel and blocks until it stops, either because ctx is
// cancelled, the shutdown command was routed, or Shutdown was called. Before
// returning it waits for every background task, drains pending speech,
// appends the final shutdown entry, and closes the journal store.
func (k *Kernel) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	k.lifecycle.Lock()
	switch {
	case k.started:
		k.lifecycle.Unlock()
		return ErrAlreadyRunning
	case k.stopRequested:
		k.lifecycle.Unlock()
		return ErrShutdown
	}
	k.started = true
	k.cancel = cancel
	k.lifecycle.Unlock()

	k.boot(runCtx)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return k.speech.Run(gctx) })
	g.Go(func() error { return k.loop(gctx) })
	g.Go(func() error { return k.every(gctx, k.cfg.MaintenanceInterval, k.maintain) })
	g.Go(func() error { return k.every(gctx, k.cfg.AutosaveInterval, k.autosave) })
	if k.input != nil {
		g.Go(func() error { return k.capture(gctx) })
	}

	err := g.Wait()
	k.finalize()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown stops the kernel and waits until Done is closed or ctx expires.
// Calling it on a kernel that never ran finalizes it directly.
func (k *Kernel) Shutdown(ctx context.Context) error {
	k.requestStop()
	select {
	case <-k.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (k *Kernel) requestStop() {
	k.lifecycle.Lock()
	k.stopRequested = true
	started, cancel := k.started, k.cancel
	k.lifecycle.Unlock()

	if started {
		cancel()
		return
	}
	k.finalize()
}

func (k *Kernel) boot(ctx context.Context) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.registers.State() == resource.StateBoot {
		k.registers.SetState(resource.StateActive)
	}
	k.announceLocked(bootAnnouncement)

	k.emit(ctx, EventBoot, observability.LevelInfo, "kernel.Run", map[string]any{
		"id":        k.id,
		"safe_mode": k.validator.SafeMode(),
		"entries":   k.journal.Len(),
		"degraded":  k.journal.Degraded(),
	})
}

// finalize runs exactly once, after every task has stopped.
func (k *Kernel) finalize() {
	k.finalizeOnce.Do(func() {
		ctx := context.Background()

		k.mu.Lock()
		k.registers.SetState(resource.StateShutdown)
		payload := k.statePayloadLocked()
		regs := k.registers.Snapshot()
		payload["uptime_s"] = k.now().Sub(regs.UptimeStart).Seconds()
		payload["commands"] = regs.CommandCount
		payload["errors"] = regs.ErrorCount
		if _, err := k.journal.Append(ctx, journal.KindShutdown, payload); err != nil {
			k.persistenceFailureLocked(ctx, err)
		}
		k.mu.Unlock()

		k.commands.Close()
		if err := k.journal.Close(); err != nil {
			k.logger.Warn(
				"journal close failed",
				slog.String("error", err.Error()),
			)
		}

		k.emit(ctx, EventShutdown, observability.LevelInfo, "kernel.Run", map[string]any{
			"id":       k.id,
			"commands": regs.CommandCount,
			"errors":   regs.ErrorCount,
		})
		close(k.done)
	})
}

func (k *Kernel) loop(ctx context.Context) error {
	ticker := time.NewTicker(k.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			k.Tick(ctx)
		}
	}
}

// every runs fn after each period until ctx is cancelled.
func (k *Kernel) every(ctx context.Context, period time.Duration, fn func(context.Context)) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// Tick performs one primary loop iteration: emotion decay, load
// recomputation, the dream check, the feed sweep, and a non-blocking drain of
// the command queue.
func (k *Kernel) Tick(ctx context.Context) {
	k.mu.Lock()
	if k.registers.State() == resource.StateShutdown {
		k.mu.Unlock()
		return
	}
	k.emotion.Decay()
	k.registers.SetLoad(resource.NextLoad(k.rng, k.registers.State()))
	k.dreamLocked(ctx)
	k.feed.Sweep()
	k.mu.Unlock()

	for {
		line, ok := k.commands.TryReceive()
		if !ok {
			return
		}
		_, err := k.Submit(ctx, line)
		switch {
		case err == nil, command.IsRejection(err):
		case errors.Is(err, ErrShutdown):
			return
		default:
			k.logger.Debug(
				"command failed",
				slog.String("error", err.Error()),
			)
		}
	}
}

func (k *Kernel) maintain(ctx context.Context) {
	k.Maintain(ctx)
}

// Maintain runs one RAM maintenance pass when auto-cleanup is enabled.
// Returns whether a cleanup ran.
func (k *Kernel) Maintain(ctx context.Context) bool {
	if !k.cfg.AutoCleanup {
		return false
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.registers.State() == resource.StateShutdown {
		return false
	}
	c, ok := k.ram.Maintain()
	if ok {
		k.cleanedLocked(ctx, c, "maintenance")
	}
	return ok
}

func (k *Kernel) autosave(ctx context.Context) {
	if _, err := k.Autosave(ctx); err != nil && !errors.Is(err, ErrShutdown) {
		k.logger.Debug(
			"autosave failed",
			slog.String("error", err.Error()),
		)
	}
}

// Autosave appends an autosave entry holding the current state.
func (k *Kernel) Autosave(ctx context.Context) (journal.Entry, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.registers.State() == resource.StateShutdown {
		return journal.Entry{}, ErrShutdown
	}

	payload := k.statePayloadLocked()
	payload["commands"] = k.registers.Snapshot().CommandCount

	entry, err := k.journal.Append(ctx, journal.KindAutosave, payload)
	if err != nil {
		k.persistenceFailureLocked(ctx, err)
		return entry, err
	}

	k.emit(ctx, EventAutosave, observability.LevelVerbose, "kernel.autosave", map[string]any{
		"entries": k.journal.Len(),
	})
	return entry, nil
}

// dreamLocked narrates one sentence when the machine has been quiet long
// enough. Returns whether a dream ran.
func (k *Kernel) dreamLocked(ctx context.Context) bool {
	now := k.now()
	if k.registers.Load() >= k.cfg.Dream.LoadThreshold {
		return false
	}
	if now.Sub(k.lastDream) < k.cfg.Dream.Interval {
		return false
	}
	k.lastDream = now

	vocabulary := k.cfg.Dream.Vocabulary
	sentence := vocabulary[k.rng.IntN(len(vocabulary))]

	k.announceLocked(sentence)
	k.allocateLocked(ctx, k.cfg.Dream.BlockMB, "dream")

	payload := k.statePayloadLocked()
	payload["text"] = sentence
	if _, err := k.journal.Append(ctx, journal.KindDream, payload); err != nil {
		k.persistenceFailureLocked(ctx, err)
	}

	k.emit(ctx, EventDream, observability.LevelInfo, "kernel.dream", map[string]any{
		"text": sentence,
		"load": k.registers.Load(),
	})
	return true
}

// capture moves lines from the input collaborator into the command queue.
// The reader is closed when ctx ends so a blocked ReadLine returns.
func (k *Kernel) capture(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		k.input.Close()
	})
	defer stop()

	for {
		line, err := k.input.ReadLine()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				if k.cfg.ShutdownOnEOF {
					k.requestStop()
				}
				return nil
			}
			k.logger.Warn(
				"input capture stopped",
				slog.String("error", err.Error()),
			)
			return nil
		}
		k.Enqueue(line)
	}
}
