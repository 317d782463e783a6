package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/tailored-agentic-units/assistant/kernel"
	"github.com/tailored-agentic-units/assistant/observability"
)

// console prints what the assistant says. Events arrive while the kernel
// holds its state lock, so HUD redraws are signalled to a separate goroutine
// instead of reading a snapshot here.
type console struct {
	mu      sync.Mutex
	out     io.Writer
	refresh chan struct{}
}

func newConsole(out io.Writer) *console {
	return &console{out: out, refresh: make(chan struct{}, 1)}
}

func (c *console) OnEvent(_ context.Context, event observability.Event) {
	var line string
	switch event.Type {
	case kernel.EventResponse:
		line = fmt.Sprintf("assistant: %v", event.Data["response"])
	case kernel.EventDream:
		line = fmt.Sprintf("dream: %v", event.Data["text"])
	case kernel.EventRAMCleanup:
		line = fmt.Sprintf("ram: cleanup %.0f -> %.0f MB", event.Data["before_mb"], event.Data["after_mb"])
	case kernel.EventPersistenceDegraded:
		line = "journal: storage unavailable, keeping entries in memory"
	case kernel.EventBoot:
		line = fmt.Sprintf("assistant %v online", event.Data["id"])
	case kernel.EventShutdown:
		line = "assistant offline"
	default:
		return
	}

	c.mu.Lock()
	fmt.Fprintln(c.out, line)
	c.mu.Unlock()

	select {
	case c.refresh <- struct{}{}:
	default:
	}
}
