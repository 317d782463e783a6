// Package queue provides the bounded, non-blocking channel used to hand work
// between the kernel's independent timelines: raw command lines from input
// capture to the primary loop, and utterances from any caller to the speech
// dispatcher.
package queue

import (
	"context"
	"sync"
	"sync/atomic"
)

// Channel is a bounded multi-producer queue. Producers use TrySend and never
// block; a full or closed channel drops the item and counts it.
type Channel[T any] struct {
	channel    chan T
	context    context.Context
	bufferSize int
	closed     bool
	dropped    atomic.Int64
	mu         sync.RWMutex
}

// NewChannel creates a Channel bound to ctx. Blocking receives return when
// ctx is cancelled.
func NewChannel[T any](ctx context.Context, bufferSize int) *Channel[T] {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Channel[T]{
		channel:    make(chan T, bufferSize),
		context:    ctx,
		bufferSize: bufferSize,
	}
}

// TrySend enqueues item without blocking. Returns false when the buffer is
// full or the channel is closed.
func (c *Channel[T]) TrySend(item T) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		c.dropped.Add(1)
		return false
	}

	select {
	case c.channel <- item:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// Receive blocks until an item is available, ctx is cancelled, or the
// channel's own context ends. The boolean is false when no item was received.
func (c *Channel[T]) Receive(ctx context.Context) (T, bool) {
	select {
	case item, ok := <-c.channel:
		return item, ok
	case <-ctx.Done():
		var zero T
		return zero, false
	case <-c.context.Done():
		var zero T
		return zero, false
	}
}

func (c *Channel[T]) TryReceive() (T, bool) {
	select {
	case item, ok := <-c.channel:
		return item, ok
	default:
		var zero T
		return zero, false
	}
}

// Drain removes and returns every item currently buffered without blocking.
func (c *Channel[T]) Drain() []T {
	var items []T
	for {
		item, ok := c.TryReceive()
		if !ok {
			return items
		}
		items = append(items, item)
	}
}

// Close stops further sends. Items already buffered remain receivable.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.channel)
	}
}

func (c *Channel[T]) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Channel[T]) BufferSize() int {
	return c.bufferSize
}

func (c *Channel[T]) Len() int {
	return len(c.channel)
}

// Dropped reports how many sends were discarded because the channel was full
// or closed.
func (c *Channel[T]) Dropped() int64 {
	return c.dropped.Load()
}
