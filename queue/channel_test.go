package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tailored-agentic-units/assistant/queue"
)

func TestChannel_TrySend_DropsWhenFull(t *testing.T) {
	ch := queue.NewChannel[string](context.Background(), 2)

	if !ch.TrySend("a") || !ch.TrySend("b") {
		t.Fatal("expected first two sends to succeed")
	}
	if ch.TrySend("c") {
		t.Error("send into full channel should fail")
	}
	if got := ch.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}
	if got := ch.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestChannel_Drain_PreservesOrder(t *testing.T) {
	ch := queue.NewChannel[int](context.Background(), 8)
	for i := range 5 {
		ch.TrySend(i)
	}

	got := ch.Drain()
	if len(got) != 5 {
		t.Fatalf("Drain() returned %d items, want 5", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Errorf("Drain()[%d] = %d, want %d", i, v, i)
		}
	}
	if extra := ch.Drain(); len(extra) != 0 {
		t.Errorf("second Drain() returned %d items, want 0", len(extra))
	}
}

func TestChannel_SendAfterClose(t *testing.T) {
	ch := queue.NewChannel[string](context.Background(), 2)
	ch.TrySend("kept")
	ch.Close()
	ch.Close()

	if !ch.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
	if ch.TrySend("late") {
		t.Error("send after close should fail")
	}

	item, ok := ch.TryReceive()
	if !ok || item != "kept" {
		t.Errorf("TryReceive() = %q, %v; want buffered item", item, ok)
	}
}

func TestChannel_Receive_Cancelled(t *testing.T) {
	ch := queue.NewChannel[string](context.Background(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, ok := ch.Receive(ctx); ok {
		t.Error("Receive on empty channel should report no item after cancel")
	}
}

func TestChannel_ConcurrentProducers(t *testing.T) {
	ch := queue.NewChannel[int](context.Background(), 1000)

	var wg sync.WaitGroup
	for p := range 10 {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := range 50 {
				ch.TrySend(p*100 + i)
			}
		}(p)
	}
	wg.Wait()

	if got := len(ch.Drain()); got != 500 {
		t.Errorf("received %d items, want 500", got)
	}
}
