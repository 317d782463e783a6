package observability

import "context"

// NoOpObserver discards all events.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(context.Context, Event) {}

// MultiObserver fans each event out to its members in order.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver creates a MultiObserver over the non-nil observers.
// Members that are themselves MultiObservers are flattened.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	m := &MultiObserver{observers: make([]Observer, 0, len(observers))}
	for _, obs := range observers {
		switch o := obs.(type) {
		case nil:
		case *MultiObserver:
			m.observers = append(m.observers, o.observers...)
		case NoOpObserver:
		default:
			m.observers = append(m.observers, o)
		}
	}
	return m
}

func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m.observers {
		obs.OnEvent(ctx, event)
	}
}

// Len reports the number of members after flattening.
func (m *MultiObserver) Len() int {
	return len(m.observers)
}

// Compose returns the cheapest observer equivalent to the fan-out of
// observers: NoOpObserver when nothing remains, the member itself when one
// does, and a MultiObserver otherwise.
func Compose(observers ...Observer) Observer {
	m := NewMultiObserver(observers...)
	switch m.Len() {
	case 0:
		return NoOpObserver{}
	case 1:
		return m.observers[0]
	default:
		return m
	}
}
