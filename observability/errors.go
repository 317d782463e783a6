package observability

import "errors"

// ErrUnknownObserver is returned when a name has no registered observer.
var ErrUnknownObserver = errors.New("unknown observer")
