package speech

import "errors"

// Sentinel errors for speech output.
var (
	ErrPeripheralUnavailable = errors.New("speech backend unavailable")
	ErrQueueFull             = errors.New("speech queue full")
)
