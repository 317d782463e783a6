package resource

import "errors"

// Sentinel errors for resource mutations.
var (
	ErrInvalidSize   = errors.New("invalid allocation size")
	ErrTerminalState = errors.New("registers are shut down")
)
