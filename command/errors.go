package command

import "errors"

// Validation rejections. None of these is a fault: the kernel drops the
// submission without touching state or the journal.
var (
	ErrEmpty        = errors.New("command is empty")
	ErrTooLong      = errors.New("command too long")
	ErrNotPermitted = errors.New("command not permitted in safe mode")
	ErrRateLimited  = errors.New("command rate limited")
)

// Routing errors.
var (
	ErrHandlerFailure = errors.New("command handler failed")
	ErrDuplicateRoute = errors.New("route already registered")
	ErrEmptyName      = errors.New("route name is empty")
	ErrNoFallback     = errors.New("router has no fallback")
)

// IsRejection reports whether err is a validation rejection.
func IsRejection(err error) bool {
	return errors.Is(err, ErrEmpty) ||
		errors.Is(err, ErrTooLong) ||
		errors.Is(err, ErrNotPermitted) ||
		errors.Is(err, ErrRateLimited)
}
