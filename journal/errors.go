package journal

import "errors"

// Sentinel errors for journal and store operations.
var (
	ErrPersistence    = errors.New("journal persistence failed")
	ErrLoadFailed     = errors.New("load failed")
	ErrSaveFailed     = errors.New("save failed")
	ErrInvalidPayload = errors.New("invalid entry payload")
	ErrIntegrity      = errors.New("entry hash mismatch")
	ErrUnknownBackend = errors.New("unknown journal backend")
)
