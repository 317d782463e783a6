package kernel

import "errors"

var (
	// ErrShutdown is returned by Submit and Run once the kernel has entered
	// the SHUTDOWN state.
	ErrShutdown = errors.New("kernel is shut down")

	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("kernel already running")
)
