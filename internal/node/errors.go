package node

import "errors"

var (
	// ErrStartup wraps failures to launch the node process.
	ErrStartup = errors.New("node startup failed")
	// ErrNotRunning is returned when stopping a node that is not running.
	ErrNotRunning = errors.New("node is not running")
	// ErrUnmanaged is returned for lifecycle commands in remote mode.
	ErrUnmanaged = errors.New("node is not managed in remote mode")
)
