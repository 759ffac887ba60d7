package ui

import "time"

// TickMsg is sent on each refresh interval.
type TickMsg time.Time

// NodeActionMsg reports the outcome of a node command.
type NodeActionMsg struct {
	Action string
	Err    error
}
