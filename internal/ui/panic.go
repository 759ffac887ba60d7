package ui

import "runtime/debug"

// handlePanic passes a recovered value to the OnPanic hook and reports
// whether there was one. Without a hook the panic is re-raised for
// bubbletea to handle.
func (m Model) handlePanic(r any) bool {
	if r == nil {
		return false
	}
	if m.onPanic == nil {
		panic(r)
	}
	m.onPanic(r, debug.Stack())
	return true
}
