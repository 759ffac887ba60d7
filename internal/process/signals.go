// Package process maps termination signal names for the managed node.
package process

import (
	"fmt"
	"strings"
	"syscall"
)

// SignalMap maps signal names to syscall.Signal values.
// Supports both full names (SIGTERM) and short names (TERM).
var SignalMap = map[string]syscall.Signal{
	"SIGTERM": syscall.SIGTERM,
	"SIGKILL": syscall.SIGKILL,
	"SIGINT":  syscall.SIGINT,
	"TERM":    syscall.SIGTERM,
	"KILL":    syscall.SIGKILL,
	"INT":     syscall.SIGINT,
	"9":       syscall.SIGKILL,
	"15":      syscall.SIGTERM,
}

// ParseSignal resolves a case-insensitive signal name.
func ParseSignal(name string) (syscall.Signal, error) {
	sig, ok := SignalMap[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown signal: %s", name)
	}
	return sig, nil
}

// SignalName returns the canonical SIG* name used by the docker API.
func SignalName(sig syscall.Signal) string {
	switch sig {
	case syscall.SIGKILL:
		return "SIGKILL"
	case syscall.SIGINT:
		return "SIGINT"
	default:
		return "SIGTERM"
	}
}
