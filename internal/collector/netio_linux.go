//go:build linux

package collector

import (
	"os"
	"strconv"
)

// readNetIO reads the network namespace counters of pid. For a containerized
// node this is the container's traffic.
func readNetIO(pid int32) (recv, sent uint64) {
	f, err := os.Open("/proc/" + strconv.Itoa(int(pid)) + "/net/dev")
	if err != nil {
		return 0, 0
	}
	defer func() { _ = f.Close() }()
	return parseNetDev(f)
}
