package collector

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/net"
)

// countEstablished counts connections in the ESTABLISHED state.
func countEstablished(conns []net.ConnectionStat) int {
	n := 0
	for _, c := range conns {
		if c.Status == "ESTABLISHED" {
			n++
		}
	}
	return n
}

// parseNetDev sums received and sent bytes over all non-loopback interfaces
// of a /proc/<pid>/net/dev table.
func parseNetDev(r io.Reader) (recv, sent uint64) {
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		if lineNum <= 2 {
			continue // Skip header lines
		}

		iface, counters, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !ok || strings.TrimSpace(iface) == "lo" {
			continue
		}

		fields := strings.Fields(counters)
		if len(fields) < 10 {
			continue
		}

		r, _ := strconv.ParseUint(fields[0], 10, 64)
		s, _ := strconv.ParseUint(fields[8], 10, 64)
		recv += r
		sent += s
	}

	return recv, sent
}
