// Package collector samples resource usage of the node process.
package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/kostyay/kaspamon/internal/model"
)

// Sampler reads CPU, memory, peer and network counters for a pid.
// CPU percent is measured between consecutive samples of the same pid, so
// the first sample of a process reports 0.
type Sampler struct {
	mu    sync.Mutex
	procs map[int32]*process.Process
	now   func() time.Time
}

// New returns a Sampler.
func New() *Sampler {
	return &Sampler{
		procs: make(map[int32]*process.Process),
		now:   time.Now,
	}
}

// Sample collects one usage sample for pid.
func (s *Sampler) Sample(ctx context.Context, pid int32) (model.NodeUsage, error) {
	proc, err := s.process(ctx, pid)
	if err != nil {
		return model.NodeUsage{}, err
	}

	usage := model.NodeUsage{PID: pid, SampledAt: s.now()}

	cpu, err := proc.PercentWithContext(ctx, 0)
	if err != nil {
		s.forget(pid)
		return model.NodeUsage{}, fmt.Errorf("cpu of %d: %w", pid, err)
	}
	usage.CPUPercent = cpu

	if mem, err := proc.MemoryInfoWithContext(ctx); err == nil {
		usage.RSSBytes = mem.RSS
	}

	if conns, err := net.ConnectionsPidWithContext(ctx, "tcp", pid); err == nil {
		usage.Peers = countEstablished(conns)
	}

	usage.RecvBytes, usage.SentBytes = readNetIO(pid)
	return usage, nil
}

// process returns the cached handle for pid so CPU deltas carry over.
func (s *Sampler) process(ctx context.Context, pid int32) (*process.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.procs[pid]; ok {
		return p, nil
	}
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("process %d: %w", pid, err)
	}
	// One node at a time; drop handles of previous runs.
	clear(s.procs)
	s.procs[pid] = p
	return p, nil
}

func (s *Sampler) forget(pid int32) {
	s.mu.Lock()
	delete(s.procs, pid)
	s.mu.Unlock()
}
