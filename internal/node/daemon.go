package node

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Process is a node instance the supervisor can start and stop.
type Process interface {
	// Start launches the node and streams every output line to lines.
	// The returned channel yields the exit code once and is then closed.
	Start(ctx context.Context, lines func(string)) (<-chan int, error)
	// Stop terminates the node and waits for it to exit or ctx to expire.
	Stop(ctx context.Context) error
	// PID returns the OS process id, 0 when not running.
	PID() int32
}

// Daemon runs the node binary as a child process.
type Daemon struct {
	binary string
	args   []string
	signal syscall.Signal

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
}

// NewDaemon creates a Daemon that terminates the node with sig.
func NewDaemon(binary string, args []string, sig syscall.Signal) *Daemon {
	return &Daemon{
		binary: binary,
		args:   append([]string(nil), args...),
		signal: sig,
	}
}

func (d *Daemon) Start(ctx context.Context, lines func(string)) (<-chan int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cmd != nil {
		return nil, errors.New("daemon already running")
	}

	path, err := exec.LookPath(d.binary)
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", d.binary, err)
	}

	// #nosec G204 - binary and args come from the user's own settings
	cmd := exec.Command(path, d.args...)
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		return nil, fmt.Errorf("start %s: %w", path, err)
	}

	d.cmd = cmd
	d.done = make(chan struct{})
	exit := make(chan int, 1)

	scanned := make(chan struct{})
	go func() {
		defer close(scanned)
		readLines(pr, lines)
	}()

	go func(done chan struct{}) {
		waitErr := cmd.Wait()
		_ = pw.Close()
		<-scanned

		// The daemon is idle before anyone observes the exit code.
		d.mu.Lock()
		d.cmd = nil
		d.mu.Unlock()
		close(done)

		exit <- exitCode(cmd, waitErr)
		close(exit)
	}(d.done)

	return exit, nil
}

func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	cmd, done := d.cmd, d.done
	d.mu.Unlock()

	if cmd == nil {
		return ErrNotRunning
	}

	// An already finished process is reported by the wait goroutine.
	if err := cmd.Process.Signal(d.signal); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("signal node: %w", err)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		return ctx.Err()
	}
}

func (d *Daemon) PID() int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cmd == nil || d.cmd.Process == nil {
		return 0
	}
	return int32(d.cmd.Process.Pid) // #nosec G115 - pids fit in int32
}

// readLines delivers r line by line without a length limit until EOF.
func readLines(r io.Reader, lines func(string)) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); line != "" {
			lines(line)
		}
		if err != nil {
			return
		}
	}
}

func exitCode(cmd *exec.Cmd, waitErr error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if waitErr != nil {
		return -1
	}
	return 0
}
