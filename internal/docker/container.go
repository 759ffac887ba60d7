// Package docker runs the node inside an existing docker container.
package docker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// logTail is how much history is replayed when attaching to the logs.
const logTail = "200"

// ErrNotRunning is returned when stopping a container that was not started.
var ErrNotRunning = errors.New("container is not running")

// dockerAPI is the subset of Docker client we need (for testing).
type dockerAPI interface {
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	Close() error
}

// Container drives a node container: start, follow logs, wait, stop.
type Container struct {
	name        string
	signal      string // SIG* name sent on stop
	stopTimeout int    // seconds before the daemon escalates to SIGKILL
	newClient   func() (dockerAPI, error)

	mu     sync.Mutex
	cli    dockerAPI
	pid    int32
	cancel context.CancelFunc
	done   chan struct{}
}

// NewContainer creates a backend for the named container.
func NewContainer(name, signal string, stopTimeoutSecs int) *Container {
	return &Container{
		name:        name,
		signal:      signal,
		stopTimeout: stopTimeoutSecs,
		newClient: func() (dockerAPI, error) {
			return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		},
	}
}

// Name returns the container name.
func (c *Container) Name() string { return c.name }

// Start starts the container if needed and follows its output.
func (c *Container) Start(ctx context.Context, lines func(string)) (<-chan int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cli != nil {
		return nil, errors.New("container already attached")
	}

	cli, err := c.newClient()
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}

	info, err := cli.ContainerInspect(ctx, c.name)
	if err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("inspect %s: %w", c.name, err)
	}
	if !isRunning(info) {
		if err := cli.ContainerStart(ctx, c.name, container.StartOptions{}); err != nil {
			_ = cli.Close()
			return nil, fmt.Errorf("start %s: %w", c.name, err)
		}
		if info, err = cli.ContainerInspect(ctx, c.name); err != nil {
			_ = cli.Close()
			return nil, fmt.Errorf("inspect %s: %w", c.name, err)
		}
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	logs, err := cli.ContainerLogs(runCtx, c.name, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
		Tail:       logTail,
	})
	if err != nil {
		cancel()
		_ = cli.Close()
		return nil, fmt.Errorf("logs %s: %w", c.name, err)
	}

	waitCh, errCh := cli.ContainerWait(runCtx, c.name, container.WaitConditionNotRunning)

	c.cli = cli
	c.pid = containerPID(info)
	c.cancel = cancel
	c.done = make(chan struct{})

	go followLogs(logs, tty(info), lines)

	exit := make(chan int, 1)
	go func(done chan struct{}) {
		code := -1
		select {
		case resp := <-waitCh:
			code = int(resp.StatusCode)
		case <-errCh:
		}
		_ = logs.Close()
		exit <- code
		close(exit)

		c.mu.Lock()
		c.cancel()
		_ = c.cli.Close()
		c.cli = nil
		c.pid = 0
		c.mu.Unlock()
		close(done)
	}(c.done)

	return exit, nil
}

// Stop stops the container with the configured signal.
func (c *Container) Stop(ctx context.Context) error {
	c.mu.Lock()
	cli, done := c.cli, c.done
	c.mu.Unlock()

	if cli == nil {
		return ErrNotRunning
	}

	opts := container.StopOptions{Signal: c.signal}
	if c.stopTimeout > 0 {
		timeout := c.stopTimeout
		opts.Timeout = &timeout
	}
	if err := cli.ContainerStop(ctx, c.name, opts); err != nil {
		return fmt.Errorf("stop %s: %w", c.name, err)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PID returns the host pid of the container's main process.
func (c *Container) PID() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pid
}

// followLogs splits the log stream into lines. Non-tty containers multiplex
// stdout and stderr with stdcopy framing.
func followLogs(logs io.Reader, isTTY bool, lines func(string)) {
	if isTTY {
		scanLines(logs, lines)
		return
	}
	pr, pw := io.Pipe()
	go func() {
		_, err := stdcopy.StdCopy(pw, pw, logs)
		_ = pw.CloseWithError(err)
	}()
	scanLines(pr, lines)
}

func scanLines(r io.Reader, lines func(string)) {
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

func isRunning(info container.InspectResponse) bool {
	return info.ContainerJSONBase != nil && info.State != nil && info.State.Running
}

func containerPID(info container.InspectResponse) int32 {
	if info.ContainerJSONBase == nil || info.State == nil {
		return 0
	}
	return int32(info.State.Pid) // #nosec G115 - pids fit in int32
}

func tty(info container.InspectResponse) bool {
	return info.Config != nil && info.Config.Tty
}
