package docker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
)

// mockDockerAPI implements dockerAPI for testing.
type mockDockerAPI struct {
	mu       sync.Mutex
	running  bool
	tty      bool
	pid      int
	logs     []byte
	inspErr  error
	startErr error
	started  int
	stopOpts *container.StopOptions
	waitCh   chan container.WaitResponse
	errCh    chan error
	closed   bool
}

func newMock() *mockDockerAPI {
	return &mockDockerAPI{
		pid:    777,
		waitCh: make(chan container.WaitResponse, 1),
		errCh:  make(chan error, 1),
	}
}

func (m *mockDockerAPI) ContainerInspect(ctx context.Context, id string) (container.InspectResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inspErr != nil {
		return container.InspectResponse{}, m.inspErr
	}
	return container.InspectResponse{
		ContainerJSONBase: &container.ContainerJSONBase{
			ID:    "abc123",
			State: &container.State{Running: m.running, Pid: m.pid},
		},
		Config: &container.Config{Tty: m.tty},
	}, nil
}

func (m *mockDockerAPI) ContainerStart(ctx context.Context, id string, options container.StartOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.started++
	m.running = true
	return nil
}

func (m *mockDockerAPI) ContainerStop(ctx context.Context, id string, options container.StopOptions) error {
	m.mu.Lock()
	m.stopOpts = &options
	m.running = false
	m.mu.Unlock()
	m.waitCh <- container.WaitResponse{StatusCode: 137}
	return nil
}

func (m *mockDockerAPI) ContainerLogs(ctx context.Context, id string, options container.LogsOptions) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.logs)), nil
}

func (m *mockDockerAPI) ContainerWait(ctx context.Context, id string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error) {
	return m.waitCh, m.errCh
}

func (m *mockDockerAPI) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func newTestContainer(mock *mockDockerAPI) *Container {
	c := NewContainer("kaspad", "SIGKILL", 10)
	c.newClient = func() (dockerAPI, error) { return mock, nil }
	return c
}

func framed(t *testing.T, stdout, stderr string) []byte {
	t.Helper()
	var buf bytes.Buffer
	if _, err := stdcopy.NewStdWriter(&buf, stdcopy.Stdout).Write([]byte(stdout)); err != nil {
		t.Fatal(err)
	}
	if _, err := stdcopy.NewStdWriter(&buf, stdcopy.Stderr).Write([]byte(stderr)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type collected struct {
	mu    sync.Mutex
	lines []string
}

func (c *collected) add(l string) {
	c.mu.Lock()
	c.lines = append(c.lines, l)
	c.mu.Unlock()
}

func (c *collected) waitFor(t *testing.T, n int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		if len(c.lines) >= n {
			out := append([]string(nil), c.lines...)
			c.mu.Unlock()
			return out
		}
		c.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d lines", n)
	return nil
}

func TestContainer_StartsStoppedContainer(t *testing.T) {
	mock := newMock()
	mock.logs = framed(t, "line one\nline two\n", "warn line\n")
	c := newTestContainer(mock)

	lines := &collected{}
	exit, err := c.Start(context.Background(), lines.add)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.started != 1 {
		t.Errorf("started = %d, want 1", mock.started)
	}
	if c.PID() != 777 {
		t.Errorf("PID = %d, want 777", c.PID())
	}

	got := lines.waitFor(t, 3)
	want := []string{"line one", "line two", "warn line"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}

	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if code := <-exit; code != 137 {
		t.Errorf("exit code = %d, want 137", code)
	}
	if mock.stopOpts == nil || mock.stopOpts.Signal != "SIGKILL" || *mock.stopOpts.Timeout != 10 {
		t.Errorf("unexpected stop options: %+v", mock.stopOpts)
	}
	if c.PID() != 0 {
		t.Errorf("PID after exit = %d, want 0", c.PID())
	}
}

func TestContainer_AttachesToRunningTTY(t *testing.T) {
	mock := newMock()
	mock.running = true
	mock.tty = true
	mock.logs = []byte("raw tty line\r\n")
	c := newTestContainer(mock)

	lines := &collected{}
	if _, err := c.Start(context.Background(), lines.add); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.started != 0 {
		t.Errorf("running container should not be started again")
	}
	if got := lines.waitFor(t, 1); got[0] != "raw tty line" {
		t.Errorf("line = %q", got[0])
	}

	mock.waitCh <- container.WaitResponse{StatusCode: 0}
}

func TestContainer_InspectError(t *testing.T) {
	mock := newMock()
	mock.inspErr = errors.New("No such container: kaspad")
	c := newTestContainer(mock)

	_, err := c.Start(context.Background(), func(string) {})
	if err == nil {
		t.Fatal("expected error")
	}
	if !mock.closed {
		t.Error("client should be closed after a failed start")
	}
}

func TestContainer_ClientUnavailable(t *testing.T) {
	c := NewContainer("kaspad", "SIGTERM", 0)
	c.newClient = func() (dockerAPI, error) { return nil, errors.New("docker not available") }

	if _, err := c.Start(context.Background(), func(string) {}); err == nil {
		t.Fatal("expected error")
	}
}

func TestContainer_StopWhenNotStarted(t *testing.T) {
	c := newTestContainer(newMock())
	if err := c.Stop(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop = %v, want ErrNotRunning", err)
	}
}
