// Package crash persists diagnostics when a goroutine panics and terminates
// the process in a controlled way.
package crash

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Mode selects how the process terminates after a panic.
type Mode int

const (
	// Graceful is used while the TUI owns the terminal: one line pointing at
	// the diagnostics file, then exit.
	Graceful Mode = iota
	// Ungraceful is used by headless runs.
	Ungraceful
)

// String returns a human-readable name for the Mode.
func (m Mode) String() string {
	if m == Ungraceful {
		return "ungraceful"
	}
	return "graceful"
}

// Diagnostics file names per mode. FatalFile receives runtime fatal errors
// and is truncated on every Install, so it is empty unless the last run died.
const (
	GracefulFile   = "kaspamon-panic.log"
	UngracefulFile = "kaspamon-service-panic.log"
	FatalFile      = "kaspamon-fatal.log"
)

// Exit codes per mode.
const (
	GracefulExitCode   = 2
	UngracefulExitCode = 1
)

// Report is one captured panic.
type Report struct {
	Value any
	Stack []byte
	Time  time.Time
	Mode  Mode
}

// Options configures a Reporter. Exit and DefaultHook default to os.Exit and
// printing the panic to Stderr.
type Options struct {
	Mode        Mode
	Dir         string
	Logger      *zap.Logger
	Stderr      io.Writer
	Exit        func(code int)
	DefaultHook func(Report)
}

// Reporter handles panics recovered at goroutine roots.
type Reporter struct {
	opts Options
	path string
}

var (
	installOnce sync.Once
	installed   *Reporter
)

// Install creates the process-wide reporter on first use; later calls return
// the same reporter and ignore opts. It also routes fatal runtime errors,
// which cannot be recovered, into the diagnostics file.
func Install(opts Options) *Reporter {
	installOnce.Do(func() {
		installed = New(opts)
		installed.captureFatal()
	})
	return installed
}

// New creates a Reporter without making it process-wide.
func New(opts Options) *Reporter {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Exit == nil {
		opts.Exit = os.Exit
	}
	r := &Reporter{opts: opts}
	if r.opts.DefaultHook == nil {
		r.opts.DefaultHook = r.printPanic
	}

	name := GracefulFile
	if opts.Mode == Ungraceful {
		name = UngracefulFile
	}
	r.path = filepath.Join(opts.Dir, name)
	return r
}

// Path returns the diagnostics file path.
func (r *Reporter) Path() string { return r.path }

// FatalPath returns the file that receives runtime fatal errors.
func (r *Reporter) FatalPath() string { return filepath.Join(r.opts.Dir, FatalFile) }

// Mode returns the termination mode.
func (r *Reporter) Mode() Mode { return r.opts.Mode }

// Recover must be deferred directly at a goroutine root.
func (r *Reporter) Recover() {
	if v := recover(); v != nil {
		r.Handle(v, debug.Stack())
	}
}

// Go runs fn on a new goroutine guarded by Recover.
func (r *Reporter) Go(fn func()) {
	go func() {
		defer r.Recover()
		fn()
	}()
}

// Handle persists the report, runs the default hook and exits.
func (r *Reporter) Handle(value any, stack []byte) {
	report := Report{Value: value, Stack: stack, Time: time.Now(), Mode: r.opts.Mode}

	if err := r.persist(report); err != nil {
		r.opts.Logger.Error("failed to write panic report", zap.String("path", r.path), zap.Error(err))
	}
	r.opts.Logger.Error("panic", zap.Any("value", value), zap.ByteString("stack", stack))
	_ = r.opts.Logger.Sync()

	msg := fmt.Sprintf("An unexpected condition (panic) has occurred. Additional information has been written to `%s`", r.path)
	switch r.opts.Mode {
	case Ungraceful:
		r.opts.DefaultHook(report)
		_, _ = fmt.Fprintln(r.opts.Stderr, msg)
		_, _ = fmt.Fprintln(r.opts.Stderr, "Exiting...")
		r.opts.Exit(UngracefulExitCode)
	default:
		_, _ = fmt.Fprintln(r.opts.Stderr, msg)
		r.opts.DefaultHook(report)
		r.opts.Exit(GracefulExitCode)
	}
}

func (r *Reporter) persist(report Report) error {
	if r.opts.Dir != "" {
		if err := os.MkdirAll(r.opts.Dir, 0700); err != nil {
			return err
		}
	}
	return os.WriteFile(r.path, []byte(Format(report)), 0600)
}

func (r *Reporter) printPanic(report Report) {
	_, _ = fmt.Fprintf(r.opts.Stderr, "panic: %v\n\n%s\n", report.Value, report.Stack)
}

// captureFatal sends runtime fatal errors to the diagnostics file.
func (r *Reporter) captureFatal() {
	if r.opts.Dir != "" {
		if err := os.MkdirAll(r.opts.Dir, 0700); err != nil {
			return
		}
	}
	// #nosec G304 - path is built from the configured diagnostics dir
	f, err := os.OpenFile(r.FatalPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		r.opts.Logger.Warn("fatal error capture disabled", zap.Error(err))
		return
	}
	if err := debug.SetCrashOutput(f, debug.CrashOptions{}); err != nil {
		r.opts.Logger.Warn("fatal error capture disabled", zap.Error(err))
	}
	// SetCrashOutput duplicates the descriptor.
	_ = f.Close()
}

// Format renders a report for the diagnostics file.
func Format(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "time: %s\n", r.Time.UTC().Format(time.RFC3339Nano))
	fmt.Fprintf(&b, "mode: %s\n", r.Mode)
	fmt.Fprintf(&b, "panic: %v\n", r.Value)
	if err, ok := r.Value.(error); ok {
		fmt.Fprintf(&b, "error type: %T\n", err)
	}
	b.WriteString("\n")
	b.Write(r.Stack)
	if len(r.Stack) > 0 && r.Stack[len(r.Stack)-1] != '\n' {
		b.WriteString("\n")
	}
	return b.String()
}
