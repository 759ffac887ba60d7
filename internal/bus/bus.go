// Package bus carries runtime events from services to the reconciler.
//
// Any number of goroutines publish; exactly one consumer drains. Publishing
// never blocks: when the queue is full the oldest event is discarded and the
// overflow is counted so it stays observable.
package bus

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kostyay/kaspamon/internal/model"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 1024

// ErrClosed is returned by Publish after the bus has been closed.
var ErrClosed = errors.New("event bus closed")

// Publisher is the producer side of the bus.
type Publisher interface {
	Publish(ev model.Event) error
}

// Option configures a Bus.
type Option func(*Bus)

// WithOverflowCounter mirrors overflows into a prometheus counter.
func WithOverflowCounter(c prometheus.Counter) Option {
	return func(b *Bus) { b.overflowCounter = c }
}

// WithPublishedCounter counts accepted events.
func WithPublishedCounter(c prometheus.Counter) Option {
	return func(b *Bus) { b.publishedCounter = c }
}

// WithDepthGauge tracks the number of queued events.
func WithDepthGauge(g prometheus.Gauge) Option {
	return func(b *Bus) { b.depthGauge = g }
}

// Bus is a bounded FIFO of events with drop-oldest overflow.
type Bus struct {
	mu     sync.Mutex
	buf    []model.Event
	head   int // index of the oldest event
	size   int
	closed bool

	ready     chan struct{}
	overflows atomic.Uint64

	overflowCounter  prometheus.Counter
	publishedCounter prometheus.Counter
	depthGauge       prometheus.Gauge
}

// New creates a bus holding at most capacity undrained events.
func New(capacity int, opts ...Option) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	b := &Bus{
		buf:   make([]model.Event, capacity),
		ready: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publisher returns a producer handle. Handles are safe for concurrent use.
func (b *Bus) Publisher() Publisher {
	return publisher{b: b}
}

type publisher struct{ b *Bus }

func (p publisher) Publish(ev model.Event) error { return p.b.Publish(ev) }

// Publish enqueues ev without blocking.
func (b *Bus) Publish(ev model.Event) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}

	overflow := false
	if b.size == len(b.buf) {
		// Drop the oldest to make room.
		b.buf[b.head] = nil
		b.head = (b.head + 1) % len(b.buf)
		b.size--
		overflow = true
	}
	b.buf[(b.head+b.size)%len(b.buf)] = ev
	b.size++
	depth := b.size
	b.mu.Unlock()

	if overflow {
		b.overflows.Add(1)
		if b.overflowCounter != nil {
			b.overflowCounter.Inc()
		}
	}
	if b.publishedCounter != nil {
		b.publishedCounter.Inc()
	}
	if b.depthGauge != nil {
		b.depthGauge.Set(float64(depth))
	}

	select {
	case b.ready <- struct{}{}:
	default:
	}
	return nil
}

// Drain returns every queued event in FIFO order and empties the queue.
// It never blocks and returns nil when nothing is queued.
func (b *Bus) Drain() []model.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size == 0 {
		return nil
	}
	out := make([]model.Event, b.size)
	for i := 0; i < b.size; i++ {
		idx := (b.head + i) % len(b.buf)
		out[i] = b.buf[idx]
		b.buf[idx] = nil
	}
	b.head = 0
	b.size = 0
	if b.depthGauge != nil {
		b.depthGauge.Set(0)
	}
	return out
}

// Ready is signalled after a publish. Signals coalesce, so a receiver must
// Drain everything it finds.
func (b *Bus) Ready() <-chan struct{} {
	return b.ready
}

// Len returns the number of queued events.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Overflows returns how many events were dropped because the bus was full.
func (b *Bus) Overflows() uint64 {
	return b.overflows.Load()
}

// Close rejects further publishes. Queued events can still be drained.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

// Closed reports whether Close has been called.
func (b *Bus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
