// Package notify queues transient user notifications from the services and
// hands them to the rendering side once per tick.
package notify

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kostyay/kaspamon/internal/model"
)

// DefaultCapacity bounds the queue when no capacity is configured.
const DefaultCapacity = 64

// Pusher is the producer side of the queue.
type Pusher interface {
	Push(n model.Notification)
}

// Queue is a bounded multi-producer notification queue.
// When full, the oldest pending notification is dropped.
type Queue struct {
	mu       sync.Mutex
	pending  []model.Notification
	capacity int
	dropped  atomic.Uint64
	counter  prometheus.Counter
}

// NewQueue creates a queue. counter may be nil.
func NewQueue(capacity int, counter prometheus.Counter) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		pending:  make([]model.Notification, 0, capacity),
		capacity: capacity,
		counter:  counter,
	}
}

// Push enqueues n without blocking.
func (q *Queue) Push(n model.Notification) {
	q.mu.Lock()
	if len(q.pending) >= q.capacity {
		q.pending = append(q.pending[:0], q.pending[1:]...)
		q.dropped.Add(1)
		if q.counter != nil {
			q.counter.Inc()
		}
	}
	q.pending = append(q.pending, n)
	q.mu.Unlock()
}

// Drain returns all pending notifications in FIFO order. Ownership passes to
// the caller.
func (q *Queue) Drain() []model.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}
	out := q.pending
	q.pending = make([]model.Notification, 0, q.capacity)
	return out
}

// Len returns the number of pending notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Dropped returns the number of notifications lost to overflow.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
