package notify

import (
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/kostyay/kaspamon/internal/model"
)

// Limiter forwards notifications to a Pusher at a bounded rate and counts
// what it suppresses. It keeps a noisy log stream from flooding the UI.
type Limiter struct {
	next       Pusher
	limiter    *rate.Limiter
	suppressed atomic.Uint64
}

// NewLimiter allows perSecond notifications on average with the given burst.
// A non-positive perSecond disables limiting.
func NewLimiter(next Pusher, perSecond float64, burst int) *Limiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Push forwards n if the budget allows it.
func (l *Limiter) Push(n model.Notification) {
	if !l.limiter.Allow() {
		l.suppressed.Add(1)
		return
	}
	l.next.Push(n)
}

// Suppressed returns the number of notifications dropped by the limiter.
func (l *Limiter) Suppressed() uint64 {
	return l.suppressed.Load()
}
