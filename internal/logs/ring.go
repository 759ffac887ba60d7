package logs

import "github.com/kostyay/kaspamon/internal/model"

// Log view buffer bounds. Trimming in chunks keeps the copy cost off the
// per-line path.
const (
	DefaultRingCapacity = 4096
	DefaultRingMargin   = 128
)

// Ring holds the most recent log records for the log view.
// It is not safe for concurrent use; the reconciler owns it.
type Ring struct {
	records  []model.LogRecord
	capacity int
	margin   int
	total    uint64
}

// NewRing creates a ring that keeps roughly capacity records and discards
// margin records at a time once full.
func NewRing(capacity, margin int) *Ring {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	if margin <= 0 || margin > capacity {
		margin = 1
	}
	return &Ring{
		records:  make([]model.LogRecord, 0, capacity),
		capacity: capacity,
		margin:   margin,
	}
}

// Push appends a record, trimming the oldest chunk when above capacity.
func (r *Ring) Push(rec model.LogRecord) {
	if len(r.records) >= r.capacity {
		n := copy(r.records, r.records[r.margin:])
		r.records = r.records[:n]
	}
	r.records = append(r.records, rec)
	r.total++
}

// Records returns a copy of the buffered records, oldest first.
func (r *Ring) Records() []model.LogRecord {
	out := make([]model.LogRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Tail returns a copy of the newest n records.
func (r *Ring) Tail(n int) []model.LogRecord {
	if n <= 0 {
		return nil
	}
	n = min(n, len(r.records))
	if n == 0 {
		return nil
	}
	out := make([]model.LogRecord, n)
	copy(out, r.records[len(r.records)-n:])
	return out
}

// Len returns the number of buffered records.
func (r *Ring) Len() int {
	return len(r.records)
}

// Total returns the number of records ever pushed.
func (r *Ring) Total() uint64 {
	return r.total
}
