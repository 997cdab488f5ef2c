package history

import (
	"sync"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
)

// DefaultCapacity is the number of most recent interactions retained
const DefaultCapacity = 1000

// History is a bounded, time-ordered log of interaction events backed by a
// ring buffer. Once full, every insert evicts exactly the oldest event.
type History struct {
	mu   sync.Mutex
	buf  []model.Value
	head int
	size int
}

// Option configures History
type Option func(*History)

// WithCapacity sets the retention bound. Non-positive values are ignored.
func WithCapacity(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.buf = make([]model.Value, n)
		}
	}
}

// New creates an empty history
func New(opts ...Option) *History {
	h := &History{
		buf: make([]model.Value, DefaultCapacity),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Record appends ev as the newest event
func (h *History) Record(ev model.Value) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.push(ev)
}

// RecordAll appends events in order with the same per-insert eviction as
// Record, under a single lock acquisition
func (h *History) RecordAll(events []model.Value) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ev := range events {
		h.push(ev)
	}
}

func (h *History) push(ev model.Value) {
	capacity := len(h.buf)
	if h.size < capacity {
		h.buf[(h.head+h.size)%capacity] = ev
		h.size++
		return
	}
	h.buf[h.head] = ev
	h.head = (h.head + 1) % capacity
}

// Snapshot returns the retained events, oldest first
func (h *History) Snapshot() []model.Value {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]model.Value, h.size)
	capacity := len(h.buf)
	for i := 0; i < h.size; i++ {
		out[i] = h.buf[(h.head+i)%capacity]
	}
	return out
}

// Len returns the number of retained events
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

// Capacity returns the retention bound
func (h *History) Capacity() int {
	return len(h.buf)
}
