package watcher

import (
	"slices"
	"sync"
	"time"
)

// Debouncer collects path events and emits them as one sorted batch once
// no new event has arrived for the window. Events for the same path are
// merged:
//   - CREATE + MODIFY = CREATE
//   - CREATE + DELETE = nothing
//   - MODIFY + DELETE = DELETE
//   - DELETE + CREATE = MODIFY
//
// Only paths whose merged operation is not DELETE are emitted.
type Debouncer struct {
	window  time.Duration
	pending map[string]Operation
	mu      sync.Mutex
	output  chan []string
	timer   *time.Timer
	stopped bool
}

// NewDebouncer creates a debouncer holding up to buffer unread batches.
func NewDebouncer(window time.Duration, buffer int) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]Operation),
		output:  make(chan []string, buffer),
	}
}

// Add records an operation on path and restarts the window.
func (d *Debouncer) Add(path string, op Operation) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if existing, ok := d.pending[path]; ok {
		merged, keep := coalesce(existing, op)
		if keep {
			d.pending[path] = merged
		} else {
			delete(d.pending, path)
		}
	} else {
		d.pending[path] = op
	}

	d.scheduleFlush()
}

func coalesce(first, next Operation) (Operation, bool) {
	switch {
	case first == OpCreate && next == OpModify:
		return OpCreate, true
	case first == OpCreate && next == OpDelete:
		return 0, false
	case first == OpDelete && next == OpCreate:
		return OpModify, true
	default:
		return next, true
	}
}

// scheduleFlush restarts the window. Caller holds mu.
func (d *Debouncer) scheduleFlush() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.pending) == 0 {
		return
	}

	batch := make([]string, 0, len(d.pending))
	for path, op := range d.pending {
		if op != OpDelete {
			batch = append(batch, path)
		}
	}
	if len(batch) == 0 {
		d.pending = make(map[string]Operation)
		return
	}
	slices.Sort(batch)

	select {
	case d.output <- batch:
		d.pending = make(map[string]Operation)
	default:
		// Consumer is behind; keep the events and retry after another window
		d.scheduleFlush()
	}
}

// Output returns the channel of batches. It is closed by Stop.
func (d *Debouncer) Output() <-chan []string {
	return d.output
}

// Stop discards pending events and closes the output channel.
// Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.output)
}
