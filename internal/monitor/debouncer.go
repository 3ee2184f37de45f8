package monitor

import (
	"sync"
	"time"
)

// MinObserverDebounce is the shortest allowed quiet period for observer
// input.
const MinObserverDebounce = 2 * time.Second

// Debouncer coalesces bursts of calls per key: fn runs once, delay after
// the last Trigger for that key, with the arguments of that last call.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// NewDebouncer creates a Debouncer. Delays below MinObserverDebounce are
// raised to it.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay < MinObserverDebounce {
		delay = MinObserverDebounce
	}
	return &Debouncer{
		delay:   delay,
		pending: make(map[string]*time.Timer),
	}
}

// Delay returns the effective quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger schedules fn for key, replacing anything already scheduled for
// it. It reports false once the debouncer is stopped.
func (d *Debouncer) Trigger(key string, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}
	if t, ok := d.pending[key]; ok {
		t.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.pending[key] != t {
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		d.mu.Unlock()
		fn()
	})
	d.pending[key] = t
	return true
}

// Pending returns how many keys are waiting to fire.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop cancels every pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	for key, t := range d.pending {
		t.Stop()
		delete(d.pending, key)
	}
}
