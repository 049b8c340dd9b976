package directory

import (
	"context"
	"sync"
	"time"
)

// Debouncer runs only the last scheduled call once its delay has elapsed without a new one.
// Scheduling again (or stopping) stops the pending timer and cancels the context handed to a
// call that is already running.
type Debouncer struct {
	delay time.Duration

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn. fn receives a context cancelled when it is superseded and a current
// func reporting whether its results may still be applied.
func (d *Debouncer) Trigger(fn func(ctx context.Context, current func() bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	gen := d.gen
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	current := func() bool { return d.isCurrent(gen) }

	d.timer = time.AfterFunc(d.delay, func() {
		if !current() {
			return
		}
		fn(ctx, current)
	})
}

// Stop drops any pending or running call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Debouncer) stopLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Debouncer) isCurrent(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen == gen
}
