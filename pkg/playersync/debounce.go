package playersync

import (
	"sync"
	"time"
)

// SeekDebouncer collapses a burst of seek positions into a single
// emission after a quiet period, so scrubbing the timeline does not
// flood the server with intermediate positions.
type SeekDebouncer struct {
	quiet time.Duration
	emit  func(seconds float64)
	timer *time.Timer
	last  float64
	mu    sync.Mutex
}

func NewSeekDebouncer(quiet time.Duration, emit func(seconds float64)) *SeekDebouncer {
	return &SeekDebouncer{
		quiet: quiet,
		emit:  emit,
	}
}

func (d *SeekDebouncer) Seek(seconds float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.last = seconds
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() {
		d.mu.Lock()
		last := d.last
		d.mu.Unlock()

		d.emit(last)
	})
}

// Stop cancels any pending emission.
func (d *SeekDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
