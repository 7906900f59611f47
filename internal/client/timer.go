package client

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// CountdownTimer is a cancellable, restartable local clock ticking once per
// second toward a server-given deadline. It exists for display only: when it
// reaches zero it freezes there and stops ticking. It never signals "time's
// up" as a game outcome; only a server reveal may end a question.
type CountdownTimer struct {
	clock  clockwork.Clock
	onTick func(remaining int)

	mu        sync.Mutex
	remaining int
	stopCh    chan struct{}
}

// NewCountdownTimer builds a timer on the given clock. onTick, if non-nil, is
// called after every decrement with the remaining seconds; it runs off the
// timer goroutine, so consumers serialize it with their own state.
func NewCountdownTimer(clock clockwork.Clock, onTick func(remaining int)) *CountdownTimer {
	return &CountdownTimer{clock: clock, onTick: onTick}
}

// Start resets the timer to the given number of seconds and begins ticking.
// A running countdown is cancelled first; there are never two overlapping
// runs.
func (t *CountdownTimer) Start(seconds int) {
	if seconds < 0 {
		seconds = 0
	}

	t.mu.Lock()
	t.cancelLocked()
	t.remaining = seconds
	if seconds == 0 {
		t.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	t.stopCh = stop
	t.mu.Unlock()

	go t.run(stop)
}

// Stop halts the countdown immediately, keeping the current remaining value.
func (t *CountdownTimer) Stop() {
	t.mu.Lock()
	t.cancelLocked()
	t.mu.Unlock()
}

// Remaining returns the seconds left, floored at zero.
func (t *CountdownTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

func (t *CountdownTimer) cancelLocked() {
	if t.stopCh != nil {
		close(t.stopCh)
		t.stopCh = nil
	}
}

func (t *CountdownTimer) run(stop chan struct{}) {
	ticker := t.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			t.mu.Lock()
			if t.stopCh != stop {
				// Superseded by a later Start.
				t.mu.Unlock()
				return
			}
			if t.remaining > 0 {
				t.remaining--
			}
			n := t.remaining
			if n == 0 {
				// Freeze at zero; no completion signal.
				t.stopCh = nil
			}
			cb := t.onTick
			t.mu.Unlock()

			if cb != nil {
				cb(n)
			}
			if n == 0 {
				return
			}
		}
	}
}
