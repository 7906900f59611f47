package client

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func collectTick(t *testing.T, ticks <-chan int) int {
	t.Helper()
	select {
	case n := <-ticks:
		return n
	case <-time.After(2 * time.Second):
		t.Fatalf("no tick arrived")
		return 0
	}
}

func expectNoTick(t *testing.T, ticks <-chan int) {
	t.Helper()
	select {
	case n := <-ticks:
		t.Fatalf("unexpected tick %d", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCountdownTicksDownAndFreezesAtZero(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticks := make(chan int, 16)
	timer := NewCountdownTimer(clock, func(n int) { ticks <- n })

	timer.Start(3)
	if timer.Remaining() != 3 {
		t.Fatalf("expected 3 remaining, got %d", timer.Remaining())
	}
	clock.BlockUntil(1)

	clock.Advance(time.Second)
	if n := collectTick(t, ticks); n != 2 {
		t.Fatalf("expected tick 2, got %d", n)
	}
	clock.Advance(time.Second)
	if n := collectTick(t, ticks); n != 1 {
		t.Fatalf("expected tick 1, got %d", n)
	}
	clock.Advance(time.Second)
	if n := collectTick(t, ticks); n != 0 {
		t.Fatalf("expected tick 0, got %d", n)
	}

	// Zero is a freeze, not an event: no further ticks, value stays 0.
	clock.Advance(5 * time.Second)
	expectNoTick(t, ticks)
	if timer.Remaining() != 0 {
		t.Fatalf("expected frozen at 0, got %d", timer.Remaining())
	}
}

func TestCountdownRestartSupersedes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticks := make(chan int, 16)
	timer := NewCountdownTimer(clock, func(n int) { ticks <- n })

	timer.Start(30)
	clock.BlockUntil(1)

	// A new Start cancels the old run before it ever ticks.
	timer.Start(5)
	if timer.Remaining() != 5 {
		t.Fatalf("expected restart at 5, got %d", timer.Remaining())
	}

	// The old run may still be winding down, so advance until the new
	// ticker registers and fires.
	deadline := time.After(2 * time.Second)
	var n int
wait:
	for {
		clock.Advance(time.Second)
		select {
		case n = <-ticks:
			break wait
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatalf("no tick from restarted countdown")
		}
	}
	if n != 4 {
		t.Fatalf("expected tick 4 from the new run, got %d", n)
	}
}

func TestCountdownStopKeepsRemaining(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticks := make(chan int, 16)
	timer := NewCountdownTimer(clock, func(n int) { ticks <- n })

	timer.Start(10)
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	if n := collectTick(t, ticks); n != 9 {
		t.Fatalf("expected tick 9, got %d", n)
	}

	timer.Stop()
	clock.Advance(3 * time.Second)
	expectNoTick(t, ticks)
	if timer.Remaining() != 9 {
		t.Fatalf("expected remaining kept at 9, got %d", timer.Remaining())
	}
}

func TestCountdownZeroSecondsNeverRuns(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticks := make(chan int, 16)
	timer := NewCountdownTimer(clock, func(n int) { ticks <- n })

	timer.Start(0)
	if timer.Remaining() != 0 {
		t.Fatalf("expected 0 remaining, got %d", timer.Remaining())
	}
	clock.Advance(time.Second)
	expectNoTick(t, ticks)

	timer.Start(-4)
	if timer.Remaining() != 0 {
		t.Fatalf("expected negative input floored to 0, got %d", timer.Remaining())
	}
}
