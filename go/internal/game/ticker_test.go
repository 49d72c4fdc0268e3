package game

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestTickerDrivesEngine(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := &recordSink{}
	e := NewEngine(sink, clock)

	if _, err := e.SetTimer(10, boolPtr(true)); err != nil {
		t.Fatalf("timer.set: %v", err)
	}
	baseline := sink.stateCount()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewTicker(e, clock).Run(ctx)
		close(done)
	}()

	// Wait for the ticker to be registered on the fake clock before
	// advancing it.
	clock.BlockUntil(1)

	for i := 1; i <= 3; i++ {
		clock.Advance(time.Second)
		want := baseline + i
		waitFor(t, func() bool { return sink.stateCount() >= want })
	}

	if snap := e.Snapshot(); snap.TimerRemaining != 7 {
		t.Errorf("timerRemaining = %d, want 7 after 3 ticks", snap.TimerRemaining)
	}

	cancel()
	<-done
}

func TestTickerStopsOnCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := &recordSink{}
	e := NewEngine(sink, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewTicker(e, clock).Run(ctx)
		close(done)
	}()

	clock.BlockUntil(1)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker did not stop on context cancellation")
	}
}
