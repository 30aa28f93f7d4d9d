package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

const testTick = 2 * time.Millisecond

func TestSectionTimerExpiresOnce(t *testing.T) {
	var fired int32
	timer := NewSectionTimer(testTick)
	timer.Start(3, func() { atomic.AddInt32(&fired, 1) })

	time.Sleep(20 * testTick)
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Fatalf("expiry fired %d times, want exactly 1", got)
	}
	if timer.Running() {
		t.Error("timer still running after expiry")
	}
	if timer.Remaining() != 0 {
		t.Errorf("remaining %d after expiry, want 0", timer.Remaining())
	}
}

func TestSectionTimerStopSuppressesExpiry(t *testing.T) {
	var fired int32
	timer := NewSectionTimer(testTick)
	timer.Start(1000, func() { atomic.AddInt32(&fired, 1) })

	time.Sleep(3 * testTick)
	timer.Stop()
	time.Sleep(10 * testTick)

	if got := atomic.LoadInt32(&fired); got != 0 {
		t.Fatalf("expiry fired %d times after Stop, want 0", got)
	}
	if timer.Running() {
		t.Error("timer still running after Stop")
	}
}

func TestSectionTimerCountsDown(t *testing.T) {
	timer := NewSectionTimer(testTick)
	timer.Start(1000, func() {})
	defer timer.Stop()

	time.Sleep(10 * testTick)
	if rem := timer.Remaining(); rem >= 1000 {
		t.Errorf("remaining %d, expected countdown below 1000", rem)
	}
}

func TestSectionTimerRestartCancelsPreviousRun(t *testing.T) {
	var firstFired, secondFired int32
	timer := NewSectionTimer(testTick)
	timer.Start(5, func() { atomic.AddInt32(&firstFired, 1) })

	// restart before the first run expires
	time.Sleep(testTick)
	timer.Start(3, func() { atomic.AddInt32(&secondFired, 1) })

	time.Sleep(20 * testTick)
	if got := atomic.LoadInt32(&firstFired); got != 0 {
		t.Errorf("cancelled run fired %d times, want 0", got)
	}
	if got := atomic.LoadInt32(&secondFired); got != 1 {
		t.Errorf("restarted run fired %d times, want 1", got)
	}
}

func TestSectionTimerStopIdempotent(t *testing.T) {
	timer := NewSectionTimer(testTick)
	timer.Start(100, func() {})
	timer.Stop()
	timer.Stop() // second stop must not panic
}
