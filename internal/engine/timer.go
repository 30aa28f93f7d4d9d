package engine

import (
	"sync"
	"time"
)

// SectionTimer counts a section's remaining seconds down on a fixed cadence
// and fires its expiry callback exactly once when it reaches zero. Start is
// resettable; Stop halts the countdown without firing. The tick interval is
// injectable so tests can run on a millisecond cadence.
type SectionTimer struct {
	interval time.Duration

	mu        sync.Mutex
	remaining int
	running   bool
	gen       int
	stopCh    chan struct{}
}

func NewSectionTimer(interval time.Duration) *SectionTimer {
	if interval <= 0 {
		interval = time.Second
	}
	return &SectionTimer{interval: interval}
}

// Start begins (or restarts) the countdown from durationSeconds. A previous
// run is cancelled without firing its expiry.
func (t *SectionTimer) Start(durationSeconds int, onExpiry func()) {
	t.mu.Lock()
	if t.running {
		close(t.stopCh)
	}
	t.gen++
	gen := t.gen
	t.remaining = durationSeconds
	t.running = true
	t.stopCh = make(chan struct{})
	stop := t.stopCh
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				t.mu.Lock()
				if !t.running || t.gen != gen {
					t.mu.Unlock()
					return
				}
				t.remaining--
				if t.remaining > 0 {
					t.mu.Unlock()
					continue
				}
				t.remaining = 0
				t.running = false
				t.mu.Unlock()
				onExpiry()
				return
			}
		}
	}()
}

// Stop halts the countdown. The expiry callback will not fire afterwards.
func (t *SectionTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	close(t.stopCh)
}

// Remaining returns the seconds left in the current (or last) run.
func (t *SectionTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Running reports whether the countdown is active.
func (t *SectionTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
