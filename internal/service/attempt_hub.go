package service

import (
	"sync"

	"medprep_backend/internal/engine"
	"medprep_backend/internal/repository"
	"medprep_backend/pkg/logger"
	"medprep_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// AttemptHub owns every live attempt runner on this server. Runners are added
// when an attempt starts or resumes, and evicted when it completes or the
// server shuts down. Each event mirrors the runner's snapshot into Redis so a
// restarted server (or another instance behind the same balancer) can rebuild
// the runner mid-section.
type AttemptHub struct {
	mu      sync.RWMutex
	runners map[string]*engine.Runner

	SnapshotRepo *repository.SnapshotRepository
	Monitor      *MonitorHub
}

func NewAttemptHub(snapshotRepo *repository.SnapshotRepository, monitor *MonitorHub) *AttemptHub {
	return &AttemptHub{
		runners:      make(map[string]*engine.Runner),
		SnapshotRepo: snapshotRepo,
		Monitor:      monitor,
	}
}

func (h *AttemptHub) Get(attemptID string) (*engine.Runner, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.runners[attemptID]
	return r, ok
}

func (h *AttemptHub) Add(r *engine.Runner) {
	h.mu.Lock()
	h.runners[r.AttemptID()] = r
	count := len(h.runners)
	h.mu.Unlock()
	monitoring.LiveAttemptsGauge.Set(float64(count))
}

func (h *AttemptHub) Remove(attemptID string) {
	h.mu.Lock()
	r, ok := h.runners[attemptID]
	if ok {
		delete(h.runners, attemptID)
	}
	count := len(h.runners)
	h.mu.Unlock()
	if ok {
		r.Stop()
	}
	monitoring.LiveAttemptsGauge.Set(float64(count))
}

// OnEvent is wired as the runner's event callback. It mirrors state to Redis,
// forwards the event to the live monitor, and evicts completed runners.
func (h *AttemptHub) OnEvent(userID uint, testID string) func(engine.Event) {
	return func(e engine.Event) {
		if e.Type == engine.EventSectionExpired {
			monitoring.SectionExpiryCounter.Inc()
		}

		// snapshot in a goroutine: the runner still holds its mutex while
		// emitting, so calling back into runner.Snapshot here would deadlock
		go func() {
			if r, ok := h.Get(e.AttemptID); ok {
				if err := h.SnapshotRepo.Save(r.Snapshot()); err != nil {
					logger.Log.Warn("snapshot save failed",
						zap.String("attemptId", e.AttemptID), zap.Error(err))
				}
			}
			if h.Monitor != nil {
				h.Monitor.BroadcastAttemptEvent(e, userID, testID)
			}
			if e.Type == engine.EventCompleted {
				h.Remove(e.AttemptID)
				h.SnapshotRepo.Delete(e.AttemptID)
			}
		}()
	}
}

// SaveSnapshot mirrors one runner's current state, used after answer writes
// where no lifecycle event fires.
func (h *AttemptHub) SaveSnapshot(attemptID string) {
	if r, ok := h.Get(attemptID); ok {
		if err := h.SnapshotRepo.Save(r.Snapshot()); err != nil {
			logger.Log.Warn("snapshot save failed",
				zap.String("attemptId", attemptID), zap.Error(err))
		}
	}
}

// Stop snapshots and stops every live runner. Called on shutdown, after the
// HTTP server has stopped accepting requests and before the persist queue
// drains.
func (h *AttemptHub) Stop() {
	h.mu.Lock()
	runners := make([]*engine.Runner, 0, len(h.runners))
	for _, r := range h.runners {
		runners = append(runners, r)
	}
	h.runners = make(map[string]*engine.Runner)
	h.mu.Unlock()

	for _, r := range runners {
		if err := h.SnapshotRepo.Save(r.Snapshot()); err != nil {
			logger.Log.Warn("snapshot save on shutdown failed",
				zap.String("attemptId", r.AttemptID()), zap.Error(err))
		}
		r.Stop()
	}
	monitoring.LiveAttemptsGauge.Set(0)
	logger.Log.Info("attempt hub stopped", zap.Int("snapshottedRunners", len(runners)))
}
