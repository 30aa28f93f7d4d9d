package service

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"medprep_backend/internal/engine"
	"medprep_backend/internal/model"
	"medprep_backend/pkg/logger"
	"medprep_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// ErrQueueFull is returned to the engine when the persistence queue cannot
// take another task. The in-memory attempt state stays authoritative; the
// write is lost until the next section or final submit rewrites it.
var ErrQueueFull = errors.New("persist queue full")

type persistTask struct {
	kind      string
	attemptID string
	run       func() error
}

// AttemptWriter is the write-side of the attempt repository the worker needs.
// Satisfied by *repository.AttemptRepository.
type AttemptWriter interface {
	SaveAnswer(attemptID, questionID string, selected int, isCorrect, marked bool) error
	SaveSectionState(attemptID string, currentSection int, remainingJSON string) error
	Finalize(attemptID string, score, total, correct, incorrect, unanswered, percentage int) error
}

// ScoreBoard is satisfied by *repository.LeaderboardRepository.
type ScoreBoard interface {
	AddScore(testID string, userID uint, score int) error
}

// PersistWorker implements engine.PersistSink. Engine calls enqueue onto a
// buffered channel and return immediately; a fixed pool of workers applies
// the writes to MySQL and the leaderboard. Ordering per attempt is preserved
// well enough because SaveAnswer writes are absolute (last write wins) and
// submits rewrite the full answer set.
type PersistWorker struct {
	AttemptRepo     AttemptWriter
	LeaderboardRepo ScoreBoard

	queue   chan persistTask
	wg      sync.WaitGroup
	stopped chan struct{}
	once    sync.Once

	// closed guards the queue against producers racing Stop; the queue
	// channel itself is never closed
	closeMu sync.RWMutex
	closed  bool

	// userByAttempt lets the worker credit the right leaderboard entry
	// without a DB read per final submit.
	mu            sync.RWMutex
	userByAttempt map[string]uint
	testByAttempt map[string]string
}

func NewPersistWorker(attemptRepo AttemptWriter, lbRepo ScoreBoard, queueSize, workers int) *PersistWorker {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if workers <= 0 {
		workers = 4
	}
	w := &PersistWorker{
		AttemptRepo:     attemptRepo,
		LeaderboardRepo: lbRepo,
		queue:           make(chan persistTask, queueSize),
		stopped:         make(chan struct{}),
		userByAttempt:   make(map[string]uint),
		testByAttempt:   make(map[string]string),
	}
	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go w.loop()
	}
	return w
}

// Track registers the attempt's owner and test so the final submit can update
// the leaderboard. Call when the runner is created, Untrack when it is evicted.
func (w *PersistWorker) Track(attemptID string, userID uint, testID string) {
	w.mu.Lock()
	w.userByAttempt[attemptID] = userID
	w.testByAttempt[attemptID] = testID
	w.mu.Unlock()
}

func (w *PersistWorker) Untrack(attemptID string) {
	w.mu.Lock()
	delete(w.userByAttempt, attemptID)
	delete(w.testByAttempt, attemptID)
	w.mu.Unlock()
}

func (w *PersistWorker) owner(attemptID string) (uint, string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.userByAttempt[attemptID], w.testByAttempt[attemptID]
}

func (w *PersistWorker) SaveAnswer(attemptID string, a engine.Answer) error {
	return w.enqueue(persistTask{
		kind:      "answer",
		attemptID: attemptID,
		run: func() error {
			return w.AttemptRepo.SaveAnswer(attemptID, a.QuestionID, a.SelectedOption, a.IsCorrect, a.MarkedForReview)
		},
	})
}

func (w *PersistWorker) SubmitSection(attemptID string, section int, answers []engine.Answer, remaining []int) error {
	times := make([]model.SectionTime, len(remaining))
	for i, sec := range remaining {
		times[i] = model.SectionTime{Section: i + 1, RemainingSeconds: sec}
	}
	remainingJSON, err := json.Marshal(times)
	if err != nil {
		return err
	}
	return w.enqueue(persistTask{
		kind:      "section",
		attemptID: attemptID,
		run: func() error {
			for _, a := range answers {
				if err := w.AttemptRepo.SaveAnswer(attemptID, a.QuestionID, a.SelectedOption, a.IsCorrect, a.MarkedForReview); err != nil {
					return err
				}
			}
			return w.AttemptRepo.SaveSectionState(attemptID, section+1, string(remainingJSON))
		},
	})
}

func (w *PersistWorker) SubmitTest(attemptID string, answers []engine.Answer, result engine.Result) error {
	userID, testID := w.owner(attemptID)
	return w.enqueue(persistTask{
		kind:      "final",
		attemptID: attemptID,
		run: func() error {
			for _, a := range answers {
				if err := w.AttemptRepo.SaveAnswer(attemptID, a.QuestionID, a.SelectedOption, a.IsCorrect, a.MarkedForReview); err != nil {
					return err
				}
			}
			score := finalScore(answers)
			if err := w.AttemptRepo.Finalize(attemptID, score, result.Total, result.Correct, result.Incorrect, result.Unanswered, result.Percentage); err != nil {
				return err
			}
			if userID != 0 && testID != "" {
				if err := w.LeaderboardRepo.AddScore(testID, userID, score); err != nil {
					logger.Log.Warn("leaderboard update failed",
						zap.String("attemptId", attemptID), zap.Error(err))
				}
			}
			return nil
		},
	})
}

// finalScore applies NEET-style marking: +4 per correct, -1 per wrong,
// unanswered neutral.
func finalScore(answers []engine.Answer) int {
	score := 0
	for _, a := range answers {
		if a.SelectedOption == 0 {
			continue
		}
		if a.IsCorrect {
			score += 4
		} else {
			score--
		}
	}
	return score
}

func (w *PersistWorker) enqueue(task persistTask) error {
	// RLock pairs with Stop's write lock so a send can never race the
	// closed transition
	w.closeMu.RLock()
	defer w.closeMu.RUnlock()
	if w.closed {
		return ErrQueueFull
	}
	select {
	case w.queue <- task:
		monitoring.PersistQueueGauge.Set(float64(len(w.queue)))
		return nil
	default:
		monitoring.PersistFailureCounter.WithLabelValues("enqueue").Inc()
		return ErrQueueFull
	}
}

func (w *PersistWorker) handle(task persistTask) {
	start := time.Now()
	if err := task.run(); err != nil {
		monitoring.PersistFailureCounter.WithLabelValues(task.kind).Inc()
		logger.Log.Warn("persist task failed",
			zap.String("kind", task.kind),
			zap.String("attemptId", task.attemptID),
			zap.Error(err))
	}
	monitoring.PersistQueueGauge.Set(float64(len(w.queue)))
	if d := time.Since(start); d > time.Second {
		logger.Log.Debug("slow persist task",
			zap.String("kind", task.kind), zap.Duration("took", d))
	}
}

func (w *PersistWorker) loop() {
	defer w.wg.Done()
	for {
		select {
		case task := <-w.queue:
			w.handle(task)
		case <-w.stopped:
			// no new producers past this point; drain what is buffered
			for {
				select {
				case task := <-w.queue:
					w.handle(task)
				default:
					return
				}
			}
		}
	}
}

// Stop rejects new tasks, drains the queue and waits for the workers.
func (w *PersistWorker) Stop() {
	w.once.Do(func() {
		w.closeMu.Lock()
		w.closed = true
		w.closeMu.Unlock()
		close(w.stopped)
	})
	w.wg.Wait()
}
