package engine

import (
	"errors"
	"sync"
	"time"
)

type Mode string

const (
	ModeExam    Mode = "exam"    // feedback withheld until final submission
	ModeRegular Mode = "regular" // per-question immediate feedback
)

type State string

const (
	StateNotStarted   State = "not_started"
	StateInProgress   State = "in_progress"
	StateFinalPending State = "final_pending" // last section submitted, explicit final submit required
	StateCompleted    State = "completed"
)

var (
	ErrAlreadyStarted    = errors.New("attempt already started")
	ErrNotInProgress     = errors.New("attempt is not in progress")
	ErrAlreadyCompleted  = errors.New("attempt already completed")
	ErrReviewUnavailable = errors.New("review not available yet")
)

// Config assembles a Runner for one attempt.
type Config struct {
	AttemptID       string
	Mode            Mode
	QuestionIDs     []string       // full test order
	AnswerKey       map[string]int // question id -> correct option
	Sections        int
	SectionDuration int // seconds per section
	TickInterval    time.Duration
	Sink            PersistSink
	OnEvent         func(Event)
	OnWarn          func(attemptID string, err error)
}

// Runner owns the lifecycle of a single attempt: the active section, the
// section countdown, and the answer cache. It is constructed fresh per
// attempt and all transitions run under one mutex, so interleavings of user
// calls, timer expiry and persistence enqueueing cannot double-fire.
type Runner struct {
	mu sync.Mutex

	attemptID string
	mode      Mode
	state     State
	current   int // 1-based, only meaningful while in progress
	duration  int

	sections  [][]string
	remaining []int // seconds per section, index = section-1
	submitted []bool

	cache  *AnswerCache
	timer  *SectionTimer
	sink   PersistSink
	review bool

	onEvent func(Event)
	onWarn  func(string, error)
}

func NewRunner(cfg Config) *Runner {
	sections := PartitionSections(cfg.QuestionIDs, cfg.Sections)

	r := &Runner{
		attemptID: cfg.AttemptID,
		mode:      cfg.Mode,
		state:     StateNotStarted,
		current:   1,
		duration:  cfg.SectionDuration,
		sections:  sections,
		remaining: make([]int, len(sections)),
		submitted: make([]bool, len(sections)),
		cache:     NewAnswerCache(cfg.AnswerKey),
		timer:     NewSectionTimer(cfg.TickInterval),
		sink:      cfg.Sink,
		onEvent:   cfg.OnEvent,
		onWarn:    cfg.OnWarn,
	}

	for i, sec := range sections {
		r.remaining[i] = cfg.SectionDuration
		for _, qid := range sec {
			r.cache.Init(qid, i+1)
		}
	}
	return r
}

// NewRunnerFromSnapshot rebuilds a live Runner from a stored snapshot so a
// refreshed client resumes mid-section. The countdown restarts from the
// snapshot's remaining seconds for the current section.
func NewRunnerFromSnapshot(cfg Config, snap Snapshot) *Runner {
	r := NewRunner(cfg)
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = snap.State
	r.review = snap.Review
	if snap.CurrentSection >= 1 {
		r.current = snap.CurrentSection
	}
	for i := range r.remaining {
		if i < len(snap.Remaining) {
			r.remaining[i] = snap.Remaining[i]
		}
		if i < len(snap.SectionSubmitted) {
			r.submitted[i] = snap.SectionSubmitted[i]
		}
	}
	r.cache.Restore(snap.Answers)

	if r.state == StateInProgress {
		r.startTimerLocked()
	}
	return r
}

// Start moves NotStarted -> InProgress(section 1) and begins the countdown.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateNotStarted {
		return ErrAlreadyStarted
	}
	r.state = StateInProgress
	r.current = 1
	r.startTimerLocked()
	r.emit(EventStarted, 1)
	return nil
}

// SelectAnswer updates the cached selection for a question in the active
// section and hands the write to the persist sink. option 0 clears the
// selection. Precondition failures are silent no-ops (applied=false); a
// non-nil error is a non-fatal persistence warning, the in-memory state is
// already applied.
func (r *Runner) SelectAnswer(questionID string, option int) (Answer, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sectionActiveLocked(questionID) || option < 0 || option > 4 {
		return Answer{}, false, nil
	}
	ans, ok := r.cache.Set(questionID, option)
	if !ok {
		return Answer{}, false, nil
	}
	return ans, true, r.sink.SaveAnswer(r.attemptID, ans)
}

// MarkForReview flips the review flag on a question in the active section.
func (r *Runner) MarkForReview(questionID string, marked bool) (Answer, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sectionActiveLocked(questionID) {
		return Answer{}, false, nil
	}
	ans, ok := r.cache.MarkForReview(questionID, marked)
	if !ok {
		return Answer{}, false, nil
	}
	return ans, true, r.sink.SaveAnswer(r.attemptID, ans)
}

func (r *Runner) sectionActiveLocked(questionID string) bool {
	if r.state != StateInProgress || r.review {
		return false
	}
	return SectionOf(r.sections, questionID) == r.current
}

// SubmitSection freezes the active section and advances to the next one,
// resetting the countdown to the default duration. On the last section it
// moves to FinalPending instead; SubmitTest must follow. Returns the new
// current section, or 0 when the final submit is now pending.
func (r *Runner) SubmitSection() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateInProgress {
		return 0, ErrNotInProgress
	}
	if r.submitted[r.current-1] {
		// a submission for this section already fired
		return r.current, nil
	}
	return r.submitSectionLocked(false)
}

func (r *Runner) submitSectionLocked(expired bool) (int, error) {
	sec := r.current
	if expired {
		r.remaining[sec-1] = 0
	} else {
		r.remaining[sec-1] = r.timer.Remaining()
	}
	r.timer.Stop()
	r.submitted[sec-1] = true

	err := r.sink.SubmitSection(r.attemptID, sec, r.cache.Section(sec), r.remainingCopyLocked())

	if sec < len(r.sections) {
		r.current = sec + 1
		r.remaining[r.current-1] = r.duration
		r.startTimerLocked()
		r.emit(EventSectionSubmitted, sec)
		return r.current, err
	}

	r.state = StateFinalPending
	r.emit(EventFinalPending, sec)
	return 0, err
}

// SubmitTest finalizes the attempt from FinalPending, or early from any
// in-progress section. Irreversible: afterwards SelectAnswer and
// SubmitSection are silent no-ops.
func (r *Runner) SubmitTest() (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case StateCompleted:
		return Compute(r.cache.All()), ErrAlreadyCompleted
	case StateNotStarted:
		return Result{}, ErrNotInProgress
	}
	return r.submitTestLocked()
}

func (r *Runner) submitTestLocked() (Result, error) {
	if r.state == StateInProgress {
		r.remaining[r.current-1] = r.timer.Remaining()
		r.submitted[r.current-1] = true
	}
	r.timer.Stop()
	r.state = StateCompleted

	result := Compute(r.cache.All())
	err := r.sink.SubmitTest(r.attemptID, r.cache.All(), result)
	r.emit(EventCompleted, r.current)
	return result, err
}

// handleExpiry runs in the timer goroutine when a section countdown reaches
// zero. An expiry racing a submission already in flight for the same section
// is suppressed: at most one submission per section. Expiry of the last
// section auto-chains into the final submit.
func (r *Runner) handleExpiry(section int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateInProgress || r.current != section || r.submitted[section-1] {
		return
	}
	r.emit(EventSectionExpired, section)

	var err error
	if section == len(r.sections) {
		r.remaining[section-1] = 0
		_, err = r.submitTestLocked()
	} else {
		_, err = r.submitSectionLocked(true)
	}
	if err != nil && r.onWarn != nil {
		r.onWarn(r.attemptID, err)
	}
}

// ToggleReview flips the display-only review flag. Valid once completed in
// exam mode; in regular mode as soon as any question has been answered.
func (r *Runner) ToggleReview() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.mode {
	case ModeRegular:
		if !r.cache.Answered() {
			return r.review, ErrReviewUnavailable
		}
	default:
		if r.state != StateCompleted {
			return r.review, ErrReviewUnavailable
		}
	}
	r.review = !r.review
	return r.review, nil
}

// Snapshot captures the full resumable state of the attempt.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	remaining := r.remainingCopyLocked()
	submitted := make([]bool, len(r.submitted))
	copy(submitted, r.submitted)
	return Snapshot{
		AttemptID:        r.attemptID,
		Mode:             r.mode,
		State:            r.state,
		CurrentSection:   r.current,
		Remaining:        remaining,
		SectionSubmitted: submitted,
		Answers:          r.cache.All(),
		Review:           r.review,
	}
}

func (r *Runner) remainingCopyLocked() []int {
	out := make([]int, len(r.remaining))
	copy(out, r.remaining)
	if r.state == StateInProgress && !r.submitted[r.current-1] {
		out[r.current-1] = r.timer.Remaining()
	}
	return out
}

func (r *Runner) startTimerLocked() {
	sec := r.current
	r.timer.Start(r.remaining[sec-1], func() { r.handleExpiry(sec) })
}

func (r *Runner) emit(t EventType, section int) {
	if r.onEvent != nil {
		r.onEvent(Event{Type: t, AttemptID: r.attemptID, Section: section})
	}
}

// Stop tears the countdown down without firing, e.g. when the hub evicts a
// runner on shutdown.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timer.Stop()
}

func (r *Runner) AttemptID() string { return r.attemptID }

func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) CurrentSection() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// SectionRemaining returns the live countdown of the active section.
func (r *Runner) SectionRemaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateInProgress {
		return r.timer.Remaining()
	}
	return r.remaining[r.current-1]
}

func (r *Runner) Answers() []Answer {
	return r.cache.All()
}

func (r *Runner) Answer(questionID string) (Answer, bool) {
	return r.cache.Get(questionID)
}

func (r *Runner) Sections() [][]string {
	return r.sections
}

func (r *Runner) Mode() Mode { return r.mode }

func (r *Runner) Review() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.review
}
