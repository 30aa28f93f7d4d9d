package engine

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeSink records everything the runner hands over for persistence and can
// be told to fail, mimicking a down backend.
type fakeSink struct {
	mu             sync.Mutex
	savedAnswers   []Answer
	sectionSubmits []int
	testSubmits    int
	lastResult     Result
	failWith       error
}

func (s *fakeSink) SaveAnswer(attemptID string, a Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.savedAnswers = append(s.savedAnswers, a)
	return nil
}

func (s *fakeSink) SubmitSection(attemptID string, section int, answers []Answer, remaining []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.sectionSubmits = append(s.sectionSubmits, section)
	return nil
}

func (s *fakeSink) SubmitTest(attemptID string, answers []Answer, result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.testSubmits++
	s.lastResult = result
	return nil
}

func (s *fakeSink) submitCounts() (sections []int, tests int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.sectionSubmits...), s.testSubmits
}

func newTestRunner(t *testing.T, sink *fakeSink, questions, sections, duration int) *Runner {
	t.Helper()
	ids := makeIDs(questions)
	key := make(map[string]int, questions)
	for _, id := range ids {
		key[id] = 2 // option 2 is always correct in these tests
	}
	return NewRunner(Config{
		AttemptID:       "attempt-1",
		Mode:            ModeExam,
		QuestionIDs:     ids,
		AnswerKey:       key,
		Sections:        sections,
		SectionDuration: duration,
		TickInterval:    testTick,
		Sink:            sink,
	})
}

func TestRunnerStartOnce(t *testing.T) {
	r := newTestRunner(t, &fakeSink{}, 4, 2, 1000)
	defer r.Stop()

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Start(); err != ErrAlreadyStarted {
		t.Fatalf("second start: got %v, want ErrAlreadyStarted", err)
	}
	if r.State() != StateInProgress || r.CurrentSection() != 1 {
		t.Fatalf("state %s section %d after start", r.State(), r.CurrentSection())
	}
}

func TestRunnerSelectAnswerCorrectness(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRunner(t, sink, 2, 1, 1000)
	defer r.Stop()
	r.Start()

	ans, applied, err := r.SelectAnswer("q1", 2)
	if err != nil || !applied {
		t.Fatalf("select: applied=%v err=%v", applied, err)
	}
	if !ans.IsCorrect {
		t.Error("option 2 should be correct")
	}

	ans, _, _ = r.SelectAnswer("q1", 1)
	if ans.IsCorrect {
		t.Error("option 1 should be incorrect")
	}

	// clear selection
	ans, applied, _ = r.SelectAnswer("q1", 0)
	if !applied || ans.SelectedOption != 0 || ans.IsCorrect {
		t.Fatalf("clear: %+v applied=%v", ans, applied)
	}
}

func TestRunnerSelectAnswerOutsideActiveSection(t *testing.T) {
	r := newTestRunner(t, &fakeSink{}, 4, 2, 1000)
	defer r.Stop()
	r.Start()

	// q3 belongs to section 2 while section 1 is active
	if _, applied, _ := r.SelectAnswer("q3", 1); applied {
		t.Error("answer outside the active section was applied")
	}
}

func TestRunnerSubmitSectionAdvancesAndResetsTimer(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRunner(t, sink, 10, 5, 1000)
	defer r.Stop()
	r.Start()

	r.SelectAnswer("q1", 2)
	r.SelectAnswer("q2", 3)

	next, err := r.SubmitSection()
	if err != nil {
		t.Fatalf("submit section: %v", err)
	}
	if next != 2 || r.CurrentSection() != 2 {
		t.Fatalf("current section %d, want 2", r.CurrentSection())
	}
	if rem := r.SectionRemaining(); rem > 1000 || rem < 990 {
		t.Errorf("timer not reset to default duration: remaining %d", rem)
	}

	sections, _ := sink.submitCounts()
	if len(sections) != 1 || sections[0] != 1 {
		t.Fatalf("sink got section submits %v, want [1]", sections)
	}
}

func TestRunnerLastSectionGoesFinalPending(t *testing.T) {
	r := newTestRunner(t, &fakeSink{}, 2, 2, 1000)
	defer r.Stop()
	r.Start()

	r.SubmitSection()
	next, err := r.SubmitSection()
	if err != nil {
		t.Fatalf("last section submit: %v", err)
	}
	if next != 0 || r.State() != StateFinalPending {
		t.Fatalf("state %s next %d, want final_pending", r.State(), next)
	}
}

func TestRunnerCompletedIsTerminal(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRunner(t, sink, 4, 2, 1000)
	defer r.Stop()
	r.Start()
	r.SelectAnswer("q1", 2)

	if _, err := r.SubmitTest(); err != nil {
		t.Fatalf("submit test: %v", err)
	}
	if r.State() != StateCompleted {
		t.Fatalf("state %s, want completed", r.State())
	}

	// every mutation after completion must be a no-op
	before := r.Answers()
	if _, applied, _ := r.SelectAnswer("q2", 1); applied {
		t.Error("selectAnswer applied after completion")
	}
	if _, err := r.SubmitSection(); err != ErrNotInProgress {
		t.Errorf("submitSection after completion: %v", err)
	}
	if _, err := r.SubmitTest(); err != ErrAlreadyCompleted {
		t.Errorf("second submitTest: %v", err)
	}
	after := r.Answers()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("answer state changed after completion: %+v -> %+v", before[i], after[i])
		}
	}

	if _, tests := sink.submitCounts(); tests != 1 {
		t.Fatalf("sink got %d test submits, want 1", tests)
	}
}

func TestRunnerLastSectionExpiryAutoSubmitsOnce(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRunner(t, sink, 2, 1, 3) // single section, 3 ticks
	defer r.Stop()
	r.Start()
	r.SelectAnswer("q1", 2)

	time.Sleep(30 * testTick)

	if r.State() != StateCompleted {
		t.Fatalf("state %s after expiry, want completed", r.State())
	}
	if _, tests := sink.submitCounts(); tests != 1 {
		t.Fatalf("expiry triggered %d final submits, want exactly 1", tests)
	}
}

func TestRunnerMidSectionExpiryAdvances(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRunner(t, sink, 4, 2, 3)
	defer r.Stop()
	r.Start()

	time.Sleep(30 * testTick)

	if r.CurrentSection() != 2 {
		t.Fatalf("section %d after first expiry, want 2", r.CurrentSection())
	}
	sections, _ := sink.submitCounts()
	if len(sections) < 1 || sections[0] != 1 {
		t.Fatalf("sink section submits %v", sections)
	}
}

func TestRunnerExpirySuppressedAfterManualSubmit(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRunner(t, sink, 4, 2, 5)
	defer r.Stop()
	r.Start()

	r.SubmitSection()
	// let more than the old section's duration elapse; the stale expiry
	// must not submit section 1 a second time
	time.Sleep(8 * testTick)

	sections, _ := sink.submitCounts()
	count := 0
	for _, s := range sections {
		if s == 1 {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("section 1 submitted %d times, want 1", count)
	}
}

func TestRunnerPersistFailureKeepsOptimisticState(t *testing.T) {
	sink := &fakeSink{failWith: errors.New("backend down")}
	r := newTestRunner(t, sink, 2, 1, 1000)
	defer r.Stop()
	r.Start()

	ans, applied, err := r.SelectAnswer("q1", 2)
	if !applied {
		t.Fatal("selection not applied")
	}
	if err == nil {
		t.Fatal("expected a persistence warning")
	}
	// failure must not roll back the in-memory value
	got, _ := r.Answer("q1")
	if got != ans || got.SelectedOption != 2 {
		t.Fatalf("optimistic state lost: %+v", got)
	}
}

func TestRunnerToggleReviewExamMode(t *testing.T) {
	r := newTestRunner(t, &fakeSink{}, 2, 1, 1000)
	defer r.Stop()
	r.Start()

	if _, err := r.ToggleReview(); err != ErrReviewUnavailable {
		t.Fatalf("review before completion: %v", err)
	}
	r.SubmitTest()
	on, err := r.ToggleReview()
	if err != nil || !on {
		t.Fatalf("review after completion: on=%v err=%v", on, err)
	}
}

func TestRunnerToggleReviewRegularMode(t *testing.T) {
	ids := makeIDs(2)
	r := NewRunner(Config{
		AttemptID:       "attempt-r",
		Mode:            ModeRegular,
		QuestionIDs:     ids,
		AnswerKey:       map[string]int{"q1": 1, "q2": 1},
		Sections:        1,
		SectionDuration: 1000,
		TickInterval:    testTick,
		Sink:            &fakeSink{},
	})
	defer r.Stop()
	r.Start()

	if _, err := r.ToggleReview(); err != ErrReviewUnavailable {
		t.Fatalf("review with nothing answered: %v", err)
	}
	r.SelectAnswer("q1", 1)
	if on, err := r.ToggleReview(); err != nil || !on {
		t.Fatalf("review after answering: on=%v err=%v", on, err)
	}
	// review mode blocks further answering until toggled off
	if _, applied, _ := r.SelectAnswer("q2", 1); applied {
		t.Error("selectAnswer applied while in review mode")
	}
}

func TestRunnerSnapshotRoundTrip(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRunner(t, sink, 4, 2, 1000)
	r.Start()
	r.SelectAnswer("q1", 2)
	r.SelectAnswer("q2", 1)
	r.SubmitSection()
	snap := r.Snapshot()
	r.Stop()

	ids := makeIDs(4)
	key := map[string]int{}
	for _, id := range ids {
		key[id] = 2
	}
	restored := NewRunnerFromSnapshot(Config{
		AttemptID:       "attempt-1",
		Mode:            ModeExam,
		QuestionIDs:     ids,
		AnswerKey:       key,
		Sections:        2,
		SectionDuration: 1000,
		TickInterval:    testTick,
		Sink:            sink,
	}, snap)
	defer restored.Stop()

	if restored.State() != StateInProgress || restored.CurrentSection() != 2 {
		t.Fatalf("restored state %s section %d", restored.State(), restored.CurrentSection())
	}
	a1, _ := restored.Answer("q1")
	if a1.SelectedOption != 2 || !a1.IsCorrect {
		t.Fatalf("restored answer q1: %+v", a1)
	}
	// section 1 stays closed after resume
	if _, applied, _ := restored.SelectAnswer("q1", 3); applied {
		t.Error("answered a submitted section after resume")
	}
}

func TestRunnerEventsEmitted(t *testing.T) {
	var mu sync.Mutex
	var events []EventType
	ids := makeIDs(2)
	r := NewRunner(Config{
		AttemptID:       "attempt-e",
		Mode:            ModeExam,
		QuestionIDs:     ids,
		AnswerKey:       map[string]int{"q1": 1, "q2": 1},
		Sections:        2,
		SectionDuration: 1000,
		TickInterval:    testTick,
		Sink:            &fakeSink{},
		OnEvent: func(e Event) {
			mu.Lock()
			events = append(events, e.Type)
			mu.Unlock()
		},
	})
	defer r.Stop()

	r.Start()
	r.SubmitSection()
	r.SubmitSection()
	r.SubmitTest()

	mu.Lock()
	defer mu.Unlock()
	want := []EventType{EventStarted, EventSectionSubmitted, EventFinalPending, EventCompleted}
	if len(events) != len(want) {
		t.Fatalf("events %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events %v, want %v", events, want)
		}
	}
}
