package service

import (
	"errors"
	"testing"

	"medprep_backend/internal/engine"
	"medprep_backend/internal/model"
	"medprep_backend/internal/util"

	"gorm.io/gorm"
)

type fakeAttemptStore struct {
	active       *model.Attempt
	hasCompleted bool
	answers      []model.AttemptAnswer
	created      *model.Attempt
}

func (f *fakeAttemptStore) Create(a *model.Attempt, answers []model.AttemptAnswer) error {
	f.created = a
	return nil
}

func (f *fakeAttemptStore) FindByID(id string) (*model.Attempt, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAttemptStore) FindActive(userID uint, testID string) (*model.Attempt, error) {
	if f.active != nil {
		return f.active, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAttemptStore) HasCompleted(userID uint, testID string) (bool, error) {
	return f.hasCompleted, nil
}

func (f *fakeAttemptStore) Answers(attemptID string) ([]model.AttemptAnswer, error) {
	return f.answers, nil
}

func (f *fakeAttemptStore) ListByUser(userID uint, completedOnly bool, limit, offset int) ([]model.Attempt, int64, error) {
	return nil, 0, nil
}

func (f *fakeAttemptStore) CountCompletedForTest(testID string) (int64, error) {
	return 0, nil
}

func (f *fakeAttemptStore) CountScoredBelow(testID string, score int) (int64, error) {
	return 0, nil
}

type fakeTestStore struct {
	test        *model.Test
	questionIDs []string
}

func (f *fakeTestStore) FindByID(id string) (*model.Test, error) {
	if f.test == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.test, nil
}

func (f *fakeTestStore) QuestionIDs(testID string) ([]string, error) {
	return f.questionIDs, nil
}

func publishedTest(sections int) *model.Test {
	return &model.Test{
		UUIDBase:        model.UUIDBase{ID: "t1"},
		Title:           "Grand Test 1",
		Mode:            model.ModeExam,
		SectionCount:    sections,
		SectionDuration: 600,
		IsPublished:     true,
	}
}

func TestStartRejectsWhenCompletedAttemptExists(t *testing.T) {
	attempts := &fakeAttemptStore{hasCompleted: true}
	svc := &AttemptService{
		AttemptRepo: attempts,
		TestRepo:    &fakeTestStore{test: publishedTest(2), questionIDs: []string{"q1", "q2"}},
	}

	_, err := svc.Start(7, "t1")
	if !errors.Is(err, util.ErrAttemptExists) {
		t.Fatalf("Start() error = %v, want ErrAttemptExists", err)
	}
	if attempts.created != nil {
		t.Error("a new attempt row was created despite the completed one")
	}
}

func TestStartProceedsWithoutPriorCompletion(t *testing.T) {
	attempts := &fakeAttemptStore{hasCompleted: false}
	svc := &AttemptService{
		AttemptRepo: attempts,
		// empty question list stops the path right after the guard
		TestRepo: &fakeTestStore{test: publishedTest(2)},
	}

	_, err := svc.Start(7, "t1")
	if errors.Is(err, util.ErrAttemptExists) {
		t.Fatal("Start() rejected a user with no completed attempt")
	}
	if !errors.Is(err, util.ErrNotEnoughQuestions) {
		t.Fatalf("Start() error = %v, want ErrNotEnoughQuestions", err)
	}
}

func rebuildRows() []model.AttemptAnswer {
	return []model.AttemptAnswer{
		{AttemptID: "a1", QuestionID: "q1", Section: 1, SelectedOption: 2, IsCorrect: true},
		{AttemptID: "a1", QuestionID: "q2", Section: 2, SelectedOption: 1},
	}
}

func TestRebuildRestoresFinalPending(t *testing.T) {
	svc := &AttemptService{AttemptRepo: &fakeAttemptStore{answers: rebuildRows()}}
	// a section pointer one past the end marks the last section as submitted
	attempt := &model.Attempt{
		UUIDBase:         model.UUIDBase{ID: "a1"},
		CurrentSection:   3,
		SectionRemaining: `[{"section":1,"remainingSeconds":0},{"section":2,"remainingSeconds":41}]`,
	}

	snap, err := svc.snapshotFromRows(attempt, publishedTest(2))
	if err != nil {
		t.Fatalf("snapshotFromRows() error = %v", err)
	}
	if snap.State != engine.StateFinalPending {
		t.Errorf("State = %q, want %q", snap.State, engine.StateFinalPending)
	}
	if snap.CurrentSection != 2 {
		t.Errorf("CurrentSection = %d, want 2", snap.CurrentSection)
	}
	for i, submitted := range snap.SectionSubmitted {
		if !submitted {
			t.Errorf("section %d not marked submitted", i+1)
		}
	}

	runner := engine.NewRunnerFromSnapshot(engine.Config{
		AttemptID:       "a1",
		Mode:            engine.ModeExam,
		QuestionIDs:     []string{"q1", "q2"},
		AnswerKey:       map[string]int{"q1": 2, "q2": 2},
		Sections:        2,
		SectionDuration: 600,
	}, snap)
	defer runner.Stop()
	if _, applied, _ := runner.SelectAnswer("q2", 3); applied {
		t.Error("SelectAnswer re-entered a section that was already submitted")
	}
}

func TestRebuildMidProgress(t *testing.T) {
	svc := &AttemptService{AttemptRepo: &fakeAttemptStore{answers: rebuildRows()}}
	attempt := &model.Attempt{
		UUIDBase:         model.UUIDBase{ID: "a1"},
		CurrentSection:   2,
		SectionRemaining: `[{"section":1,"remainingSeconds":0},{"section":2,"remainingSeconds":410}]`,
	}

	snap, err := svc.snapshotFromRows(attempt, publishedTest(2))
	if err != nil {
		t.Fatalf("snapshotFromRows() error = %v", err)
	}
	if snap.State != engine.StateInProgress {
		t.Errorf("State = %q, want %q", snap.State, engine.StateInProgress)
	}
	if snap.CurrentSection != 2 {
		t.Errorf("CurrentSection = %d, want 2", snap.CurrentSection)
	}
	if !snap.SectionSubmitted[0] || snap.SectionSubmitted[1] {
		t.Errorf("SectionSubmitted = %v, want [true false]", snap.SectionSubmitted)
	}
	if snap.Remaining[1] != 410 {
		t.Errorf("Remaining[1] = %d, want 410", snap.Remaining[1])
	}
}

func TestRebuildCompleted(t *testing.T) {
	svc := &AttemptService{AttemptRepo: &fakeAttemptStore{answers: rebuildRows()}}
	attempt := &model.Attempt{
		UUIDBase:       model.UUIDBase{ID: "a1"},
		CurrentSection: 3,
		Completed:      true,
	}

	snap, err := svc.snapshotFromRows(attempt, publishedTest(2))
	if err != nil {
		t.Fatalf("snapshotFromRows() error = %v", err)
	}
	if snap.State != engine.StateCompleted {
		t.Errorf("State = %q, want %q", snap.State, engine.StateCompleted)
	}
}
