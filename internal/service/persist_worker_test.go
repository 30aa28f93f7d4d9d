package service

import (
	"errors"
	"sync"
	"testing"

	"medprep_backend/internal/engine"
)

type fakeAttemptWriter struct {
	mu       sync.Mutex
	saves    int
	sections int
	finals   int
}

func (f *fakeAttemptWriter) SaveAnswer(attemptID, questionID string, selected int, isCorrect, marked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	return nil
}

func (f *fakeAttemptWriter) SaveSectionState(attemptID string, currentSection int, remainingJSON string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sections++
	return nil
}

func (f *fakeAttemptWriter) Finalize(attemptID string, score, total, correct, incorrect, unanswered, percentage int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finals++
	return nil
}

func (f *fakeAttemptWriter) counts() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves, f.sections, f.finals
}

type fakeScoreBoard struct {
	mu     sync.Mutex
	scores int
}

func (f *fakeScoreBoard) AddScore(testID string, userID uint, score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores++
	return nil
}

func TestFinalScoreMarkingScheme(t *testing.T) {
	tests := []struct {
		name    string
		answers []engine.Answer
		want    int
	}{
		{"empty", nil, 0},
		{
			"all correct",
			[]engine.Answer{
				{QuestionID: "q1", SelectedOption: 2, IsCorrect: true},
				{QuestionID: "q2", SelectedOption: 1, IsCorrect: true},
			},
			8,
		},
		{
			"wrong answers cost a mark",
			[]engine.Answer{
				{QuestionID: "q1", SelectedOption: 2, IsCorrect: true},
				{QuestionID: "q2", SelectedOption: 3, IsCorrect: false},
				{QuestionID: "q3", SelectedOption: 1, IsCorrect: false},
			},
			2,
		},
		{
			"unanswered is neutral",
			[]engine.Answer{
				{QuestionID: "q1", SelectedOption: 0, IsCorrect: false},
				{QuestionID: "q2", SelectedOption: 4, IsCorrect: true},
			},
			4,
		},
		{
			"all wrong goes negative",
			[]engine.Answer{
				{QuestionID: "q1", SelectedOption: 1, IsCorrect: false},
				{QuestionID: "q2", SelectedOption: 1, IsCorrect: false},
			},
			-2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := finalScore(tt.answers); got != tt.want {
				t.Errorf("finalScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPersistWorkerDrainsQueueOnStop(t *testing.T) {
	writer := &fakeAttemptWriter{}
	w := NewPersistWorker(writer, &fakeScoreBoard{}, 64, 2)

	const n = 20
	for i := 0; i < n; i++ {
		if err := w.SaveAnswer("a1", engine.Answer{QuestionID: "q1", SelectedOption: 2}); err != nil {
			t.Fatalf("SaveAnswer() error = %v", err)
		}
	}
	w.Stop()

	saves, _, _ := writer.counts()
	if saves != n {
		t.Errorf("writes applied after Stop = %d, want %d", saves, n)
	}
	if err := w.SaveAnswer("a1", engine.Answer{QuestionID: "q1", SelectedOption: 3}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("SaveAnswer() after Stop = %v, want ErrQueueFull", err)
	}
	if saves, _, _ = writer.counts(); saves != n {
		t.Errorf("write slipped in after Stop, got %d", saves)
	}
}

func TestPersistWorkerEnqueueRacingStop(t *testing.T) {
	writer := &fakeAttemptWriter{}
	w := NewPersistWorker(writer, &fakeScoreBoard{}, 16, 2)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// hammer until the worker shuts the door; a send racing Stop
			// must be rejected, never panic
			for i := 0; i < 10000; i++ {
				if err := w.SaveAnswer("a1", engine.Answer{QuestionID: "q1", SelectedOption: 1}); errors.Is(err, ErrQueueFull) {
					return
				}
			}
		}()
	}
	w.Stop()
	wg.Wait()

	if err := w.SubmitTest("a1", nil, engine.Result{}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("SubmitTest() after Stop = %v, want ErrQueueFull", err)
	}
}
