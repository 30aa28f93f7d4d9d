package engine

import (
	"reflect"
	"testing"
)

func TestComputeEmpty(t *testing.T) {
	r := Compute(nil)
	if r.Total != 0 || r.Percentage != 0 {
		t.Fatalf("empty input: got %+v, want all zero", r)
	}
}

func TestComputeCounts(t *testing.T) {
	answers := []Answer{
		{QuestionID: "q1", SelectedOption: 2, IsCorrect: true},
		{QuestionID: "q2", SelectedOption: 1, IsCorrect: false},
		{QuestionID: "q3", SelectedOption: 0},
		{QuestionID: "q4", SelectedOption: 3, IsCorrect: true},
	}

	r := Compute(answers)
	want := Result{Total: 4, Answered: 3, Correct: 2, Incorrect: 1, Unanswered: 1, Percentage: 50}
	if !reflect.DeepEqual(r, want) {
		t.Fatalf("got %+v, want %+v", r, want)
	}
}

func TestComputeIdempotent(t *testing.T) {
	answers := []Answer{
		{QuestionID: "q1", SelectedOption: 1, IsCorrect: true},
		{QuestionID: "q2", SelectedOption: 0},
	}
	first := Compute(answers)
	second := Compute(answers)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("compute not idempotent: %+v vs %+v", first, second)
	}
}

func TestComputePercentageBounds(t *testing.T) {
	for correct := 0; correct <= 30; correct++ {
		answers := make([]Answer, 30)
		for i := range answers {
			answers[i] = Answer{QuestionID: "q", SelectedOption: 1, IsCorrect: i < correct}
		}
		r := Compute(answers)
		if r.Percentage < 0 || r.Percentage > 100 {
			t.Fatalf("correct=%d: percentage %d out of [0,100]", correct, r.Percentage)
		}
	}
}

func TestComputeRounding(t *testing.T) {
	// 1 of 3 correct -> 33.33 rounds to 33; 2 of 3 -> 66.67 rounds to 67
	answers := []Answer{
		{QuestionID: "q1", SelectedOption: 1, IsCorrect: true},
		{QuestionID: "q2", SelectedOption: 1},
		{QuestionID: "q3", SelectedOption: 1},
	}
	if got := Compute(answers).Percentage; got != 33 {
		t.Errorf("1/3: percentage %d, want 33", got)
	}
	answers[1].IsCorrect = true
	if got := Compute(answers).Percentage; got != 67 {
		t.Errorf("2/3: percentage %d, want 67", got)
	}
}
