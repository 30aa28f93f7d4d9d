package engine

import "math"

// Answer is the in-memory record of one response to one question.
type Answer struct {
	QuestionID      string `json:"questionId"`
	Section         int    `json:"section"`
	SelectedOption  int    `json:"selectedOption"` // 1-4, 0 = unset
	IsCorrect       bool   `json:"isCorrect"`
	MarkedForReview bool   `json:"markedForReview"`
}

// Result summarizes a finished answer set.
type Result struct {
	Total      int `json:"total"`
	Answered   int `json:"answered"`
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Unanswered int `json:"unanswered"`
	Percentage int `json:"percentage"`
}

// Compute reduces an answer list into counts and a rounded percentage.
// Pure and deterministic: no I/O, same input always yields the same output.
func Compute(answers []Answer) Result {
	r := Result{Total: len(answers)}
	for _, a := range answers {
		if a.SelectedOption == 0 {
			r.Unanswered++
			continue
		}
		r.Answered++
		if a.IsCorrect {
			r.Correct++
		} else {
			r.Incorrect++
		}
	}
	if r.Total > 0 {
		r.Percentage = int(math.Round(float64(r.Correct) / float64(r.Total) * 100))
	}
	return r
}
