package model

// AttemptAnswer stores one user response to one question within an attempt.
// Created with an unset selection when the attempt starts, mutated on each
// selection, never deleted.
type AttemptAnswer struct {
	BaseModel
	AttemptID       string `gorm:"uniqueIndex:idx_attempt_question;type:varchar(36);not null" json:"attemptId"`
	QuestionID      string `gorm:"uniqueIndex:idx_attempt_question;type:varchar(36);not null" json:"questionId"`
	Section         int    `gorm:"default:1" json:"section"`
	SelectedOption  int    `gorm:"default:0" json:"selectedOption"` // 1-4, 0 = unset
	IsCorrect       bool   `gorm:"default:false" json:"isCorrect"`
	MarkedForReview bool   `gorm:"default:false" json:"markedForReview"`
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}
