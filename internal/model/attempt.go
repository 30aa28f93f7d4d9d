package model

import "time"

// swagger:model Attempt
type Attempt struct {
	UUIDBase
	TestID           string     `gorm:"index;type:varchar(36);not null" json:"testId"`
	UserID           uint       `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Mode             TestMode   `gorm:"size:20;default:'exam'" json:"mode"`
	CurrentSection   int        `gorm:"default:1" json:"currentSection"`
	SectionCount     int        `gorm:"default:1" json:"sectionCount"`
	SectionRemaining string     `gorm:"type:json" json:"sectionRemaining"` // JSON array of {section, remainingSeconds}
	StartedAt        time.Time  `json:"startedAt"`
	SubmittedAt      *time.Time `json:"submittedAt,omitempty"`
	Completed        bool       `gorm:"default:false" json:"completed"`
	Score            int        `gorm:"default:0" json:"score"`
	TotalQuestions   int        `gorm:"default:0" json:"totalQuestions"`
	Correct          int        `gorm:"default:0" json:"correct"`
	Incorrect        int        `gorm:"default:0" json:"incorrect"`
	Unanswered       int        `gorm:"default:0" json:"unanswered"`
	Percentage       int        `gorm:"default:0" json:"percentage"`
}

func (Attempt) TableName() string {
	return "attempts"
}

// SectionTime is one element of Attempt.SectionRemaining.
type SectionTime struct {
	Section          int `json:"section"`
	RemainingSeconds int `json:"remainingSeconds"`
}
