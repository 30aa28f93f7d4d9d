package model

import "time"

type TestMode string

const (
	// ModeExam withholds feedback until final submission (grand tests).
	ModeExam TestMode = "exam"
	// ModeRegular returns correctness per question as soon as it is answered.
	ModeRegular TestMode = "regular"
)

// swagger:model Test
type Test struct {
	UUIDBase
	Title           string     `gorm:"size:255;not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	Mode            TestMode   `gorm:"size:20;default:'exam'" json:"mode"`
	SectionCount    int        `gorm:"default:1" json:"sectionCount"`
	SectionDuration int        `gorm:"default:2520" json:"sectionDurationSeconds"` // seconds per section
	TotalQuestions  int        `gorm:"default:0" json:"totalQuestions"`
	TotalMarks      int        `gorm:"default:0" json:"totalMarks"`
	IsPublished     bool       `gorm:"default:false" json:"isPublished"`
	PublishedAt     *time.Time `json:"publishedAt,omitempty"`
	ScheduledAt     *time.Time `json:"scheduledAt,omitempty"` // scheduled publish time
	CreatorID       uint       `gorm:"index;type:bigint unsigned" json:"creatorId"`
	IsCustom        bool       `gorm:"default:false" json:"isCustom"` // student-built practice test
}

func (Test) TableName() string {
	return "tests"
}

// TestQuestion orders questions inside a test.
type TestQuestion struct {
	BaseModel
	TestID     string `gorm:"index;type:varchar(36);not null" json:"testId"`
	QuestionID string `gorm:"index;type:varchar(36);not null" json:"questionId"`
	Order      int    `gorm:"default:0" json:"order"`
}

func (TestQuestion) TableName() string {
	return "test_questions"
}
