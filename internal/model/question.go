package model

import "encoding/json"

// swagger:model Question
type Question struct {
	UUIDBase
	Subject       string          `gorm:"size:50;index" json:"subject"`
	Topic         string          `gorm:"size:100;index" json:"topic"`
	Content       string          `gorm:"type:text;not null" json:"content"`
	Options       json.RawMessage `gorm:"type:json" json:"options"` // array of exactly 4 strings
	CorrectOption int             `gorm:"not null" json:"-"`        // 1-4, never serialized to students
	Explanation   string          `gorm:"type:text" json:"explanation,omitempty"`
	ImageURL      string          `gorm:"size:255" json:"imageUrl,omitempty"`
	Marks         int             `gorm:"default:4" json:"marks"`
	NegativeMarks int             `gorm:"default:1" json:"negativeMarks"`
	CreatorID     uint            `gorm:"index;type:bigint unsigned" json:"creatorId"`
}

func (Question) TableName() string {
	return "questions"
}
