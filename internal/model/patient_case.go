package model

import "encoding/json"

type CaseStatus string

const (
	CaseDraft     CaseStatus = "draft"
	CasePublished CaseStatus = "published"
)

// PatientCase is an authored clinical case. Document holds the structured
// sections (history, examination, investigations, differentials, diagnosis,
// discussion) as JSON so the schema can evolve without migrations.
type PatientCase struct {
	UUIDBase
	AuthorID uint            `gorm:"index;type:bigint unsigned;not null" json:"authorId"`
	Title    string          `gorm:"size:255;not null" json:"title"`
	Subject  string          `gorm:"size:50;index" json:"subject"`
	Status   CaseStatus      `gorm:"size:20;default:'draft'" json:"status"`
	Document json.RawMessage `gorm:"type:json" json:"document"`
}

func (PatientCase) TableName() string {
	return "patient_cases"
}
