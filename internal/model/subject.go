package model

// Subject is a fixed taxonomy entry questions are tagged with (seeded on first run).
type Subject struct {
	BaseModel
	Code    string `gorm:"size:50;unique;not null" json:"code"`
	Name    string `gorm:"size:100;not null" json:"name"`
	Enabled bool   `gorm:"default:true" json:"enabled"`
}

func (Subject) TableName() string {
	return "subjects"
}
