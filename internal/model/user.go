package model

import (
	"time"
)

type UserRole string

const (
	Student  UserRole = "student"
	Educator UserRole = "educator"
	Admin    UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name       string    `gorm:"size:100;not null" json:"name"`
	Email      string    `gorm:"size:100;unique;not null" json:"email"`
	Password   string    `gorm:"size:100;not null" json:"-"`
	Role       UserRole  `gorm:"type:enum('student','educator','admin');default:'student'" json:"role"`
	TargetExam string    `gorm:"size:20;default:'neet-pg'" json:"targetExam"` // neet-pg, inicet
	PrepYear   int       `gorm:"default:0" json:"prepYear"`
	Avatar     string    `gorm:"size:255" json:"avatar"`
	Disabled   bool      `gorm:"default:false" json:"disabled"`
	LastLogin  time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
	LastSeen   time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}
