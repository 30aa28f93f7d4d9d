package model

type Bookmark struct {
	BaseModel
	UserID     uint   `gorm:"uniqueIndex:idx_user_question;type:bigint unsigned;not null" json:"userId"`
	QuestionID string `gorm:"uniqueIndex:idx_user_question;type:varchar(36);not null" json:"questionId"`
	Note       string `gorm:"type:text" json:"note,omitempty"`
}

func (Bookmark) TableName() string {
	return "bookmarks"
}
