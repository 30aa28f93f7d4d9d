package repository

import (
	"medprep_backend/internal/model"

	"gorm.io/gorm"
)

type BookmarkRepository struct {
	DB *gorm.DB
}

func NewBookmarkRepository(db *gorm.DB) *BookmarkRepository {
	return &BookmarkRepository{DB: db}
}

func (r *BookmarkRepository) Create(b *model.Bookmark) error {
	return r.DB.Create(b).Error
}

func (r *BookmarkRepository) Delete(userID uint, questionID string) error {
	return r.DB.Delete(&model.Bookmark{}, "user_id = ? AND question_id = ?", userID, questionID).Error
}

func (r *BookmarkRepository) Exists(userID uint, questionID string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Bookmark{}).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Count(&count).Error
	return count > 0, err
}

func (r *BookmarkRepository) UpdateNote(userID uint, questionID, note string) error {
	return r.DB.Model(&model.Bookmark{}).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Update("note", note).Error
}

func (r *BookmarkRepository) ListByUser(userID uint, subject string, limit, offset int) ([]model.Bookmark, int64, error) {
	var bookmarks []model.Bookmark
	var total int64

	db := r.DB.Model(&model.Bookmark{}).Where("bookmarks.user_id = ?", userID)
	if subject != "" {
		db = db.Joins("JOIN questions ON questions.id = bookmarks.question_id").
			Where("questions.subject = ?", subject)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("bookmarks.created_at DESC").Limit(limit).Offset(offset).Find(&bookmarks).Error
	return bookmarks, total, err
}
