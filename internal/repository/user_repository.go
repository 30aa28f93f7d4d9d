package repository

import (
	"medprep_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

func (r *UserRepository) UpdateLastLogin(userID uint) error {
	now := time.Now()
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{"last_login": now, "last_seen": now}).
		Error
}

func (r *UserRepository) UpdateLastSeen(userID uint) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_seen", time.Now()).Error
}

func (r *UserRepository) List(query string, limit, offset int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.DB.Model(&model.User{})
	if query != "" {
		searchTerm := "%" + query + "%"
		db = db.Where("name LIKE ? OR email LIKE ?", searchTerm, searchTerm)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

// CountActiveSince counts users seen since the given time, for the live
// monitor view.
func (r *UserRepository) CountActiveSince(since time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).
		Where("last_seen >= ?", since).
		Count(&count).Error
	return count, err
}
