package repository

import (
	"medprep_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type TestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{DB: db}
}

// Create inserts the test together with its ordered question list in one
// transaction.
func (r *TestRepository) Create(test *model.Test, questionIDs []string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(test).Error; err != nil {
			return err
		}
		rows := make([]model.TestQuestion, 0, len(questionIDs))
		for i, qid := range questionIDs {
			rows = append(rows, model.TestQuestion{
				TestID:     test.ID,
				QuestionID: qid,
				Order:      i + 1,
			})
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func (r *TestRepository) FindByID(id string) (*model.Test, error) {
	var test model.Test
	err := r.DB.First(&test, "id = ?", id).Error
	return &test, err
}

// QuestionIDs returns the test's question IDs in test order.
func (r *TestRepository) QuestionIDs(testID string) ([]string, error) {
	var ids []string
	err := r.DB.Model(&model.TestQuestion{}).
		Where("test_id = ?", testID).
		Order("`order` ASC").
		Pluck("question_id", &ids).Error
	return ids, err
}

func (r *TestRepository) Update(test *model.Test) error {
	return r.DB.Save(test).Error
}

func (r *TestRepository) List(mode model.TestMode, publishedOnly bool, limit, offset int) ([]model.Test, int64, error) {
	var tests []model.Test
	var total int64

	db := r.DB.Model(&model.Test{}).Where("is_custom = ?", false)
	if mode != "" {
		db = db.Where("mode = ?", mode)
	}
	if publishedOnly {
		db = db.Where("is_published = ?", true)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&tests).Error
	return tests, total, err
}

func (r *TestRepository) ListByCreator(creatorID uint, limit, offset int) ([]model.Test, int64, error) {
	var tests []model.Test
	var total int64

	db := r.DB.Model(&model.Test{}).Where("creator_id = ?", creatorID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&tests).Error
	return tests, total, err
}

func (r *TestRepository) Publish(testID string) error {
	now := time.Now()
	return r.DB.Model(&model.Test{}).
		Where("id = ?", testID).
		Updates(map[string]interface{}{"is_published": true, "published_at": now}).
		Error
}

// DueForPublish returns unpublished tests whose scheduled time has passed.
// The background publisher polls this.
func (r *TestRepository) DueForPublish(now time.Time) ([]model.Test, error) {
	var tests []model.Test
	err := r.DB.Where("is_published = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", false, now).
		Find(&tests).Error
	return tests, err
}

func (r *TestRepository) Delete(testID string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("test_id = ?", testID).Delete(&model.TestQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Test{}, "id = ?", testID).Error
	})
}
