package repository

import (
	"encoding/json"
	"medprep_backend/internal/model"

	"gorm.io/gorm"
)

type CaseRepository struct {
	DB *gorm.DB
}

func NewCaseRepository(db *gorm.DB) *CaseRepository {
	return &CaseRepository{DB: db}
}

func (r *CaseRepository) Create(c *model.PatientCase) error {
	return r.DB.Create(c).Error
}

func (r *CaseRepository) FindByID(id string) (*model.PatientCase, error) {
	var c model.PatientCase
	err := r.DB.First(&c, "id = ?", id).Error
	return &c, err
}

func (r *CaseRepository) Update(c *model.PatientCase) error {
	return r.DB.Save(c).Error
}

// SaveDocument writes only the document body, used by the autosave flusher so
// a stale in-memory struct cannot clobber title or status edits.
func (r *CaseRepository) SaveDocument(id string, doc json.RawMessage) error {
	return r.DB.Model(&model.PatientCase{}).
		Where("id = ?", id).
		Update("document", string(doc)).Error
}

func (r *CaseRepository) SetStatus(id string, status model.CaseStatus) error {
	return r.DB.Model(&model.PatientCase{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *CaseRepository) ListByAuthor(authorID uint, limit, offset int) ([]model.PatientCase, int64, error) {
	var cases []model.PatientCase
	var total int64

	db := r.DB.Model(&model.PatientCase{}).Where("author_id = ?", authorID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&cases).Error
	return cases, total, err
}

func (r *CaseRepository) ListPublished(subject string, limit, offset int) ([]model.PatientCase, int64, error) {
	var cases []model.PatientCase
	var total int64

	db := r.DB.Model(&model.PatientCase{}).Where("status = ?", model.CasePublished)
	if subject != "" {
		db = db.Where("subject = ?", subject)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&cases).Error
	return cases, total, err
}

func (r *CaseRepository) Delete(id string) error {
	return r.DB.Delete(&model.PatientCase{}, "id = ?", id).Error
}
