package repository

import (
	"medprep_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *QuestionRepository) Update(q *model.Question) error {
	return r.DB.Save(q).Error
}

func (r *QuestionRepository) Delete(id string) error {
	return r.DB.Delete(&model.Question{}, "id = ?", id).Error
}

func (r *QuestionRepository) FindByID(id string) (*model.Question, error) {
	var q model.Question
	err := r.DB.First(&q, "id = ?", id).Error
	return &q, err
}

// FindByIDs loads questions and returns them in the order of ids, not the
// order the database happens to return them in.
func (r *QuestionRepository) FindByIDs(ids []string) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var questions []model.Question
	if err := r.DB.Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	ordered := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

func (r *QuestionRepository) List(subject, topic, query string, limit, offset int) ([]model.Question, int64, error) {
	var questions []model.Question
	var total int64

	db := r.DB.Model(&model.Question{})
	if subject != "" {
		db = db.Where("subject = ?", subject)
	}
	if topic != "" {
		db = db.Where("topic = ?", topic)
	}
	if query != "" {
		db = db.Where("content LIKE ?", "%"+query+"%")
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&questions).Error
	return questions, total, err
}

// Random picks count random question IDs, optionally restricted to subjects.
// RAND() is fine at this table size; revisit if the bank grows past ~100k rows.
func (r *QuestionRepository) Random(subjects []string, count int) ([]string, error) {
	var ids []string
	db := r.DB.Model(&model.Question{})
	if len(subjects) > 0 {
		db = db.Where("subject IN ?", subjects)
	}
	err := db.Order("RAND()").Limit(count).Pluck("id", &ids).Error
	return ids, err
}

func (r *QuestionRepository) CountBySubjects(subjects []string) (int64, error) {
	var count int64
	db := r.DB.Model(&model.Question{})
	if len(subjects) > 0 {
		db = db.Where("subject IN ?", subjects)
	}
	err := db.Count(&count).Error
	return count, err
}

func (r *QuestionRepository) Subjects() ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.DB.Where("enabled = ?", true).Order("code ASC").Find(&subjects).Error
	return subjects, err
}
