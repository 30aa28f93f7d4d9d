package repository

import (
	"medprep_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

// Create inserts the attempt row plus one unset answer row per question in a
// single transaction, so every later answer write is a plain update on the
// (attempt_id, question_id) pair.
func (r *AttemptRepository) Create(attempt *model.Attempt, answers []model.AttemptAnswer) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}
		if len(answers) == 0 {
			return nil
		}
		for i := range answers {
			answers[i].AttemptID = attempt.ID
		}
		return tx.CreateInBatches(&answers, 200).Error
	})
}

func (r *AttemptRepository) FindByID(id string) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.DB.First(&attempt, "id = ?", id).Error
	return &attempt, err
}

// FindActive returns the user's unfinished attempt for a test, if any.
func (r *AttemptRepository) FindActive(userID uint, testID string) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.DB.Where("user_id = ? AND test_id = ? AND completed = ?", userID, testID, false).
		Order("started_at DESC").
		First(&attempt).Error
	return &attempt, err
}

// HasCompleted reports whether the user already finished an attempt on the test.
func (r *AttemptRepository) HasCompleted(userID uint, testID string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Attempt{}).
		Where("user_id = ? AND test_id = ? AND completed = ?", userID, testID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *AttemptRepository) ListByUser(userID uint, completedOnly bool, limit, offset int) ([]model.Attempt, int64, error) {
	var attempts []model.Attempt
	var total int64

	db := r.DB.Model(&model.Attempt{}).Where("user_id = ?", userID)
	if completedOnly {
		db = db.Where("completed = ?", true)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("started_at DESC").Limit(limit).Offset(offset).Find(&attempts).Error
	return attempts, total, err
}

func (r *AttemptRepository) Answers(attemptID string) ([]model.AttemptAnswer, error) {
	var answers []model.AttemptAnswer
	err := r.DB.Where("attempt_id = ?", attemptID).
		Order("id ASC").
		Find(&answers).Error
	return answers, err
}

// SaveAnswer overwrites the selection for one question of one attempt. The
// row is seeded at attempt creation, so this never inserts.
func (r *AttemptRepository) SaveAnswer(attemptID, questionID string, selected int, isCorrect, marked bool) error {
	return r.DB.Model(&model.AttemptAnswer{}).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		Updates(map[string]interface{}{
			"selected_option":   selected,
			"is_correct":        isCorrect,
			"marked_for_review": marked,
		}).Error
}

// SaveSectionState records the active section and the per-section remaining
// seconds after a section submission.
func (r *AttemptRepository) SaveSectionState(attemptID string, currentSection int, remainingJSON string) error {
	return r.DB.Model(&model.Attempt{}).
		Where("id = ?", attemptID).
		Updates(map[string]interface{}{
			"current_section":   currentSection,
			"section_remaining": remainingJSON,
		}).Error
}

// Finalize marks the attempt completed and stores its result in one update.
func (r *AttemptRepository) Finalize(attemptID string, score, total, correct, incorrect, unanswered, percentage int) error {
	now := time.Now()
	return r.DB.Model(&model.Attempt{}).
		Where("id = ? AND completed = ?", attemptID, false).
		Updates(map[string]interface{}{
			"completed":       true,
			"submitted_at":    now,
			"score":           score,
			"total_questions": total,
			"correct":         correct,
			"incorrect":       incorrect,
			"unanswered":      unanswered,
			"percentage":      percentage,
		}).Error
}

func (r *AttemptRepository) CountCompletedForTest(testID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Attempt{}).
		Where("test_id = ? AND completed = ?", testID, true).
		Count(&count).Error
	return count, err
}

// CountScoredBelow counts completed attempts on a test that scored strictly
// less than score, for percentile ranking.
func (r *AttemptRepository) CountScoredBelow(testID string, score int) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Attempt{}).
		Where("test_id = ? AND completed = ? AND score < ?", testID, true, score).
		Count(&count).Error
	return count, err
}

// CountInProgress counts unfinished attempts across all tests, for the live
// monitor view.
func (r *AttemptRepository) CountInProgress() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Attempt{}).
		Where("completed = ?", false).
		Count(&count).Error
	return count, err
}

func (r *AttemptRepository) RecentCompleted(userID uint, limit int) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.Where("user_id = ? AND completed = ?", userID, true).
		Order("submitted_at DESC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}
