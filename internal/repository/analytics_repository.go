package repository

import (
	"time"

	"medprep_backend/internal/model"

	"gorm.io/gorm"
)

type AnalyticsRepository struct {
	DB *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{DB: db}
}

// SubjectAccuracy aggregates a user's answer history per subject across
// completed attempts.
type SubjectAccuracy struct {
	Subject  string `json:"subject"`
	Answered int    `json:"answered"`
	Correct  int    `json:"correct"`
}

func (r *AnalyticsRepository) SubjectAccuracy(userID uint) ([]SubjectAccuracy, error) {
	var rows []SubjectAccuracy
	err := r.DB.Raw(`
		SELECT q.subject AS subject,
		       COUNT(*) AS answered,
		       SUM(aa.is_correct) AS correct
		FROM attempt_answers aa
		INNER JOIN attempts a ON a.id = aa.attempt_id
		INNER JOIN questions q ON q.id = aa.question_id
		WHERE a.user_id = ? AND a.completed = 1 AND aa.selected_option > 0
		GROUP BY q.subject
		ORDER BY q.subject
	`, userID).Scan(&rows).Error
	return rows, err
}

type TopicAccuracy struct {
	Topic    string `json:"topic"`
	Answered int    `json:"answered"`
	Correct  int    `json:"correct"`
}

func (r *AnalyticsRepository) TopicAccuracy(userID uint, subject string) ([]TopicAccuracy, error) {
	var rows []TopicAccuracy
	err := r.DB.Raw(`
		SELECT q.topic AS topic,
		       COUNT(*) AS answered,
		       SUM(aa.is_correct) AS correct
		FROM attempt_answers aa
		INNER JOIN attempts a ON a.id = aa.attempt_id
		INNER JOIN questions q ON q.id = aa.question_id
		WHERE a.user_id = ? AND a.completed = 1 AND aa.selected_option > 0 AND q.subject = ?
		GROUP BY q.topic
		ORDER BY q.topic
	`, userID, subject).Scan(&rows).Error
	return rows, err
}

// DailyActivity is one day's worth of finished attempts.
type DailyActivity struct {
	Day      string `json:"day"` // YYYY-MM-DD
	Attempts int    `json:"attempts"`
	Answered int    `json:"answered"`
}

func (r *AnalyticsRepository) ActivityOverDays(userID uint, days int) ([]DailyActivity, error) {
	since := time.Now().AddDate(0, 0, -days)
	var rows []DailyActivity
	err := r.DB.Raw(`
		SELECT DATE_FORMAT(a.submitted_at, '%Y-%m-%d') AS day,
		       COUNT(*) AS attempts,
		       SUM(a.total_questions - a.unanswered) AS answered
		FROM attempts a
		WHERE a.user_id = ? AND a.completed = 1 AND a.submitted_at >= ?
		GROUP BY day
		ORDER BY day
	`, userID, since).Scan(&rows).Error
	return rows, err
}

// Overview summarises a user's whole history.
type Overview struct {
	TotalAttempts     int     `json:"totalAttempts"`
	TotalAnswered     int     `json:"totalAnswered"`
	AveragePercentage float64 `json:"averagePercentage"`
	BestPercentage    int     `json:"bestPercentage"`
}

func (r *AnalyticsRepository) Overview(userID uint) (*Overview, error) {
	var ov Overview
	err := r.DB.Raw(`
		SELECT COUNT(*) AS total_attempts,
		       COALESCE(SUM(total_questions - unanswered), 0) AS total_answered,
		       COALESCE(AVG(percentage), 0) AS average_percentage,
		       COALESCE(MAX(percentage), 0) AS best_percentage
		FROM attempts
		WHERE user_id = ? AND completed = 1
	`, userID).Scan(&ov).Error
	return &ov, err
}

// AverageScoreForTest is the mean final score over a test's completed
// attempts, shown next to a student's own result.
func (r *AnalyticsRepository) AverageScoreForTest(testID string) (float64, error) {
	var avg float64
	err := r.DB.Model(&model.Attempt{}).
		Where("test_id = ? AND completed = ?", testID, true).
		Select("COALESCE(AVG(score), 0)").
		Scan(&avg).Error
	return avg, err
}
