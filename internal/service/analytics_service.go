package service

import (
	"math"

	"medprep_backend/internal/repository"
)

type AnalyticsService struct {
	AnalyticsRepo *repository.AnalyticsRepository
}

func NewAnalyticsService(analyticsRepo *repository.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{AnalyticsRepo: analyticsRepo}
}

// SubjectStrength is a subject's accuracy with a simple band label the UI
// colors by.
type SubjectStrength struct {
	Subject  string `json:"subject"`
	Answered int    `json:"answered"`
	Correct  int    `json:"correct"`
	Accuracy int    `json:"accuracy"` // whole percent
	Band     string `json:"band"`     // weak / average / strong
}

func accuracyPercent(correct, answered int) int {
	if answered == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(answered) * 100))
}

func band(accuracy int) string {
	switch {
	case accuracy < 40:
		return "weak"
	case accuracy < 70:
		return "average"
	default:
		return "strong"
	}
}

func (s *AnalyticsService) SubjectStrengths(userID uint) ([]SubjectStrength, error) {
	rows, err := s.AnalyticsRepo.SubjectAccuracy(userID)
	if err != nil {
		return nil, err
	}
	out := make([]SubjectStrength, 0, len(rows))
	for _, row := range rows {
		acc := accuracyPercent(row.Correct, row.Answered)
		out = append(out, SubjectStrength{
			Subject:  row.Subject,
			Answered: row.Answered,
			Correct:  row.Correct,
			Accuracy: acc,
			Band:     band(acc),
		})
	}
	return out, nil
}

type TopicStrength struct {
	Topic    string `json:"topic"`
	Answered int    `json:"answered"`
	Correct  int    `json:"correct"`
	Accuracy int    `json:"accuracy"`
	Band     string `json:"band"`
}

func (s *AnalyticsService) TopicStrengths(userID uint, subject string) ([]TopicStrength, error) {
	rows, err := s.AnalyticsRepo.TopicAccuracy(userID, subject)
	if err != nil {
		return nil, err
	}
	out := make([]TopicStrength, 0, len(rows))
	for _, row := range rows {
		acc := accuracyPercent(row.Correct, row.Answered)
		out = append(out, TopicStrength{
			Topic:    row.Topic,
			Answered: row.Answered,
			Correct:  row.Correct,
			Accuracy: acc,
			Band:     band(acc),
		})
	}
	return out, nil
}

func (s *AnalyticsService) Activity(userID uint, days int) ([]repository.DailyActivity, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	return s.AnalyticsRepo.ActivityOverDays(userID, days)
}

func (s *AnalyticsService) Overview(userID uint) (*repository.Overview, error) {
	return s.AnalyticsRepo.Overview(userID)
}
