package service

import (
	"sort"
	"time"

	"medprep_backend/internal/model"
	"medprep_backend/internal/repository"
)

type DashboardService struct {
	AttemptRepo  *repository.AttemptRepository
	TestRepo     *repository.TestRepository
	UserRepo     *repository.UserRepository
	BookmarkRepo *repository.BookmarkRepository
	Analytics    *AnalyticsService
}

func NewDashboardService(
	attemptRepo *repository.AttemptRepository,
	testRepo *repository.TestRepository,
	userRepo *repository.UserRepository,
	bookmarkRepo *repository.BookmarkRepository,
	analytics *AnalyticsService,
) *DashboardService {
	return &DashboardService{
		AttemptRepo:  attemptRepo,
		TestRepo:     testRepo,
		UserRepo:     userRepo,
		BookmarkRepo: bookmarkRepo,
		Analytics:    analytics,
	}
}

// StudentDashboard is the home screen payload: one call, everything the
// landing page renders.
type StudentDashboard struct {
	Overview       *repository.Overview       `json:"overview"`
	RecentAttempts []model.Attempt            `json:"recentAttempts"`
	WeakSubjects   []SubjectStrength          `json:"weakSubjects"`
	UpcomingTests  []model.Test               `json:"upcomingTests"`
	Activity       []repository.DailyActivity `json:"activity"`
	StreakDays     int                        `json:"streakDays"`
	BookmarkCount  int64                      `json:"bookmarkCount"`
}

// activityStreak counts consecutive active days ending today or yesterday,
// so a streak is not considered broken before the day is over.
func activityStreak(days []repository.DailyActivity, now time.Time) int {
	active := make(map[string]bool, len(days))
	for _, d := range days {
		if d.Attempts > 0 || d.Answered > 0 {
			active[d.Day] = true
		}
	}
	day := now
	if !active[day.Format("2006-01-02")] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for active[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func (s *DashboardService) ForStudent(userID uint) (*StudentDashboard, error) {
	overview, err := s.Analytics.Overview(userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.AttemptRepo.RecentCompleted(userID, 5)
	if err != nil {
		return nil, err
	}
	strengths, err := s.Analytics.SubjectStrengths(userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(strengths, func(i, j int) bool { return strengths[i].Accuracy < strengths[j].Accuracy })
	if len(strengths) > 3 {
		strengths = strengths[:3]
	}
	upcoming, _ := s.TestRepo.DueForPublish(time.Now().Add(7 * 24 * time.Hour))
	activity, err := s.Analytics.Activity(userID, 30)
	if err != nil {
		return nil, err
	}
	_, bookmarks, err := s.BookmarkRepo.ListByUser(userID, "", 1, 0)
	if err != nil {
		return nil, err
	}
	return &StudentDashboard{
		Overview:       overview,
		RecentAttempts: recent,
		WeakSubjects:   strengths,
		UpcomingTests:  upcoming,
		Activity:       activity,
		StreakDays:     activityStreak(activity, time.Now()),
		BookmarkCount:  bookmarks,
	}, nil
}

// LiveStats summarises current platform load for the educator monitor page.
type LiveStats struct {
	ActiveUsers        int64 `json:"activeUsers"` // seen in the last 5 minutes
	AttemptsInProgress int64 `json:"attemptsInProgress"`
}

func (s *DashboardService) Live() (*LiveStats, error) {
	active, err := s.UserRepo.CountActiveSince(time.Now().Add(-5 * time.Minute))
	if err != nil {
		return nil, err
	}
	inProgress, err := s.AttemptRepo.CountInProgress()
	if err != nil {
		return nil, err
	}
	return &LiveStats{
		ActiveUsers:        active,
		AttemptsInProgress: inProgress,
	}, nil
}
