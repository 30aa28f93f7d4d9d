package service

import (
	"testing"
	"time"

	"medprep_backend/internal/repository"
)

func TestActivityStreak(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	day := func(offset int) string {
		return now.AddDate(0, 0, offset).Format("2006-01-02")
	}

	tests := []struct {
		name string
		days []repository.DailyActivity
		want int
	}{
		{"no activity", nil, 0},
		{
			"active today only",
			[]repository.DailyActivity{{Day: day(0), Answered: 3}},
			1,
		},
		{
			"three consecutive days ending today",
			[]repository.DailyActivity{
				{Day: day(-2), Attempts: 1},
				{Day: day(-1), Answered: 5},
				{Day: day(0), Answered: 2},
			},
			3,
		},
		{
			"streak ending yesterday still counts",
			[]repository.DailyActivity{
				{Day: day(-2), Answered: 1},
				{Day: day(-1), Answered: 1},
			},
			2,
		},
		{
			"gap breaks the streak",
			[]repository.DailyActivity{
				{Day: day(-3), Answered: 4},
				{Day: day(-1), Answered: 1},
				{Day: day(0), Answered: 1},
			},
			2,
		},
		{
			"zero-count day does not extend",
			[]repository.DailyActivity{
				{Day: day(-1), Attempts: 0, Answered: 0},
				{Day: day(0), Answered: 1},
			},
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := activityStreak(tt.days, now); got != tt.want {
				t.Errorf("activityStreak() = %d, want %d", got, tt.want)
			}
		})
	}
}
