package service

import "testing"

func TestAccuracyPercent(t *testing.T) {
	tests := []struct {
		correct, answered, want int
	}{
		{0, 0, 0},
		{1, 2, 50},
		{1, 3, 33},
		{2, 3, 67},
		{10, 10, 100},
		{0, 5, 0},
	}
	for _, tt := range tests {
		if got := accuracyPercent(tt.correct, tt.answered); got != tt.want {
			t.Errorf("accuracyPercent(%d, %d) = %d, want %d", tt.correct, tt.answered, got, tt.want)
		}
	}
}

func TestBandThresholds(t *testing.T) {
	tests := []struct {
		accuracy int
		want     string
	}{
		{0, "weak"},
		{39, "weak"},
		{40, "average"},
		{69, "average"},
		{70, "strong"},
		{100, "strong"},
	}
	for _, tt := range tests {
		if got := band(tt.accuracy); got != tt.want {
			t.Errorf("band(%d) = %q, want %q", tt.accuracy, got, tt.want)
		}
	}
}
