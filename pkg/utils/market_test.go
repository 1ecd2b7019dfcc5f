package utils

import (
	"testing"
	"time"
)

func TestIsTradingDay(t *testing.T) {
	tests := []struct {
		day  time.Time
		want bool
	}{
		{time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), true},  // Monday
		{time.Date(2025, 6, 6, 9, 0, 0, 0, time.UTC), true},  // Friday
		{time.Date(2025, 6, 7, 9, 0, 0, 0, time.UTC), false}, // Saturday
		{time.Date(2025, 6, 8, 9, 0, 0, 0, time.UTC), false}, // Sunday
	}
	for _, tt := range tests {
		if got := IsTradingDay(tt.day); got != tt.want {
			t.Errorf("IsTradingDay(%s) = %v, want %v", tt.day.Weekday(), got, tt.want)
		}
	}
}

func TestSameDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("loading location: %v", err)
	}

	morning := time.Date(2025, 6, 2, 8, 0, 0, 0, ny)
	evening := time.Date(2025, 6, 2, 20, 0, 0, 0, ny)
	if !SameDay(morning, evening, ny) {
		t.Errorf("same local day reported as different")
	}

	// 23:00 in New York is already the next day in UTC
	lateLocal := time.Date(2025, 6, 2, 23, 0, 0, 0, ny)
	if !SameDay(lateLocal, lateLocal.UTC(), ny) {
		t.Errorf("SameDay must compare in the given location, not the times' own zones")
	}
	if SameDay(morning, morning.AddDate(0, 0, 1), ny) {
		t.Errorf("consecutive days reported as the same")
	}
}
