package services

import (
	"testing"
	"time"
)

func TestElapsedSeconds(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	pauseAt := start.Add(20 * time.Minute)

	tests := []struct {
		name              string
		now               time.Time
		totalPauseSeconds int
		currentPauseStart *time.Time
		expected          int
	}{
		{"running, no pauses", start.Add(10 * time.Minute), 0, nil, 600},
		{"running, recorded pause subtracted", start.Add(30 * time.Minute), 120, nil, 1680},
		{"paused, clock frozen at pause start", start.Add(45 * time.Minute), 0, &pauseAt, 1200},
		{"paused, recorded pause still subtracted", start.Add(45 * time.Minute), 60, &pauseAt, 1140},
		{"clamps at zero", start.Add(30 * time.Second), 3600, nil, 0},
		{"now before start clamps at zero", start.Add(-time.Minute), 0, nil, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ElapsedSeconds(start, tc.now, tc.totalPauseSeconds, tc.currentPauseStart)
			if got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestPauseIntervalSeconds(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		resume   time.Time
		expected int
	}{
		{"one minute", start.Add(time.Minute), 60},
		{"sub-second truncates", start.Add(900 * time.Millisecond), 0},
		{"negative clamps at zero", start.Add(-10 * time.Second), 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := PauseIntervalSeconds(start, tc.resume)
			if got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestDurationMinutes(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name              string
		ended             time.Time
		totalPauseSeconds int
		expected          int
	}{
		{"exact half hour, no pause", start.Add(30 * time.Minute), 0, 30},
		{"half hour with one minute paused", start.Add(30 * time.Minute), 60, 29},
		{"wall time rounds to nearest minute", start.Add(25*time.Minute + 31*time.Second), 0, 26},
		{"wall time rounds down below half", start.Add(25*time.Minute + 29*time.Second), 0, 25},
		{"pause seconds round independently", start.Add(30 * time.Minute), 89, 29},
		{"pause rounding up", start.Add(30 * time.Minute), 91, 28},
		{"pause exceeding wall clamps at zero", start.Add(2 * time.Minute), 600, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := durationMinutes(start, tc.ended, tc.totalPauseSeconds)
			if got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	in := time.Date(2026, 3, 3, 2, 30, 0, 0, loc) // 2026-03-02T21:30Z

	got := dateOf(in)
	want := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
