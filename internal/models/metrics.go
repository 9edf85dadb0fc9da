package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// DailyMetrics is the per-user, per-calendar-day accumulator. Rows are
// created on first write for a day and incremented afterwards, never
// replaced. The focus score is stored as a running total plus a session
// count so concurrent increments stay associative.
type DailyMetrics struct {
	UserID               uuid.UUID `json:"user_id"`
	Date                 time.Time `json:"date"`
	PomodorosCount       int       `json:"pomodoros_count"`
	TasksCompletedCount  int       `json:"tasks_completed_count"`
	FocusDurationMinutes int       `json:"focus_duration_minutes"`
	FocusScoreTotal      int       `json:"-"`
	FocusSessions        int       `json:"-"`
}

// FocusScore is the day's aggregate focus score: the rounded mean of the
// per-session scores merged into the row.
func (m *DailyMetrics) FocusScore() int {
	if m.FocusSessions == 0 {
		return 0
	}
	return int(math.Round(float64(m.FocusScoreTotal) / float64(m.FocusSessions)))
}

// HasActivity reports whether the day counts toward a productivity streak.
func (m *DailyMetrics) HasActivity() bool {
	return m.PomodorosCount > 0 || m.TasksCompletedCount > 0
}

// MetricsDelta is an atomic increment applied to a day's row.
type MetricsDelta struct {
	Pomodoros       int
	TasksCompleted  int
	FocusMinutes    int
	FocusScoreTotal int
	FocusSessions   int
}

// RangeSummary is a list of day rows for an inclusive date range plus the
// totals computed from it. Missing days are zero-filled so every range
// query returns exactly one row per calendar day.
type RangeSummary struct {
	Start          time.Time      `json:"start"`
	End            time.Time      `json:"end"`
	Days           []DailyMetrics `json:"days"`
	TotalPomodoros int            `json:"total_pomodoros"`
	TotalTasks     int            `json:"total_tasks"`
	TotalMinutes   int            `json:"total_minutes"`
	AvgTasksPerDay int            `json:"avg_tasks_per_day"`
	CompletionRate float64        `json:"completion_rate"`
}

// TrendDeltas is the current-week minus previous-week difference per
// dashboard metric. Values may be negative.
type TrendDeltas struct {
	Pomodoros int `json:"pomodoros"`
	Tasks     int `json:"tasks"`
	Minutes   int `json:"minutes"`
}

type DashboardStats struct {
	Pomodoros int         `json:"pomodoros"`
	Tasks     int         `json:"tasks"`
	Minutes   int         `json:"minutes"`
	AvgPerDay int         `json:"avg_per_day"`
	Trends    TrendDeltas `json:"trends"`
}

type HeatmapHour struct {
	Hour  int `json:"hour"`
	Value int `json:"value"`
}

// HeatmapDay holds one weekday of the weekly hour-by-weekday grid. Days are
// ordered Monday first with Sunday rotated to the end.
type HeatmapDay struct {
	Day   string        `json:"day"`
	Hours []HeatmapHour `json:"hours"`
}

// ProjectTime is one bucket of the weekly project time distribution.
type ProjectTime struct {
	Name    string `json:"name"`
	Minutes int    `json:"value"`
}

type StatusCount struct {
	Status TaskStatus `json:"status"`
	Count  int        `json:"count"`
}

type ProductivityStreak struct {
	Current        int        `json:"current"`
	Longest        int        `json:"longest"`
	LastActiveDate *time.Time `json:"last_active_date,omitempty"`
}

// MemberMetrics is one workspace member's share of a team range query.
type MemberMetrics struct {
	UserID   uuid.UUID    `json:"user_id"`
	FullName string       `json:"full_name"`
	Summary  RangeSummary `json:"summary"`
}

type TeamMetrics struct {
	WorkspaceID    uuid.UUID       `json:"workspace_id"`
	Start          time.Time       `json:"start"`
	End            time.Time       `json:"end"`
	Members        []MemberMetrics `json:"members"`
	TotalPomodoros int             `json:"total_pomodoros"`
	TotalTasks     int             `json:"total_tasks"`
	TotalMinutes   int             `json:"total_minutes"`
}
