package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"taskflow-backend/internal/models"
)

// MetricsReader reads the per-day accumulators. GetRange returns only the
// days that exist, ordered ascending; the service zero-fills the gaps.
// ActivityDates returns the calendar dates with recorded activity, newest
// first.
type MetricsReader interface {
	GetDay(ctx context.Context, userID uuid.UUID, date time.Time) (*models.DailyMetrics, error)
	GetRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.DailyMetrics, error)
	ActivityDates(ctx context.Context, userID uuid.UUID) ([]time.Time, error)
}

// SessionReader reads raw ended sessions, used where per-day rollups are too
// coarse (the heatmap) or need enrichment (the project distribution). Both
// queries select by started_at so attribution matches the bucketing key.
type SessionReader interface {
	StartedBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.TimerSession, error)
	ProjectMinutesBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.ProjectTime, error)
}

type TaskReader interface {
	StatusCounts(ctx context.Context, userID uuid.UUID) ([]models.StatusCount, error)
}

type WorkspaceReader interface {
	Members(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceMember, error)
}

// MetricsService aggregates daily metrics and raw sessions into the range
// summaries, dashboard deltas, heatmaps, distributions and streaks consumed
// by the clients. It only reads; all writes happen at session stop.
type MetricsService struct {
	metrics    MetricsReader
	sessions   SessionReader
	tasks      TaskReader
	workspaces WorkspaceReader
	now        func() time.Time
}

func NewMetricsService(metrics MetricsReader, sessions SessionReader, tasks TaskReader, workspaces WorkspaceReader) *MetricsService {
	return &MetricsService{
		metrics:    metrics,
		sessions:   sessions,
		tasks:      tasks,
		workspaces: workspaces,
		now:        time.Now,
	}
}

// GetDailyMetrics returns the accumulator for a single day, or a zero-valued
// row when the user has no recorded activity on that day.
func (s *MetricsService) GetDailyMetrics(ctx context.Context, userID uuid.UUID, date time.Time) (*models.DailyMetrics, error) {
	day := dateOf(date)

	m, err := s.metrics.GetDay(ctx, userID, day)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && m == nil) {
		return &models.DailyMetrics{UserID: userID, Date: day}, nil
	}
	if err != nil {
		return nil, err
	}

	return m, nil
}

// GetDateRangeMetrics returns one row per calendar day in [start, end],
// zero-filled for days without activity, plus totals.
func (s *MetricsService) GetDateRangeMetrics(ctx context.Context, userID uuid.UUID, start, end time.Time) (*models.RangeSummary, error) {
	return s.rangeSummary(ctx, userID, dateOf(start), dateOf(end))
}

// GetWeeklyMetrics returns the Monday-to-Sunday week containing weekStart,
// defaulting to the current week.
func (s *MetricsService) GetWeeklyMetrics(ctx context.Context, userID uuid.UUID, weekStart *time.Time) (*models.RangeSummary, error) {
	start := startOfISOWeek(s.now())
	if weekStart != nil {
		start = startOfISOWeek(*weekStart)
	}

	return s.rangeSummary(ctx, userID, start, start.AddDate(0, 0, 6))
}

// GetMonthlyMetrics returns the calendar month containing monthStart,
// defaulting to the current month. The range always runs to the last
// calendar day of that month regardless of its length.
func (s *MetricsService) GetMonthlyMetrics(ctx context.Context, userID uuid.UUID, monthStart *time.Time) (*models.RangeSummary, error) {
	ref := s.now().UTC()
	if monthStart != nil {
		ref = monthStart.UTC()
	}

	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	return s.rangeSummary(ctx, userID, first, last)
}

// GetDashboardStats sums the current ISO week and the week before it, and
// reports the per-metric delta between the two. Deltas may be negative.
func (s *MetricsService) GetDashboardStats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error) {
	weekStart := startOfISOWeek(s.now())

	current, err := s.rangeSummary(ctx, userID, weekStart, weekStart.AddDate(0, 0, 6))
	if err != nil {
		return nil, err
	}

	prevStart := weekStart.AddDate(0, 0, -7)
	previous, err := s.rangeSummary(ctx, userID, prevStart, prevStart.AddDate(0, 0, 6))
	if err != nil {
		return nil, err
	}

	return &models.DashboardStats{
		Pomodoros: current.TotalPomodoros,
		Tasks:     current.TotalTasks,
		Minutes:   current.TotalMinutes,
		AvgPerDay: int(math.Round(float64(current.TotalPomodoros) / 7)),
		Trends: models.TrendDeltas{
			Pomodoros: current.TotalPomodoros - previous.TotalPomodoros,
			Tasks:     current.TotalTasks - previous.TotalTasks,
			Minutes:   current.TotalMinutes - previous.TotalMinutes,
		},
	}, nil
}

// GetHeatmapData buckets the current week's raw session durations into a
// weekday-by-hour grid keyed by each session's start time. Days are ordered
// Monday first with Sunday rotated to the end.
func (s *MetricsService) GetHeatmapData(ctx context.Context, userID uuid.UUID) ([]models.HeatmapDay, error) {
	weekStart := startOfISOWeek(s.now())
	weekEnd := endOfDay(weekStart.AddDate(0, 0, 6))

	sessions, err := s.sessions.StartedBetween(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	var grid [7][24]int
	for i := range sessions {
		sess := &sessions[i]
		day := mondayIndex(sess.StartedAt.UTC().Weekday())
		grid[day][sess.StartedAt.UTC().Hour()] += sess.DurationMinutes
	}

	out := make([]models.HeatmapDay, 7)
	for day := 0; day < 7; day++ {
		hours := make([]models.HeatmapHour, 24)
		for h := 0; h < 24; h++ {
			hours[h] = models.HeatmapHour{Hour: h, Value: grid[day][h]}
		}
		out[day] = models.HeatmapDay{
			Day:   weekdayFromMondayIndex(day).String(),
			Hours: hours,
		}
	}

	return out, nil
}

// GetProjectTimeDistribution sums this week's session minutes per project
// name, descending. Sessions without a project land in the "No Project"
// bucket.
func (s *MetricsService) GetProjectTimeDistribution(ctx context.Context, userID uuid.UUID) ([]models.ProjectTime, error) {
	weekStart := startOfISOWeek(s.now())
	weekEnd := endOfDay(weekStart.AddDate(0, 0, 6))

	return s.sessions.ProjectMinutesBetween(ctx, userID, weekStart, weekEnd)
}

func (s *MetricsService) GetTaskStatusDistribution(ctx context.Context, userID uuid.UUID) ([]models.StatusCount, error) {
	return s.tasks.StatusCounts(ctx, userID)
}

// GetProductivityStreak scans activity dates backwards from today. The
// current streak includes today when today has activity, and survives until
// the end of today when it does not; a fully inactive day in between breaks
// it.
func (s *MetricsService) GetProductivityStreak(ctx context.Context, userID uuid.UUID) (*models.ProductivityStreak, error) {
	dates, err := s.metrics.ActivityDates(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return &models.ProductivityStreak{}, nil
	}

	active := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		active[dateOf(d)] = true
	}

	cursor := dateOf(s.now())
	if !active[cursor] {
		cursor = cursor.AddDate(0, 0, -1)
	}

	current := 0
	for active[cursor] {
		current++
		cursor = cursor.AddDate(0, 0, -1)
	}

	// Longest run over all history: dates arrive newest first.
	longest, run := 1, 1
	for i := 1; i < len(dates); i++ {
		if dateOf(dates[i-1]).AddDate(0, 0, -1).Equal(dateOf(dates[i])) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	if current > longest {
		longest = current
	}

	last := dateOf(dates[0])

	return &models.ProductivityStreak{
		Current:        current,
		Longest:        longest,
		LastActiveDate: &last,
	}, nil
}

// GetTeamMetrics runs the same range aggregation for every member of a
// workspace and sums the member totals.
func (s *MetricsService) GetTeamMetrics(ctx context.Context, workspaceID uuid.UUID, start, end time.Time) (*models.TeamMetrics, error) {
	members, err := s.workspaces.Members(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	team := &models.TeamMetrics{
		WorkspaceID: workspaceID,
		Start:       dateOf(start),
		End:         dateOf(end),
	}

	for _, m := range members {
		summary, err := s.rangeSummary(ctx, m.UserID, dateOf(start), dateOf(end))
		if err != nil {
			return nil, err
		}

		team.Members = append(team.Members, models.MemberMetrics{
			UserID:   m.UserID,
			FullName: m.FullName,
			Summary:  *summary,
		})
		team.TotalPomodoros += summary.TotalPomodoros
		team.TotalTasks += summary.TotalTasks
		team.TotalMinutes += summary.TotalMinutes
	}

	return team, nil
}

func (s *MetricsService) rangeSummary(ctx context.Context, userID uuid.UUID, start, end time.Time) (*models.RangeSummary, error) {
	if end.Before(start) {
		return nil, &ValidationError{Fields: map[string]string{
			"end": "end date must not be before start date",
		}}
	}

	rows, err := s.metrics.GetRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	byDate := make(map[time.Time]models.DailyMetrics, len(rows))
	for _, row := range rows {
		byDate[dateOf(row.Date)] = row
	}

	summary := &models.RangeSummary{Start: start, End: end}

	activeDays := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		row, ok := byDate[d]
		if !ok {
			row = models.DailyMetrics{UserID: userID, Date: d}
		}

		summary.Days = append(summary.Days, row)
		summary.TotalPomodoros += row.PomodorosCount
		summary.TotalTasks += row.TasksCompletedCount
		summary.TotalMinutes += row.FocusDurationMinutes
		if row.HasActivity() {
			activeDays++
		}
	}

	numDays := len(summary.Days)
	summary.AvgTasksPerDay = int(math.Round(float64(summary.TotalTasks) / float64(numDays)))
	summary.CompletionRate = float64(activeDays) / float64(numDays)

	return summary, nil
}

// startOfISOWeek returns the Monday 00:00:00 UTC of the week containing t.
func startOfISOWeek(t time.Time) time.Time {
	day := dateOf(t)
	return day.AddDate(0, 0, -mondayIndex(day.Weekday()))
}

// endOfDay returns the last representable millisecond of the given day.
func endOfDay(t time.Time) time.Time {
	day := dateOf(t)
	return day.Add(24*time.Hour - time.Millisecond)
}

// mondayIndex maps a weekday onto a Monday-first index (Monday=0, Sunday=6).
func mondayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}

func weekdayFromMondayIndex(i int) time.Weekday {
	return time.Weekday((i + 1) % 7)
}
