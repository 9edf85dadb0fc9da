package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskflow-backend/internal/models"
)

type MetricsRepo struct {
	pool *pgxpool.Pool
}

func NewMetricsRepo(pool *pgxpool.Pool) *MetricsRepo {
	return &MetricsRepo{pool: pool}
}

// Apply upserts a day's counters in a single statement so concurrent session
// completions never lose increments.
func (r *MetricsRepo) Apply(ctx context.Context, userID uuid.UUID, date time.Time, d models.MetricsDelta) error {
	query := `INSERT INTO daily_metrics
		(user_id, date, pomodoros_count, tasks_completed_count, focus_duration_minutes, focus_score_total, focus_sessions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, date) DO UPDATE SET
			pomodoros_count = daily_metrics.pomodoros_count + EXCLUDED.pomodoros_count,
			tasks_completed_count = daily_metrics.tasks_completed_count + EXCLUDED.tasks_completed_count,
			focus_duration_minutes = daily_metrics.focus_duration_minutes + EXCLUDED.focus_duration_minutes,
			focus_score_total = daily_metrics.focus_score_total + EXCLUDED.focus_score_total,
			focus_sessions = daily_metrics.focus_sessions + EXCLUDED.focus_sessions`

	_, err := r.pool.Exec(ctx, query,
		userID, date, d.Pomodoros, d.TasksCompleted, d.FocusMinutes, d.FocusScoreTotal, d.FocusSessions)
	return err
}

func (r *MetricsRepo) GetDay(ctx context.Context, userID uuid.UUID, date time.Time) (*models.DailyMetrics, error) {
	m := &models.DailyMetrics{}
	query := `SELECT user_id, date, pomodoros_count, tasks_completed_count,
		focus_duration_minutes, focus_score_total, focus_sessions
		FROM daily_metrics WHERE user_id = $1 AND date = $2`

	err := r.pool.QueryRow(ctx, query, userID, date).Scan(
		&m.UserID, &m.Date, &m.PomodorosCount, &m.TasksCompletedCount,
		&m.FocusDurationMinutes, &m.FocusScoreTotal, &m.FocusSessions,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MetricsRepo) GetRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.DailyMetrics, error) {
	query := `SELECT user_id, date, pomodoros_count, tasks_completed_count,
		focus_duration_minutes, focus_score_total, focus_sessions
		FROM daily_metrics
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC`

	rows, err := r.pool.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.DailyMetrics
	for rows.Next() {
		var m models.DailyMetrics
		err := rows.Scan(
			&m.UserID, &m.Date, &m.PomodorosCount, &m.TasksCompletedCount,
			&m.FocusDurationMinutes, &m.FocusScoreTotal, &m.FocusSessions,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// ActivityDates returns every date with at least one pomodoro or completed
// task, newest first. Used for streak scanning.
func (r *MetricsRepo) ActivityDates(ctx context.Context, userID uuid.UUID) ([]time.Time, error) {
	query := `SELECT date FROM daily_metrics
		WHERE user_id = $1 AND (pomodoros_count > 0 OR tasks_completed_count > 0)
		ORDER BY date DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
