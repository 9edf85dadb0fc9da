package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskflow-backend/internal/models"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Create(ctx context.Context, s *models.TimerSession) error {
	s.ID = uuid.New()

	query := `INSERT INTO timer_sessions (id, user_id, task_id, type, started_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		s.ID, s.UserID, s.TaskID, s.Type, s.StartedAt,
	).Scan(&s.CreatedAt)
}

// GetActive returns the user's open session. At most one row can exist
// because of the partial unique index on (user_id) WHERE ended_at IS NULL.
func (r *SessionRepo) GetActive(ctx context.Context, userID uuid.UUID) (*models.TimerSession, error) {
	s := &models.TimerSession{}
	query := `SELECT id, user_id, task_id, type, started_at, ended_at,
		duration_minutes, total_pause_seconds, pause_count, current_pause_start,
		split_reason, was_completed, created_at
		FROM timer_sessions WHERE user_id = $1 AND ended_at IS NULL`

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.TaskID, &s.Type, &s.StartedAt, &s.EndedAt,
		&s.DurationMinutes, &s.TotalPauseSeconds, &s.PauseCount, &s.CurrentPauseStart,
		&s.SplitReason, &s.WasCompleted, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SessionRepo) UpdatePauseState(ctx context.Context, s *models.TimerSession) error {
	query := `UPDATE timer_sessions
		SET total_pause_seconds = $2, pause_count = $3, current_pause_start = $4
		WHERE id = $1 AND ended_at IS NULL`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.TotalPauseSeconds, s.PauseCount, s.CurrentPauseStart)
	return err
}

func (r *SessionRepo) Finish(ctx context.Context, s *models.TimerSession) error {
	query := `UPDATE timer_sessions
		SET ended_at = $2, duration_minutes = $3, total_pause_seconds = $4,
			pause_count = $5, current_pause_start = NULL,
			split_reason = $6, was_completed = $7
		WHERE id = $1`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.EndedAt, s.DurationMinutes, s.TotalPauseSeconds,
		s.PauseCount, s.SplitReason, s.WasCompleted)
	return err
}

// StartedBetween returns ended sessions whose started_at falls in
// [start, end]. The heatmap keys buckets by start time, so selection has to
// use the same column or a session straddling midnight on the week boundary
// gets counted into the wrong week.
func (r *SessionRepo) StartedBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.TimerSession, error) {
	query := `SELECT id, user_id, task_id, type, started_at, ended_at,
		duration_minutes, total_pause_seconds, pause_count, current_pause_start,
		split_reason, was_completed, created_at
		FROM timer_sessions
		WHERE user_id = $1 AND ended_at IS NOT NULL AND started_at BETWEEN $2 AND $3
		ORDER BY started_at ASC`

	rows, err := r.pool.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.TimerSession
	for rows.Next() {
		var s models.TimerSession
		err := rows.Scan(
			&s.ID, &s.UserID, &s.TaskID, &s.Type, &s.StartedAt, &s.EndedAt,
			&s.DurationMinutes, &s.TotalPauseSeconds, &s.PauseCount, &s.CurrentPauseStart,
			&s.SplitReason, &s.WasCompleted, &s.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ProjectMinutesBetween aggregates focus minutes per project for work-type
// sessions started in [start, end]. Sessions without a task (or whose task
// has no project) are grouped under "No Project".
func (r *SessionRepo) ProjectMinutesBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.ProjectTime, error) {
	query := `SELECT COALESCE(p.name, 'No Project') AS project, SUM(ts.duration_minutes) AS minutes
		FROM timer_sessions ts
		LEFT JOIN tasks t ON t.id = ts.task_id
		LEFT JOIN projects p ON p.id = t.project_id
		WHERE ts.user_id = $1 AND ts.type IN ('WORK', 'CONTINUOUS')
			AND ts.ended_at IS NOT NULL AND ts.started_at BETWEEN $2 AND $3
		GROUP BY project
		ORDER BY minutes DESC`

	rows, err := r.pool.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.ProjectTime
	for rows.Next() {
		var pt models.ProjectTime
		if err := rows.Scan(&pt.Name, &pt.Minutes); err != nil {
			return nil, err
		}
		result = append(result, pt)
	}
	return result, rows.Err()
}
