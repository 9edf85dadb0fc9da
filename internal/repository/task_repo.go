package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskflow-backend/internal/models"
)

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

// Complete marks a task done in one guarded UPDATE. pgx.ErrNoRows surfaces
// when the task is missing, owned by someone else, or already done.
func (r *TaskRepo) Complete(ctx context.Context, taskID, userID uuid.UUID) (*models.Task, error) {
	t := &models.Task{}
	query := `UPDATE tasks
		SET status = 'DONE', completed_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status != 'DONE'
		RETURNING id, user_id, workspace_id, project_id, title, status, completed_at, created_at`

	err := r.pool.QueryRow(ctx, query, taskID, userID).Scan(
		&t.ID, &t.UserID, &t.WorkspaceID, &t.ProjectID, &t.Title,
		&t.Status, &t.CompletedAt, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TaskRepo) StatusCounts(ctx context.Context, userID uuid.UUID) ([]models.StatusCount, error) {
	query := `SELECT status, COUNT(*) FROM tasks
		WHERE user_id = $1 AND status != 'ARCHIVED'
		GROUP BY status`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []models.StatusCount
	for rows.Next() {
		var sc models.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, sc)
	}
	return counts, rows.Err()
}
