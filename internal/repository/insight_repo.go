package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskflow-backend/internal/models"
)

type InsightRepo struct {
	pool *pgxpool.Pool
}

func NewInsightRepo(pool *pgxpool.Pool) *InsightRepo {
	return &InsightRepo{pool: pool}
}

func (r *InsightRepo) Create(ctx context.Context, insight *models.SessionInsight) error {
	query := `INSERT INTO session_insights (id, user_id, session_id, insight)
		VALUES ($1, $2, $3, $4) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		insight.ID, insight.UserID, insight.SessionID, insight.Insight,
	).Scan(&insight.CreatedAt)
}

func (r *InsightRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.SessionInsight, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	query := `SELECT id, user_id, session_id, insight, created_at
		FROM session_insights WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var insights []models.SessionInsight
	for rows.Next() {
		var si models.SessionInsight
		if err := rows.Scan(&si.ID, &si.UserID, &si.SessionID, &si.Insight, &si.CreatedAt); err != nil {
			return nil, err
		}
		insights = append(insights, si)
	}
	return insights, rows.Err()
}
