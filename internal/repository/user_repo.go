package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskflow-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) ListDigestRecipients(ctx context.Context) ([]models.DigestRecipient, error) {
	query := `SELECT id, email, full_name, digest_last_sent_at
		FROM users WHERE digest_enabled = TRUE`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []models.DigestRecipient
	for rows.Next() {
		var rec models.DigestRecipient
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.FullName, &rec.LastSentAt); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

func (r *UserRepo) MarkDigestSent(ctx context.Context, userID uuid.UUID, sentAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE users SET digest_last_sent_at = $2 WHERE id = $1", userID, sentAt)
	return err
}
