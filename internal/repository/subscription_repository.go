package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examprep-backend/internal/model"
)

// SubscriptionRepository handles bank subscriptions keyed by (user_id, bank_id).
type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

// Upsert grants or renews access; an existing row gets the new expiry.
func (r *SubscriptionRepository) Upsert(ctx context.Context, s *model.Subscription) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO subscriptions (user_id, bank_id, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, bank_id) DO UPDATE
		 SET expires_at = EXCLUDED.expires_at
		 RETURNING created_at`,
		s.UserID, s.BankID, s.ExpiresAt,
	).Scan(&s.CreatedAt)
}

// ListByUser returns all of a user's subscriptions, expired ones included.
func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID int) ([]model.Subscription, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, bank_id, expires_at, created_at
		 FROM subscriptions WHERE user_id = $1
		 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		var s model.Subscription
		if err := rows.Scan(&s.UserID, &s.BankID, &s.ExpiresAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
