package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examprep-backend/internal/model"
)

// FlagRepository stores per-user question bookmarks.
type FlagRepository struct {
	pool *pgxpool.Pool
}

// NewFlagRepository creates a new FlagRepository.
func NewFlagRepository(pool *pgxpool.Pool) *FlagRepository {
	return &FlagRepository{pool: pool}
}

// Add flags a question. Flagging twice is a no-op.
func (r *FlagRepository) Add(ctx context.Context, userID int, questionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO flagged_questions (user_id, question_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, question_id) DO NOTHING`, userID, questionID)
	return err
}

// Remove unflags a question. Removing a missing flag is a no-op.
func (r *FlagRepository) Remove(ctx context.Context, userID int, questionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM flagged_questions WHERE user_id = $1 AND question_id = $2`, userID, questionID)
	return err
}

// ListByUser returns a user's flags, newest first.
func (r *FlagRepository) ListByUser(ctx context.Context, userID int) ([]model.FlaggedQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, question_id, created_at
		 FROM flagged_questions WHERE user_id = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flags []model.FlaggedQuestion
	for rows.Next() {
		var f model.FlaggedQuestion
		if err := rows.Scan(&f.UserID, &f.QuestionID, &f.CreatedAt); err != nil {
			return nil, err
		}
		flags = append(flags, f)
	}
	return flags, rows.Err()
}

// FlaggedAmong returns which of the given questions the user has flagged.
func (r *FlagRepository) FlaggedAmong(ctx context.Context, userID int, questionIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id FROM flagged_questions
		 WHERE user_id = $1 AND question_id = ANY($2)`, userID, questionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}
