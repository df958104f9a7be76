package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examprep-backend/internal/model"
)

// StatsRepository reads per-question aggregates written by the stats worker.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// Get returns a question's stats; a question never attempted has zero counts.
func (r *StatsRepository) Get(ctx context.Context, questionID uuid.UUID) (*model.QuestionStats, error) {
	s := &model.QuestionStats{QuestionID: questionID}
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(attempts), 0), COALESCE(MAX(correct_count), 0), COALESCE(MAX(updated_at), NOW())
		 FROM question_stats WHERE question_id = $1`, questionID,
	).Scan(&s.Attempts, &s.CorrectCount, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}
