package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examprep-backend/internal/model"
)

// DraftAnswerRepository reads the in-progress answers persisted by the answer-log worker.
type DraftAnswerRepository struct {
	pool *pgxpool.Pool
}

// NewDraftAnswerRepository creates a new DraftAnswerRepository.
func NewDraftAnswerRepository(pool *pgxpool.Pool) *DraftAnswerRepository {
	return &DraftAnswerRepository{pool: pool}
}

// ListByExam returns the latest saved selection per question of a user's exam.
func (r *DraftAnswerRepository) ListByExam(ctx context.Context, examID uuid.UUID, userID int) (map[uuid.UUID]model.AnsweredQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id, selected_option_ids, answered_at
		 FROM session_answers
		 WHERE exam_id = $1 AND user_id = $2`, examID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]model.AnsweredQuestion)
	for rows.Next() {
		var a model.AnsweredQuestion
		if err := rows.Scan(&a.QuestionID, &a.SelectedOptionIDs, &a.AnsweredAt); err != nil {
			return nil, err
		}
		out[a.QuestionID] = a
	}
	return out, rows.Err()
}
