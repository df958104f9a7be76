package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examprep-backend/internal/model"
)

// ExamRepository handles exam definitions. Every read is scoped to the owning user.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `id, user_id, name, type, category_ids, difficulties, question_count,
	timing_mode, time_limit_type, time_limit, selection_order, question_order, started_at, completed, created_at`

func scanExam(row pgx.Row) (*model.ExamDefinition, error) {
	var (
		e      model.ExamDefinition
		levels []string
		order  []byte
	)
	err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.Type, &e.CategoryIDs, &levels, &e.QuestionCount,
		&e.TimingMode, &e.TimeLimitType, &e.TimeLimit, &e.SelectionOrder, &order, &e.StartedAt, &e.Completed, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Difficulties = make([]model.Difficulty, len(levels))
	for i, l := range levels {
		e.Difficulties[i] = model.Difficulty(l)
	}
	if len(order) > 0 {
		if err := json.Unmarshal(order, &e.QuestionIDs); err != nil {
			return nil, fmt.Errorf("decode question order: %w", err)
		}
	}
	return &e, nil
}

// Create inserts a new exam definition.
func (r *ExamRepository) Create(ctx context.Context, e *model.ExamDefinition) error {
	levels := make([]string, len(e.Difficulties))
	for i, d := range e.Difficulties {
		levels[i] = string(d)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_definitions
		   (user_id, name, type, category_ids, difficulties, question_count,
		    timing_mode, time_limit_type, time_limit, selection_order)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		e.UserID, e.Name, e.Type, e.CategoryIDs, levels, e.QuestionCount,
		e.TimingMode, e.TimeLimitType, e.TimeLimit, e.SelectionOrder,
	).Scan(&e.ID, &e.CreatedAt)
}

// GetForUser retrieves a definition owned by userID.
func (r *ExamRepository) GetForUser(ctx context.Context, id uuid.UUID, userID int) (*model.ExamDefinition, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exam_definitions
		 WHERE id = $1 AND user_id = $2`, id, userID))
}

// ListByUser returns a page of a user's definitions, newest first, with the total count.
func (r *ExamRepository) ListByUser(ctx context.Context, userID, limit, offset int) ([]model.ExamDefinition, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_definitions WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exam_definitions
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.ExamDefinition
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, 0, err
		}
		exams = append(exams, *e)
	}
	return exams, total, rows.Err()
}

// SetQuestionOrder stores the selected question ids and the start time so a session
// can be rebuilt after its snapshot is lost.
func (r *ExamRepository) SetQuestionOrder(ctx context.Context, id uuid.UUID, userID int, ids []uuid.UUID, startedAt time.Time) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE exam_definitions SET question_order = $1, started_at = $2
		 WHERE id = $3 AND user_id = $4`, raw, startedAt, id, userID)
	return err
}
