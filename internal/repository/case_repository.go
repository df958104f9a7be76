package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examprep-backend/internal/database"
	"github.com/stemsi/examprep-backend/internal/model"
)

// CaseRepository handles case studies and learner progress through them.
type CaseRepository struct {
	pool *pgxpool.Pool
}

// NewCaseRepository creates a new CaseRepository.
func NewCaseRepository(pool *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{pool: pool}
}

// List returns every case without its questions.
func (r *CaseRepository) List(ctx context.Context) ([]model.Case, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, scenario, instructions, created_at
		 FROM cases ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []model.Case
	for rows.Next() {
		var c model.Case
		if err := rows.Scan(&c.ID, &c.Title, &c.Scenario, &c.Instructions, &c.CreatedAt); err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

// Get returns a case with its questions in order.
func (r *CaseRepository) Get(ctx context.Context, id uuid.UUID) (*model.Case, error) {
	c := &model.Case{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, scenario, instructions, created_at
		 FROM cases WHERE id = $1`, id,
	).Scan(&c.ID, &c.Title, &c.Scenario, &c.Instructions, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, case_id, prompt, correct_answer, explanation, hint, order_index
		 FROM case_questions WHERE case_id = $1
		 ORDER BY order_index`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var q model.CaseQuestion
		if err := rows.Scan(&q.ID, &q.CaseID, &q.Prompt, &q.CorrectAnswer, &q.Explanation, &q.Hint, &q.OrderIndex); err != nil {
			return nil, err
		}
		c.Questions = append(c.Questions, q)
	}
	return c, rows.Err()
}

// Create inserts a case and its questions in one transaction.
func (r *CaseRepository) Create(ctx context.Context, c *model.Case) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO cases (title, scenario, instructions)
			 VALUES ($1, $2, $3)
			 RETURNING id, created_at`,
			c.Title, c.Scenario, c.Instructions,
		).Scan(&c.ID, &c.CreatedAt)
		if err != nil {
			return err
		}

		for i := range c.Questions {
			q := &c.Questions[i]
			q.CaseID = c.ID
			q.OrderIndex = i
			err := tx.QueryRow(ctx,
				`INSERT INTO case_questions (case_id, prompt, correct_answer, explanation, hint, order_index)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 RETURNING id`,
				c.ID, q.Prompt, q.CorrectAnswer, q.Explanation, q.Hint, q.OrderIndex,
			).Scan(&q.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetProgress returns the learner's progress row for a case.
func (r *CaseRepository) GetProgress(ctx context.Context, userID int, caseID uuid.UUID) (*model.UserCaseProgress, error) {
	p := &model.UserCaseProgress{}
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, case_id, current_index, completed, submission_count, completed_at, updated_at
		 FROM user_case_progress WHERE user_id = $1 AND case_id = $2`, userID, caseID,
	).Scan(&p.UserID, &p.CaseID, &p.CurrentIndex, &p.Completed, &p.SubmissionCount, &p.CompletedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SaveProgress upserts the progress row. When submitted is true the stored
// submission_count is incremented in the same statement; the stored count is written
// back into p.
func (r *CaseRepository) SaveProgress(ctx context.Context, p *model.UserCaseProgress, submitted bool) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO user_case_progress
		   (user_id, case_id, current_index, completed, submission_count, completed_at, updated_at)
		 VALUES ($1, $2, $3, $4, CASE WHEN $5::boolean THEN 1 ELSE 0 END, $6, $7)
		 ON CONFLICT (user_id, case_id) DO UPDATE
		 SET current_index    = EXCLUDED.current_index,
		     completed        = EXCLUDED.completed,
		     submission_count = user_case_progress.submission_count + EXCLUDED.submission_count,
		     completed_at     = COALESCE(EXCLUDED.completed_at, user_case_progress.completed_at),
		     updated_at       = EXCLUDED.updated_at
		 RETURNING submission_count`,
		p.UserID, p.CaseID, p.CurrentIndex, p.Completed, submitted, p.CompletedAt, p.UpdatedAt,
	).Scan(&p.SubmissionCount)
}

// ListProgress returns all of a user's case progress rows.
func (r *CaseRepository) ListProgress(ctx context.Context, userID int) ([]model.UserCaseProgress, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, case_id, current_index, completed, submission_count, completed_at, updated_at
		 FROM user_case_progress WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.UserCaseProgress
	for rows.Next() {
		var p model.UserCaseProgress
		if err := rows.Scan(&p.UserID, &p.CaseID, &p.CurrentIndex, &p.Completed, &p.SubmissionCount, &p.CompletedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
