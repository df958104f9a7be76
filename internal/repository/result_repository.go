package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examprep-backend/internal/database"
	"github.com/stemsi/examprep-backend/internal/model"
)

// ErrResultExists is returned when an exam already has a stored result.
var ErrResultExists = errors.New("exam already has a result")

// ResultRepository handles submitted exam results and their answer logs.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Submit writes the result row, one answer row per question, marks the definition completed
// and clears its draft answers, all in one transaction.
func (r *ResultRepository) Submit(ctx context.Context, res *model.ExamResult) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO exam_results
			   (exam_id, user_id, correct_count, incorrect_count, score_percentage,
			    time_taken_seconds, auto_submitted, completed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (exam_id) DO NOTHING
			 RETURNING id`,
			res.ExamID, res.UserID, res.CorrectCount, res.IncorrectCount, res.ScorePercentage,
			res.TimeTakenSeconds, res.AutoSubmitted, res.CompletedAt,
		).Scan(&res.ID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrResultExists
		}
		if err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for i, a := range res.Answers {
			var answeredAt *time.Time
			if !a.AnsweredAt.IsZero() {
				at := a.AnsweredAt
				answeredAt = &at
			}
			batch.Queue(
				`INSERT INTO exam_answers (result_id, question_id, selected_option_ids, is_correct, answered_at, position)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				res.ID, a.QuestionID, nonNilIDs(a.SelectedOptionIDs), a.IsCorrect, answeredAt, i)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return err
			}
		}

		tag, err := tx.Exec(ctx,
			`UPDATE exam_definitions SET completed = TRUE
			 WHERE id = $1 AND user_id = $2`, res.ExamID, res.UserID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}

		_, err = tx.Exec(ctx,
			`DELETE FROM session_answers WHERE exam_id = $1 AND user_id = $2`, res.ExamID, res.UserID)
		return err
	})
}

const resultColumns = `id, exam_id, user_id, correct_count, incorrect_count, score_percentage,
	time_taken_seconds, auto_submitted, completed_at`

func scanResult(row pgx.Row) (*model.ExamResult, error) {
	res := &model.ExamResult{}
	err := row.Scan(&res.ID, &res.ExamID, &res.UserID, &res.CorrectCount, &res.IncorrectCount,
		&res.ScorePercentage, &res.TimeTakenSeconds, &res.AutoSubmitted, &res.CompletedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListByUser returns a page of a user's results, newest first, with the total count.
func (r *ResultRepository) ListByUser(ctx context.Context, userID, limit, offset int) ([]model.ExamResult, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_results WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM exam_results
		 WHERE user_id = $1
		 ORDER BY completed_at DESC
		 LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []model.ExamResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, *res)
	}
	return results, total, rows.Err()
}

// GetForUser returns one result with its answer log in question order.
func (r *ResultRepository) GetForUser(ctx context.Context, id uuid.UUID, userID int) (*model.ExamResult, error) {
	res, err := scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM exam_results
		 WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT question_id, selected_option_ids, is_correct, answered_at
		 FROM exam_answers WHERE result_id = $1
		 ORDER BY position`, res.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a          model.AnsweredQuestion
			answeredAt *time.Time
		)
		if err := rows.Scan(&a.QuestionID, &a.SelectedOptionIDs, &a.IsCorrect, &answeredAt); err != nil {
			return nil, err
		}
		if answeredAt != nil {
			a.AnsweredAt = *answeredAt
		}
		res.Answers = append(res.Answers, a)
	}
	return res, rows.Err()
}

func nonNilIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

// GetByExam returns the stored result of a user's exam, without the answer log.
func (r *ResultRepository) GetByExam(ctx context.Context, examID uuid.UUID, userID int) (*model.ExamResult, error) {
	return scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM exam_results
		 WHERE exam_id = $1 AND user_id = $2`, examID, userID))
}
