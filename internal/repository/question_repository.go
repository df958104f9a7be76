package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examprep-backend/internal/database"
	"github.com/stemsi/examprep-backend/internal/model"
)

// QuestionRepository handles question and option data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, serial_number, category_id, text, image_url, difficulty, explanation, created_at, updated_at`

// difficultyFilter returns the concrete levels to filter on. all is true for an empty
// filter or one holding "all"; otherwise only the listed levels match, so a list of
// unknown levels matches nothing.
func difficultyFilter(levels []model.Difficulty) (concrete []string, all bool) {
	if len(levels) == 0 {
		return []string{}, true
	}
	for _, d := range levels {
		if d == model.DifficultyAll {
			return []string{}, true
		}
		if d.Concrete() {
			concrete = append(concrete, string(d))
		}
	}
	return nonNil(concrete), false
}

// ListByFilter returns every question in the categories matching the difficulty filter,
// ordered by serial number, with options attached.
func (r *QuestionRepository) ListByFilter(ctx context.Context, categoryIDs []uuid.UUID, levels []model.Difficulty) ([]model.Question, error) {
	concrete, all := difficultyFilter(levels)
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions
		 WHERE category_id = ANY($1)
		   AND ($2::boolean OR difficulty = ANY($3::text[]))
		 ORDER BY serial_number`,
		categoryIDs, all, concrete,
	)
	if err != nil {
		return nil, err
	}
	questions, err := scanQuestions(rows)
	if err != nil {
		return nil, err
	}
	return questions, r.attachOptions(ctx, questions)
}

// CountAvailable counts the questions matching the filter. It bounds an exam's question count.
func (r *QuestionRepository) CountAvailable(ctx context.Context, categoryIDs []uuid.UUID, levels []model.Difficulty) (int, error) {
	concrete, all := difficultyFilter(levels)
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions
		 WHERE category_id = ANY($1)
		   AND ($2::boolean OR difficulty = ANY($3::text[]))`,
		categoryIDs, all, concrete,
	).Scan(&n)
	return n, err
}

// GetByIDs loads the given questions with options. Missing ids are skipped; order is by serial.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions WHERE id = ANY($1)
		 ORDER BY serial_number`, ids)
	if err != nil {
		return nil, err
	}
	questions, err := scanQuestions(rows)
	if err != nil {
		return nil, err
	}
	return questions, r.attachOptions(ctx, questions)
}

// GetByID loads one question with options.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	qs, err := r.GetByIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &qs[0], nil
}

// Exists reports whether a question id is known.
func (r *QuestionRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM questions WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

// Create inserts a question and its options in one transaction.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO questions (category_id, text, image_url, difficulty, explanation)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, serial_number, created_at, updated_at`,
			q.CategoryID, q.Text, q.ImageURL, q.Difficulty, q.Explanation,
		).Scan(&q.ID, &q.SerialNumber, &q.CreatedAt, &q.UpdatedAt)
		if err != nil {
			return err
		}
		return insertOptions(ctx, tx, q.ID, q.Options)
	})
}

// ReplaceOptions swaps the whole option set of a question atomically.
func (r *QuestionRepository) ReplaceOptions(ctx context.Context, questionID uuid.UUID, opts []model.Option) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE questions SET updated_at = NOW() WHERE id = $1`, questionID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		if _, err := tx.Exec(ctx, `DELETE FROM options WHERE question_id = $1`, questionID); err != nil {
			return err
		}
		return insertOptions(ctx, tx, questionID, opts)
	})
}

func insertOptions(ctx context.Context, tx pgx.Tx, questionID uuid.UUID, opts []model.Option) error {
	for i := range opts {
		opts[i].QuestionID = questionID
		err := tx.QueryRow(ctx,
			`INSERT INTO options (question_id, text, is_correct, order_num)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			questionID, opts[i].Text, opts[i].IsCorrect, opts[i].OrderNum,
		).Scan(&opts[i].ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func scanQuestions(rows pgx.Rows) ([]model.Question, error) {
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.SerialNumber, &q.CategoryID, &q.Text, &q.ImageURL,
			&q.Difficulty, &q.Explanation, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// attachOptions loads options for all questions in one query and groups them by question id.
func (r *QuestionRepository) attachOptions(ctx context.Context, questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(questions))
	index := make(map[uuid.UUID]int, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
		index[q.ID] = i
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, question_id, text, is_correct, order_num
		 FROM options WHERE question_id = ANY($1)
		 ORDER BY question_id, order_num`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var o model.Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect, &o.OrderNum); err != nil {
			return err
		}
		i := index[o.QuestionID]
		questions[i].Options = append(questions[i].Options, o)
	}
	return rows.Err()
}

// nonNil keeps pgx from encoding a nil slice as SQL NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
