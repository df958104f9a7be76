package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examprep-backend/internal/model"
)

// NoteRepository stores one note per (user, question).
type NoteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository creates a new NoteRepository.
func NewNoteRepository(pool *pgxpool.Pool) *NoteRepository {
	return &NoteRepository{pool: pool}
}

// Upsert writes the note; the latest write wins.
func (r *NoteRepository) Upsert(ctx context.Context, n *model.UserNote) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO user_notes (user_id, question_id, content)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, question_id) DO UPDATE
		 SET content = EXCLUDED.content, updated_at = NOW()
		 RETURNING updated_at`,
		n.UserID, n.QuestionID, n.Content,
	).Scan(&n.UpdatedAt)
}

// Get returns a single note.
func (r *NoteRepository) Get(ctx context.Context, userID int, questionID uuid.UUID) (*model.UserNote, error) {
	n := &model.UserNote{}
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, question_id, content, updated_at
		 FROM user_notes WHERE user_id = $1 AND question_id = $2`, userID, questionID,
	).Scan(&n.UserID, &n.QuestionID, &n.Content, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// ListByUser returns a user's notes, most recently edited first.
func (r *NoteRepository) ListByUser(ctx context.Context, userID int) ([]model.UserNote, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, question_id, content, updated_at
		 FROM user_notes WHERE user_id = $1
		 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []model.UserNote
	for rows.Next() {
		var n model.UserNote
		if err := rows.Scan(&n.UserID, &n.QuestionID, &n.Content, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Delete removes a note. It reports whether a row existed.
func (r *NoteRepository) Delete(ctx context.Context, userID int, questionID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_notes WHERE user_id = $1 AND question_id = $2`, userID, questionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
