package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/examprep-backend/internal/model"
)

// NoteStore persists user notes.
type NoteStore interface {
	Upsert(ctx context.Context, n *model.UserNote) error
	Get(ctx context.Context, userID int, questionID uuid.UUID) (*model.UserNote, error)
	ListByUser(ctx context.Context, userID int) ([]model.UserNote, error)
	Delete(ctx context.Context, userID int, questionID uuid.UUID) (bool, error)
}

// NoteService manages one note per (user, question).
type NoteService struct {
	notes     NoteStore
	questions QuestionChecker
}

// NewNoteService creates a new NoteService.
func NewNoteService(notes NoteStore, questions QuestionChecker) *NoteService {
	return &NoteService{notes: notes, questions: questions}
}

// Save writes the note, replacing any earlier one.
func (s *NoteService) Save(ctx context.Context, userID int, questionID uuid.UUID, content string) (*model.UserNote, error) {
	ok, err := s.questions.Exists(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrQuestionNotFound
	}
	n := &model.UserNote{UserID: userID, QuestionID: questionID, Content: content}
	if err := s.notes.Upsert(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Get returns the user's note on a question.
func (s *NoteService) Get(ctx context.Context, userID int, questionID uuid.UUID) (*model.UserNote, error) {
	n, err := s.notes.Get(ctx, userID, questionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoteNotFound
	}
	return n, err
}

// List returns all of the user's notes.
func (s *NoteService) List(ctx context.Context, userID int) ([]model.UserNote, error) {
	notes, err := s.notes.ListByUser(ctx, userID)
	if notes == nil && err == nil {
		notes = []model.UserNote{}
	}
	return notes, err
}

// Delete removes the user's note on a question.
func (s *NoteService) Delete(ctx context.Context, userID int, questionID uuid.UUID) error {
	found, err := s.notes.Delete(ctx, userID, questionID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNoteNotFound
	}
	return nil
}
