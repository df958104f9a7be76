package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/examprep-backend/internal/model"
)

// QuestionChecker tells whether a question exists.
type QuestionChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// FlagLister lists a user's flags.
type FlagLister interface {
	FlagStore
	ListByUser(ctx context.Context, userID int) ([]model.FlaggedQuestion, error)
}

// FlagService manages question bookmarks outside a session.
type FlagService struct {
	flags     FlagLister
	questions QuestionChecker
}

// NewFlagService creates a new FlagService.
func NewFlagService(flags FlagLister, questions QuestionChecker) *FlagService {
	return &FlagService{flags: flags, questions: questions}
}

func (s *FlagService) ensureQuestion(ctx context.Context, id uuid.UUID) error {
	ok, err := s.questions.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check question: %w", err)
	}
	if !ok {
		return ErrQuestionNotFound
	}
	return nil
}

// Flag adds a bookmark. Flagging twice is a no-op.
func (s *FlagService) Flag(ctx context.Context, userID int, questionID uuid.UUID) error {
	if err := s.ensureQuestion(ctx, questionID); err != nil {
		return err
	}
	return s.flags.Add(ctx, userID, questionID)
}

// Unflag removes a bookmark. Unflagging an unflagged question is a no-op.
func (s *FlagService) Unflag(ctx context.Context, userID int, questionID uuid.UUID) error {
	return s.flags.Remove(ctx, userID, questionID)
}

// Toggle flips the bookmark and returns the new state.
func (s *FlagService) Toggle(ctx context.Context, userID int, questionID uuid.UUID) (bool, error) {
	if err := s.ensureQuestion(ctx, questionID); err != nil {
		return false, err
	}
	flagged, err := s.flags.FlaggedAmong(ctx, userID, []uuid.UUID{questionID})
	if err != nil {
		return false, err
	}
	if flagged[questionID] {
		return false, s.flags.Remove(ctx, userID, questionID)
	}
	return true, s.flags.Add(ctx, userID, questionID)
}

// List returns the user's bookmarks.
func (s *FlagService) List(ctx context.Context, userID int) ([]model.FlaggedQuestion, error) {
	flags, err := s.flags.ListByUser(ctx, userID)
	if flags == nil && err == nil {
		flags = []model.FlaggedQuestion{}
	}
	return flags, err
}
