package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/examprep-backend/internal/model"
)

// CatalogWriter creates banks and categories.
type CatalogWriter interface {
	CatalogStore
	CreateBank(ctx context.Context, b *model.QuestionBank) error
	CreateCategory(ctx context.Context, c *model.Category) error
}

// QuestionWriter creates questions and replaces their options.
type QuestionWriter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	Create(ctx context.Context, q *model.Question) error
	ReplaceOptions(ctx context.Context, questionID uuid.UUID, opts []model.Option) error
}

// CaseWriter creates cases.
type CaseWriter interface {
	Create(ctx context.Context, c *model.Case) error
}

// StatsReader reads per-question aggregates.
type StatsReader interface {
	Get(ctx context.Context, questionID uuid.UUID) (*model.QuestionStats, error)
}

// QuestionInvalidError wraps a question invariant violation.
type QuestionInvalidError struct{ Err error }

func (e *QuestionInvalidError) Error() string { return e.Err.Error() }
func (e *QuestionInvalidError) Unwrap() error { return e.Err }

// AdminContentService is the thin content-management surface.
type AdminContentService struct {
	catalog   CatalogWriter
	questions QuestionWriter
	cases     CaseWriter
	stats     StatsReader
	log       zerolog.Logger
}

// NewAdminContentService creates a new AdminContentService.
func NewAdminContentService(catalog CatalogWriter, questions QuestionWriter, cases CaseWriter, stats StatsReader, log zerolog.Logger) *AdminContentService {
	return &AdminContentService{
		catalog:   catalog,
		questions: questions,
		cases:     cases,
		stats:     stats,
		log:       log.With().Str("component", "admin_content_service").Logger(),
	}
}

// CreateBank adds a question bank.
func (s *AdminContentService) CreateBank(ctx context.Context, req model.CreateQuestionBankRequest) (*model.QuestionBank, error) {
	b := &model.QuestionBank{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsFree:      req.IsFree,
	}
	if err := s.catalog.CreateBank(ctx, b); err != nil {
		return nil, fmt.Errorf("create bank: %w", err)
	}
	return b, nil
}

// CreateCategory adds a category to an existing bank.
func (s *AdminContentService) CreateCategory(ctx context.Context, req model.CreateCategoryRequest) (*model.Category, error) {
	if _, err := s.catalog.GetBank(ctx, req.BankID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBankNotFound
		}
		return nil, err
	}
	c := &model.Category{BankID: req.BankID, Name: strings.TrimSpace(req.Name), Description: req.Description}
	if err := s.catalog.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// CreateQuestion validates the option invariants and stores the question.
func (s *AdminContentService) CreateQuestion(ctx context.Context, req model.CreateQuestionRequest) (*model.Question, error) {
	banks, err := s.catalog.CategoryBanks(ctx, []uuid.UUID{req.CategoryID})
	if err != nil {
		return nil, err
	}
	if _, ok := banks[req.CategoryID]; !ok {
		return nil, ErrCategoryNotFound
	}

	q := &model.Question{
		CategoryID:  req.CategoryID,
		Text:        req.Text,
		ImageURL:    req.ImageURL,
		Difficulty:  model.Difficulty(req.Difficulty),
		Explanation: req.Explanation,
		Options:     model.BuildOptions(req.Options),
	}
	if err := q.Validate(); err != nil {
		return nil, &QuestionInvalidError{Err: err}
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	s.log.Info().Str("question_id", q.ID.String()).Int("options", len(q.Options)).Msg("Question created")
	return q, nil
}

// ReplaceOptions swaps a question's options as a whole set. Running sessions keep their snapshot.
func (s *AdminContentService) ReplaceOptions(ctx context.Context, questionID uuid.UUID, req model.ReplaceOptionsRequest) (*model.Question, error) {
	q, err := s.questions.GetByID(ctx, questionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}

	q.Options = model.BuildOptions(req.Options)
	if err := q.Validate(); err != nil {
		return nil, &QuestionInvalidError{Err: err}
	}
	if err := s.questions.ReplaceOptions(ctx, questionID, q.Options); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("replace options: %w", err)
	}
	return q, nil
}

// CreateCase stores a case with its ordered questions.
func (s *AdminContentService) CreateCase(ctx context.Context, req model.CreateCaseRequest) (*model.Case, error) {
	c := &model.Case{
		Title:        strings.TrimSpace(req.Title),
		Scenario:     req.Scenario,
		Instructions: req.Instructions,
		Questions:    make([]model.CaseQuestion, len(req.Questions)),
	}
	for i, in := range req.Questions {
		c.Questions[i] = model.CaseQuestion{
			Prompt:        in.Prompt,
			CorrectAnswer: in.CorrectAnswer,
			Explanation:   in.Explanation,
			Hint:          in.Hint,
			OrderIndex:    i,
		}
	}
	if err := s.cases.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}
	return c, nil
}

// QuestionStats returns a question's attempt aggregates.
func (s *AdminContentService) QuestionStats(ctx context.Context, questionID uuid.UUID) (*model.QuestionStats, error) {
	if _, err := s.questions.GetByID(ctx, questionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return s.stats.Get(ctx, questionID)
}
