package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/examprep-backend/internal/exam"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stemsi/examprep-backend/internal/response"
)

// QuestionSource is the question store used for availability and selection.
type QuestionSource interface {
	ListByFilter(ctx context.Context, categoryIDs []uuid.UUID, levels []model.Difficulty) ([]model.Question, error)
	CountAvailable(ctx context.Context, categoryIDs []uuid.UUID, levels []model.Difficulty) (int, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error)
}

// ExamStore persists exam definitions.
type ExamStore interface {
	Create(ctx context.Context, e *model.ExamDefinition) error
	GetForUser(ctx context.Context, id uuid.UUID, userID int) (*model.ExamDefinition, error)
	ListByUser(ctx context.Context, userID, limit, offset int) ([]model.ExamDefinition, int, error)
}

// AccessChecker decides whether a user may build exams over a set of categories.
type AccessChecker interface {
	CheckAccess(ctx context.Context, userID int, categoryIDs []uuid.UUID) error
}

// ExamService configures exam definitions.
type ExamService struct {
	exams     ExamStore
	questions QuestionSource
	access    AccessChecker
	builder   *exam.Builder
	log       zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(exams ExamStore, questions QuestionSource, access AccessChecker, builder *exam.Builder, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams:     exams,
		questions: questions,
		access:    access,
		builder:   builder,
		log:       log.With().Str("component", "exam_service").Logger(),
	}
}

// Availability counts the questions a configuration could draw from. Unknown
// difficulty levels are a validation error.
func (s *ExamService) Availability(ctx context.Context, userID int, categoryIDs []uuid.UUID, levels []model.Difficulty) (int, error) {
	if err := exam.CheckDifficulties(levels); err != nil {
		return 0, err
	}
	categoryIDs = exam.UniqueCategories(categoryIDs)
	if len(categoryIDs) == 0 {
		return 0, nil
	}
	if err := s.access.CheckAccess(ctx, userID, categoryIDs); err != nil {
		return 0, err
	}
	n, err := s.questions.CountAvailable(ctx, categoryIDs, exam.NormalizeDifficulties(levels))
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

// Create validates req and stores the resulting definition. Validation failures come
// back as *exam.ValidationError and nothing is written; a filter matching no questions
// returns exam.ErrNoQuestionsAvailable.
func (s *ExamService) Create(ctx context.Context, userID int, req model.CreateExamRequest) (*model.ExamDefinition, error) {
	categories := exam.UniqueCategories(req.CategoryIDs)
	available := 0
	if len(categories) > 0 {
		if err := s.access.CheckAccess(ctx, userID, categories); err != nil {
			return nil, err
		}
		levels := exam.NormalizeDifficulties(exam.ParseDifficulties(req.Difficulties))
		n, err := s.questions.CountAvailable(ctx, categories, levels)
		if err != nil {
			return nil, fmt.Errorf("count questions: %w", err)
		}
		available = n
	}

	def, err := s.builder.Build(userID, req, available)
	if err != nil {
		return nil, err
	}

	if err := s.exams.Create(ctx, def); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.log.Info().
		Int("user_id", userID).
		Str("exam_id", def.ID.String()).
		Int("question_count", def.QuestionCount).
		Msg("Exam configured")
	return def, nil
}

// Get returns one of the user's definitions.
func (s *ExamService) Get(ctx context.Context, userID int, id uuid.UUID) (*model.ExamDefinition, error) {
	def, err := s.exams.GetForUser(ctx, id, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExamNotFound
	}
	return def, err
}

// List returns a page of the user's definitions.
func (s *ExamService) List(ctx context.Context, userID, page, perPage int) ([]model.ExamDefinition, *response.Pagination, error) {
	page, perPage, limit, offset := pageBounds(page, perPage)
	defs, total, err := s.exams.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	if defs == nil {
		defs = []model.ExamDefinition{}
	}
	return defs, newPagination(page, perPage, total), nil
}
