package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stemsi/examprep-backend/internal/response"
)

// ResultReader reads submitted results.
type ResultReader interface {
	ListByUser(ctx context.Context, userID, limit, offset int) ([]model.ExamResult, int, error)
	GetForUser(ctx context.Context, id uuid.UUID, userID int) (*model.ExamResult, error)
}

// ResultService serves a learner's result history.
type ResultService struct {
	results ResultReader
}

// NewResultService creates a new ResultService.
func NewResultService(results ResultReader) *ResultService {
	return &ResultService{results: results}
}

// List returns a page of results, newest first.
func (s *ResultService) List(ctx context.Context, userID, page, perPage int) ([]model.ExamResult, *response.Pagination, error) {
	page, perPage, limit, offset := pageBounds(page, perPage)
	results, total, err := s.results.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	if results == nil {
		results = []model.ExamResult{}
	}
	return results, newPagination(page, perPage, total), nil
}

// Get returns one result with its answer log.
func (s *ResultService) Get(ctx context.Context, userID int, id uuid.UUID) (*model.ExamResult, error) {
	res, err := s.results.GetForUser(ctx, id, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	return res, err
}
