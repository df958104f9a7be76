package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stemsi/examprep-backend/internal/response"
)

// ResultReader reads a learner's result history.
type ResultReader interface {
	List(ctx context.Context, userID, page, perPage int) ([]model.ExamResult, *response.Pagination, error)
	Get(ctx context.Context, userID int, id uuid.UUID) (*model.ExamResult, error)
}

// ResultHandler serves stored exam results.
type ResultHandler struct {
	results ResultReader
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(results ResultReader) *ResultHandler {
	return &ResultHandler{results: results}
}

// ListResults godoc
// GET /api/v1/results
// Newest first, without the per-question log.
func (h *ResultHandler) ListResults(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, perPage := pageParams(c)

	results, pagination, err := h.results.List(c.Request.Context(), userID, page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}

// GetResult godoc
// GET /api/v1/results/:result_id
func (h *ResultHandler) GetResult(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "result_id")
	if !ok {
		return
	}

	result, err := h.results.Get(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}
