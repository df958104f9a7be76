package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/examprep-backend/internal/exam"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stemsi/examprep-backend/internal/response"
)

// CatalogReader lists banks, categories and a learner's subscriptions.
type CatalogReader interface {
	ListBanks(ctx context.Context) ([]model.QuestionBank, error)
	ListCategories(ctx context.Context, bankID uuid.UUID) ([]model.Category, error)
	Subscriptions(ctx context.Context, userID int) ([]model.Subscription, error)
}

// AvailabilityCounter counts questions for a prospective configuration.
type AvailabilityCounter interface {
	Availability(ctx context.Context, userID int, categoryIDs []uuid.UUID, levels []model.Difficulty) (int, error)
}

// CatalogHandler serves the learner-facing catalog.
type CatalogHandler struct {
	catalog CatalogReader
	exams   AvailabilityCounter
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog CatalogReader, exams AvailabilityCounter) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, exams: exams}
}

// ListBanks godoc
// GET /api/v1/catalog/banks
func (h *CatalogHandler) ListBanks(c *gin.Context) {
	banks, err := h.catalog.ListBanks(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"banks": banks})
}

// ListCategories godoc
// GET /api/v1/catalog/banks/:bank_id/categories
// Categories carry their question counts.
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	bankID, ok := uuidParam(c, "bank_id")
	if !ok {
		return
	}
	cats, err := h.catalog.ListCategories(c.Request.Context(), bankID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"categories": cats})
}

// Availability godoc
// GET /api/v1/catalog/availability?category_ids=a,b&difficulties=easy,hard
// Returns the upper bound for question_count.
func (h *CatalogHandler) Availability(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var categoryIDs []uuid.UUID
	for _, raw := range listQuery(c, "category_ids") {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"category_ids": "category_ids must be UUIDs"})
			return
		}
		categoryIDs = append(categoryIDs, id)
	}
	rawLevels := listQuery(c, "difficulties")
	for _, raw := range rawLevels {
		if d := model.Difficulty(raw); !d.Concrete() && d != model.DifficultyAll {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"difficulties": "difficulties must be all, easy, medium or hard"})
			return
		}
	}
	levels := exam.ParseDifficulties(rawLevels)

	n, err := h.exams.Availability(c.Request.Context(), userID, categoryIDs, levels)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"available": n})
}

// Subscriptions godoc
// GET /api/v1/catalog/subscriptions
func (h *CatalogHandler) Subscriptions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subs, err := h.catalog.Subscriptions(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"subscriptions": subs})
}
