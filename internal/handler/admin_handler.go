package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stemsi/examprep-backend/internal/response"
	"github.com/stemsi/examprep-backend/internal/validator"
)

// ContentAdmin is the content-management surface.
type ContentAdmin interface {
	CreateBank(ctx context.Context, req model.CreateQuestionBankRequest) (*model.QuestionBank, error)
	CreateCategory(ctx context.Context, req model.CreateCategoryRequest) (*model.Category, error)
	CreateQuestion(ctx context.Context, req model.CreateQuestionRequest) (*model.Question, error)
	ReplaceOptions(ctx context.Context, questionID uuid.UUID, req model.ReplaceOptionsRequest) (*model.Question, error)
	CreateCase(ctx context.Context, req model.CreateCaseRequest) (*model.Case, error)
	QuestionStats(ctx context.Context, questionID uuid.UUID) (*model.QuestionStats, error)
}

// SubscriptionGranter grants bank access.
type SubscriptionGranter interface {
	Grant(ctx context.Context, req model.GrantSubscriptionRequest) (*model.Subscription, error)
}

// AdminHandler handles admin content endpoints.
type AdminHandler struct {
	content ContentAdmin
	subs    SubscriptionGranter
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(content ContentAdmin, subs SubscriptionGranter) *AdminHandler {
	return &AdminHandler{content: content, subs: subs}
}

// bindAndCreate binds T, calls create and answers 201 with the result under key.
func bindAndCreate[T any, R any](c *gin.Context, key string, create func(context.Context, T) (R, error)) {
	var req T
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	out, err := create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{key: out})
}

// CreateBank godoc
// POST /api/v1/admin/banks
func (h *AdminHandler) CreateBank(c *gin.Context) {
	bindAndCreate(c, "bank", h.content.CreateBank)
}

// CreateCategory godoc
// POST /api/v1/admin/categories
func (h *AdminHandler) CreateCategory(c *gin.Context) {
	bindAndCreate(c, "category", h.content.CreateCategory)
}

// CreateQuestion godoc
// POST /api/v1/admin/questions
// Rejects option sets outside 2..8 or without a correct option.
func (h *AdminHandler) CreateQuestion(c *gin.Context) {
	bindAndCreate(c, "question", h.content.CreateQuestion)
}

// CreateCase godoc
// POST /api/v1/admin/cases
func (h *AdminHandler) CreateCase(c *gin.Context) {
	bindAndCreate(c, "case", h.content.CreateCase)
}

// GrantSubscription godoc
// POST /api/v1/admin/subscriptions
// Creates or extends a user's access to a bank.
func (h *AdminHandler) GrantSubscription(c *gin.Context) {
	bindAndCreate(c, "subscription", h.subs.Grant)
}

// ReplaceOptions godoc
// PUT /api/v1/admin/questions/:question_id/options
// Replaces the whole option set in one transaction.
func (h *AdminHandler) ReplaceOptions(c *gin.Context) {
	questionID, ok := uuidParam(c, "question_id")
	if !ok {
		return
	}
	var req model.ReplaceOptionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.content.ReplaceOptions(c.Request.Context(), questionID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// QuestionStats godoc
// GET /api/v1/admin/questions/:question_id/stats
func (h *AdminHandler) QuestionStats(c *gin.Context) {
	questionID, ok := uuidParam(c, "question_id")
	if !ok {
		return
	}
	stats, err := h.content.QuestionStats(c.Request.Context(), questionID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}
