package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stemsi/examprep-backend/internal/response"
	"github.com/stemsi/examprep-backend/internal/service"
	"github.com/stemsi/examprep-backend/internal/validator"
)

// CaseStudies runs learners through case studies.
type CaseStudies interface {
	List(ctx context.Context, userID int) ([]service.CaseSummary, error)
	Get(ctx context.Context, userID int, caseID uuid.UUID) (*service.CaseDetail, error)
	Start(ctx context.Context, userID int, caseID uuid.UUID) (*service.CaseDetail, error)
	SubmitAnswer(ctx context.Context, userID int, caseID uuid.UUID, req model.SubmitCaseAnswerRequest) (*model.CaseReveal, error)
	UpdateProgress(ctx context.Context, userID int, caseID uuid.UUID, index int, isLast bool) (*model.UserCaseProgress, error)
	Complete(ctx context.Context, userID int, caseID uuid.UUID) (*model.UserCaseProgress, error)
}

// CaseHandler handles case-study endpoints.
type CaseHandler struct {
	cases CaseStudies
}

// NewCaseHandler creates a new CaseHandler.
func NewCaseHandler(cases CaseStudies) *CaseHandler {
	return &CaseHandler{cases: cases}
}

// ListCases godoc
// GET /api/v1/cases
func (h *CaseHandler) ListCases(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	cases, err := h.cases.List(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cases": cases})
}

func (h *CaseHandler) ids(c *gin.Context) (int, uuid.UUID, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return 0, uuid.Nil, false
	}
	caseID, ok := uuidParam(c, "case_id")
	return userID, caseID, ok
}

// GetCase godoc
// GET /api/v1/cases/:case_id
// The model answers stay hidden; answered prompts come back with the learner's text.
func (h *CaseHandler) GetCase(c *gin.Context) {
	userID, caseID, ok := h.ids(c)
	if !ok {
		return
	}
	detail, err := h.cases.Get(c.Request.Context(), userID, caseID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"case": detail})
}

// StartCase godoc
// POST /api/v1/cases/:case_id/start
// Leaves the instructions, or restarts a completed case from the first question.
func (h *CaseHandler) StartCase(c *gin.Context) {
	userID, caseID, ok := h.ids(c)
	if !ok {
		return
	}
	detail, err := h.cases.Start(c.Request.Context(), userID, caseID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"case": detail})
}

// SubmitAnswer godoc
// POST /api/v1/cases/:case_id/answers
// Stores the free-text answer and reveals the model answer.
func (h *CaseHandler) SubmitAnswer(c *gin.Context) {
	userID, caseID, ok := h.ids(c)
	if !ok {
		return
	}
	var req model.SubmitCaseAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	reveal, err := h.cases.SubmitAnswer(c.Request.Context(), userID, caseID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reveal": reveal})
}

// UpdateProgress godoc
// POST /api/v1/cases/:case_id/progress
func (h *CaseHandler) UpdateProgress(c *gin.Context) {
	userID, caseID, ok := h.ids(c)
	if !ok {
		return
	}
	var req model.UpdateCaseProgressRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	progress, err := h.cases.UpdateProgress(c.Request.Context(), userID, caseID, req.Index, req.IsLast)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"progress": progress})
}

// CompleteCase godoc
// POST /api/v1/cases/:case_id/complete
func (h *CaseHandler) CompleteCase(c *gin.Context) {
	userID, caseID, ok := h.ids(c)
	if !ok {
		return
	}
	progress, err := h.cases.Complete(c.Request.Context(), userID, caseID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"progress": progress})
}
