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

// ExamConfigurator creates and reads exam definitions.
type ExamConfigurator interface {
	Create(ctx context.Context, userID int, req model.CreateExamRequest) (*model.ExamDefinition, error)
	Get(ctx context.Context, userID int, id uuid.UUID) (*model.ExamDefinition, error)
	List(ctx context.Context, userID, page, perPage int) ([]model.ExamDefinition, *response.Pagination, error)
}

// ExamSessions drives a learner's live sessions.
type ExamSessions interface {
	Start(ctx context.Context, userID int, examID uuid.UUID) (*model.ExamSessionView, error)
	Resume(ctx context.Context, userID int, examID uuid.UUID) (*model.ExamSessionView, error)
	State(ctx context.Context, userID int, examID uuid.UUID) (*model.ExamSessionView, error)
	SelectAnswer(ctx context.Context, userID int, examID, questionID uuid.UUID, optionIDs []uuid.UUID) (*model.ExamSessionView, error)
	Next(ctx context.Context, userID int, examID uuid.UUID, displayed []uuid.UUID) (*model.ExamSessionView, error)
	Previous(ctx context.Context, userID int, examID uuid.UUID, displayed []uuid.UUID) (*model.ExamSessionView, error)
	Flag(ctx context.Context, userID int, examID, questionID uuid.UUID) (*model.ExamSessionView, error)
	Unflag(ctx context.Context, userID int, examID, questionID uuid.UUID) (*model.ExamSessionView, error)
	Finish(ctx context.Context, userID int, examID uuid.UUID, auto bool) (*model.ExamResult, error)
}

// ExamHandler handles exam configuration and the session REST endpoints.
type ExamHandler struct {
	exams    ExamConfigurator
	sessions ExamSessions
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(exams ExamConfigurator, sessions ExamSessions) *ExamHandler {
	return &ExamHandler{exams: exams, sessions: sessions}
}

// CreateExam godoc
// POST /api/v1/exams
// Validates a configuration and stores it. Field errors come back as VALIDATION_ERROR;
// a filter that matches nothing is NO_QUESTIONS_MATCH.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	def, err := h.exams.Create(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"exam": def})
}

// ListExams godoc
// GET /api/v1/exams
func (h *ExamHandler) ListExams(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, perPage := pageParams(c)

	defs, pagination, err := h.exams.List(c.Request.Context(), userID, page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": defs}, pagination)
}

// GetExam godoc
// GET /api/v1/exams/:exam_id
func (h *ExamHandler) GetExam(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	def, err := h.exams.Get(c.Request.Context(), userID, examID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": def})
}

// sessionCall resolves the user and exam id, runs fn and renders the session view.
func (h *ExamHandler) sessionCall(c *gin.Context, fn func(ctx context.Context, userID int, examID uuid.UUID) (*model.ExamSessionView, error)) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	view, err := fn(c.Request.Context(), userID, examID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// StartExam godoc
// POST /api/v1/exams/:exam_id/start
// Selects the questions and starts the session. Starting twice returns the live session.
func (h *ExamHandler) StartExam(c *gin.Context) {
	h.sessionCall(c, h.sessions.Start)
}

// ResumeExam godoc
// POST /api/v1/exams/:exam_id/resume
func (h *ExamHandler) ResumeExam(c *gin.Context) {
	h.sessionCall(c, h.sessions.Resume)
}

// GetState godoc
// GET /api/v1/exams/:exam_id/state
func (h *ExamHandler) GetState(c *gin.Context) {
	h.sessionCall(c, h.sessions.State)
}

// SelectAnswer godoc
// POST /api/v1/exams/:exam_id/answers
// Replaces the selection for one question; an empty option_ids clears it.
func (h *ExamHandler) SelectAnswer(c *gin.Context) {
	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.sessionCall(c, func(ctx context.Context, userID int, examID uuid.UUID) (*model.ExamSessionView, error) {
		return h.sessions.SelectAnswer(ctx, userID, examID, req.QuestionID, req.OptionIDs)
	})
}

// bindNavigate reads the optional displayed selection. An empty body means none.
func bindNavigate(c *gin.Context) (*model.NavigateRequest, bool) {
	var req model.NavigateRequest
	if c.Request.ContentLength == 0 {
		return &req, true
	}
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return nil, false
	}
	return &req, true
}

// NextQuestion godoc
// POST /api/v1/exams/:exam_id/next
func (h *ExamHandler) NextQuestion(c *gin.Context) {
	req, ok := bindNavigate(c)
	if !ok {
		return
	}
	h.sessionCall(c, func(ctx context.Context, userID int, examID uuid.UUID) (*model.ExamSessionView, error) {
		return h.sessions.Next(ctx, userID, examID, req.OptionIDs)
	})
}

// PreviousQuestion godoc
// POST /api/v1/exams/:exam_id/previous
func (h *ExamHandler) PreviousQuestion(c *gin.Context) {
	req, ok := bindNavigate(c)
	if !ok {
		return
	}
	h.sessionCall(c, func(ctx context.Context, userID int, examID uuid.UUID) (*model.ExamSessionView, error) {
		return h.sessions.Previous(ctx, userID, examID, req.OptionIDs)
	})
}

// FinishExam godoc
// POST /api/v1/exams/:exam_id/finish
// Scores and stores the session. Repeating the call returns the same result.
func (h *ExamHandler) FinishExam(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	result, err := h.sessions.Finish(c.Request.Context(), userID, examID, false)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}
