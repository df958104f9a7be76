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

// Notes manages a learner's per-question notes.
type Notes interface {
	Save(ctx context.Context, userID int, questionID uuid.UUID, content string) (*model.UserNote, error)
	Get(ctx context.Context, userID int, questionID uuid.UUID) (*model.UserNote, error)
	List(ctx context.Context, userID int) ([]model.UserNote, error)
	Delete(ctx context.Context, userID int, questionID uuid.UUID) error
}

// NoteHandler handles note endpoints.
type NoteHandler struct {
	notes Notes
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(notes Notes) *NoteHandler {
	return &NoteHandler{notes: notes}
}

// SaveNote godoc
// PUT /api/v1/notes/:question_id
// The latest write wins.
func (h *NoteHandler) SaveNote(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	questionID, ok := uuidParam(c, "question_id")
	if !ok {
		return
	}
	var req model.UpsertNoteRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	note, err := h.notes.Save(c.Request.Context(), userID, questionID, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"note": note})
}

// GetNote godoc
// GET /api/v1/notes/:question_id
func (h *NoteHandler) GetNote(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	questionID, ok := uuidParam(c, "question_id")
	if !ok {
		return
	}
	note, err := h.notes.Get(c.Request.Context(), userID, questionID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"note": note})
}

// ListNotes godoc
// GET /api/v1/notes
func (h *NoteHandler) ListNotes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	notes, err := h.notes.List(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"notes": notes})
}

// DeleteNote godoc
// DELETE /api/v1/notes/:question_id
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	questionID, ok := uuidParam(c, "question_id")
	if !ok {
		return
	}
	if err := h.notes.Delete(c.Request.Context(), userID, questionID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
