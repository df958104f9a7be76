package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stemsi/examprep-backend/internal/response"
)

// Bookmarks manages flagged questions outside a session.
type Bookmarks interface {
	Flag(ctx context.Context, userID int, questionID uuid.UUID) error
	Unflag(ctx context.Context, userID int, questionID uuid.UUID) error
	List(ctx context.Context, userID int) ([]model.FlaggedQuestion, error)
}

// FlagHandler handles bookmark endpoints.
type FlagHandler struct {
	flags Bookmarks
}

// NewFlagHandler creates a new FlagHandler.
func NewFlagHandler(flags Bookmarks) *FlagHandler {
	return &FlagHandler{flags: flags}
}

// Flag godoc
// POST /api/v1/flags/:question_id
func (h *FlagHandler) Flag(c *gin.Context) {
	h.write(c, h.flags.Flag, true)
}

// Unflag godoc
// DELETE /api/v1/flags/:question_id
func (h *FlagHandler) Unflag(c *gin.Context) {
	h.write(c, h.flags.Unflag, false)
}

func (h *FlagHandler) write(c *gin.Context, fn func(context.Context, int, uuid.UUID) error, flagged bool) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	questionID, ok := uuidParam(c, "question_id")
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), userID, questionID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question_id": questionID, "flagged": flagged})
}

// ListFlags godoc
// GET /api/v1/flags
func (h *FlagHandler) ListFlags(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	flags, err := h.flags.List(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"flags": flags})
}
