package model

import (
	"time"

	"github.com/google/uuid"
)

// FlaggedQuestion is a learner bookmark. The (user, question) pair is a set member.
type FlaggedQuestion struct {
	UserID     int       `json:"user_id"`
	QuestionID uuid.UUID `json:"question_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserNote is one free-text note per (user, question); writes replace it.
type UserNote struct {
	UserID     int       `json:"user_id"`
	QuestionID uuid.UUID `json:"question_id"`
	Content    string    `json:"content"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type UpsertNoteRequest struct {
	Content string `json:"content" binding:"required,max=20000"`
}
