package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionState enumerates exam session states.
type SessionState string

const (
	SessionNotStarted SessionState = "NOT_STARTED"
	SessionInProgress SessionState = "IN_PROGRESS"
	SessionSubmitting SessionState = "SUBMITTING"
	SessionCompleted  SessionState = "COMPLETED"
)

// AnsweredQuestion is one entry of a session's answer map.
type AnsweredQuestion struct {
	QuestionID        uuid.UUID   `json:"question_id"`
	SelectedOptionIDs []uuid.UUID `json:"selected_option_ids"`
	IsCorrect         bool        `json:"is_correct"`
	AnsweredAt        time.Time   `json:"answered_at"`
}

// ExamSessionView is the learner-facing projection of a live session.
type ExamSessionView struct {
	ExamID           uuid.UUID                 `json:"exam_id"`
	Name             string                    `json:"name"`
	State            SessionState              `json:"state"`
	CurrentIndex     int                       `json:"current_index"`
	Questions        []QuestionForLearner      `json:"questions"`
	Answers          map[uuid.UUID][]uuid.UUID `json:"answers"`
	Flagged          []uuid.UUID               `json:"flagged"`
	StartedAt        time.Time                 `json:"started_at"`
	Deadline         *time.Time                `json:"deadline,omitempty"`
	RemainingSeconds *float64                  `json:"remaining_seconds,omitempty"`
}

// SelectAnswerRequest records a selection for a question.
type SelectAnswerRequest struct {
	QuestionID uuid.UUID   `json:"question_id" binding:"required"`
	OptionIDs  []uuid.UUID `json:"option_ids" binding:"max=8"`
}

// NavigateRequest optionally carries the displayed question's selection, saved before moving.
type NavigateRequest struct {
	OptionIDs []uuid.UUID `json:"option_ids" binding:"omitempty,max=8"`
}

// SessionEvent is pushed to a learner's open exam stream when the server changes the session.
type SessionEvent struct {
	Type   string      `json:"type"`
	ExamID uuid.UUID   `json:"exam_id"`
	Result *ExamResult `json:"result,omitempty"`
}

const SessionEventSubmitted = "submitted"
