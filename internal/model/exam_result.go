package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamResult is the immutable record of one submitted session.
type ExamResult struct {
	ID               uuid.UUID          `json:"id"`
	ExamID           uuid.UUID          `json:"exam_id"`
	UserID           int                `json:"user_id"`
	CorrectCount     int                `json:"correct_count"`
	IncorrectCount   int                `json:"incorrect_count"`
	ScorePercentage  int                `json:"score_percentage"`
	TimeTakenSeconds int                `json:"time_taken_seconds"`
	AutoSubmitted    bool               `json:"auto_submitted"`
	Answers          []AnsweredQuestion `json:"answers,omitempty"`
	CompletedAt      time.Time          `json:"completed_at"`
}
