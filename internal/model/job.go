package model

import (
	"time"

	"github.com/google/uuid"
)

// AnswerLogJob is queued on every selection change so a lost session can be rebuilt.
// An empty OptionIDs clears the draft answer.
type AnswerLogJob struct {
	ExamID     uuid.UUID   `json:"exam_id"`
	UserID     int         `json:"user_id"`
	QuestionID uuid.UUID   `json:"question_id"`
	OptionIDs  []uuid.UUID `json:"option_ids"`
	AnsweredAt time.Time   `json:"answered_at"`
}

// QuestionOrderJob records the questions a session was started with.
type QuestionOrderJob struct {
	ExamID    uuid.UUID   `json:"exam_id"`
	UserID    int         `json:"user_id"`
	Order     []uuid.UUID `json:"order"`
	StartedAt time.Time   `json:"started_at"`
}

// QuestionStatsJob carries the graded answers of one submitted exam.
type QuestionStatsJob struct {
	ExamID  uuid.UUID         `json:"exam_id"`
	Results []QuestionOutcome `json:"results"`
}

// QuestionOutcome is one graded question of a submission.
type QuestionOutcome struct {
	QuestionID uuid.UUID `json:"question_id"`
	Correct    bool      `json:"correct"`
}
