package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamType distinguishes practice (study) from assessment (test) exams.
type ExamType string

const (
	ExamTypeStudy ExamType = "study"
	ExamTypeTest  ExamType = "test"
)

// TimingMode enumerates whether an exam has a time limit.
type TimingMode string

const (
	TimingUntimed TimingMode = "untimed"
	TimingTimed   TimingMode = "timed"
)

// TimeLimitType selects how TimeLimit is interpreted for timed exams.
type TimeLimitType string

const (
	TimeLimitTotal       TimeLimitType = "total_seconds"
	TimeLimitPerQuestion TimeLimitType = "seconds_per_question"
)

// SelectionOrder controls how the candidate pool is ordered before truncation.
type SelectionOrder string

const (
	SelectionOrdered SelectionOrder = "ordered"
	SelectionRandom  SelectionOrder = "random"
)

// ExamDefinition is the immutable parameter set of a requested exam.
// Only Completed, QuestionIDs and StartedAt change after creation.
type ExamDefinition struct {
	ID             uuid.UUID      `json:"id"`
	UserID         int            `json:"user_id"`
	Name           string         `json:"name"`
	Type           ExamType       `json:"type"`
	CategoryIDs    []uuid.UUID    `json:"category_ids"`
	Difficulties   []Difficulty   `json:"difficulties"`
	QuestionCount  int            `json:"question_count"`
	TimingMode     TimingMode     `json:"timing_mode"`
	TimeLimitType  TimeLimitType  `json:"time_limit_type,omitempty"`
	TimeLimit      int            `json:"time_limit,omitempty"`
	SelectionOrder SelectionOrder `json:"selection_order"`
	QuestionIDs    []uuid.UUID    `json:"question_ids,omitempty"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	Completed      bool           `json:"completed"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Timed reports whether the definition carries a time limit.
func (d *ExamDefinition) Timed() bool {
	return d.TimingMode == TimingTimed && d.TimeLimit > 0
}

// AllDifficulties reports whether the difficulty filter is the "all" sentinel.
func (d *ExamDefinition) AllDifficulties() bool {
	for _, lvl := range d.Difficulties {
		if lvl == DifficultyAll {
			return true
		}
	}
	return len(d.Difficulties) == 0
}

// TimeLimitFor returns the effective limit for a session of n questions, 0 when untimed.
func (d *ExamDefinition) TimeLimitFor(n int) time.Duration {
	if !d.Timed() {
		return 0
	}
	seconds := d.TimeLimit
	if d.TimeLimitType == TimeLimitPerQuestion {
		seconds = d.TimeLimit * n
	}
	return time.Duration(seconds) * time.Second
}

// CreateExamRequest is the exam configuration payload.
type CreateExamRequest struct {
	Name           string      `json:"name" binding:"required,min=1,max=255"`
	Type           string      `json:"type" binding:"required,oneof=study test"`
	CategoryIDs    []uuid.UUID `json:"category_ids" binding:"required,min=1"`
	Difficulties   []string    `json:"difficulties" binding:"omitempty,dive,oneof=all easy medium hard"`
	QuestionCount  int         `json:"question_count" binding:"required"`
	TimingMode     string      `json:"timing_mode" binding:"required,oneof=untimed timed"`
	TimeLimitType  string      `json:"time_limit_type" binding:"omitempty,oneof=total_seconds seconds_per_question"`
	TimeLimit      int         `json:"time_limit" binding:"omitempty,min=0"`
	SelectionOrder string      `json:"selection_order" binding:"omitempty,oneof=ordered random"`
}
