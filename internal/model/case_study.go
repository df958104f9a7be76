package model

import (
	"time"

	"github.com/google/uuid"
)

// Case is a scenario with an ordered list of free-text questions.
type Case struct {
	ID           uuid.UUID      `json:"id"`
	Title        string         `json:"title"`
	Scenario     string         `json:"scenario"`
	Instructions string         `json:"instructions"`
	Questions    []CaseQuestion `json:"questions,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// CaseQuestion is one prompt of a case. CorrectAnswer and Explanation are revealed after answering.
type CaseQuestion struct {
	ID            uuid.UUID `json:"id"`
	CaseID        uuid.UUID `json:"case_id"`
	Prompt        string    `json:"prompt"`
	CorrectAnswer string    `json:"correct_answer"`
	Explanation   string    `json:"explanation"`
	Hint          *string   `json:"hint,omitempty"`
	OrderIndex    int       `json:"order_index"`
}

// CaseQuestionForLearner hides the model answer.
type CaseQuestionForLearner struct {
	ID         uuid.UUID `json:"id"`
	Prompt     string    `json:"prompt"`
	Hint       *string   `json:"hint,omitempty"`
	OrderIndex int       `json:"order_index"`
}

// ForLearner strips the model answer from q.
func (q *CaseQuestion) ForLearner() CaseQuestionForLearner {
	return CaseQuestionForLearner{ID: q.ID, Prompt: q.Prompt, Hint: q.Hint, OrderIndex: q.OrderIndex}
}

// CaseForLearner is a case as shown before answers are revealed.
type CaseForLearner struct {
	ID           uuid.UUID                `json:"id"`
	Title        string                   `json:"title"`
	Scenario     string                   `json:"scenario"`
	Instructions string                   `json:"instructions"`
	Questions    []CaseQuestionForLearner `json:"questions"`
}

// UserCaseProgress tracks a learner's position in a case. SubmissionCount only grows.
type UserCaseProgress struct {
	UserID          int        `json:"user_id"`
	CaseID          uuid.UUID  `json:"case_id"`
	CurrentIndex    int        `json:"current_index"`
	Completed       bool       `json:"completed"`
	SubmissionCount int        `json:"submission_count"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CaseReveal is returned after a free-text answer: the learner self-assesses against it.
type CaseReveal struct {
	CaseQuestionID uuid.UUID `json:"case_question_id"`
	Answer         string    `json:"answer"`
	CorrectAnswer  string    `json:"correct_answer"`
	Explanation    string    `json:"explanation"`
}

type SubmitCaseAnswerRequest struct {
	CaseQuestionID uuid.UUID `json:"case_question_id" binding:"required"`
	Answer         string    `json:"answer" binding:"required,max=20000"`
}

type UpdateCaseProgressRequest struct {
	Index  int  `json:"index" binding:"min=0"`
	IsLast bool `json:"is_last"`
}

type CaseQuestionInput struct {
	Prompt        string  `json:"prompt" binding:"required,max=5000"`
	CorrectAnswer string  `json:"correct_answer" binding:"required,max=20000"`
	Explanation   string  `json:"explanation" binding:"omitempty,max=20000"`
	Hint          *string `json:"hint" binding:"omitempty,max=2000"`
}

type CreateCaseRequest struct {
	Title        string              `json:"title" binding:"required,min=3,max=255"`
	Scenario     string              `json:"scenario" binding:"required,max=50000"`
	Instructions string              `json:"instructions" binding:"omitempty,max=5000"`
	Questions    []CaseQuestionInput `json:"questions" binding:"required,min=1,dive"`
}
