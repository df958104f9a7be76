// Package casestudy models the linear free-text case flow:
// INSTRUCTIONS -> ANSWERING(0..n-1) -> COMPLETED. Answers are self-graded, so nothing is scored.
package casestudy

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/examprep-backend/internal/model"
)

// Phase is the learner's position in the flow.
type Phase string

const (
	PhaseInstructions Phase = "INSTRUCTIONS"
	PhaseAnswering    Phase = "ANSWERING"
	PhaseCompleted    Phase = "COMPLETED"
)

var (
	ErrNotAnswering  = errors.New("case is not being answered")
	ErrIndexRange    = errors.New("case question index out of range")
	ErrEmptyCase     = errors.New("case has no questions")
	ErrUnknownPrompt = errors.New("question is not part of this case")
)

// Flow wraps a progress row with the transitions allowed on it.
type Flow struct {
	progress model.UserCaseProgress
	total    int
	phase    Phase
}

// Resume rebuilds the flow from a stored progress row; nil means the learner never started.
func Resume(userID int, caseID uuid.UUID, progress *model.UserCaseProgress, total int) *Flow {
	f := &Flow{total: total, phase: PhaseInstructions}
	if progress == nil {
		f.progress = model.UserCaseProgress{UserID: userID, CaseID: caseID}
		return f
	}

	f.progress = *progress
	switch {
	case progress.Completed:
		f.phase = PhaseCompleted
	case !progress.UpdatedAt.IsZero():
		f.phase = PhaseAnswering
		if f.progress.CurrentIndex >= total {
			f.progress.CurrentIndex = total - 1
		}
		if f.progress.CurrentIndex < 0 {
			f.progress.CurrentIndex = 0
		}
	}
	return f
}

// Phase returns the current phase.
func (f *Flow) Phase() Phase { return f.phase }

// Progress returns a copy of the progress row to persist.
func (f *Flow) Progress() model.UserCaseProgress { return f.progress }

// Begin leaves the instructions (or restarts a completed case) at the first question.
// The submission counter is untouched.
func (f *Flow) Begin(now time.Time) error {
	if f.total == 0 {
		return ErrEmptyCase
	}
	if f.phase == PhaseAnswering {
		return nil
	}
	f.phase = PhaseAnswering
	f.progress.CurrentIndex = 0
	f.progress.Completed = false
	f.progress.UpdatedAt = now
	return nil
}

// MoveTo records the learner's position. isLast on the final question completes the run.
func (f *Flow) MoveTo(index int, isLast bool, now time.Time) error {
	if f.phase != PhaseAnswering {
		return ErrNotAnswering
	}
	if index < 0 || index >= f.total {
		return ErrIndexRange
	}
	f.progress.CurrentIndex = index
	f.progress.UpdatedAt = now
	if isLast {
		return f.Complete(now)
	}
	return nil
}

// Complete finishes the run: the counter goes up by one and completed_at is stamped.
func (f *Flow) Complete(now time.Time) error {
	if f.phase != PhaseAnswering {
		return ErrNotAnswering
	}
	f.phase = PhaseCompleted
	f.progress.Completed = true
	f.progress.SubmissionCount++
	f.progress.CompletedAt = &now
	f.progress.UpdatedAt = now
	return nil
}

// Reveal pairs a learner answer with the model answer for self-assessment.
func Reveal(c *model.Case, questionID uuid.UUID, answer string) (model.CaseReveal, error) {
	for i := range c.Questions {
		q := &c.Questions[i]
		if q.ID == questionID {
			return model.CaseReveal{
				CaseQuestionID: q.ID,
				Answer:         answer,
				CorrectAnswer:  q.CorrectAnswer,
				Explanation:    q.Explanation,
			}, nil
		}
	}
	return model.CaseReveal{}, ErrUnknownPrompt
}

// ForLearner hides the model answers of c.
func ForLearner(c *model.Case) model.CaseForLearner {
	qs := make([]model.CaseQuestionForLearner, len(c.Questions))
	for i := range c.Questions {
		qs[i] = c.Questions[i].ForLearner()
	}
	return model.CaseForLearner{
		ID:           c.ID,
		Title:        c.Title,
		Scenario:     c.Scenario,
		Instructions: c.Instructions,
		Questions:    qs,
	}
}
