package exam

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/examprep-backend/internal/model"
)

var (
	ErrSessionNotInProgress  = errors.New("exam session is not in progress")
	ErrSessionAlreadyStarted = errors.New("exam session has already been started")
	ErrSessionNotSubmitting  = errors.New("exam session is not submitting")
	ErrEmptySession          = errors.New("exam session has no questions")
	ErrUnknownQuestion       = errors.New("question is not part of this exam session")
	ErrUnknownOption         = errors.New("option does not belong to the question")
)

// Session is the mutable state of one exam attempt:
// NOT_STARTED -> IN_PROGRESS -> SUBMITTING -> COMPLETED.
// It is owned by the caller and carries no references to stores.
type Session struct {
	ExamID        uuid.UUID                            `json:"exam_id"`
	UserID        int                                  `json:"user_id"`
	Name          string                               `json:"name"`
	State         model.SessionState                   `json:"state"`
	Questions     []model.Question                     `json:"questions"`
	Answers       map[uuid.UUID]model.AnsweredQuestion `json:"answers"`
	Flagged       map[uuid.UUID]bool                   `json:"flagged"`
	Current       int                                  `json:"current"`
	StartedAt     time.Time                            `json:"started_at"`
	Limit         time.Duration                        `json:"limit"`
	AutoSubmitted bool                                 `json:"auto_submitted"`
}

// NewSession snapshots questions for def. The time limit is fixed here from the
// number of questions actually selected.
func NewSession(def *model.ExamDefinition, questions []model.Question) *Session {
	snapshot := make([]model.Question, len(questions))
	for i := range questions {
		snapshot[i] = questions[i].Clone()
	}
	return &Session{
		ExamID:    def.ID,
		UserID:    def.UserID,
		Name:      def.Name,
		State:     model.SessionNotStarted,
		Questions: snapshot,
		Answers:   make(map[uuid.UUID]model.AnsweredQuestion),
		Flagged:   make(map[uuid.UUID]bool),
		Limit:     def.TimeLimitFor(len(snapshot)),
	}
}

// Start moves a new session to IN_PROGRESS.
func (s *Session) Start(now time.Time) error {
	if s.State != model.SessionNotStarted {
		return ErrSessionAlreadyStarted
	}
	if len(s.Questions) == 0 {
		return ErrEmptySession
	}
	s.State = model.SessionInProgress
	s.StartedAt = now
	s.Current = 0
	return nil
}

func (s *Session) question(id uuid.UUID) *model.Question {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i]
		}
	}
	return nil
}

// CurrentQuestion returns the displayed question, nil for an empty session.
func (s *Session) CurrentQuestion() *model.Question {
	if s.Current < 0 || s.Current >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.Current]
}

// SelectAnswer overwrites the answer for questionID. An empty selection clears it.
// The position does not move.
func (s *Session) SelectAnswer(questionID uuid.UUID, optionIDs []uuid.UUID, now time.Time) error {
	if s.State != model.SessionInProgress {
		return ErrSessionNotInProgress
	}
	q := s.question(questionID)
	if q == nil {
		return ErrUnknownQuestion
	}

	selected := make([]uuid.UUID, 0, len(optionIDs))
	seen := make(map[uuid.UUID]bool, len(optionIDs))
	for _, id := range optionIDs {
		if !q.HasOption(id) {
			return ErrUnknownOption
		}
		if !seen[id] {
			seen[id] = true
			selected = append(selected, id)
		}
	}

	if len(selected) == 0 {
		delete(s.Answers, questionID)
		return nil
	}
	s.Answers[questionID] = model.AnsweredQuestion{
		QuestionID:        questionID,
		SelectedOptionIDs: selected,
		AnsweredAt:        now,
	}
	return nil
}

// Next saves the displayed selection (when non-nil) and advances, clamped to the last question.
func (s *Session) Next(displayed []uuid.UUID, now time.Time) error {
	return s.move(1, displayed, now)
}

// Previous saves the displayed selection (when non-nil) and steps back, clamped to the first question.
func (s *Session) Previous(displayed []uuid.UUID, now time.Time) error {
	return s.move(-1, displayed, now)
}

// GoTo saves the displayed selection (when non-nil) and jumps to index, clamped to the session.
func (s *Session) GoTo(index int, displayed []uuid.UUID, now time.Time) error {
	return s.move(index-s.Current, displayed, now)
}

func (s *Session) move(delta int, displayed []uuid.UUID, now time.Time) error {
	if s.State != model.SessionInProgress {
		return ErrSessionNotInProgress
	}
	if displayed != nil {
		if q := s.CurrentQuestion(); q != nil {
			if err := s.SelectAnswer(q.ID, displayed, now); err != nil {
				return err
			}
		}
	}

	next := s.Current + delta
	if next > len(s.Questions)-1 {
		next = len(s.Questions) - 1
	}
	if next < 0 {
		next = 0
	}
	s.Current = next
	return nil
}

// Flag adds questionID to the flagged set. Flags are independent of answers and state.
func (s *Session) Flag(questionID uuid.UUID) error {
	if s.question(questionID) == nil {
		return ErrUnknownQuestion
	}
	s.Flagged[questionID] = true
	return nil
}

// Unflag removes questionID from the flagged set.
func (s *Session) Unflag(questionID uuid.UUID) error {
	if s.question(questionID) == nil {
		return ErrUnknownQuestion
	}
	delete(s.Flagged, questionID)
	return nil
}

// IsFlagged reports membership in the flagged set.
func (s *Session) IsFlagged(questionID uuid.UUID) bool {
	return s.Flagged[questionID]
}

// FlaggedIDs lists flagged questions in session order.
func (s *Session) FlaggedIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Flagged))
	for i := range s.Questions {
		if s.Flagged[s.Questions[i].ID] {
			ids = append(ids, s.Questions[i].ID)
		}
	}
	return ids
}

// Finish freezes answers. Only valid from IN_PROGRESS, so a second caller
// (user submit racing the auto-submit timer) gets ErrSessionNotInProgress.
func (s *Session) Finish() error {
	if s.State != model.SessionInProgress {
		return ErrSessionNotInProgress
	}
	s.State = model.SessionSubmitting
	return nil
}

// Reopen returns a SUBMITTING session to IN_PROGRESS after a failed persist.
func (s *Session) Reopen() error {
	if s.State != model.SessionSubmitting {
		return ErrSessionNotSubmitting
	}
	s.State = model.SessionInProgress
	s.AutoSubmitted = false
	return nil
}

// Complete marks a SUBMITTING session as COMPLETED.
func (s *Session) Complete() error {
	if s.State != model.SessionSubmitting {
		return ErrSessionNotSubmitting
	}
	s.State = model.SessionCompleted
	return nil
}

// Score grades the session's current answers.
func (s *Session) Score() Result {
	return Score(s.Questions, s.Answers)
}

// Timed reports whether the session has a deadline.
func (s *Session) Timed() bool {
	return s.Limit > 0
}

// Deadline returns StartedAt + Limit; ok is false for untimed or unstarted sessions.
func (s *Session) Deadline() (time.Time, bool) {
	if !s.Timed() || s.StartedAt.IsZero() {
		return time.Time{}, false
	}
	return s.StartedAt.Add(s.Limit), true
}

// Expired reports whether a timed session has used its whole limit at now.
func (s *Session) Expired(now time.Time) bool {
	deadline, ok := s.Deadline()
	return ok && !now.Before(deadline)
}

// Remaining is the time left at now, clamped at zero. ok is false for untimed sessions.
func (s *Session) Remaining(now time.Time) (time.Duration, bool) {
	deadline, ok := s.Deadline()
	if !ok {
		return 0, false
	}
	left := deadline.Sub(now)
	if left < 0 {
		left = 0
	}
	return left, true
}

// Elapsed is the time since start at now.
func (s *Session) Elapsed(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(s.StartedAt)
}

// View projects the session for the learner, hiding correct options.
func (s *Session) View(now time.Time) model.ExamSessionView {
	questions := make([]model.QuestionForLearner, len(s.Questions))
	for i := range s.Questions {
		questions[i] = s.Questions[i].ForLearner()
	}

	answers := make(map[uuid.UUID][]uuid.UUID, len(s.Answers))
	for id, a := range s.Answers {
		answers[id] = append([]uuid.UUID(nil), a.SelectedOptionIDs...)
	}

	view := model.ExamSessionView{
		ExamID:       s.ExamID,
		Name:         s.Name,
		State:        s.State,
		CurrentIndex: s.Current,
		Questions:    questions,
		Answers:      answers,
		Flagged:      s.FlaggedIDs(),
		StartedAt:    s.StartedAt,
	}
	if deadline, ok := s.Deadline(); ok {
		remaining, _ := s.Remaining(now)
		secs := remaining.Seconds()
		view.Deadline = &deadline
		view.RemainingSeconds = &secs
	}
	return view
}
