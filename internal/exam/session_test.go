package exam

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func untimedDef() *model.ExamDefinition {
	return &model.ExamDefinition{
		ID:         uuid.New(),
		UserID:     42,
		Name:       "practice",
		TimingMode: model.TimingUntimed,
	}
}

func startedSession(t *testing.T, def *model.ExamDefinition, qs ...model.Question) *Session {
	t.Helper()
	s := NewSession(def, qs)
	require.NoError(t, s.Start(time.Unix(1_000, 0)))
	return s
}

func TestSession_StartRules(t *testing.T) {
	s := NewSession(untimedDef(), nil)
	assert.ErrorIs(t, s.Start(time.Now()), ErrEmptySession)

	s = NewSession(untimedDef(), []model.Question{newQuestion(1, true, false)})
	assert.Equal(t, model.SessionNotStarted, s.State)
	require.NoError(t, s.Start(time.Now()))
	assert.Equal(t, model.SessionInProgress, s.State)
	assert.ErrorIs(t, s.Start(time.Now()), ErrSessionAlreadyStarted)
}

func TestSession_SelectAnswerValidates(t *testing.T) {
	q := newQuestion(1, true, false)
	s := startedSession(t, untimedDef(), q)

	assert.ErrorIs(t, s.SelectAnswer(uuid.New(), nil, time.Now()), ErrUnknownQuestion)
	assert.ErrorIs(t, s.SelectAnswer(q.ID, []uuid.UUID{uuid.New()}, time.Now()), ErrUnknownOption)

	require.NoError(t, s.SelectAnswer(q.ID, optionIDs(q, 0, 0), time.Now()))
	assert.Equal(t, optionIDs(q, 0), s.Answers[q.ID].SelectedOptionIDs)
	assert.Equal(t, 0, s.Current, "selecting does not move")

	require.NoError(t, s.SelectAnswer(q.ID, optionIDs(q, 1), time.Now()))
	assert.Equal(t, optionIDs(q, 1), s.Answers[q.ID].SelectedOptionIDs, "selection overwrites")

	require.NoError(t, s.SelectAnswer(q.ID, nil, time.Now()))
	assert.NotContains(t, s.Answers, q.ID)
}

func TestSession_NavigationRoundTripPreservesAnswer(t *testing.T) {
	q1, q2 := newQuestion(1, true, true, false), newQuestion(2, false, true)
	s := startedSession(t, untimedDef(), q1, q2)

	require.NoError(t, s.SelectAnswer(q1.ID, optionIDs(q1, 0, 1), time.Now()))
	require.NoError(t, s.Next(nil, time.Now()))
	require.NoError(t, s.Previous(nil, time.Now()))

	assert.Equal(t, 0, s.Current)
	assert.Len(t, s.Answers, 1)
	assert.Equal(t, optionIDs(q1, 0, 1), s.Answers[q1.ID].SelectedOptionIDs)
}

func TestSession_NavigationSavesDisplayedSelection(t *testing.T) {
	q1, q2 := newQuestion(1, true, false), newQuestion(2, false, true)
	s := startedSession(t, untimedDef(), q1, q2)

	require.NoError(t, s.Next(optionIDs(q1, 0), time.Now()))
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, optionIDs(q1, 0), s.Answers[q1.ID].SelectedOptionIDs)

	require.NoError(t, s.Previous(optionIDs(q2, 1), time.Now()))
	assert.Equal(t, 0, s.Current)
	assert.Equal(t, optionIDs(q2, 1), s.Answers[q2.ID].SelectedOptionIDs)
}

func TestSession_NavigationClamps(t *testing.T) {
	q1, q2 := newQuestion(1, true, false), newQuestion(2, false, true)
	s := startedSession(t, untimedDef(), q1, q2)

	require.NoError(t, s.Previous(nil, time.Now()))
	assert.Equal(t, 0, s.Current)

	require.NoError(t, s.Next(nil, time.Now()))
	require.NoError(t, s.Next(nil, time.Now()))
	assert.Equal(t, 1, s.Current)

	require.NoError(t, s.GoTo(-4, nil, time.Now()))
	assert.Equal(t, 0, s.Current)
	require.NoError(t, s.GoTo(99, nil, time.Now()))
	assert.Equal(t, 1, s.Current)
}

func TestSession_FlagIsInvolution(t *testing.T) {
	q1, q2 := newQuestion(1, true, false), newQuestion(2, false, true)
	s := startedSession(t, untimedDef(), q1, q2)
	require.NoError(t, s.Flag(q2.ID))

	before := s.FlaggedIDs()
	require.NoError(t, s.Flag(q1.ID))
	assert.True(t, s.IsFlagged(q1.ID))
	require.NoError(t, s.Unflag(q1.ID))
	assert.Equal(t, before, s.FlaggedIDs())

	assert.ErrorIs(t, s.Flag(uuid.New()), ErrUnknownQuestion)
}

func TestSession_FinishIsGuarded(t *testing.T) {
	q := newQuestion(1, true, false)
	s := startedSession(t, untimedDef(), q)

	require.NoError(t, s.Finish())
	assert.Equal(t, model.SessionSubmitting, s.State)
	assert.ErrorIs(t, s.Finish(), ErrSessionNotInProgress)
	assert.ErrorIs(t, s.SelectAnswer(q.ID, optionIDs(q, 0), time.Now()), ErrSessionNotInProgress)
	assert.ErrorIs(t, s.Next(nil, time.Now()), ErrSessionNotInProgress)

	require.NoError(t, s.Complete())
	assert.Equal(t, model.SessionCompleted, s.State)
	assert.ErrorIs(t, s.Finish(), ErrSessionNotInProgress)
	assert.ErrorIs(t, s.Complete(), ErrSessionNotSubmitting)
}

func TestSession_ReopenAfterFailedSubmit(t *testing.T) {
	q := newQuestion(1, true, false)
	s := startedSession(t, untimedDef(), q)

	require.NoError(t, s.Finish())
	require.NoError(t, s.Reopen())
	assert.Equal(t, model.SessionInProgress, s.State)
	assert.ErrorIs(t, s.Reopen(), ErrSessionNotSubmitting)
}

func TestSession_PerQuestionTimeLimit(t *testing.T) {
	def := untimedDef()
	def.TimingMode = model.TimingTimed
	def.TimeLimitType = model.TimeLimitPerQuestion
	def.TimeLimit = 60

	qs := []model.Question{
		newQuestion(1, true, false), newQuestion(2, true, false),
		newQuestion(3, true, false), newQuestion(4, true, false),
	}
	s := NewSession(def, qs)
	assert.Equal(t, 240*time.Second, s.Limit)

	start := time.Unix(10_000, 0)
	require.NoError(t, s.Start(start))

	assert.False(t, s.Expired(start.Add(239*time.Second)))
	assert.True(t, s.Expired(start.Add(240*time.Second)))

	left, ok := s.Remaining(start.Add(300 * time.Second))
	assert.True(t, ok)
	assert.Zero(t, left)
}

func TestSession_TotalTimeLimitAndUntimed(t *testing.T) {
	def := untimedDef()
	def.TimingMode = model.TimingTimed
	def.TimeLimitType = model.TimeLimitTotal
	def.TimeLimit = 90
	s := NewSession(def, []model.Question{newQuestion(1, true, false), newQuestion(2, true, false)})
	assert.Equal(t, 90*time.Second, s.Limit)

	untimed := startedSession(t, untimedDef(), newQuestion(1, true, false))
	_, ok := untimed.Deadline()
	assert.False(t, ok)
	assert.False(t, untimed.Expired(time.Now().Add(24*time.Hour)))
}

func TestSession_ViewHidesCorrectness(t *testing.T) {
	q := newQuestion(1, true, true, false)
	s := startedSession(t, untimedDef(), q)
	require.NoError(t, s.SelectAnswer(q.ID, optionIDs(q, 0), time.Now()))

	view := s.View(time.Now())
	require.Len(t, view.Questions, 1)
	assert.True(t, view.Questions[0].MultiSelect)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "is_correct")
	assert.NotContains(t, string(raw), "explanation")
	assert.Nil(t, view.Deadline)
}

func TestSession_JSONRoundTrip(t *testing.T) {
	q1, q2 := newQuestion(1, true, false), newQuestion(2, false, true)
	s := startedSession(t, untimedDef(), q1, q2)
	require.NoError(t, s.SelectAnswer(q2.ID, optionIDs(q2, 1), time.Unix(2_000, 0).UTC()))
	require.NoError(t, s.Flag(q1.ID))

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var back Session
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, s.Answers[q2.ID].SelectedOptionIDs, back.Answers[q2.ID].SelectedOptionIDs)
	assert.True(t, back.IsFlagged(q1.ID))
	assert.Equal(t, s.Score(), back.Score())
}
