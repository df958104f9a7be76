package casestudy

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlow_FullRun(t *testing.T) {
	caseID := uuid.New()
	f := Resume(1, caseID, nil, 3)
	assert.Equal(t, PhaseInstructions, f.Phase())

	now := time.Unix(5_000, 0)
	assert.ErrorIs(t, f.MoveTo(0, false, now), ErrNotAnswering)

	require.NoError(t, f.Begin(now))
	require.NoError(t, f.MoveTo(1, false, now))
	assert.Equal(t, 1, f.Progress().CurrentIndex)
	assert.ErrorIs(t, f.MoveTo(3, false, now), ErrIndexRange)

	require.NoError(t, f.MoveTo(2, true, now))
	p := f.Progress()
	assert.Equal(t, PhaseCompleted, f.Phase())
	assert.True(t, p.Completed)
	assert.Equal(t, 1, p.SubmissionCount)
	require.NotNil(t, p.CompletedAt)
}

func TestFlow_SubmissionCountOnlyGrows(t *testing.T) {
	caseID := uuid.New()
	var stored *model.UserCaseProgress

	for run := 1; run <= 3; run++ {
		f := Resume(9, caseID, stored, 2)
		now := time.Unix(int64(run)*100, 0)
		require.NoError(t, f.Begin(now))
		assert.Equal(t, run-1, f.Progress().SubmissionCount, "restart keeps the counter")
		require.NoError(t, f.Complete(now))

		p := f.Progress()
		assert.Equal(t, run, p.SubmissionCount)
		stored = &p
	}
}

func TestFlow_ResumeMidCase(t *testing.T) {
	stored := &model.UserCaseProgress{UserID: 1, CaseID: uuid.New(), CurrentIndex: 7, UpdatedAt: time.Now()}
	f := Resume(1, stored.CaseID, stored, 3)
	assert.Equal(t, PhaseAnswering, f.Phase())
	assert.Equal(t, 2, f.Progress().CurrentIndex)

	assert.ErrorIs(t, Resume(1, uuid.New(), nil, 0).Begin(time.Now()), ErrEmptyCase)
}

func TestFlow_CompleteRequiresAnswering(t *testing.T) {
	f := Resume(1, uuid.New(), nil, 2)
	assert.ErrorIs(t, f.Complete(time.Now()), ErrNotAnswering)
}

func TestReveal(t *testing.T) {
	hint := "think about preload"
	c := &model.Case{
		ID: uuid.New(),
		Questions: []model.CaseQuestion{
			{ID: uuid.New(), Prompt: "p1", CorrectAnswer: "a1", Explanation: "e1", Hint: &hint},
		},
	}

	r, err := Reveal(c, c.Questions[0].ID, "mine")
	require.NoError(t, err)
	assert.Equal(t, "a1", r.CorrectAnswer)
	assert.Equal(t, "mine", r.Answer)

	_, err = Reveal(c, uuid.New(), "x")
	assert.ErrorIs(t, err, ErrUnknownPrompt)

	learner := ForLearner(c)
	require.Len(t, learner.Questions, 1)
	assert.Equal(t, &hint, learner.Questions[0].Hint)
}
