package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/examprep-backend/internal/casestudy"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCases struct {
	cases    map[uuid.UUID]*model.Case
	progress map[uuid.UUID]model.UserCaseProgress
	// stale, when set, is returned by GetProgress in place of the stored row.
	stale *model.UserCaseProgress
}

func (f *fakeCases) List(context.Context) ([]model.Case, error) {
	var out []model.Case
	for _, c := range f.cases {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCases) Get(_ context.Context, id uuid.UUID) (*model.Case, error) {
	c, ok := f.cases[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeCases) GetProgress(_ context.Context, _ int, caseID uuid.UUID) (*model.UserCaseProgress, error) {
	if f.stale != nil {
		p := *f.stale
		return &p, nil
	}
	p, ok := f.progress[caseID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (f *fakeCases) SaveProgress(_ context.Context, p *model.UserCaseProgress, submitted bool) error {
	count := f.progress[p.CaseID].SubmissionCount
	if submitted {
		count++
	}
	p.SubmissionCount = count
	f.progress[p.CaseID] = *p
	return nil
}

func (f *fakeCases) ListProgress(context.Context, int) ([]model.UserCaseProgress, error) {
	var out []model.UserCaseProgress
	for _, p := range f.progress {
		out = append(out, p)
	}
	return out, nil
}

type memCaseAnswers struct {
	answers map[uuid.UUID]string
}

func (m *memCaseAnswers) Save(_ context.Context, _ int, _ uuid.UUID, questionID uuid.UUID, answer string) error {
	m.answers[questionID] = answer
	return nil
}

func (m *memCaseAnswers) List(context.Context, int, uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(m.answers))
	for k, v := range m.answers {
		out[k] = v
	}
	return out, nil
}

func (m *memCaseAnswers) Clear(context.Context, int, uuid.UUID) error {
	m.answers = make(map[uuid.UUID]string)
	return nil
}

func newCaseFixture(t *testing.T) (*CaseStudyService, *fakeCases, *model.Case) {
	t.Helper()
	c := &model.Case{ID: uuid.New(), Title: "Chest pain", Scenario: "A 54 year old..."}
	for i, prompt := range []string{"First step?", "Diagnosis?"} {
		c.Questions = append(c.Questions, model.CaseQuestion{
			ID: uuid.New(), CaseID: c.ID, Prompt: prompt, CorrectAnswer: "model answer", Explanation: "why", OrderIndex: i,
		})
	}
	store := &fakeCases{cases: map[uuid.UUID]*model.Case{c.ID: c}, progress: map[uuid.UUID]model.UserCaseProgress{}}
	svc := NewCaseStudyService(store, &memCaseAnswers{answers: map[uuid.UUID]string{}}, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return svc, store, c
}

func TestCaseStudy_FullRunAndRestart(t *testing.T) {
	svc, store, c := newCaseFixture(t)
	ctx := context.Background()

	detail, err := svc.Get(ctx, 1, c.ID)
	require.NoError(t, err)
	assert.Equal(t, casestudy.PhaseInstructions, detail.Phase)

	_, err = svc.SubmitAnswer(ctx, 1, c.ID, model.SubmitCaseAnswerRequest{CaseQuestionID: c.Questions[0].ID, Answer: "x"})
	assert.ErrorIs(t, err, casestudy.ErrNotAnswering)

	detail, err = svc.Start(ctx, 1, c.ID)
	require.NoError(t, err)
	assert.Equal(t, casestudy.PhaseAnswering, detail.Phase)

	reveal, err := svc.SubmitAnswer(ctx, 1, c.ID, model.SubmitCaseAnswerRequest{CaseQuestionID: c.Questions[0].ID, Answer: "ECG"})
	require.NoError(t, err)
	assert.Equal(t, "model answer", reveal.CorrectAnswer)
	assert.Equal(t, "ECG", reveal.Answer)

	p, err := svc.UpdateProgress(ctx, 1, c.ID, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentIndex)
	assert.Equal(t, 1, store.progress[c.ID].CurrentIndex, "position is persisted after every move")

	p, err = svc.UpdateProgress(ctx, 1, c.ID, 1, true)
	require.NoError(t, err)
	assert.True(t, p.Completed)
	assert.Equal(t, 1, p.SubmissionCount)

	detail, err = svc.Start(ctx, 1, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, detail.Progress.CurrentIndex)
	assert.Equal(t, 1, detail.Progress.SubmissionCount)
	assert.Empty(t, detail.Answers, "a restart clears the previous run's answers")

	p, err = svc.Complete(ctx, 1, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.SubmissionCount)

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, casestudy.PhaseCompleted, list[0].Phase)
	assert.Equal(t, 2, list[0].SubmissionCount)
}

func TestCaseStudy_UnknownCase(t *testing.T) {
	svc, _, _ := newCaseFixture(t)
	_, err := svc.Get(context.Background(), 1, uuid.New())
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestCaseStudy_ProgressOutOfRange(t *testing.T) {
	svc, _, c := newCaseFixture(t)
	ctx := context.Background()
	_, err := svc.Start(ctx, 1, c.ID)
	require.NoError(t, err)
	_, err = svc.UpdateProgress(ctx, 1, c.ID, 5, false)
	assert.ErrorIs(t, err, casestudy.ErrIndexRange)
}

func TestCaseStudy_CompletionsFromStaleReadsAreAllCounted(t *testing.T) {
	svc, store, c := newCaseFixture(t)
	ctx := context.Background()
	_, err := svc.Start(ctx, 1, c.ID)
	require.NoError(t, err)

	// Both completions read the same answering row, as two racing requests would.
	answering := store.progress[c.ID]
	store.stale = &answering

	_, err = svc.Complete(ctx, 1, c.ID)
	require.NoError(t, err)
	p, err := svc.Complete(ctx, 1, c.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, p.SubmissionCount)
	assert.Equal(t, 2, store.progress[c.ID].SubmissionCount)
}
