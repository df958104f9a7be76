package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestAnswers_KeepsNewestPerQuestion(t *testing.T) {
	exam := uuid.New()
	q1, q2 := uuid.New(), uuid.New()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	opt := uuid.New()

	batch := []*model.AnswerLogJob{
		{ExamID: exam, QuestionID: q1, OptionIDs: []uuid.UUID{opt}, AnsweredAt: t0},
		{ExamID: exam, QuestionID: q2, OptionIDs: []uuid.UUID{opt}, AnsweredAt: t0},
		{ExamID: exam, QuestionID: q1, OptionIDs: nil, AnsweredAt: t0.Add(time.Second)},
		{ExamID: exam, QuestionID: q2, OptionIDs: []uuid.UUID{uuid.New()}, AnsweredAt: t0.Add(-time.Second)},
	}

	got := latestAnswers(batch)
	require.Len(t, got, 2)
	assert.Equal(t, q1, got[0].QuestionID)
	assert.Empty(t, got[0].OptionIDs, "a later clear wins over an earlier selection")
	assert.Equal(t, []uuid.UUID{opt}, got[1].OptionIDs, "an out-of-order older job is dropped")
}

func TestAggregate_SumsAcrossSubmissions(t *testing.T) {
	q1, q2 := uuid.New(), uuid.New()
	batch := []*model.QuestionStatsJob{
		{ExamID: uuid.New(), Results: []model.QuestionOutcome{{QuestionID: q1, Correct: true}, {QuestionID: q2}}},
		{ExamID: uuid.New(), Results: []model.QuestionOutcome{{QuestionID: q1}}},
	}

	got := aggregate(batch)
	require.Len(t, got, 2)
	assert.Equal(t, statDelta{questionID: q1, attempts: 2, correct: 1}, got[0])
	assert.Equal(t, statDelta{questionID: q2, attempts: 1, correct: 0}, got[1])
	assert.Empty(t, aggregate(nil))
}

type stubFinisher struct {
	mu    sync.Mutex
	calls int
	plan  []int
	err   error
}

func (s *stubFinisher) FinishDue(context.Context, int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	if len(s.plan) == 0 {
		return 0, nil
	}
	n := s.plan[0]
	s.plan = s.plan[1:]
	return n, nil
}

func TestAutoSubmitWorker_TickDrainsFullBatches(t *testing.T) {
	f := &stubFinisher{plan: []int{100, 100, 3}}
	w := NewAutoSubmitWorker(f, time.Second, zerolog.Nop())
	w.tick(context.Background())
	assert.Equal(t, 3, f.calls)
}

func TestAutoSubmitWorker_TickStopsOnError(t *testing.T) {
	f := &stubFinisher{err: errors.New("redis down")}
	w := NewAutoSubmitWorker(f, time.Second, zerolog.Nop())
	w.tick(context.Background())
	assert.Equal(t, 1, f.calls)
}

func TestAutoSubmitWorker_StopsWithContext(t *testing.T) {
	f := &stubFinisher{}
	w := NewAutoSubmitWorker(f, 5*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.calls > 0
	}, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
