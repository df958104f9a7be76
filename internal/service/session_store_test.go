package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/examprep-backend/internal/config"
	"github.com/stemsi/examprep-backend/internal/exam"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func startedSession(t *testing.T) *exam.Session {
	t.Helper()
	category := uuid.New()
	def := &model.ExamDefinition{ID: uuid.New(), UserID: testUser, Name: "Redis", TimingMode: model.TimingUntimed}
	questions := []model.Question{
		newQuestion(1, category, model.DifficultyEasy, true, false),
		newQuestion(2, category, model.DifficultyEasy, false, true),
	}
	sess := exam.NewSession(def, questions)
	require.NoError(t, sess.Start(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	return sess
}

func TestRedisSessionStore_SaveLoadDelete(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewRedisSessionStore(rdb, time.Hour)
	ctx := context.Background()
	sess := startedSession(t)

	_, err := store.Load(ctx, sess.ExamID, sess.UserID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, sess))
	key := config.CacheKey.ExamSessionKey(sess.ExamID.String(), sess.UserID)
	assert.Equal(t, time.Hour, mr.TTL(key))

	got, err := store.Load(ctx, sess.ExamID, sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionInProgress, got.State)
	assert.Equal(t, exam.QuestionIDs(sess.Questions), exam.QuestionIDs(got.Questions))

	require.NoError(t, store.Delete(ctx, sess.ExamID, sess.UserID))
	assert.False(t, mr.Exists(key))
}

func TestRedisSessionStore_Update(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewRedisSessionStore(rdb, time.Hour)
	ctx := context.Background()
	sess := startedSession(t)
	require.NoError(t, store.Save(ctx, sess))

	_, err := store.Update(ctx, sess.ExamID, sess.UserID, func(s *exam.Session) error {
		s.Current = 1
		return errStoreDown
	})
	assert.ErrorIs(t, err, errStoreDown)
	got, err := store.Load(ctx, sess.ExamID, sess.UserID)
	require.NoError(t, err)
	assert.Zero(t, got.Current, "a failed update writes nothing")

	updated, err := store.Update(ctx, sess.ExamID, sess.UserID, func(s *exam.Session) error {
		return s.Finish()
	})
	require.NoError(t, err)
	assert.Equal(t, model.SessionSubmitting, updated.State)
	got, err = store.Load(ctx, sess.ExamID, sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionSubmitting, got.State)

	_, err = store.Update(ctx, uuid.New(), sess.UserID, func(*exam.Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionStore_UpdateRetriesOnConcurrentWrite(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewRedisSessionStore(rdb, time.Hour)
	ctx := context.Background()
	sess := startedSession(t)
	require.NoError(t, store.Save(ctx, sess))

	calls := 0
	updated, err := store.Update(ctx, sess.ExamID, sess.UserID, func(s *exam.Session) error {
		calls++
		if calls == 1 {
			moved := *sess
			moved.Current = 1
			require.NoError(t, store.Save(ctx, &moved))
		}
		return s.Flag(s.Questions[0].ID)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, updated.Current, "the retry sees the concurrent write")
	assert.True(t, updated.IsFlagged(sess.Questions[0].ID))
}

func TestRedisSessionStore_FinishLock(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewRedisSessionStore(rdb, time.Hour)
	ctx := context.Background()
	examID := uuid.New()

	ok, err := store.AcquireFinishLock(ctx, examID, testUser, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, mr.TTL(config.CacheKey.ExamFinishLockKey(examID.String(), testUser)))

	ok, err = store.AcquireFinishLock(ctx, examID, testUser, 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.ReleaseFinishLock(ctx, examID, testUser))
	ok, err = store.AcquireFinishLock(ctx, examID, testUser, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisSessionStore_DueHonoursSubSecondDeadlines(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewRedisSessionStore(rdb, time.Hour)
	ctx := context.Background()
	examID := uuid.New()
	deadline := time.Date(2026, 3, 1, 9, 4, 0, 900*int(time.Millisecond), time.UTC)

	require.NoError(t, store.Schedule(ctx, examID, testUser, deadline))

	refs, err := store.Due(ctx, deadline.Add(-800*time.Millisecond), 10)
	require.NoError(t, err)
	assert.Empty(t, refs)

	refs, err = store.Due(ctx, deadline, 10)
	require.NoError(t, err)
	assert.Equal(t, []SessionRef{{ExamID: examID, UserID: testUser}}, refs)

	require.NoError(t, store.Unschedule(ctx, examID, testUser))
	refs, err = store.Due(ctx, deadline.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestRedisSessionStore_DueOrderAndLimit(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewRedisSessionStore(rdb, time.Hour)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	late, early, middle := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, store.Schedule(ctx, late, 1, base.Add(3*time.Second)))
	require.NoError(t, store.Schedule(ctx, early, 2, base.Add(time.Second)))
	require.NoError(t, store.Schedule(ctx, middle, 3, base.Add(2*time.Second)))
	_, err := mr.ZAdd(config.CacheKey.TimedSessionsKey(), 0, "not-a-member")
	require.NoError(t, err)

	refs, err := store.Due(ctx, base.Add(time.Minute), 3)
	require.NoError(t, err)
	assert.Equal(t, []SessionRef{{ExamID: early, UserID: 2}, {ExamID: middle, UserID: 3}}, refs,
		"unparseable members are dropped, the rest come earliest first")

	members, err := mr.ZMembers(config.CacheKey.TimedSessionsKey())
	require.NoError(t, err)
	assert.NotContains(t, members, "not-a-member")
}

func TestParseSessionMember(t *testing.T) {
	examID := uuid.New()
	ref, err := parseSessionMember(config.CacheKey.TimedSessionMember(examID.String(), 7))
	require.NoError(t, err)
	assert.Equal(t, SessionRef{ExamID: examID, UserID: 7}, ref)

	for _, bad := range []string{"", "7", "x:" + examID.String(), "7:not-a-uuid"} {
		_, err := parseSessionMember(bad)
		assert.Error(t, err, bad)
	}
}

func TestRedisPublisher_EnqueueAndEvents(t *testing.T) {
	mr, rdb := newTestRedis(t)
	pub := NewRedisPublisher(rdb)
	ctx := context.Background()
	examID := uuid.New()

	job := model.QuestionOrderJob{ExamID: examID, UserID: testUser, Order: []uuid.UUID{uuid.New()}}
	require.NoError(t, pub.Enqueue(ctx, config.WorkerKey.PersistQuestionOrderQueue, job))
	items, err := mr.List(config.WorkerKey.PersistQuestionOrderQueue)
	require.NoError(t, err)
	require.Len(t, items, 1)
	var got model.QuestionOrderJob
	require.NoError(t, json.Unmarshal([]byte(items[0]), &got))
	assert.Equal(t, job.Order, got.Order)

	events, closeFn := pub.Subscribe(ctx, examID, testUser)
	defer func() { _ = closeFn() }()
	channel := config.CacheKey.ExamEventsChannel(examID.String(), testUser)
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(channel)[channel] == 1
	}, time.Second, 10*time.Millisecond)

	event := model.SessionEvent{Type: model.SessionEventSubmitted, ExamID: examID}
	require.NoError(t, pub.PublishEvent(ctx, examID, testUser, event))

	select {
	case raw := <-events:
		var got model.SessionEvent
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, model.SessionEventSubmitted, got.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestRedisCaseAnswerStore(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewRedisCaseAnswerStore(rdb, 2*time.Hour)
	ctx := context.Background()
	caseID, q1, q2 := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, store.Save(ctx, testUser, caseID, q1, "first"))
	require.NoError(t, store.Save(ctx, testUser, caseID, q2, "second"))
	require.NoError(t, store.Save(ctx, testUser, caseID, q1, "revised"))

	key := config.CacheKey.CaseAnswersKey(caseID.String(), testUser)
	assert.Equal(t, 2*time.Hour, mr.TTL(key))
	mr.HSet(key, "junk", "ignored")

	answers, err := store.List(ctx, testUser, caseID)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]string{q1: "revised", q2: "second"}, answers)

	require.NoError(t, store.Clear(ctx, testUser, caseID))
	answers, err = store.List(ctx, testUser, caseID)
	require.NoError(t, err)
	assert.Empty(t, answers)
}

func TestRedisSessionStore_LoadRejectsCorruptSnapshot(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewRedisSessionStore(rdb, time.Hour)
	examID := uuid.New()
	require.NoError(t, mr.Set(config.CacheKey.ExamSessionKey(examID.String(), testUser), "{"))

	_, err := store.Load(context.Background(), examID, testUser)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSessionNotFound))
}
