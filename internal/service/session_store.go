package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/examprep-backend/internal/config"
	"github.com/stemsi/examprep-backend/internal/exam"
)

// SessionRef names one user's session of one exam.
type SessionRef struct {
	ExamID uuid.UUID
	UserID int
}

// SessionStore keeps live exam sessions and their deadlines.
type SessionStore interface {
	Load(ctx context.Context, examID uuid.UUID, userID int) (*exam.Session, error)
	Save(ctx context.Context, s *exam.Session) error
	// Update applies fn to the stored session and saves the result atomically. When fn
	// returns an error nothing is written.
	Update(ctx context.Context, examID uuid.UUID, userID int, fn func(*exam.Session) error) (*exam.Session, error)
	Delete(ctx context.Context, examID uuid.UUID, userID int) error
	AcquireFinishLock(ctx context.Context, examID uuid.UUID, userID int, ttl time.Duration) (bool, error)
	ReleaseFinishLock(ctx context.Context, examID uuid.UUID, userID int) error
	Schedule(ctx context.Context, examID uuid.UUID, userID int, deadline time.Time) error
	Unschedule(ctx context.Context, examID uuid.UUID, userID int) error
	Due(ctx context.Context, now time.Time, limit int64) ([]SessionRef, error)
}

// updateAttempts bounds optimistic retries when a session key changes under WATCH.
const updateAttempts = 5

// RedisSessionStore stores session snapshots as JSON strings and timed sessions in a
// sorted set scored by deadline in Unix milliseconds.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSessionStore creates a RedisSessionStore. ttl bounds abandoned snapshots.
func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionStore) Load(ctx context.Context, examID uuid.UUID, userID int) (*exam.Session, error) {
	raw, err := r.rdb.Get(ctx, config.CacheKey.ExamSessionKey(examID.String(), userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var s exam.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, s *exam.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return r.rdb.Set(ctx, config.CacheKey.ExamSessionKey(s.ExamID.String(), s.UserID), raw, r.ttl).Err()
}

func (r *RedisSessionStore) Update(ctx context.Context, examID uuid.UUID, userID int, fn func(*exam.Session) error) (*exam.Session, error) {
	key := config.CacheKey.ExamSessionKey(examID.String(), userID)

	var updated *exam.Session
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}

		var s exam.Session
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		if err := fn(&s); err != nil {
			return err
		}
		enc, err := json.Marshal(&s)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, enc, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = &s
		return nil
	}

	for range updateAttempts {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrSessionBusy
}

func (r *RedisSessionStore) Delete(ctx context.Context, examID uuid.UUID, userID int) error {
	return r.rdb.Del(ctx, config.CacheKey.ExamSessionKey(examID.String(), userID)).Err()
}

func (r *RedisSessionStore) AcquireFinishLock(ctx context.Context, examID uuid.UUID, userID int, ttl time.Duration) (bool, error) {
	return r.rdb.SetNX(ctx, config.CacheKey.ExamFinishLockKey(examID.String(), userID), 1, ttl).Result()
}

func (r *RedisSessionStore) ReleaseFinishLock(ctx context.Context, examID uuid.UUID, userID int) error {
	return r.rdb.Del(ctx, config.CacheKey.ExamFinishLockKey(examID.String(), userID)).Err()
}

func (r *RedisSessionStore) Schedule(ctx context.Context, examID uuid.UUID, userID int, deadline time.Time) error {
	return r.rdb.ZAdd(ctx, config.CacheKey.TimedSessionsKey(), redis.Z{
		Score:  float64(deadline.UnixMilli()),
		Member: config.CacheKey.TimedSessionMember(examID.String(), userID),
	}).Err()
}

func (r *RedisSessionStore) Unschedule(ctx context.Context, examID uuid.UUID, userID int) error {
	return r.rdb.ZRem(ctx, config.CacheKey.TimedSessionsKey(),
		config.CacheKey.TimedSessionMember(examID.String(), userID)).Err()
}

// Due lists sessions whose deadline is at or before now, earliest first. Scores are
// compared in milliseconds so a deadline is never reported before it passes.
func (r *RedisSessionStore) Due(ctx context.Context, now time.Time, limit int64) ([]SessionRef, error) {
	members, err := r.rdb.ZRangeByScore(ctx, config.CacheKey.TimedSessionsKey(), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, err
	}

	refs := make([]SessionRef, 0, len(members))
	for _, m := range members {
		ref, err := parseSessionMember(m)
		if err != nil {
			// Unparseable members would be returned forever; drop them.
			r.rdb.ZRem(ctx, config.CacheKey.TimedSessionsKey(), m)
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func parseSessionMember(m string) (SessionRef, error) {
	userPart, examPart, ok := strings.Cut(m, ":")
	if !ok {
		return SessionRef{}, fmt.Errorf("bad member %q", m)
	}
	userID, err := strconv.Atoi(userPart)
	if err != nil {
		return SessionRef{}, err
	}
	examID, err := uuid.Parse(examPart)
	if err != nil {
		return SessionRef{}, err
	}
	return SessionRef{ExamID: examID, UserID: userID}, nil
}

// Publisher hands background work to workers and pushes events to open streams.
type Publisher interface {
	Enqueue(ctx context.Context, queue string, payload any) error
	PublishEvent(ctx context.Context, examID uuid.UUID, userID int, event any) error
}

// RedisPublisher enqueues JSON payloads with RPUSH and publishes events over PubSub.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher creates a RedisPublisher.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Enqueue(ctx context.Context, queue string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.rdb.RPush(ctx, queue, raw).Err()
}

func (p *RedisPublisher) PublishEvent(ctx context.Context, examID uuid.UUID, userID int, event any) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, config.CacheKey.ExamEventsChannel(examID.String(), userID), raw).Err()
}

// Subscribe streams the raw events published for one session until closeFn is called.
func (p *RedisPublisher) Subscribe(ctx context.Context, examID uuid.UUID, userID int) (<-chan []byte, func() error) {
	sub := p.rdb.Subscribe(ctx, config.CacheKey.ExamEventsChannel(examID.String(), userID))
	out := make(chan []byte)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			select {
			case out <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, sub.Close
}
