package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	DefaultBatchSize    = 50
	DefaultBatchTimeout = 2 * time.Second
	DefaultPollTimeout  = 1 * time.Second
)

// batchQueue drains a Redis list into batches of decoded jobs.
// A batch is flushed when it is full or older than timeout, and once more on shutdown.
type batchQueue[T any] struct {
	rdb     *redis.Client
	name    string
	size    int
	timeout time.Duration
	poll    time.Duration
	log     zerolog.Logger
}

func newBatchQueue[T any](rdb *redis.Client, name string, log zerolog.Logger) *batchQueue[T] {
	return &batchQueue[T]{
		rdb:     rdb,
		name:    name,
		size:    DefaultBatchSize,
		timeout: DefaultBatchTimeout,
		poll:    DefaultPollTimeout,
		log:     log,
	}
}

func (q *batchQueue[T]) run(ctx context.Context, flush func(context.Context, []*T)) {
	batch := make([]*T, 0, q.size)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 && (len(batch) >= q.size || time.Since(lastFlush) >= q.timeout) {
			flush(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			q.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			if len(batch) > 0 {
				flush(context.WithoutCancel(ctx), batch)
			}
			return
		default:
			item, err := q.rdb.BLPop(ctx, q.poll, q.name).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					q.log.Error().Err(err).Msg("BLPop error")
					time.Sleep(q.poll)
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			job := new(T)
			if err := json.Unmarshal([]byte(item[1]), job); err != nil {
				q.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}
			batch = append(batch, job)
		}
	}
}

// requeue pushes a job back for the next round.
func (q *batchQueue[T]) requeue(ctx context.Context, job *T) {
	raw, err := json.Marshal(job)
	if err != nil {
		q.log.Error().Err(err).Msg("Requeue marshal error")
		return
	}
	if err := q.rdb.RPush(ctx, q.name, raw).Err(); err != nil {
		q.log.Error().Err(err).Msg("Requeue failed, job dropped")
	}
}
