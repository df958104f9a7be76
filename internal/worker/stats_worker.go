package worker

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/examprep-backend/internal/config"
	"github.com/stemsi/examprep-backend/internal/model"
)

// StatsWorker aggregates graded answers into question_stats.
type StatsWorker struct {
	pool  *pgxpool.Pool
	queue *batchQueue[model.QuestionStatsJob]
	log   zerolog.Logger
}

func NewStatsWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *StatsWorker {
	l := log.With().Str("component", "stats_worker").Logger()
	return &StatsWorker{
		pool:  pool,
		queue: newBatchQueue[model.QuestionStatsJob](rdb, config.WorkerKey.PersistQuestionStatsQueue, l),
		log:   l,
	}
}

func (w *StatsWorker) Start(ctx context.Context) {
	w.log.Info().Msg("StatsWorker started")
	w.queue.run(ctx, w.flushSafe)
	w.log.Info().Msg("StatsWorker stopped")
}

// statDelta is what one batch adds to a question's counters.
type statDelta struct {
	questionID uuid.UUID
	attempts   int
	correct    int
}

// aggregate folds the outcomes of many submissions into one delta per question.
func aggregate(batch []*model.QuestionStatsJob) []statDelta {
	idx := make(map[uuid.UUID]int)
	var out []statDelta
	for _, job := range batch {
		for _, r := range job.Results {
			i, ok := idx[r.QuestionID]
			if !ok {
				i = len(out)
				idx[r.QuestionID] = i
				out = append(out, statDelta{questionID: r.QuestionID})
			}
			out[i].attempts++
			if r.Correct {
				out[i].correct++
			}
		}
	}
	return out
}

func (w *StatsWorker) flushSafe(ctx context.Context, batch []*model.QuestionStatsJob) {
	if err := w.bulkUpsert(ctx, aggregate(batch)); err != nil {
		w.log.Warn().Err(err).Msg("bulk stats upsert failed, using fallback")

		for _, job := range batch {
			if err := w.bulkUpsert(ctx, aggregate([]*model.QuestionStatsJob{job})); err != nil {
				w.log.Error().Err(err).Str("exam_id", job.ExamID.String()).Msg("stats upsert failed, requeueing")
				w.queue.requeue(ctx, job)
			}
		}
	}
}

func (w *StatsWorker) bulkUpsert(ctx context.Context, deltas []statDelta) error {
	if len(deltas) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(deltas))
	attempts := make([]int, len(deltas))
	correct := make([]int, len(deltas))
	for i, d := range deltas {
		ids[i] = d.questionID
		attempts[i] = d.attempts
		correct[i] = d.correct
	}

	// Questions deleted since the exam was taken are skipped.
	_, err := w.pool.Exec(ctx, `
		INSERT INTO question_stats (question_id, attempts, correct_count, updated_at)
		SELECT u.question_id, u.attempts, u.correct, NOW()
		FROM UNNEST($1::uuid[], $2::int[], $3::int[]) AS u (question_id, attempts, correct)
		JOIN questions q ON q.id = u.question_id
		ON CONFLICT (question_id) DO UPDATE
		SET attempts = question_stats.attempts + EXCLUDED.attempts,
		    correct_count = question_stats.correct_count + EXCLUDED.correct_count,
		    updated_at = NOW()`,
		ids, attempts, correct)
	return err
}
