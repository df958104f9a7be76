package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/examprep-backend/internal/config"
	"github.com/stemsi/examprep-backend/internal/model"
)

// OrderWriter stores a single session's question order.
type OrderWriter interface {
	SetQuestionOrder(ctx context.Context, id uuid.UUID, userID int, ids []uuid.UUID, startedAt time.Time) error
}

// QuestionOrderWorker writes the selected question order onto exam_definitions.
type QuestionOrderWorker struct {
	pool   *pgxpool.Pool
	single OrderWriter
	queue  *batchQueue[model.QuestionOrderJob]
	log    zerolog.Logger
}

func NewQuestionOrderWorker(pool *pgxpool.Pool, rdb *redis.Client, single OrderWriter, log zerolog.Logger) *QuestionOrderWorker {
	l := log.With().Str("component", "question_order_worker").Logger()
	return &QuestionOrderWorker{
		pool:   pool,
		single: single,
		queue:  newBatchQueue[model.QuestionOrderJob](rdb, config.WorkerKey.PersistQuestionOrderQueue, l),
		log:    l,
	}
}

func (w *QuestionOrderWorker) Start(ctx context.Context) {
	w.log.Info().Msg("QuestionOrderWorker started")
	w.queue.run(ctx, w.flushSafe)
	w.log.Info().Msg("QuestionOrderWorker stopped")
}

func (w *QuestionOrderWorker) flushSafe(ctx context.Context, batch []*model.QuestionOrderJob) {
	if err := w.bulkUpdate(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk question order update failed, using fallback")

		for _, p := range batch {
			if err := w.single.SetQuestionOrder(ctx, p.ExamID, p.UserID, p.Order, p.StartedAt); err != nil {
				w.log.Error().Err(err).Str("exam_id", p.ExamID.String()).Msg("single update failed, requeueing")
				w.queue.requeue(ctx, p)
			}
		}
	}
}

func (w *QuestionOrderWorker) bulkUpdate(ctx context.Context, batch []*model.QuestionOrderJob) error {
	n := len(batch)
	examIDs := make([]uuid.UUID, 0, n)
	users := make([]int, 0, n)
	orders := make([][]byte, 0, n)
	started := make([]time.Time, 0, n)

	for _, p := range batch {
		ob, err := json.Marshal(p.Order)
		if err != nil {
			return err
		}
		examIDs = append(examIDs, p.ExamID)
		users = append(users, p.UserID)
		orders = append(orders, ob)
		started = append(started, p.StartedAt)
	}

	query := `
		UPDATE exam_definitions AS d
		SET question_order = t.qo,
		    started_at = t.started_at
		FROM (
			SELECT u.exam_id, u.user_id, u.qo, u.started_at
			FROM UNNEST(
				$1::uuid[],
				$2::int[],
				$3::jsonb[],
				$4::timestamptz[]
			) AS u (exam_id, user_id, qo, started_at)
		) AS t
		WHERE d.id = t.exam_id
		  AND d.user_id = t.user_id
	`

	_, err := w.pool.Exec(ctx, query, examIDs, users, orders, started)
	return err
}
