package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/examprep-backend/internal/config"
	"github.com/stemsi/examprep-backend/internal/database"
	"github.com/stemsi/examprep-backend/internal/model"
)

// AnswerLogWorker consumes the answers queue and keeps session_answers in step with
// the live sessions, so a session whose Redis snapshot is lost can be rebuilt.
type AnswerLogWorker struct {
	pool  *pgxpool.Pool
	queue *batchQueue[model.AnswerLogJob]
	log   zerolog.Logger
}

// NewAnswerLogWorker creates a new AnswerLogWorker.
func NewAnswerLogWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *AnswerLogWorker {
	l := log.With().Str("component", "answer_log_worker").Logger()
	return &AnswerLogWorker{
		pool:  pool,
		queue: newBatchQueue[model.AnswerLogJob](rdb, config.WorkerKey.PersistAnswersQueue, l),
		log:   l,
	}
}

// Start runs the worker loop until ctx is cancelled. Call in a goroutine.
func (w *AnswerLogWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AnswerLogWorker started")
	w.queue.run(ctx, w.flush)
	w.log.Info().Msg("AnswerLogWorker stopped")
}

type draftKey struct {
	examID     uuid.UUID
	questionID uuid.UUID
}

// latestAnswers keeps the newest job per (exam, question), preserving first-seen order.
func latestAnswers(batch []*model.AnswerLogJob) []*model.AnswerLogJob {
	idx := make(map[draftKey]int, len(batch))
	out := make([]*model.AnswerLogJob, 0, len(batch))
	for _, j := range batch {
		k := draftKey{j.ExamID, j.QuestionID}
		if i, ok := idx[k]; ok {
			if !j.AnsweredAt.Before(out[i].AnsweredAt) {
				out[i] = j
			}
			continue
		}
		idx[k] = len(out)
		out = append(out, j)
	}
	return out
}

func (w *AnswerLogWorker) flush(ctx context.Context, batch []*model.AnswerLogJob) {
	jobs := latestAnswers(batch)
	err := database.WithTx(ctx, w.pool, func(tx pgx.Tx) error {
		return w.bulkApply(ctx, tx, jobs)
	})
	if err == nil {
		return
	}

	w.log.Warn().Err(err).Int("jobs", len(jobs)).Msg("bulk draft write failed, using fallback")
	for _, j := range jobs {
		err := database.WithTx(ctx, w.pool, func(tx pgx.Tx) error {
			return w.bulkApply(ctx, tx, []*model.AnswerLogJob{j})
		})
		if err != nil {
			w.log.Error().Err(err).
				Int("user_id", j.UserID).
				Str("exam_id", j.ExamID.String()).
				Msg("draft write failed, requeueing")
			w.queue.requeue(ctx, j)
		}
	}
}

func (w *AnswerLogWorker) bulkApply(ctx context.Context, tx pgx.Tx, jobs []*model.AnswerLogJob) error {
	var (
		upExams, upQuestions, delExams, delQuestions []uuid.UUID
		upUsers, delUsers                            []int
		upOptions                                    [][]byte
		upTimes                                      []time.Time
	)
	for _, j := range jobs {
		if len(j.OptionIDs) == 0 {
			delExams = append(delExams, j.ExamID)
			delQuestions = append(delQuestions, j.QuestionID)
			delUsers = append(delUsers, j.UserID)
			continue
		}
		raw, err := json.Marshal(j.OptionIDs)
		if err != nil {
			return err
		}
		upExams = append(upExams, j.ExamID)
		upQuestions = append(upQuestions, j.QuestionID)
		upUsers = append(upUsers, j.UserID)
		upOptions = append(upOptions, raw)
		upTimes = append(upTimes, j.AnsweredAt)
	}

	if len(upExams) > 0 {
		// Drafts of completed exams are ignored: the result row is authoritative.
		_, err := tx.Exec(ctx, `
			INSERT INTO session_answers (exam_id, user_id, question_id, selected_option_ids, answered_at)
			SELECT u.exam_id, u.user_id, u.question_id,
			       ARRAY(SELECT jsonb_array_elements_text(u.opts)::uuid),
			       u.answered_at
			FROM UNNEST($1::uuid[], $2::int[], $3::uuid[], $4::jsonb[], $5::timestamptz[])
			     AS u (exam_id, user_id, question_id, opts, answered_at)
			JOIN exam_definitions d
			  ON d.id = u.exam_id AND d.user_id = u.user_id AND NOT d.completed
			ON CONFLICT (exam_id, question_id) DO UPDATE
			SET selected_option_ids = EXCLUDED.selected_option_ids,
			    answered_at = EXCLUDED.answered_at
			WHERE session_answers.answered_at <= EXCLUDED.answered_at`,
			upExams, upUsers, upQuestions, upOptions, upTimes)
		if err != nil {
			return err
		}
	}

	if len(delExams) > 0 {
		_, err := tx.Exec(ctx, `
			DELETE FROM session_answers s
			USING UNNEST($1::uuid[], $2::int[], $3::uuid[]) AS u (exam_id, user_id, question_id)
			WHERE s.exam_id = u.exam_id AND s.user_id = u.user_id AND s.question_id = u.question_id`,
			delExams, delUsers, delQuestions)
		if err != nil {
			return err
		}
	}
	return nil
}
