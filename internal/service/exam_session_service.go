package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/examprep-backend/internal/config"
	"github.com/stemsi/examprep-backend/internal/exam"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stemsi/examprep-backend/internal/repository"
)

const finishLockTTL = 30 * time.Second

var (
	errAlreadyCompleted = errors.New("session already completed")
	errNotDue           = errors.New("session deadline has not passed")
)

// DefinitionReader loads exam definitions for sessions.
type DefinitionReader interface {
	GetForUser(ctx context.Context, id uuid.UUID, userID int) (*model.ExamDefinition, error)
}

// DraftReader loads answers persisted by the answer-log worker.
type DraftReader interface {
	ListByExam(ctx context.Context, examID uuid.UUID, userID int) (map[uuid.UUID]model.AnsweredQuestion, error)
}

// ResultWriter stores submitted results.
type ResultWriter interface {
	Submit(ctx context.Context, res *model.ExamResult) error
	GetByExam(ctx context.Context, examID uuid.UUID, userID int) (*model.ExamResult, error)
}

// FlagStore persists question flags.
type FlagStore interface {
	Add(ctx context.Context, userID int, questionID uuid.UUID) error
	Remove(ctx context.Context, userID int, questionID uuid.UUID) error
	FlaggedAmong(ctx context.Context, userID int, questionIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

// ExamSessionService drives exam sessions from start to submitted result.
type ExamSessionService struct {
	exams     DefinitionReader
	questions QuestionSource
	drafts    DraftReader
	results   ResultWriter
	flags     FlagStore
	store     SessionStore
	pub       Publisher
	now       func() time.Time
	log       zerolog.Logger
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(
	exams DefinitionReader,
	questions QuestionSource,
	drafts DraftReader,
	results ResultWriter,
	flags FlagStore,
	store SessionStore,
	pub Publisher,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		exams:     exams,
		questions: questions,
		drafts:    drafts,
		results:   results,
		flags:     flags,
		store:     store,
		pub:       pub,
		now:       time.Now,
		log:       log.With().Str("component", "exam_session_service").Logger(),
	}
}

func (s *ExamSessionService) definition(ctx context.Context, userID int, examID uuid.UUID) (*model.ExamDefinition, error) {
	def, err := s.exams.GetForUser(ctx, examID, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return def, nil
}

// Start selects questions and begins a session. Starting an exam that already has a
// live session returns that session.
func (s *ExamSessionService) Start(ctx context.Context, userID int, examID uuid.UUID) (*model.ExamSessionView, error) {
	def, err := s.definition(ctx, userID, examID)
	if err != nil {
		return nil, err
	}
	if def.Completed {
		return nil, ErrExamCompleted
	}

	sess, err := s.store.Load(ctx, examID, userID)
	if err == nil {
		return s.active(ctx, sess)
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}
	return s.startNew(ctx, def)
}

func (s *ExamSessionService) startNew(ctx context.Context, def *model.ExamDefinition) (*model.ExamSessionView, error) {
	pool, err := s.questions.ListByFilter(ctx, def.CategoryIDs, def.Difficulties)
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	selected := exam.SelectQuestions(pool, def.QuestionCount, def.SelectionOrder, nil)
	if len(selected) == 0 {
		return nil, exam.ErrNoQuestionsAvailable
	}

	now := s.now()
	sess := exam.NewSession(def, selected)
	if err := sess.Start(now); err != nil {
		return nil, err
	}
	s.restoreFlags(ctx, sess)

	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}

	job := model.QuestionOrderJob{
		ExamID:    sess.ExamID,
		UserID:    sess.UserID,
		Order:     exam.QuestionIDs(sess.Questions),
		StartedAt: now,
	}
	if err := s.pub.Enqueue(ctx, config.WorkerKey.PersistQuestionOrderQueue, job); err != nil {
		s.log.Warn().Err(err).Str("exam_id", def.ID.String()).Msg("Failed to enqueue question order")
	}

	s.log.Info().
		Int("user_id", sess.UserID).
		Str("exam_id", sess.ExamID.String()).
		Int("questions", len(sess.Questions)).
		Dur("limit", sess.Limit).
		Msg("Exam session started")

	view := sess.View(now)
	return &view, nil
}

// Resume returns the live session. When the snapshot is gone it is rebuilt from the
// stored question order and draft answers; with neither, selection runs again.
func (s *ExamSessionService) Resume(ctx context.Context, userID int, examID uuid.UUID) (*model.ExamSessionView, error) {
	def, err := s.definition(ctx, userID, examID)
	if err != nil {
		return nil, err
	}
	if def.Completed {
		return nil, ErrExamCompleted
	}

	sess, err := s.store.Load(ctx, examID, userID)
	if err == nil {
		return s.active(ctx, sess)
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	if len(def.QuestionIDs) == 0 {
		return s.startNew(ctx, def)
	}

	sess, err = s.rebuild(ctx, def)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}
	s.log.Info().
		Int("user_id", userID).
		Str("exam_id", examID.String()).
		Int("answers", len(sess.Answers)).
		Msg("Exam session rebuilt from storage")
	return s.active(ctx, sess)
}

func (s *ExamSessionService) rebuild(ctx context.Context, def *model.ExamDefinition) (*exam.Session, error) {
	found, err := s.questions.GetByIDs(ctx, def.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	questions := exam.OrderByIDs(found, def.QuestionIDs)
	if len(questions) == 0 {
		return nil, exam.ErrNoQuestionsAvailable
	}

	startedAt := s.now()
	if def.StartedAt != nil {
		startedAt = *def.StartedAt
	}
	sess := exam.NewSession(def, questions)
	if err := sess.Start(startedAt); err != nil {
		return nil, err
	}

	drafts, err := s.drafts.ListByExam(ctx, def.ID, def.UserID)
	if err != nil {
		return nil, fmt.Errorf("load draft answers: %w", err)
	}
	for qid, a := range drafts {
		// Options edited since the draft was saved make it unusable; skip it.
		_ = sess.SelectAnswer(qid, a.SelectedOptionIDs, a.AnsweredAt)
	}
	s.restoreFlags(ctx, sess)
	return sess, nil
}

func (s *ExamSessionService) restoreFlags(ctx context.Context, sess *exam.Session) {
	flagged, err := s.flags.FlaggedAmong(ctx, sess.UserID, exam.QuestionIDs(sess.Questions))
	if err != nil {
		s.log.Warn().Err(err).Str("exam_id", sess.ExamID.String()).Msg("Failed to load flags")
		return
	}
	for id := range flagged {
		sess.Flagged[id] = true
	}
}

func (s *ExamSessionService) persist(ctx context.Context, sess *exam.Session) error {
	if err := s.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if deadline, ok := sess.Deadline(); ok {
		if err := s.store.Schedule(ctx, sess.ExamID, sess.UserID, deadline); err != nil {
			return fmt.Errorf("schedule deadline: %w", err)
		}
	}
	return nil
}

// active returns the view of a loaded session, submitting it first when its time is up.
func (s *ExamSessionService) active(ctx context.Context, sess *exam.Session) (*model.ExamSessionView, error) {
	now := s.now()
	if sess.State == model.SessionInProgress && sess.Expired(now) {
		if _, err := s.Finish(ctx, sess.UserID, sess.ExamID, true); err != nil && !errors.Is(err, ErrFinishInProgress) {
			return nil, err
		}
		return nil, ErrTimeUp
	}
	view := sess.View(now)
	return &view, nil
}

// State returns the current session view.
func (s *ExamSessionService) State(ctx context.Context, userID int, examID uuid.UUID) (*model.ExamSessionView, error) {
	sess, err := s.load(ctx, userID, examID)
	if err != nil {
		return nil, err
	}
	return s.active(ctx, sess)
}

func (s *ExamSessionService) load(ctx context.Context, userID int, examID uuid.UUID) (*exam.Session, error) {
	sess, err := s.store.Load(ctx, examID, userID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, s.missing(ctx, userID, examID)
	}
	return sess, err
}

// missing explains an absent snapshot: the exam is unknown, already completed, or not started.
func (s *ExamSessionService) missing(ctx context.Context, userID int, examID uuid.UUID) error {
	def, err := s.definition(ctx, userID, examID)
	if err != nil {
		return err
	}
	if def.Completed {
		return ErrExamCompleted
	}
	return ErrSessionNotFound
}

// mutate applies fn to the stored session in one atomic update. On any error the
// stored session is left as it was. A session being submitted accepts no changes.
func (s *ExamSessionService) mutate(ctx context.Context, userID int, examID uuid.UUID, fn func(*exam.Session, time.Time) error) (*exam.Session, time.Time, error) {
	now := s.now()
	var expired *exam.Session
	sess, err := s.store.Update(ctx, examID, userID, func(sess *exam.Session) error {
		expired = nil
		switch {
		case sess.State == model.SessionSubmitting:
			return ErrFinishInProgress
		case sess.State == model.SessionInProgress && sess.Expired(now):
			expired = sess
			return ErrTimeUp
		}
		return fn(sess, now)
	})
	switch {
	case err == nil:
		return sess, now, nil
	case errors.Is(err, ErrSessionNotFound):
		return nil, now, s.missing(ctx, userID, examID)
	case expired != nil && errors.Is(err, ErrTimeUp):
		_, err = s.active(ctx, expired)
		return nil, now, err
	}
	return nil, now, err
}

func (s *ExamSessionService) logAnswer(ctx context.Context, sess *exam.Session, questionID uuid.UUID, now time.Time) {
	job := model.AnswerLogJob{
		ExamID:     sess.ExamID,
		UserID:     sess.UserID,
		QuestionID: questionID,
		OptionIDs:  sess.Answers[questionID].SelectedOptionIDs,
		AnsweredAt: now,
	}
	if err := s.pub.Enqueue(ctx, config.WorkerKey.PersistAnswersQueue, job); err != nil {
		s.log.Warn().Err(err).Str("exam_id", sess.ExamID.String()).Msg("Failed to enqueue answer log")
	}
}

// SelectAnswer replaces the selection for a question. An empty selection clears it.
func (s *ExamSessionService) SelectAnswer(ctx context.Context, userID int, examID, questionID uuid.UUID, optionIDs []uuid.UUID) (*model.ExamSessionView, error) {
	sess, now, err := s.mutate(ctx, userID, examID, func(sess *exam.Session, now time.Time) error {
		return sess.SelectAnswer(questionID, optionIDs, now)
	})
	if err != nil {
		return nil, err
	}
	s.logAnswer(ctx, sess, questionID, now)
	view := sess.View(now)
	return &view, nil
}

// Next saves the displayed selection (if given) and moves forward.
func (s *ExamSessionService) Next(ctx context.Context, userID int, examID uuid.UUID, displayed []uuid.UUID) (*model.ExamSessionView, error) {
	return s.navigate(ctx, userID, examID, displayed, (*exam.Session).Next)
}

// Previous saves the displayed selection (if given) and moves back.
func (s *ExamSessionService) Previous(ctx context.Context, userID int, examID uuid.UUID, displayed []uuid.UUID) (*model.ExamSessionView, error) {
	return s.navigate(ctx, userID, examID, displayed, (*exam.Session).Previous)
}

func (s *ExamSessionService) navigate(ctx context.Context, userID int, examID uuid.UUID, displayed []uuid.UUID, move func(*exam.Session, []uuid.UUID, time.Time) error) (*model.ExamSessionView, error) {
	var shown uuid.UUID
	sess, now, err := s.mutate(ctx, userID, examID, func(sess *exam.Session, now time.Time) error {
		if q := sess.CurrentQuestion(); q != nil {
			shown = q.ID
		}
		return move(sess, displayed, now)
	})
	if err != nil {
		return nil, err
	}
	if displayed != nil && shown != uuid.Nil {
		s.logAnswer(ctx, sess, shown, now)
	}
	view := sess.View(now)
	return &view, nil
}

// Flag marks a session question. The flag is stored first; the session only changes
// once the store write succeeds.
func (s *ExamSessionService) Flag(ctx context.Context, userID int, examID, questionID uuid.UUID) (*model.ExamSessionView, error) {
	return s.setFlag(ctx, userID, examID, questionID, true)
}

// Unflag clears a session question's flag, store first.
func (s *ExamSessionService) Unflag(ctx context.Context, userID int, examID, questionID uuid.UUID) (*model.ExamSessionView, error) {
	return s.setFlag(ctx, userID, examID, questionID, false)
}

func (s *ExamSessionService) setFlag(ctx context.Context, userID int, examID, questionID uuid.UUID, on bool) (*model.ExamSessionView, error) {
	stored := false
	sess, now, err := s.mutate(ctx, userID, examID, func(sess *exam.Session, _ time.Time) error {
		stored = false
		if !sessionHas(sess, questionID) {
			return exam.ErrUnknownQuestion
		}
		if sess.IsFlagged(questionID) == on {
			return nil
		}
		if err := s.writeFlag(ctx, userID, questionID, on); err != nil {
			return err
		}
		stored = true
		if on {
			return sess.Flag(questionID)
		}
		return sess.Unflag(questionID)
	})
	if err != nil {
		if stored {
			// The stored flag moved but the session did not; put it back.
			if uerr := s.writeFlag(context.WithoutCancel(ctx), userID, questionID, !on); uerr != nil {
				s.log.Error().Err(uerr).Str("question_id", questionID.String()).Msg("Failed to revert flag")
			}
		}
		return nil, err
	}
	view := sess.View(now)
	return &view, nil
}

func (s *ExamSessionService) writeFlag(ctx context.Context, userID int, questionID uuid.UUID, on bool) error {
	if on {
		if err := s.flags.Add(ctx, userID, questionID); err != nil {
			return fmt.Errorf("store flag: %w", err)
		}
		return nil
	}
	if err := s.flags.Remove(ctx, userID, questionID); err != nil {
		return fmt.Errorf("remove flag: %w", err)
	}
	return nil
}

func sessionHas(sess *exam.Session, questionID uuid.UUID) bool {
	for i := range sess.Questions {
		if sess.Questions[i].ID == questionID {
			return true
		}
	}
	return false
}

// Finish scores and stores the session. It runs at most once per exam: concurrent
// callers get ErrFinishInProgress and later callers get the stored result.
func (s *ExamSessionService) Finish(ctx context.Context, userID int, examID uuid.UUID, auto bool) (*model.ExamResult, error) {
	ok, err := s.store.AcquireFinishLock(ctx, examID, userID, finishLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire finish lock: %w", err)
	}
	if !ok {
		return nil, ErrFinishInProgress
	}
	defer func() {
		if err := s.store.ReleaseFinishLock(context.WithoutCancel(ctx), examID, userID); err != nil {
			s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Failed to release finish lock")
		}
	}()

	// The SUBMITTING state is stored before scoring so answers are frozen from here on.
	now := s.now()
	sess, err := s.store.Update(ctx, examID, userID, func(sess *exam.Session) error {
		if sess.State == model.SessionCompleted {
			return errAlreadyCompleted
		}
		if auto && !sess.Expired(now) {
			return errNotDue
		}
		if sess.State == model.SessionSubmitting {
			// A previous submit died before completing.
			if err := sess.Reopen(); err != nil {
				return err
			}
		}
		if err := sess.Finish(); err != nil {
			return err
		}
		sess.AutoSubmitted = auto
		return nil
	})
	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, errAlreadyCompleted) {
		return s.storedResult(ctx, userID, examID)
	}
	if err != nil {
		return nil, err
	}

	score := sess.Score()
	res := &model.ExamResult{
		ExamID:           sess.ExamID,
		UserID:           sess.UserID,
		CorrectCount:     score.CorrectCount,
		IncorrectCount:   score.IncorrectCount,
		ScorePercentage:  score.ScorePercentage,
		TimeTakenSeconds: elapsedSeconds(sess.StartedAt, now, sess.Limit),
		AutoSubmitted:    auto,
		Answers:          score.Answers,
		CompletedAt:      now,
	}

	if err := s.results.Submit(ctx, res); err != nil {
		if errors.Is(err, repository.ErrResultExists) {
			s.cleanup(ctx, sess.ExamID, sess.UserID)
			return s.storedResult(ctx, userID, examID)
		}
		// Leave the session answerable so the learner can retry.
		_, rerr := s.store.Update(context.WithoutCancel(ctx), examID, userID, func(sess *exam.Session) error {
			return sess.Reopen()
		})
		if rerr != nil {
			s.log.Error().Err(rerr).Str("exam_id", examID.String()).Msg("Failed to reopen session after submit error")
		}
		return nil, fmt.Errorf("submit result: %w", err)
	}
	_ = sess.Complete()
	s.cleanup(ctx, sess.ExamID, sess.UserID)

	stats := model.QuestionStatsJob{ExamID: res.ExamID, Results: make([]model.QuestionOutcome, len(res.Answers))}
	for i, a := range res.Answers {
		stats.Results[i] = model.QuestionOutcome{QuestionID: a.QuestionID, Correct: a.IsCorrect}
	}
	if err := s.pub.Enqueue(ctx, config.WorkerKey.PersistQuestionStatsQueue, stats); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Failed to enqueue question stats")
	}
	event := model.SessionEvent{Type: model.SessionEventSubmitted, ExamID: examID, Result: res}
	if err := s.pub.PublishEvent(ctx, examID, userID, event); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Failed to publish submit event")
	}

	s.log.Info().
		Int("user_id", userID).
		Str("exam_id", examID.String()).
		Int("score", res.ScorePercentage).
		Bool("auto", auto).
		Msg("Exam submitted")
	return res, nil
}

func (s *ExamSessionService) cleanup(ctx context.Context, examID uuid.UUID, userID int) {
	if err := s.store.Delete(ctx, examID, userID); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Failed to delete session snapshot")
	}
	if err := s.store.Unschedule(ctx, examID, userID); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Failed to unschedule session")
	}
}

func (s *ExamSessionService) storedResult(ctx context.Context, userID int, examID uuid.UUID) (*model.ExamResult, error) {
	res, err := s.results.GetByExam(ctx, examID, userID)
	if err == nil {
		s.cleanup(ctx, examID, userID)
		return res, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get result: %w", err)
	}
	if _, err := s.definition(ctx, userID, examID); err != nil {
		return nil, err
	}
	return nil, ErrSessionNotFound
}

// FinishDue auto-submits every timed session whose deadline has passed and returns
// how many were submitted.
func (s *ExamSessionService) FinishDue(ctx context.Context, limit int64) (int, error) {
	refs, err := s.store.Due(ctx, s.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("list due sessions: %w", err)
	}

	submitted := 0
	for _, ref := range refs {
		_, err := s.Finish(ctx, ref.UserID, ref.ExamID, true)
		switch {
		case err == nil:
			submitted++
		case errors.Is(err, ErrFinishInProgress), errors.Is(err, errNotDue):
		case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrExamNotFound):
			s.cleanup(ctx, ref.ExamID, ref.UserID)
		default:
			s.log.Error().Err(err).
				Int("user_id", ref.UserID).
				Str("exam_id", ref.ExamID.String()).
				Msg("Auto-submit failed")
		}
	}
	return submitted, nil
}

func elapsedSeconds(start, end time.Time, limit time.Duration) int {
	d := end.Sub(start)
	if limit > 0 && d > limit {
		d = limit
	}
	if d < 0 {
		d = 0
	}
	return int(d / time.Second)
}
