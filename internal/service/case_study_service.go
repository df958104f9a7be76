package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/examprep-backend/internal/casestudy"
	"github.com/stemsi/examprep-backend/internal/config"
	"github.com/stemsi/examprep-backend/internal/model"
)

// CaseStore persists cases and learner progress.
type CaseStore interface {
	List(ctx context.Context) ([]model.Case, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Case, error)
	GetProgress(ctx context.Context, userID int, caseID uuid.UUID) (*model.UserCaseProgress, error)
	SaveProgress(ctx context.Context, p *model.UserCaseProgress, submitted bool) error
	ListProgress(ctx context.Context, userID int) ([]model.UserCaseProgress, error)
}

// CaseAnswerStore keeps the learner's free-text answers for the current run only.
type CaseAnswerStore interface {
	Save(ctx context.Context, userID int, caseID, questionID uuid.UUID, answer string) error
	List(ctx context.Context, userID int, caseID uuid.UUID) (map[uuid.UUID]string, error)
	Clear(ctx context.Context, userID int, caseID uuid.UUID) error
}

// RedisCaseAnswerStore stores answers in a hash per (user, case) that expires with ttl.
type RedisCaseAnswerStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCaseAnswerStore creates a RedisCaseAnswerStore.
func NewRedisCaseAnswerStore(rdb *redis.Client, ttl time.Duration) *RedisCaseAnswerStore {
	return &RedisCaseAnswerStore{rdb: rdb, ttl: ttl}
}

func (r *RedisCaseAnswerStore) Save(ctx context.Context, userID int, caseID, questionID uuid.UUID, answer string) error {
	key := config.CacheKey.CaseAnswersKey(caseID.String(), userID)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, questionID.String(), answer)
	pipe.Expire(ctx, key, r.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisCaseAnswerStore) List(ctx context.Context, userID int, caseID uuid.UUID) (map[uuid.UUID]string, error) {
	raw, err := r.rdb.HGetAll(ctx, config.CacheKey.CaseAnswersKey(caseID.String(), userID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]string, len(raw))
	for k, v := range raw {
		id, err := uuid.Parse(k)
		if err != nil {
			continue
		}
		out[id] = v
	}
	return out, nil
}

func (r *RedisCaseAnswerStore) Clear(ctx context.Context, userID int, caseID uuid.UUID) error {
	return r.rdb.Del(ctx, config.CacheKey.CaseAnswersKey(caseID.String(), userID)).Err()
}

// CaseSummary is a case in the listing with the learner's progress.
type CaseSummary struct {
	ID              uuid.UUID       `json:"id"`
	Title           string          `json:"title"`
	Phase           casestudy.Phase `json:"phase"`
	SubmissionCount int             `json:"submission_count"`
}

// CaseDetail is a case as the learner sees it, with position and current-run answers.
type CaseDetail struct {
	Case     model.CaseForLearner   `json:"case"`
	Phase    casestudy.Phase        `json:"phase"`
	Progress model.UserCaseProgress `json:"progress"`
	Answers  map[uuid.UUID]string   `json:"answers"`
}

// CaseStudyService runs learners through case studies.
type CaseStudyService struct {
	cases   CaseStore
	answers CaseAnswerStore
	now     func() time.Time
	log     zerolog.Logger
}

// NewCaseStudyService creates a new CaseStudyService.
func NewCaseStudyService(cases CaseStore, answers CaseAnswerStore, log zerolog.Logger) *CaseStudyService {
	return &CaseStudyService{
		cases:   cases,
		answers: answers,
		now:     time.Now,
		log:     log.With().Str("component", "case_study_service").Logger(),
	}
}

// List returns all cases with the user's phase in each.
func (s *CaseStudyService) List(ctx context.Context, userID int) ([]CaseSummary, error) {
	cases, err := s.cases.List(ctx)
	if err != nil {
		return nil, err
	}
	progress, err := s.cases.ListProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	byCase := make(map[uuid.UUID]*model.UserCaseProgress, len(progress))
	for i := range progress {
		byCase[progress[i].CaseID] = &progress[i]
	}

	out := make([]CaseSummary, len(cases))
	for i, c := range cases {
		out[i] = CaseSummary{ID: c.ID, Title: c.Title, Phase: casestudy.PhaseInstructions}
		if p, ok := byCase[c.ID]; ok {
			out[i].SubmissionCount = p.SubmissionCount
			if p.Completed {
				out[i].Phase = casestudy.PhaseCompleted
			} else {
				out[i].Phase = casestudy.PhaseAnswering
			}
		}
	}
	return out, nil
}

func (s *CaseStudyService) flow(ctx context.Context, userID int, caseID uuid.UUID) (*model.Case, *casestudy.Flow, error) {
	c, err := s.cases.Get(ctx, caseID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get case: %w", err)
	}

	p, err := s.cases.GetProgress(ctx, userID, caseID)
	if errors.Is(err, pgx.ErrNoRows) {
		p = nil
	} else if err != nil {
		return nil, nil, fmt.Errorf("get progress: %w", err)
	}
	return c, casestudy.Resume(userID, caseID, p, len(c.Questions)), nil
}

func (s *CaseStudyService) detail(ctx context.Context, userID int, c *model.Case, f *casestudy.Flow) (*CaseDetail, error) {
	answers, err := s.answers.List(ctx, userID, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return &CaseDetail{
		Case:     casestudy.ForLearner(c),
		Phase:    f.Phase(),
		Progress: f.Progress(),
		Answers:  answers,
	}, nil
}

// Get returns the case with the learner's position.
func (s *CaseStudyService) Get(ctx context.Context, userID int, caseID uuid.UUID) (*CaseDetail, error) {
	c, f, err := s.flow(ctx, userID, caseID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, userID, c, f)
}

// Start leaves the instructions, or restarts a completed case from the first question.
func (s *CaseStudyService) Start(ctx context.Context, userID int, caseID uuid.UUID) (*CaseDetail, error) {
	c, f, err := s.flow(ctx, userID, caseID)
	if err != nil {
		return nil, err
	}
	restart := f.Phase() == casestudy.PhaseCompleted
	if err := f.Begin(s.now()); err != nil {
		return nil, err
	}
	if _, err := s.save(ctx, f, false); err != nil {
		return nil, err
	}
	if restart {
		if err := s.answers.Clear(ctx, userID, caseID); err != nil {
			s.log.Warn().Err(err).Str("case_id", caseID.String()).Msg("Failed to clear case answers")
		}
	}
	return s.detail(ctx, userID, c, f)
}

// SubmitAnswer stores the learner's text and reveals the model answer.
func (s *CaseStudyService) SubmitAnswer(ctx context.Context, userID int, caseID uuid.UUID, req model.SubmitCaseAnswerRequest) (*model.CaseReveal, error) {
	c, f, err := s.flow(ctx, userID, caseID)
	if err != nil {
		return nil, err
	}
	if f.Phase() != casestudy.PhaseAnswering {
		return nil, casestudy.ErrNotAnswering
	}
	reveal, err := casestudy.Reveal(c, req.CaseQuestionID, req.Answer)
	if err != nil {
		return nil, err
	}
	if err := s.answers.Save(ctx, userID, caseID, req.CaseQuestionID, req.Answer); err != nil {
		return nil, fmt.Errorf("save answer: %w", err)
	}
	return &reveal, nil
}

// UpdateProgress persists the learner's position; isLast on the final question completes the case.
func (s *CaseStudyService) UpdateProgress(ctx context.Context, userID int, caseID uuid.UUID, index int, isLast bool) (*model.UserCaseProgress, error) {
	_, f, err := s.flow(ctx, userID, caseID)
	if err != nil {
		return nil, err
	}
	before := f.Progress().SubmissionCount
	if err := f.MoveTo(index, isLast, s.now()); err != nil {
		return nil, err
	}
	p, err := s.save(ctx, f, f.Progress().SubmissionCount > before)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Complete finishes the current run and bumps the submission counter.
func (s *CaseStudyService) Complete(ctx context.Context, userID int, caseID uuid.UUID) (*model.UserCaseProgress, error) {
	_, f, err := s.flow(ctx, userID, caseID)
	if err != nil {
		return nil, err
	}
	if err := f.Complete(s.now()); err != nil {
		return nil, err
	}
	p, err := s.save(ctx, f, true)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Int("user_id", userID).
		Str("case_id", caseID.String()).
		Int("submission_count", p.SubmissionCount).
		Msg("Case completed")
	return &p, nil
}

// save persists the flow's position. submitted marks a completed run, counted by the store.
func (s *CaseStudyService) save(ctx context.Context, f *casestudy.Flow, submitted bool) (model.UserCaseProgress, error) {
	p := f.Progress()
	if err := s.cases.SaveProgress(ctx, &p, submitted); err != nil {
		return p, fmt.Errorf("save progress: %w", err)
	}
	return p, nil
}
