package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/examprep-backend/internal/exam"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stemsi/examprep-backend/internal/repository"
)

var errStoreDown = errors.New("store down")

// ─── Questions ──────────────────────────────────────────────────────────

type fakeQuestions struct {
	items []model.Question
}

func newQuestion(serial int, category uuid.UUID, difficulty model.Difficulty, correct ...bool) model.Question {
	q := model.Question{
		ID:           uuid.New(),
		SerialNumber: serial,
		CategoryID:   category,
		Text:         "question",
		Difficulty:   difficulty,
	}
	for i, c := range correct {
		q.Options = append(q.Options, model.Option{ID: uuid.New(), QuestionID: q.ID, Text: "option", IsCorrect: c, OrderNum: i + 1})
	}
	return q
}

func (f *fakeQuestions) match(categoryIDs []uuid.UUID, levels []model.Difficulty) []model.Question {
	cats := make(map[uuid.UUID]bool)
	for _, c := range categoryIDs {
		cats[c] = true
	}
	all := len(levels) == 0
	want := make(map[model.Difficulty]bool)
	for _, l := range levels {
		if l == model.DifficultyAll {
			all = true
		}
		want[l] = true
	}
	var out []model.Question
	for _, q := range f.items {
		if cats[q.CategoryID] && (all || want[q.Difficulty]) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SerialNumber < out[j].SerialNumber })
	return out
}

func (f *fakeQuestions) ListByFilter(_ context.Context, categoryIDs []uuid.UUID, levels []model.Difficulty) ([]model.Question, error) {
	return f.match(categoryIDs, levels), nil
}

func (f *fakeQuestions) CountAvailable(_ context.Context, categoryIDs []uuid.UUID, levels []model.Difficulty) (int, error) {
	return len(f.match(categoryIDs, levels)), nil
}

func (f *fakeQuestions) GetByIDs(_ context.Context, ids []uuid.UUID) ([]model.Question, error) {
	want := make(map[uuid.UUID]bool)
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Question
	for _, q := range f.items {
		if want[q.ID] {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestions) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	for _, q := range f.items {
		if q.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// ─── Exams / results / drafts ───────────────────────────────────────────

type fakeExams struct {
	mu   sync.Mutex
	defs map[uuid.UUID]*model.ExamDefinition
}

func newFakeExams() *fakeExams {
	return &fakeExams{defs: make(map[uuid.UUID]*model.ExamDefinition)}
}

func (f *fakeExams) Create(_ context.Context, e *model.ExamDefinition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	cp := *e
	f.defs[e.ID] = &cp
	return nil
}

func (f *fakeExams) GetForUser(_ context.Context, id uuid.UUID, userID int) (*model.ExamDefinition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.defs[id]
	if !ok || d.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	cp := *d
	return &cp, nil
}

func (f *fakeExams) ListByUser(_ context.Context, userID, limit, offset int) ([]model.ExamDefinition, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ExamDefinition
	for _, d := range f.defs {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (f *fakeExams) put(d *model.ExamDefinition) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defs[d.ID] = d
}

type fakeResults struct {
	mu        sync.Mutex
	exams     *fakeExams
	byExam    map[uuid.UUID]*model.ExamResult
	submits   int
	submitErr error
}

func newFakeResults(exams *fakeExams) *fakeResults {
	return &fakeResults{exams: exams, byExam: make(map[uuid.UUID]*model.ExamResult)}
}

func (f *fakeResults) Submit(_ context.Context, res *model.ExamResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	if f.submitErr != nil {
		return f.submitErr
	}
	if _, ok := f.byExam[res.ExamID]; ok {
		return repository.ErrResultExists
	}
	res.ID = uuid.New()
	cp := *res
	f.byExam[res.ExamID] = &cp

	f.exams.mu.Lock()
	if d, ok := f.exams.defs[res.ExamID]; ok {
		d.Completed = true
	}
	f.exams.mu.Unlock()
	return nil
}

func (f *fakeResults) GetByExam(_ context.Context, examID uuid.UUID, userID int) (*model.ExamResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byExam[examID]
	if !ok || r.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

type fakeDrafts struct {
	answers map[uuid.UUID]model.AnsweredQuestion
}

func (f *fakeDrafts) ListByExam(context.Context, uuid.UUID, int) (map[uuid.UUID]model.AnsweredQuestion, error) {
	if f.answers == nil {
		return map[uuid.UUID]model.AnsweredQuestion{}, nil
	}
	return f.answers, nil
}

// ─── Flags ──────────────────────────────────────────────────────────────

type fakeFlags struct {
	mu     sync.Mutex
	set    map[int]map[uuid.UUID]bool
	addErr error
}

func newFakeFlags() *fakeFlags {
	return &fakeFlags{set: make(map[int]map[uuid.UUID]bool)}
}

func (f *fakeFlags) Add(_ context.Context, userID int, questionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	if f.set[userID] == nil {
		f.set[userID] = make(map[uuid.UUID]bool)
	}
	f.set[userID][questionID] = true
	return nil
}

func (f *fakeFlags) Remove(_ context.Context, userID int, questionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.set[userID], questionID)
	return nil
}

func (f *fakeFlags) FlaggedAmong(_ context.Context, userID int, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]bool)
	for _, id := range ids {
		if f.set[userID][id] {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeFlags) ListByUser(_ context.Context, userID int) ([]model.FlaggedQuestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.FlaggedQuestion
	for id := range f.set[userID] {
		out = append(out, model.FlaggedQuestion{UserID: userID, QuestionID: id})
	}
	return out, nil
}

// ─── Session store / publisher ──────────────────────────────────────────

type memSessionStore struct {
	mu        sync.Mutex
	sessions  map[SessionRef][]byte
	locks     map[SessionRef]bool
	deadlines map[SessionRef]time.Time
	updateErr error
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{
		sessions:  make(map[SessionRef][]byte),
		locks:     make(map[SessionRef]bool),
		deadlines: make(map[SessionRef]time.Time),
	}
}

func (m *memSessionStore) Load(_ context.Context, examID uuid.UUID, userID int) (*exam.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.sessions[SessionRef{examID, userID}]
	if !ok {
		return nil, ErrSessionNotFound
	}
	var s exam.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *memSessionStore) Save(_ context.Context, s *exam.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[SessionRef{s.ExamID, s.UserID}] = raw
	return nil
}

func (m *memSessionStore) Update(_ context.Context, examID uuid.UUID, userID int, fn func(*exam.Session) error) (*exam.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := SessionRef{examID, userID}
	raw, ok := m.sessions[ref]
	if !ok {
		return nil, ErrSessionNotFound
	}
	var s exam.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if err := fn(&s); err != nil {
		return nil, err
	}
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	enc, err := json.Marshal(&s)
	if err != nil {
		return nil, err
	}
	m.sessions[ref] = enc
	return &s, nil
}

func (m *memSessionStore) Delete(_ context.Context, examID uuid.UUID, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, SessionRef{examID, userID})
	return nil
}

func (m *memSessionStore) AcquireFinishLock(_ context.Context, examID uuid.UUID, userID int, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := SessionRef{examID, userID}
	if m.locks[ref] {
		return false, nil
	}
	m.locks[ref] = true
	return true, nil
}

func (m *memSessionStore) ReleaseFinishLock(_ context.Context, examID uuid.UUID, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, SessionRef{examID, userID})
	return nil
}

func (m *memSessionStore) Schedule(_ context.Context, examID uuid.UUID, userID int, deadline time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadlines[SessionRef{examID, userID}] = deadline
	return nil
}

func (m *memSessionStore) Unschedule(_ context.Context, examID uuid.UUID, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.deadlines, SessionRef{examID, userID})
	return nil
}

func (m *memSessionStore) Due(_ context.Context, now time.Time, _ int64) ([]SessionRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SessionRef
	for ref, d := range m.deadlines {
		if !d.After(now) {
			out = append(out, ref)
		}
	}
	return out, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	queued map[string][]any
	events []any
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{queued: make(map[string][]any)}
}

func (p *fakePublisher) Enqueue(_ context.Context, queue string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queued[queue] = append(p.queued[queue], payload)
	return nil
}

func (p *fakePublisher) PublishEvent(_ context.Context, _ uuid.UUID, _ int, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// ─── Catalog / subscriptions ────────────────────────────────────────────

type fakeCatalog struct {
	banks      map[uuid.UUID]model.QuestionBank
	categories map[uuid.UUID]uuid.UUID // category -> bank
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{banks: make(map[uuid.UUID]model.QuestionBank), categories: make(map[uuid.UUID]uuid.UUID)}
}

func (f *fakeCatalog) addBank(free bool) uuid.UUID {
	id := uuid.New()
	f.banks[id] = model.QuestionBank{ID: id, Name: "bank", IsFree: free}
	return id
}

func (f *fakeCatalog) addCategory(bankID uuid.UUID) uuid.UUID {
	id := uuid.New()
	f.categories[id] = bankID
	return id
}

func (f *fakeCatalog) ListBanks(context.Context) ([]model.QuestionBank, error) {
	var out []model.QuestionBank
	for _, b := range f.banks {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeCatalog) GetBank(_ context.Context, id uuid.UUID) (*model.QuestionBank, error) {
	b, ok := f.banks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &b, nil
}

func (f *fakeCatalog) ListCategories(_ context.Context, bankID uuid.UUID) ([]model.Category, error) {
	var out []model.Category
	for c, b := range f.categories {
		if b == bankID {
			out = append(out, model.Category{ID: c, BankID: b})
		}
	}
	return out, nil
}

func (f *fakeCatalog) CategoryBanks(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.QuestionBank, error) {
	out := make(map[uuid.UUID]model.QuestionBank)
	for _, id := range ids {
		if b, ok := f.categories[id]; ok {
			out[id] = f.banks[b]
		}
	}
	return out, nil
}

func (f *fakeCatalog) CreateBank(_ context.Context, b *model.QuestionBank) error {
	b.ID = uuid.New()
	f.banks[b.ID] = *b
	return nil
}

func (f *fakeCatalog) CreateCategory(_ context.Context, c *model.Category) error {
	c.ID = uuid.New()
	f.categories[c.ID] = c.BankID
	return nil
}

type fakeSubs struct {
	subs []model.Subscription
}

func (f *fakeSubs) Upsert(_ context.Context, s *model.Subscription) error {
	for i := range f.subs {
		if f.subs[i].UserID == s.UserID && f.subs[i].BankID == s.BankID {
			f.subs[i].ExpiresAt = s.ExpiresAt
			return nil
		}
	}
	f.subs = append(f.subs, *s)
	return nil
}

func (f *fakeSubs) ListByUser(_ context.Context, userID int) ([]model.Subscription, error) {
	var out []model.Subscription
	for _, s := range f.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type allowAll struct{}

func (allowAll) CheckAccess(context.Context, int, []uuid.UUID) error { return nil }
