// Package exam holds the exam domain core: configuration, question selection,
// the session state machine and scoring. Nothing here performs I/O.
package exam

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/stemsi/examprep-backend/internal/model"
)

// ErrNoQuestionsAvailable means the filter matches nothing. It is informational, not a failure.
var ErrNoQuestionsAvailable = errors.New("no questions match the selected categories and difficulties")

// ValidationError carries field-level messages for the configuration form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid exam configuration: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

// ToggleDifficulty applies a UI toggle of d to the current selection.
// Choosing "all" clears concrete levels; choosing a concrete level clears "all".
// Toggling the last concrete level off falls back to "all".
func ToggleDifficulty(current []model.Difficulty, d model.Difficulty) []model.Difficulty {
	if d == model.DifficultyAll {
		return []model.Difficulty{model.DifficultyAll}
	}

	out := make([]model.Difficulty, 0, len(current)+1)
	removed := false
	for _, lvl := range current {
		switch {
		case lvl == model.DifficultyAll:
		case lvl == d:
			removed = true
		default:
			out = append(out, lvl)
		}
	}
	if !removed {
		out = append(out, d)
	}
	if len(out) == 0 {
		return []model.Difficulty{model.DifficultyAll}
	}
	return out
}

// NormalizeDifficulties deduplicates levels and collapses any set holding "all" (or nothing) to {all}.
// Unknown levels are kept so validation can report them.
func NormalizeDifficulties(levels []model.Difficulty) []model.Difficulty {
	if len(levels) == 0 {
		return []model.Difficulty{model.DifficultyAll}
	}
	seen := make(map[model.Difficulty]bool, len(levels))
	out := make([]model.Difficulty, 0, len(levels))
	for _, lvl := range levels {
		if lvl == model.DifficultyAll {
			return []model.Difficulty{model.DifficultyAll}
		}
		if !seen[lvl] {
			seen[lvl] = true
			out = append(out, lvl)
		}
	}
	return out
}

// ParseDifficulties converts raw strings (request payloads, query params) to levels.
func ParseDifficulties(raw []string) []model.Difficulty {
	out := make([]model.Difficulty, 0, len(raw))
	for _, r := range raw {
		if r = strings.TrimSpace(strings.ToLower(r)); r != "" {
			out = append(out, model.Difficulty(r))
		}
	}
	return NormalizeDifficulties(out)
}

const difficultyMessage = "difficulty must be all, easy, medium or hard"

// KnownDifficulties reports whether every level is a concrete tier or the "all" sentinel.
func KnownDifficulties(levels []model.Difficulty) bool {
	for _, lvl := range levels {
		if lvl != model.DifficultyAll && !lvl.Concrete() {
			return false
		}
	}
	return true
}

// CheckDifficulties returns a field error for unknown levels.
func CheckDifficulties(levels []model.Difficulty) error {
	if KnownDifficulties(levels) {
		return nil
	}
	return &ValidationError{Fields: map[string]string{"difficulties": difficultyMessage}}
}

// UniqueCategories drops nil and duplicate ids, keeping first-seen order.
func UniqueCategories(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Builder turns a configuration request into an ExamDefinition.
type Builder struct {
	defaultOrder model.SelectionOrder
}

// NewBuilder creates a Builder. defaultOrder applies when a request does not name one.
func NewBuilder(defaultOrder model.SelectionOrder) *Builder {
	if defaultOrder != model.SelectionRandom {
		defaultOrder = model.SelectionOrdered
	}
	return &Builder{defaultOrder: defaultOrder}
}

// Build validates req against the number of available questions and returns the definition.
// available is the count of questions matching the request's categories and difficulties.
// Nothing is returned on failure; callers persist only a successful definition.
func (b *Builder) Build(userID int, req model.CreateExamRequest, available int) (*model.ExamDefinition, error) {
	verr := &ValidationError{}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		verr.add("name", "name is required")
	}

	examType := model.ExamType(req.Type)
	if examType != model.ExamTypeStudy && examType != model.ExamTypeTest {
		verr.add("type", "type must be study or test")
	}

	categories := UniqueCategories(req.CategoryIDs)
	if len(categories) == 0 {
		verr.add("category_ids", "select at least one category")
	}

	difficulties := ParseDifficulties(req.Difficulties)
	if !KnownDifficulties(difficulties) {
		verr.add("difficulties", difficultyMessage)
	}

	switch {
	case req.QuestionCount < 1:
		verr.add("question_count", "question count must be at least 1")
	case len(categories) > 0 && req.QuestionCount > available && available > 0:
		verr.add("question_count", "question count exceeds the available questions")
	}

	timing := model.TimingMode(req.TimingMode)
	var limitType model.TimeLimitType
	limit := 0
	switch timing {
	case model.TimingUntimed:
	case model.TimingTimed:
		limitType = model.TimeLimitType(req.TimeLimitType)
		if limitType != model.TimeLimitTotal && limitType != model.TimeLimitPerQuestion {
			verr.add("time_limit_type", "timed exams need total_seconds or seconds_per_question")
		}
		if req.TimeLimit <= 0 {
			verr.add("time_limit", "timed exams need a positive time limit")
		}
		limit = req.TimeLimit
	default:
		verr.add("timing_mode", "timing mode must be untimed or timed")
	}

	order := b.defaultOrder
	if req.SelectionOrder != "" {
		order = model.SelectionOrder(req.SelectionOrder)
		if order != model.SelectionOrdered && order != model.SelectionRandom {
			verr.add("selection_order", "selection order must be ordered or random")
		}
	}

	if len(verr.Fields) > 0 {
		return nil, verr
	}
	if available == 0 {
		return nil, ErrNoQuestionsAvailable
	}

	return &model.ExamDefinition{
		UserID:         userID,
		Name:           name,
		Type:           examType,
		CategoryIDs:    categories,
		Difficulties:   difficulties,
		QuestionCount:  req.QuestionCount,
		TimingMode:     timing,
		TimeLimitType:  limitType,
		TimeLimit:      limit,
		SelectionOrder: order,
	}, nil
}
