package exam

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() model.CreateExamRequest {
	return model.CreateExamRequest{
		Name:          "Cardiology block",
		Type:          "study",
		CategoryIDs:   []uuid.UUID{uuid.New(), uuid.New()},
		Difficulties:  []string{"all"},
		QuestionCount: 5,
		TimingMode:    "untimed",
	}
}

func TestToggleDifficulty(t *testing.T) {
	d := []model.Difficulty{model.DifficultyAll}

	d = ToggleDifficulty(d, model.DifficultyEasy)
	assert.Equal(t, []model.Difficulty{model.DifficultyEasy}, d)

	d = ToggleDifficulty(d, model.DifficultyHard)
	assert.Equal(t, []model.Difficulty{model.DifficultyEasy, model.DifficultyHard}, d)

	d = ToggleDifficulty(d, model.DifficultyAll)
	assert.Equal(t, []model.Difficulty{model.DifficultyAll}, d)

	d = ToggleDifficulty([]model.Difficulty{model.DifficultyMedium}, model.DifficultyMedium)
	assert.Equal(t, []model.Difficulty{model.DifficultyAll}, d)
}

func TestNormalizeDifficulties(t *testing.T) {
	assert.Equal(t, []model.Difficulty{model.DifficultyAll}, NormalizeDifficulties(nil))
	assert.Equal(t, []model.Difficulty{model.DifficultyAll},
		NormalizeDifficulties([]model.Difficulty{model.DifficultyEasy, model.DifficultyAll}))
	assert.Equal(t, []model.Difficulty{model.DifficultyEasy, model.DifficultyHard},
		NormalizeDifficulties([]model.Difficulty{model.DifficultyEasy, model.DifficultyHard, model.DifficultyEasy}))
}

func TestCheckDifficulties(t *testing.T) {
	assert.NoError(t, CheckDifficulties(nil))
	assert.NoError(t, CheckDifficulties([]model.Difficulty{model.DifficultyAll, model.DifficultyHard}))

	err := CheckDifficulties([]model.Difficulty{model.DifficultyEasy, "xyz"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "difficulties")
}

func TestBuild_Valid(t *testing.T) {
	b := NewBuilder(model.SelectionRandom)
	req := validRequest()

	def, err := b.Build(7, req, 3)
	require.Error(t, err, "count above availability is rejected")

	req.QuestionCount = 3
	def, err = b.Build(7, req, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, def.UserID)
	assert.Equal(t, []model.Difficulty{model.DifficultyAll}, def.Difficulties)
	assert.Equal(t, model.SelectionRandom, def.SelectionOrder)
	assert.False(t, def.Timed())
	assert.Zero(t, def.TimeLimit)
}

func TestBuild_ValidationErrors(t *testing.T) {
	b := NewBuilder(model.SelectionOrdered)

	tests := []struct {
		name   string
		mutate func(*model.CreateExamRequest)
		field  string
	}{
		{"empty categories", func(r *model.CreateExamRequest) { r.CategoryIDs = nil }, "category_ids"},
		{"nil category only", func(r *model.CreateExamRequest) { r.CategoryIDs = []uuid.UUID{uuid.Nil} }, "category_ids"},
		{"zero count", func(r *model.CreateExamRequest) { r.QuestionCount = 0 }, "question_count"},
		{"negative count", func(r *model.CreateExamRequest) { r.QuestionCount = -2 }, "question_count"},
		{"count too high", func(r *model.CreateExamRequest) { r.QuestionCount = 11 }, "question_count"},
		{"blank name", func(r *model.CreateExamRequest) { r.Name = "   " }, "name"},
		{"bad difficulty", func(r *model.CreateExamRequest) { r.Difficulties = []string{"impossible"} }, "difficulties"},
		{"timed without limit", func(r *model.CreateExamRequest) {
			r.TimingMode = "timed"
			r.TimeLimitType = "total_seconds"
		}, "time_limit"},
		{"timed without type", func(r *model.CreateExamRequest) {
			r.TimingMode = "timed"
			r.TimeLimit = 60
		}, "time_limit_type"},
		{"unknown timing", func(r *model.CreateExamRequest) { r.TimingMode = "sometimes" }, "timing_mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			def, err := b.Build(1, req, 10)
			assert.Nil(t, def)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestBuild_NoQuestionsIsInformational(t *testing.T) {
	b := NewBuilder(model.SelectionOrdered)
	def, err := b.Build(1, validRequest(), 0)
	assert.Nil(t, def)
	assert.ErrorIs(t, err, ErrNoQuestionsAvailable)
}

func TestBuild_TimedPerQuestion(t *testing.T) {
	b := NewBuilder(model.SelectionOrdered)
	req := validRequest()
	req.TimingMode = "timed"
	req.TimeLimitType = "seconds_per_question"
	req.TimeLimit = 60
	req.QuestionCount = 4
	req.Difficulties = []string{"easy", "EASY", "hard"}

	def, err := b.Build(1, req, 4)
	require.NoError(t, err)
	assert.Equal(t, []model.Difficulty{model.DifficultyEasy, model.DifficultyHard}, def.Difficulties)
	assert.Equal(t, 240, int(def.TimeLimitFor(4).Seconds()))
}
