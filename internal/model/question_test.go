package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func options(correct ...bool) []Option {
	opts := make([]Option, len(correct))
	for i, c := range correct {
		opts[i] = Option{ID: uuid.New(), Text: "opt", IsCorrect: c, OrderNum: i + 1}
	}
	return opts
}

func TestQuestionValidate(t *testing.T) {
	tests := []struct {
		name string
		q    Question
		want error
	}{
		{"valid", Question{Difficulty: DifficultyEasy, Options: options(true, false)}, nil},
		{"too few options", Question{Difficulty: DifficultyEasy, Options: options(true)}, ErrOptionCount},
		{"too many options", Question{Difficulty: DifficultyEasy, Options: options(true, false, false, false, false, false, false, false, false)}, ErrOptionCount},
		{"no correct option", Question{Difficulty: DifficultyHard, Options: options(false, false)}, ErrNoCorrect},
		{"sentinel difficulty", Question{Difficulty: DifficultyAll, Options: options(true, false)}, ErrBadDifficulty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.q.Validate(), tt.want)
		})
	}
}

func TestQuestionClone_DoesNotAlias(t *testing.T) {
	url := "https://example.com/a.png"
	q := Question{ImageURL: &url, Options: options(true, false)}

	c := q.Clone()
	c.Options[0].Text = "changed"
	*c.ImageURL = "changed"

	assert.Equal(t, "opt", q.Options[0].Text)
	assert.Equal(t, "https://example.com/a.png", *q.ImageURL)
}

func TestQuestionForLearner(t *testing.T) {
	q := Question{ID: uuid.New(), Difficulty: DifficultyMedium, Options: options(true, true, false)}

	v := q.ForLearner()

	require.Len(t, v.Options, 3)
	assert.True(t, v.MultiSelect)
	assert.Equal(t, q.Options[2].ID, v.Options[2].ID)
	assert.Equal(t, []uuid.UUID{q.Options[0].ID, q.Options[1].ID}, q.CorrectOptionIDs())
}

func TestBuildOptions_NumbersFromOne(t *testing.T) {
	opts := BuildOptions([]OptionInput{{Text: "a", IsCorrect: true}, {Text: "b"}})

	require.Len(t, opts, 2)
	assert.Equal(t, 1, opts[0].OrderNum)
	assert.Equal(t, 2, opts[1].OrderNum)
	assert.True(t, opts[0].IsCorrect)
}
