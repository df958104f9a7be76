package exam

import (
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pool(n int) []model.Question {
	out := make([]model.Question, n)
	for i := range out {
		out[i] = newQuestion(i+1, true, false)
	}
	return out
}

func TestSelectQuestions_TruncatesInStoreOrder(t *testing.T) {
	p := pool(5)
	got := SelectQuestions(p, 3, model.SelectionOrdered, nil)
	require.Len(t, got, 3)
	assert.Equal(t, QuestionIDs(p[:3]), QuestionIDs(got))
}

func TestSelectQuestions_FewerThanRequested(t *testing.T) {
	p := pool(3)
	got := SelectQuestions(p, 5, model.SelectionOrdered, nil)
	assert.Len(t, got, 3)
}

func TestSelectQuestions_EmptyPool(t *testing.T) {
	got := SelectQuestions(nil, 5, model.SelectionOrdered, nil)
	assert.Empty(t, got)
}

func TestSelectQuestions_RandomIsAPermutationSubset(t *testing.T) {
	p := pool(10)
	rng := rand.New(rand.NewPCG(1, 2))
	got := SelectQuestions(p, 4, model.SelectionRandom, rng)
	require.Len(t, got, 4)

	known := make(map[uuid.UUID]bool)
	for _, q := range p {
		known[q.ID] = true
	}
	seen := make(map[uuid.UUID]bool)
	for _, q := range got {
		assert.True(t, known[q.ID])
		assert.False(t, seen[q.ID], "duplicate question selected")
		seen[q.ID] = true
	}
}

func TestSelectQuestions_SnapshotIsIndependent(t *testing.T) {
	p := pool(2)
	got := SelectQuestions(p, 2, model.SelectionOrdered, nil)

	p[0].Text = "edited"
	p[0].Options[0].IsCorrect = false

	assert.Equal(t, "question", got[0].Text)
	assert.True(t, got[0].Options[0].IsCorrect)
}

func TestOrderByIDs(t *testing.T) {
	p := pool(3)
	ids := []uuid.UUID{p[2].ID, uuid.New(), p[0].ID}

	got := OrderByIDs(p, ids)
	require.Len(t, got, 2)
	assert.Equal(t, p[2].ID, got[0].ID)
	assert.Equal(t, p[0].ID, got[1].ID)
}
