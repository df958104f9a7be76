package exam

import (
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/stemsi/examprep-backend/internal/model"
)

// SelectQuestions takes the first count questions of pool, shuffling the pool first when
// order is random. Fewer matches than count is not an error: every match is returned.
// The result is a deep copy; later edits to pool rows never reach a session.
func SelectQuestions(pool []model.Question, count int, order model.SelectionOrder, rng *rand.Rand) []model.Question {
	candidates := make([]model.Question, len(pool))
	for i := range pool {
		candidates[i] = pool[i].Clone()
	}

	if order == model.SelectionRandom {
		swap := func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] }
		if rng != nil {
			rng.Shuffle(len(candidates), swap)
		} else {
			rand.Shuffle(len(candidates), swap)
		}
	}

	if count >= 0 && count < len(candidates) {
		candidates = candidates[:count]
	}
	return candidates
}

// OrderByIDs arranges pool in the order of ids, skipping ids no longer present.
// Used to rebuild a session from a persisted question order.
func OrderByIDs(pool []model.Question, ids []uuid.UUID) []model.Question {
	byID := make(map[uuid.UUID]*model.Question, len(pool))
	for i := range pool {
		byID[pool[i].ID] = &pool[i]
	}
	out := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q.Clone())
		}
	}
	return out
}

// QuestionIDs lists the ids of questions in order.
func QuestionIDs(questions []model.Question) []uuid.UUID {
	ids := make([]uuid.UUID, len(questions))
	for i := range questions {
		ids[i] = questions[i].ID
	}
	return ids
}
