package exam

import (
	"github.com/google/uuid"
	"github.com/stemsi/examprep-backend/internal/model"
)

// newQuestion builds a question whose options are marked correct per the flags.
func newQuestion(serial int, correct ...bool) model.Question {
	q := model.Question{
		ID:           uuid.New(),
		SerialNumber: serial,
		CategoryID:   uuid.New(),
		Text:         "question",
		Difficulty:   model.DifficultyEasy,
	}
	for i, c := range correct {
		q.Options = append(q.Options, model.Option{
			ID:         uuid.New(),
			QuestionID: q.ID,
			Text:       "option",
			IsCorrect:  c,
			OrderNum:   i + 1,
		})
	}
	return q
}

func optionIDs(q model.Question, idx ...int) []uuid.UUID {
	ids := make([]uuid.UUID, len(idx))
	for i, n := range idx {
		ids[i] = q.Options[n].ID
	}
	return ids
}
