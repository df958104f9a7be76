package exam

import (
	"github.com/google/uuid"
	"github.com/stemsi/examprep-backend/internal/model"
)

// Result is the outcome of scoring one session.
type Result struct {
	CorrectCount    int                      `json:"correct_count"`
	IncorrectCount  int                      `json:"incorrect_count"`
	ScorePercentage int                      `json:"score_percentage"`
	Answers         []model.AnsweredQuestion `json:"answers"`
}

// IsCorrect reports whether selected equals the question's correct option set.
// Order and duplicates are ignored; there is no partial credit.
func IsCorrect(q *model.Question, selected []uuid.UUID) bool {
	want := make(map[uuid.UUID]bool)
	for _, id := range q.CorrectOptionIDs() {
		want[id] = true
	}
	got := make(map[uuid.UUID]bool, len(selected))
	for _, id := range selected {
		got[id] = true
	}
	if len(want) != len(got) {
		return false
	}
	for id := range got {
		if !want[id] {
			return false
		}
	}
	return true
}

// Percentage is round-half-up of 100*correct/total, 0 for an empty exam.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

// Score grades answers against questions. Questions without an answer count as incorrect.
// The answer log holds one entry per question in session order.
func Score(questions []model.Question, answers map[uuid.UUID]model.AnsweredQuestion) Result {
	res := Result{Answers: make([]model.AnsweredQuestion, 0, len(questions))}

	for i := range questions {
		q := &questions[i]
		entry := model.AnsweredQuestion{QuestionID: q.ID}
		if a, ok := answers[q.ID]; ok {
			entry.SelectedOptionIDs = append([]uuid.UUID(nil), a.SelectedOptionIDs...)
			entry.AnsweredAt = a.AnsweredAt
			entry.IsCorrect = IsCorrect(q, a.SelectedOptionIDs)
		}

		if entry.IsCorrect {
			res.CorrectCount++
		} else {
			res.IncorrectCount++
		}
		res.Answers = append(res.Answers, entry)
	}

	res.ScorePercentage = Percentage(res.CorrectCount, len(questions))
	return res
}
