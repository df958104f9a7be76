package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Difficulty is a question's difficulty tier. DifficultyAll is the "no filter" sentinel
// and is never stored on a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyAll    Difficulty = "all"
)

// Concrete reports whether d is one of the storable tiers.
func (d Difficulty) Concrete() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

const (
	MinOptions = 2
	MaxOptions = 8
)

var (
	ErrOptionCount   = fmt.Errorf("a question needs between %d and %d options", MinOptions, MaxOptions)
	ErrNoCorrect     = errors.New("a question needs at least one correct option")
	ErrBadDifficulty = errors.New("difficulty must be easy, medium or hard")
)

// Option is one answer choice. Options are replaced as a whole set, never edited in place.
type Option struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
	IsCorrect  bool      `json:"is_correct"`
	OrderNum   int       `json:"order_num"`
}

// Question is a multiple-choice question belonging to a category.
type Question struct {
	ID           uuid.UUID  `json:"id"`
	SerialNumber int        `json:"serial_number"`
	CategoryID   uuid.UUID  `json:"category_id"`
	Text         string     `json:"text"`
	ImageURL     *string    `json:"image_url,omitempty"`
	Difficulty   Difficulty `json:"difficulty"`
	Explanation  string     `json:"explanation"`
	Options      []Option   `json:"options"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Validate checks the option-count, correct-option and difficulty invariants.
func (q *Question) Validate() error {
	if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
		return ErrOptionCount
	}
	if !q.Difficulty.Concrete() {
		return ErrBadDifficulty
	}
	for _, o := range q.Options {
		if o.IsCorrect {
			return nil
		}
	}
	return ErrNoCorrect
}

// CorrectOptionIDs returns the ids of every option marked correct, in option order.
func (q *Question) CorrectOptionIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(q.Options))
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// HasOption reports whether id names one of the question's options.
func (q *Question) HasOption(id uuid.UUID) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so session snapshots never alias store rows.
func (q Question) Clone() Question {
	c := q
	if q.ImageURL != nil {
		url := *q.ImageURL
		c.ImageURL = &url
	}
	c.Options = append([]Option(nil), q.Options...)
	return c
}

// OptionForLearner is an option without its correctness flag.
type OptionForLearner struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

// QuestionForLearner is what an in-progress session exposes: no answers, no explanation.
type QuestionForLearner struct {
	ID           uuid.UUID          `json:"id"`
	SerialNumber int                `json:"serial_number"`
	Text         string             `json:"text"`
	ImageURL     *string            `json:"image_url,omitempty"`
	Difficulty   Difficulty         `json:"difficulty"`
	MultiSelect  bool               `json:"multi_select"`
	Options      []OptionForLearner `json:"options"`
}

// ForLearner strips correctness data from q.
func (q *Question) ForLearner() QuestionForLearner {
	opts := make([]OptionForLearner, len(q.Options))
	correct := 0
	for i, o := range q.Options {
		opts[i] = OptionForLearner{ID: o.ID, Text: o.Text}
		if o.IsCorrect {
			correct++
		}
	}
	return QuestionForLearner{
		ID:           q.ID,
		SerialNumber: q.SerialNumber,
		Text:         q.Text,
		ImageURL:     q.ImageURL,
		Difficulty:   q.Difficulty,
		MultiSelect:  correct > 1,
		Options:      opts,
	}
}

// OptionInput is one option in an admin create/replace payload.
type OptionInput struct {
	Text      string `json:"text" binding:"required,min=1,max=2000"`
	IsCorrect bool   `json:"is_correct"`
}

// CreateQuestionRequest is the payload for adding a question to a category.
type CreateQuestionRequest struct {
	CategoryID  uuid.UUID     `json:"category_id" binding:"required"`
	Text        string        `json:"text" binding:"required,min=1,max=5000"`
	ImageURL    *string       `json:"image_url" binding:"omitempty,url"`
	Difficulty  string        `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Explanation string        `json:"explanation" binding:"omitempty,max=10000"`
	Options     []OptionInput `json:"options" binding:"required,min=2,max=8,dive"`
}

// ReplaceOptionsRequest replaces a question's whole option set.
type ReplaceOptionsRequest struct {
	Options []OptionInput `json:"options" binding:"required,min=2,max=8,dive"`
}

// BuildOptions converts request inputs into ordered options.
func BuildOptions(in []OptionInput) []Option {
	opts := make([]Option, len(in))
	for i, o := range in {
		opts[i] = Option{Text: o.Text, IsCorrect: o.IsCorrect, OrderNum: i + 1}
	}
	return opts
}

// QuestionStats aggregates attempts over every submitted exam.
type QuestionStats struct {
	QuestionID   uuid.UUID `json:"question_id"`
	Attempts     int       `json:"attempts"`
	CorrectCount int       `json:"correct_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}
