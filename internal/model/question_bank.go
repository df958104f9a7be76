package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionBank groups categories and is the unit of subscription.
type QuestionBank struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsFree      bool      `json:"is_free"`
	CreatedAt   time.Time `json:"created_at"`
}

// Category groups questions inside a bank.
type Category struct {
	ID            uuid.UUID `json:"id"`
	BankID        uuid.UUID `json:"bank_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type CreateQuestionBankRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=255"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	IsFree      bool   `json:"is_free"`
}

type CreateCategoryRequest struct {
	BankID      uuid.UUID `json:"bank_id" binding:"required"`
	Name        string    `json:"name" binding:"required,min=2,max=255"`
	Description string    `json:"description" binding:"omitempty,max=2000"`
}
