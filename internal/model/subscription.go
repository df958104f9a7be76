package model

import (
	"time"

	"github.com/google/uuid"
)

// Subscription grants a user access to one question bank until ExpiresAt (nil = no expiry).
type Subscription struct {
	UserID    int        `json:"user_id"`
	BankID    uuid.UUID  `json:"bank_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Active reports whether the subscription grants access at now.
func (s *Subscription) Active(now time.Time) bool {
	return s.ExpiresAt == nil || now.Before(*s.ExpiresAt)
}

type GrantSubscriptionRequest struct {
	UserID    int        `json:"user_id" binding:"required,min=1"`
	BankID    uuid.UUID  `json:"bank_id" binding:"required"`
	ExpiresAt *time.Time `json:"expires_at" binding:"omitempty"`
}
