package service

import "errors"

// Domain errors returned by services and mapped to response codes by handlers.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailTaken           = errors.New("email is already registered")
	ErrSessionInvalidated   = errors.New("session invalidated")
	ErrExamNotFound         = errors.New("exam not found")
	ErrExamCompleted        = errors.New("exam is already completed")
	ErrSessionNotFound      = errors.New("exam session not found")
	ErrFinishInProgress     = errors.New("exam is being submitted")
	ErrSessionBusy          = errors.New("exam session is being updated, try again")
	ErrTimeUp               = errors.New("time is up, the exam was submitted")
	ErrResultNotFound       = errors.New("result not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrBankNotFound         = errors.New("question bank not found")
	ErrSubscriptionRequired = errors.New("an active subscription is required for this question bank")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrNoteNotFound         = errors.New("note not found")
	ErrCaseNotFound         = errors.New("case not found")
	ErrUserNotFound         = errors.New("user not found")
)
