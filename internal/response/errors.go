package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden            ErrCode = "FORBIDDEN"
	ErrAdminAccessOnly      ErrCode = "ADMIN_ACCESS_ONLY"
	ErrSubscriptionRequired ErrCode = "SUBSCRIPTION_REQUIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation      ErrCode = "VALIDATION_ERROR"
	ErrInvalidID       ErrCode = "INVALID_ID"
	ErrInvalidPayload  ErrCode = "INVALID_PAYLOAD"
	ErrQuestionInvalid ErrCode = "QUESTION_INVALID"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam sessions ─────────────────────────────────────────────────
	ErrNoQuestionsMatch     ErrCode = "NO_QUESTIONS_MATCH"
	ErrExamCompleted        ErrCode = "EXAM_COMPLETED"
	ErrSessionNotFound      ErrCode = "SESSION_NOT_FOUND"
	ErrSessionNotInProgress ErrCode = "SESSION_NOT_IN_PROGRESS"
	ErrUnknownQuestion      ErrCode = "UNKNOWN_QUESTION"
	ErrUnknownOption        ErrCode = "UNKNOWN_OPTION"
	ErrFinishInProgress     ErrCode = "FINISH_IN_PROGRESS"
	ErrSessionBusy          ErrCode = "SESSION_BUSY"
	ErrTimeUp               ErrCode = "TIME_UP"

	// ─── Case studies ──────────────────────────────────────────────────
	ErrCaseNotAnswering ErrCode = "CASE_NOT_ANSWERING"
	ErrCaseIndexRange   ErrCode = "CASE_INDEX_OUT_OF_RANGE"
	ErrCaseEmpty        ErrCode = "CASE_EMPTY"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

var messages = map[ErrCode]string{
	ErrInvalidCredentials: "Email or password is incorrect.",
	ErrEmailTaken:         "An account with this email already exists.",
	ErrSessionInvalidated: "Your session has ended. Please log in again.",
	ErrTokenRequired:      "An authentication token is required.",
	ErrTokenInvalid:       "The authentication token is invalid.",
	ErrTokenExpired:       "The authentication token has expired.",

	ErrForbidden:            "You do not have permission to access this resource.",
	ErrAdminAccessOnly:      "This resource is restricted to administrators.",
	ErrSubscriptionRequired: "An active subscription to this question bank is required.",

	ErrValidation:      "Validation failed. Please check your input.",
	ErrInvalidID:       "Invalid ID format.",
	ErrInvalidPayload:  "Invalid request payload.",
	ErrQuestionInvalid: "A question needs 2 to 8 options with at least one correct.",

	ErrNotFound: "Resource not found.",
	ErrConflict: "Resource already exists.",

	ErrNoQuestionsMatch:     "No questions match the selected categories and difficulty.",
	ErrExamCompleted:        "This exam has already been completed.",
	ErrSessionNotFound:      "No active session for this exam. Start or resume it first.",
	ErrSessionNotInProgress: "This session is not in progress.",
	ErrUnknownQuestion:      "The question is not part of this session.",
	ErrUnknownOption:        "The option does not belong to the question.",
	ErrFinishInProgress:     "This exam is already being submitted.",
	ErrSessionBusy:          "This session is being updated. Please try again.",
	ErrTimeUp:               "Time is up. The exam has been submitted.",

	ErrCaseNotAnswering: "Start the case before answering.",
	ErrCaseIndexRange:   "The question index is outside this case.",
	ErrCaseEmpty:        "This case has no questions.",

	ErrRateLimitExceeded: "Too many requests. Please try again later.",

	ErrInternal: "An internal server error occurred.",
}

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "An unexpected error occurred."
}
