package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrLoginActive        ErrCode = "LOGIN_ALREADY_ACTIVE"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrLoginInvalidated   ErrCode = "LOGIN_INVALIDATED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden          ErrCode = "FORBIDDEN"
	ErrCandidateOnly      ErrCode = "CANDIDATE_ACCESS_ONLY"
	ErrAdminOnly          ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"

	// ─── Session lifecycle ─────────────────────────────────────────────
	ErrInvalidCode        ErrCode = "INVALID_SESSION_CODE"
	ErrWrongUser          ErrCode = "WRONG_USER"
	ErrCodeUsed           ErrCode = "SESSION_CODE_USED"
	ErrAssignmentInactive ErrCode = "ASSIGNMENT_INACTIVE"
	ErrAttemptsExhausted  ErrCode = "ATTEMPTS_EXHAUSTED"
	ErrSessionInProgress  ErrCode = "SESSION_IN_PROGRESS"
	ErrSessionClosed      ErrCode = "SESSION_CLOSED"
	ErrAlreadySubmitted   ErrCode = "ALREADY_SUBMITTED"
	ErrNotOwner           ErrCode = "NOT_SESSION_OWNER"
	ErrAnswerLocked       ErrCode = "ANSWER_LOCKED"
	ErrInvalidToken       ErrCode = "INVALID_VIOLATION_TOKEN"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid username or password."
	case ErrLoginActive:
		return "You are already logged in on another device."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrLoginInvalidated:
		return "This login has been invalidated. Please log in again."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrCandidateOnly:
		return "This resource is restricted to candidates."
	case ErrAdminOnly:
		return "This resource is restricted to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid identifier format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrDependencyExists:
		return "This record is still referenced by other data and cannot be deleted."

	// ─── Session lifecycle ─────────────────────────────────────────────
	case ErrInvalidCode:
		return "Invalid session code."
	case ErrWrongUser:
		return "This session code belongs to another candidate."
	case ErrCodeUsed:
		return "This session code has already been used."
	case ErrAssignmentInactive:
		return "This assignment is no longer active."
	case ErrAttemptsExhausted:
		return "No attempts remain for this test."
	case ErrSessionInProgress:
		return "A session for this assignment is already in progress."
	case ErrSessionClosed:
		return "The session is closed."
	case ErrAlreadySubmitted:
		return "The session has already been submitted."
	case ErrNotOwner:
		return "This session belongs to another candidate."
	case ErrAnswerLocked:
		return "The answer is final and can no longer be changed."
	case ErrInvalidToken:
		return "The violation token does not match this session."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
