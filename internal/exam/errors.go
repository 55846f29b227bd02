package exam

import "errors"

// Typed failures returned by the session lifecycle services. Handlers map
// these onto response codes; callers inspect them with errors.Is.
var (
	ErrInvalidCode       = errors.New("invalid session code")
	ErrWrongUser         = errors.New("session code belongs to another candidate")
	ErrCodeUsed          = errors.New("session code already used")
	ErrInactive          = errors.New("assignment or question set inactive")
	ErrAttemptsExhausted = errors.New("attempt limit reached")
	ErrSessionInProgress = errors.New("session already in progress")
	ErrSessionClosed     = errors.New("session closed")
	ErrAlreadySubmitted  = errors.New("session already submitted")
	ErrNotOwner          = errors.New("session belongs to another candidate")
	ErrAnswerLocked      = errors.New("answer is final")
	ErrInvalidToken      = errors.New("violation token mismatch")
	ErrSessionNotFound   = errors.New("session not found")
	ErrQuestionNotFound  = errors.New("question not in session snapshot")
	ErrOptionUnknown     = errors.New("option does not belong to question")
	ErrSingleChoiceOnly  = errors.New("question does not allow multiple selections")
)

// Store-level sentinels. Repositories and in-memory fakes return these from
// the conditional writes that implement the single-winner guarantees.
var (
	ErrCodeConsumed  = errors.New("code row already consumed")
	ErrActiveSession = errors.New("assignment already has an in-progress session")
	ErrAnswerFinal   = errors.New("answer row is final")
)
