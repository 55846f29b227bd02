package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states. A session row only exists
// once a code is redeemed; "not started" is the absence of a session.
// The three right-hand states are terminal.
type SessionStatus string

const (
	SessionStatusInProgress    SessionStatus = "in_progress"
	SessionStatusSubmitted     SessionStatus = "submitted"
	SessionStatusAutoSubmitted SessionStatus = "auto_submitted"
	SessionStatusExpired       SessionStatus = "expired"
)

// Terminal reports whether the status is one no transition can leave.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionStatusSubmitted, SessionStatusAutoSubmitted, SessionStatusExpired:
		return true
	}
	return false
}

// Session is one candidate's timed attempt at a question set. Start and end
// times are stamped from the server clock at creation and never change;
// the snapshot freezes the question content so later edits to the set cannot
// alter an in-flight exam.
type Session struct {
	ID             uuid.UUID          `json:"id"`
	AssignmentID   uuid.UUID          `json:"assignment_id"`
	QuestionSetID  uuid.UUID          `json:"question_set_id"`
	UserID         int                `json:"user_id"`
	Attempt        int                `json:"attempt"`
	Status         SessionStatus      `json:"status"`
	StartTime      time.Time          `json:"start_time"`
	EndTime        time.Time          `json:"end_time"`
	SubmittedAt    *time.Time         `json:"submitted_at,omitempty"`
	ViolationToken string             `json:"-"`
	Snapshot       []SnapshotQuestion `json:"-"`
	CreatedAt      time.Time          `json:"created_at"`
}

// SnapshotQuestion is the frozen candidate-facing copy of a question taken at
// session start. Correctness flags are deliberately absent.
type SnapshotQuestion struct {
	ID            uuid.UUID        `json:"id"`
	Title         string           `json:"title"`
	Body          string           `json:"body"`
	Sections      *string          `json:"sections,omitempty"`
	AnswerType    AnswerType       `json:"answer_type"`
	AllowMultiple bool             `json:"allow_multiple"`
	Options       []SnapshotOption `json:"options"`
}

// SnapshotOption is the frozen candidate-facing copy of a question option.
type SnapshotOption struct {
	ID         uuid.UUID `json:"id"`
	OptionText string    `json:"option_text"`
	Position   int       `json:"position"`
}

// Option reports whether the snapshotted question contains the given option.
func (q *SnapshotQuestion) Option(id uuid.UUID) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// Question returns the snapshotted question with the given id, or nil.
func (s *Session) Question(id uuid.UUID) *SnapshotQuestion {
	for i := range s.Snapshot {
		if s.Snapshot[i].ID == id {
			return &s.Snapshot[i]
		}
	}
	return nil
}

// SessionView is the payload returned to the candidate on session start.
type SessionView struct {
	SessionID      uuid.UUID          `json:"session_id"`
	Test           SessionTestInfo    `json:"test"`
	EndTime        time.Time          `json:"end_time"`
	ViolationToken string             `json:"violation_token"`
	Questions      []SnapshotQuestion `json:"questions"`
}

// SessionTestInfo describes the test configuration inside a SessionView.
type SessionTestInfo struct {
	Title           string `json:"title"`
	TestType        string `json:"test_type"`
	DurationMinutes int    `json:"duration_minutes"`
	WarningMinutes  int    `json:"warning_minutes"`
}

// StartSessionRequest is the payload for redeeming a session code.
type StartSessionRequest struct {
	SessionCode string `json:"session_code" binding:"required,min=4,max=32"`
}

// ValidateCodeRequest is the payload for the read-only code preflight.
type ValidateCodeRequest struct {
	SessionCode string `json:"session_code" binding:"required,min=4,max=32"`
}

// SubmitRequest is the payload for final submission.
type SubmitRequest struct {
	SessionID uuid.UUID `json:"session_id" binding:"required"`
}
