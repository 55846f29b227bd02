package model

import (
	"time"

	"github.com/google/uuid"
)

// Assignment binds a candidate to a question set. A candidate enters a test
// by redeeming a session code issued against an assignment.
type Assignment struct {
	ID            uuid.UUID `json:"id"`
	QuestionSetID uuid.UUID `json:"question_set_id"`
	UserID        int       `json:"user_id"`
	AssignedAt    time.Time `json:"assigned_at"`
	IsActive      bool      `json:"is_active"`
}

// SessionCode is a single-use code redeemable for one session start.
// Issuing a new code for an assignment revokes all its unconsumed codes.
type SessionCode struct {
	ID           uuid.UUID `json:"id"`
	AssignmentID uuid.UUID `json:"assignment_id"`
	Code         string    `json:"code"`
	IssuedAt     time.Time `json:"issued_at"`
	Consumed     bool      `json:"consumed"`
}

// CreateAssignmentRequest is the payload for assigning a question set to a user.
type CreateAssignmentRequest struct {
	QuestionSetID uuid.UUID `json:"question_set_id" binding:"required"`
	UserID        int       `json:"user_id" binding:"required"`
}

// SetAssignmentActiveRequest is the payload for toggling an assignment.
type SetAssignmentActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
