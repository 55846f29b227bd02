package model

import (
	"time"

	"github.com/google/uuid"
)

// ViolationType enumerates client-reported integrity events.
type ViolationType string

const (
	ViolationFullscreenExit ViolationType = "fullscreen_exit"
	ViolationTabSwitch      ViolationType = "tab_switch"
	ViolationWindowBlur     ViolationType = "window_blur"
	ViolationDevtoolsOpen   ViolationType = "devtools_open"
	ViolationUnknown        ViolationType = "unknown"
)

// Valid reports whether t is a known violation type.
func (t ViolationType) Valid() bool {
	switch t {
	case ViolationFullscreenExit, ViolationTabSwitch, ViolationWindowBlur,
		ViolationDevtoolsOpen, ViolationUnknown:
		return true
	}
	return false
}

// Violation is one appended integrity event. Rows are never mutated or
// deleted; the timeline is the audit trail.
type Violation struct {
	ID        int64         `json:"id"`
	SessionID uuid.UUID     `json:"session_id"`
	EventType ViolationType `json:"event_type"`
	Metadata  *string       `json:"metadata,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// ReportViolationRequest is the client payload for reporting an event.
// Token must match the session's violation signing token exactly.
type ReportViolationRequest struct {
	SessionID uuid.UUID     `json:"-"`
	EventType ViolationType `json:"event_type" binding:"required,oneof=fullscreen_exit tab_switch window_blur devtools_open unknown"`
	Metadata  *string       `json:"metadata" binding:"omitempty,max=2000"`
	Token     string        `json:"token" binding:"required,min=1,max=64"`
}
