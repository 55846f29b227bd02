package model

import (
	"time"

	"github.com/google/uuid"
)

// Answer is the stored answer state for one (session, question) pair.
// Either AnswerText or OptionIDs is populated, never both. IsFinal is set
// only by a terminal submit, never by autosave.
type Answer struct {
	SessionID   uuid.UUID   `json:"session_id"`
	QuestionID  uuid.UUID   `json:"question_id"`
	AnswerText  *string     `json:"answer_text,omitempty"`
	OptionIDs   []uuid.UUID `json:"selected_option_ids,omitempty"`
	IsFinal     bool        `json:"is_final"`
	LastSavedAt time.Time   `json:"last_saved_at"`
}

// SaveAnswerRequest is the autosave/manual-save payload.
type SaveAnswerRequest struct {
	SessionID         uuid.UUID   `json:"-"`
	QuestionID        uuid.UUID   `json:"question_id" binding:"required"`
	AnswerText        *string     `json:"answer_text" binding:"omitempty"`
	SelectedOptionIDs []uuid.UUID `json:"selected_option_ids" binding:"omitempty"`
}
