package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionSet is an ordered collection of questions with timing configuration.
// MaxAttempts of 0 means unlimited attempts.
type QuestionSet struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	TestTypeID      int       `json:"test_type_id"`
	TestTypeName    string    `json:"test_type,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	WarningMinutes  int       `json:"warning_minutes"`
	MaxAttempts     int       `json:"max_attempts"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateQuestionSetRequest is the payload for creating a question set.
type CreateQuestionSetRequest struct {
	Name            string  `json:"name" binding:"required,min=1,max=200"`
	TestTypeID      int     `json:"test_type_id" binding:"required"`
	Description     *string `json:"description" binding:"omitempty"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,min=1,max=480"`
	WarningMinutes  int     `json:"warning_minutes" binding:"required,min=1,ltfield=DurationMinutes"`
	MaxAttempts     int     `json:"max_attempts" binding:"min=0"`
}

// UpdateQuestionSetRequest is the payload for updating a question set.
type UpdateQuestionSetRequest struct {
	Name            *string `json:"name" binding:"omitempty,min=1,max=200"`
	Description     *string `json:"description" binding:"omitempty"`
	DurationMinutes *int    `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	WarningMinutes  *int    `json:"warning_minutes" binding:"omitempty,min=1"`
	MaxAttempts     *int    `json:"max_attempts" binding:"omitempty,min=0"`
	IsActive        *bool   `json:"is_active" binding:"omitempty"`
}

// ReorderQuestionsRequest is the payload for reordering questions in a set.
type ReorderQuestionsRequest struct {
	QuestionIDs []uuid.UUID `json:"question_ids" binding:"required,min=1"`
}
