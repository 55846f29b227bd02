package model

import (
	"github.com/google/uuid"
)

// AnswerType enumerates how a question is answered.
type AnswerType string

const (
	AnswerTypeLongText       AnswerType = "long_text"
	AnswerTypeShortText      AnswerType = "short_text"
	AnswerTypeMultipleChoice AnswerType = "multiple_choice"
)

// Question is a single question inside a question set.
type Question struct {
	ID            uuid.UUID        `json:"id"`
	QuestionSetID uuid.UUID        `json:"question_set_id"`
	Title         string           `json:"title"`
	Body          string           `json:"body"`
	Sections      *string          `json:"sections,omitempty"`
	AnswerType    AnswerType       `json:"answer_type"`
	AllowMultiple bool             `json:"allow_multiple"`
	Position      int              `json:"position"`
	Options       []QuestionOption `json:"options,omitempty"`
}

// QuestionOption is one selectable choice of a multiple-choice question.
// IsCorrect is admin-only and must never reach a candidate view.
type QuestionOption struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	OptionText string    `json:"option_text"`
	IsCorrect  bool      `json:"is_correct"`
	Position   int       `json:"position"`
}

// OptionInput is an inline option payload when creating/updating questions.
type OptionInput struct {
	OptionText string `json:"option_text" binding:"required,min=1"`
	IsCorrect  bool   `json:"is_correct"`
}

// CreateQuestionRequest is the payload for adding a question to a set.
type CreateQuestionRequest struct {
	Title         string        `json:"title" binding:"required,min=1,max=200"`
	Body          string        `json:"body" binding:"required,min=1"`
	Sections      *string       `json:"sections" binding:"omitempty"`
	AnswerType    AnswerType    `json:"answer_type" binding:"required,oneof=long_text short_text multiple_choice"`
	AllowMultiple bool          `json:"allow_multiple"`
	Options       []OptionInput `json:"options" binding:"omitempty,dive"`
}

// UpdateQuestionRequest is the payload for updating a question. A non-nil
// Options slice replaces the full option list.
type UpdateQuestionRequest struct {
	Title         *string       `json:"title" binding:"omitempty,min=1,max=200"`
	Body          *string       `json:"body" binding:"omitempty,min=1"`
	Sections      *string       `json:"sections" binding:"omitempty"`
	AnswerType    *AnswerType   `json:"answer_type" binding:"omitempty,oneof=long_text short_text multiple_choice"`
	AllowMultiple *bool         `json:"allow_multiple" binding:"omitempty"`
	Options       []OptionInput `json:"options" binding:"omitempty,dive"`
}
