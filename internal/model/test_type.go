package model

import "time"

// TestType is a category grouping question sets (e.g. "Aptitude", "Coding").
type TestType struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateTestTypeRequest is the payload for creating a test type.
type CreateTestTypeRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty"`
}
