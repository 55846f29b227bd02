package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/invigo/invigo-backend/internal/exam"
	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/response"
	"github.com/invigo/invigo-backend/internal/service"
	"github.com/invigo/invigo-backend/internal/validator"
)

// AssignmentHandler handles admin assignment and session code management.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// Create godoc
// POST /api/v1/admin/assignments
// Assigns a question set to a candidate and issues the first session code.
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req model.CreateAssignmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.assignments.Create(c.Request.Context(), &req)
	if err != nil {
		failAssignmentError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// Get godoc
// GET /api/v1/admin/assignments/:assignment_id
func (h *AssignmentHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "assignment_id")
	if !ok {
		return
	}

	result, err := h.assignments.Get(c.Request.Context(), id)
	if err != nil {
		failAssignmentError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// RegenerateCode godoc
// POST /api/v1/admin/assignments/:assignment_id/code
// Revokes any unconsumed code and issues a fresh one.
func (h *AssignmentHandler) RegenerateCode(c *gin.Context) {
	id, ok := parseUUIDParam(c, "assignment_id")
	if !ok {
		return
	}

	code, err := h.assignments.RegenerateCode(c.Request.Context(), id)
	if err != nil {
		failAssignmentError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session_code": code})
}

// SetActive godoc
// PATCH /api/v1/admin/assignments/:assignment_id/active
func (h *AssignmentHandler) SetActive(c *gin.Context) {
	id, ok := parseUUIDParam(c, "assignment_id")
	if !ok {
		return
	}

	var req model.SetAssignmentActiveRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.assignments.SetActive(c.Request.Context(), id, *req.IsActive); err != nil {
		failAssignmentError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ListByQuestionSet godoc
// GET /api/v1/admin/question-sets/:set_id/assignments
func (h *AssignmentHandler) ListByQuestionSet(c *gin.Context) {
	setID, ok := parseUUIDParam(c, "set_id")
	if !ok {
		return
	}

	assignments, err := h.assignments.ListByQuestionSet(c.Request.Context(), setID)
	if err != nil {
		failAssignmentError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assignments": assignments})
}

func failAssignmentError(c *gin.Context, err error) {
	switch {
	case service.IsNotFound(err):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotCandidate):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidPayload)
	case errors.Is(err, exam.ErrSessionInProgress), errors.Is(err, exam.ErrActiveSession):
		response.Fail(c, http.StatusConflict, response.ErrSessionInProgress)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
