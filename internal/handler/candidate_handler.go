package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/invigo/invigo-backend/internal/exam"
	"github.com/invigo/invigo-backend/internal/middleware"
	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/response"
	"github.com/invigo/invigo-backend/internal/service"
	"github.com/invigo/invigo-backend/internal/validator"
)

// CandidateHandler handles the candidate-facing exam endpoints.
type CandidateHandler struct {
	sessions    *exam.SessionService
	answers     *exam.AnswerService
	violations  *exam.ViolationService
	registry    *exam.CodeRegistry
	assignments *service.AssignmentService
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(
	sessions *exam.SessionService,
	answers *exam.AnswerService,
	violations *exam.ViolationService,
	registry *exam.CodeRegistry,
	assignments *service.AssignmentService,
) *CandidateHandler {
	return &CandidateHandler{
		sessions:    sessions,
		answers:     answers,
		violations:  violations,
		registry:    registry,
		assignments: assignments,
	}
}

// ListAssignments godoc
// GET /api/v1/candidate/assignments
// Returns the caller's active assignments with latest session state.
func (h *CandidateHandler) ListAssignments(c *gin.Context) {
	claims := middleware.GetClaims(c)
	overviews, err := h.assignments.ListForCandidate(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assignments": overviews})
}

// ValidateCode godoc
// POST /api/v1/candidate/sessions/validate
// Read-only preflight: reports whether the code could be redeemed right now.
func (h *CandidateHandler) ValidateCode(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.ValidateCodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.registry.Validate(c.Request.Context(), claims.UserID, req.SessionCode)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// StartSession godoc
// POST /api/v1/candidate/sessions
// Redeems a session code and activates a timed session.
func (h *CandidateHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.sessions.Start(c.Request.Context(), claims.UserID, req.SessionCode)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, view)
}

// GetSession godoc
// GET /api/v1/candidate/sessions/:session_id
// Returns the caller's session with its frozen question snapshot, for page
// reloads mid-exam.
func (h *CandidateHandler) GetSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.sessions.Get(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"session":   session,
		"questions": session.Snapshot,
	})
}

// SaveAnswer godoc
// PUT /api/v1/candidate/sessions/:session_id/answers
// Autosave/manual save of one answer. Idempotent, last write wins.
func (h *CandidateHandler) SaveAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	req.SessionID = sessionID

	if err := h.answers.Save(c.Request.Context(), claims.UserID, &req); err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Submit godoc
// POST /api/v1/candidate/sessions/:session_id/submit
// Finalizes the session. A repeat submit reports the terminal state as a
// conflict rather than an error the client should retry.
func (h *CandidateHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.sessions.Submit(c.Request.Context(), claims.UserID, sessionID); err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ReportViolation godoc
// POST /api/v1/candidate/sessions/:session_id/violations
// Appends a client-reported integrity event, authenticated by the session's
// violation token rather than the JWT alone.
func (h *CandidateHandler) ReportViolation(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ReportViolationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	req.SessionID = sessionID

	if err := h.violations.Report(c.Request.Context(), &req); err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{})
}

// failSessionError maps lifecycle errors onto HTTP responses.
func failSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, exam.ErrInvalidCode):
		response.Fail(c, http.StatusNotFound, response.ErrInvalidCode)
	case errors.Is(err, exam.ErrWrongUser):
		response.Fail(c, http.StatusForbidden, response.ErrWrongUser)
	case errors.Is(err, exam.ErrCodeUsed):
		response.Fail(c, http.StatusConflict, response.ErrCodeUsed)
	case errors.Is(err, exam.ErrInactive):
		response.Fail(c, http.StatusForbidden, response.ErrAssignmentInactive)
	case errors.Is(err, exam.ErrAttemptsExhausted):
		response.Fail(c, http.StatusForbidden, response.ErrAttemptsExhausted)
	case errors.Is(err, exam.ErrSessionInProgress):
		response.Fail(c, http.StatusConflict, response.ErrSessionInProgress)
	case errors.Is(err, exam.ErrSessionClosed):
		response.Fail(c, http.StatusConflict, response.ErrSessionClosed)
	case errors.Is(err, exam.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, exam.ErrNotOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotOwner)
	case errors.Is(err, exam.ErrAnswerLocked):
		response.Fail(c, http.StatusConflict, response.ErrAnswerLocked)
	case errors.Is(err, exam.ErrInvalidToken):
		response.Fail(c, http.StatusForbidden, response.ErrInvalidToken)
	case errors.Is(err, exam.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, exam.ErrQuestionNotFound), errors.Is(err, exam.ErrOptionUnknown),
		errors.Is(err, exam.ErrSingleChoiceOnly):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidPayload)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
