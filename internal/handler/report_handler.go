package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/repository"
	"github.com/invigo/invigo-backend/internal/response"
	"github.com/invigo/invigo-backend/internal/service"
)

// ReportHandler handles the admin reporting and monitoring endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Dashboard godoc
// GET /api/v1/admin/reports/dashboard
func (h *ReportHandler) Dashboard(c *gin.Context) {
	summary, err := h.reports.Dashboard(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// Monitor godoc
// GET /api/v1/admin/question-sets/:set_id/monitor
// Per-candidate live progress for one question set: session status,
// remaining time and violation counts.
func (h *ReportHandler) Monitor(c *gin.Context) {
	setID, ok := parseUUIDParam(c, "set_id")
	if !ok {
		return
	}

	rows, err := h.reports.Monitor(c.Request.Context(), setID)
	if err != nil {
		if service.IsNotFound(err) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rows": rows})
}

// CandidateOverview godoc
// GET /api/v1/admin/users/:user_id/overview
// Per-candidate report: assigned tests with attempt history and overall
// status.
func (h *ReportHandler) CandidateOverview(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	reports, err := h.reports.CandidateOverview(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tests": reports})
}

// ListViolations godoc
// GET /api/v1/admin/violations?question_set_id=&event_type=&limit=
// Cross-session violation feed with optional filters.
func (h *ReportHandler) ListViolations(c *gin.Context) {
	var filter repository.ViolationFilter

	if raw := c.Query("question_set_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		filter.QuestionSetID = &id
	}
	if raw := c.Query("event_type"); raw != "" {
		et := model.ViolationType(raw)
		filter.EventType = &et
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))

	violations, err := h.reports.ListViolations(c.Request.Context(), filter)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"violations": violations})
}

// SessionDetail godoc
// GET /api/v1/admin/sessions/:session_id
// Full review of one session: answers against the frozen snapshot, scored
// where the question has a defined correct option set.
func (h *ReportHandler) SessionDetail(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "session_id")
	if !ok {
		return
	}

	detail, err := h.reports.SessionDetail(c.Request.Context(), sessionID)
	if err != nil {
		if service.IsNotFound(err) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, detail)
}

// SessionViolations godoc
// GET /api/v1/admin/sessions/:session_id/violations
func (h *ReportHandler) SessionViolations(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "session_id")
	if !ok {
		return
	}

	violations, err := h.reports.SessionViolations(c.Request.Context(), sessionID)
	if err != nil {
		if service.IsNotFound(err) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"violations": violations})
}
