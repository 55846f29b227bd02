package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/repository"
	"github.com/invigo/invigo-backend/internal/response"
	"github.com/invigo/invigo-backend/internal/service"
	"github.com/invigo/invigo-backend/internal/validator"
)

// CatalogHandler handles test type, question set and question management.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ─── Test types ────────────────────────────────────────────────────────

// ListTestTypes godoc
// GET /api/v1/admin/test-types
func (h *CatalogHandler) ListTestTypes(c *gin.Context) {
	types, err := h.catalog.ListTestTypes(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"test_types": types})
}

// CreateTestType godoc
// POST /api/v1/admin/test-types
func (h *CatalogHandler) CreateTestType(c *gin.Context) {
	var req model.CreateTestTypeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	tt, err := h.catalog.CreateTestType(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateTestType) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"test_type": tt})
}

// DeleteTestType godoc
// DELETE /api/v1/admin/test-types/:test_type_id
func (h *CatalogHandler) DeleteTestType(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("test_type_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.catalog.DeleteTestType(c.Request.Context(), id); err != nil {
		if service.IsNotFound(err) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusConflict, response.ErrDependencyExists)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ─── Question sets ─────────────────────────────────────────────────────

// ListQuestionSets godoc
// GET /api/v1/admin/question-sets?page=1&per_page=20
func (h *CatalogHandler) ListQuestionSets(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	sets, pagination, err := h.catalog.ListQuestionSets(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"question_sets": sets}, pagination)
}

// GetQuestionSet godoc
// GET /api/v1/admin/question-sets/:set_id
func (h *CatalogHandler) GetQuestionSet(c *gin.Context) {
	id, ok := parseUUIDParam(c, "set_id")
	if !ok {
		return
	}

	set, err := h.catalog.GetQuestionSet(c.Request.Context(), id)
	if err != nil {
		failCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question_set": set})
}

// CreateQuestionSet godoc
// POST /api/v1/admin/question-sets
func (h *CatalogHandler) CreateQuestionSet(c *gin.Context) {
	var req model.CreateQuestionSetRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	set, err := h.catalog.CreateQuestionSet(c.Request.Context(), &req)
	if err != nil {
		failCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question_set": set})
}

// UpdateQuestionSet godoc
// PATCH /api/v1/admin/question-sets/:set_id
func (h *CatalogHandler) UpdateQuestionSet(c *gin.Context) {
	id, ok := parseUUIDParam(c, "set_id")
	if !ok {
		return
	}

	var req model.UpdateQuestionSetRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	set, err := h.catalog.UpdateQuestionSet(c.Request.Context(), id, &req)
	if err != nil {
		failCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question_set": set})
}

// ─── Questions ─────────────────────────────────────────────────────────

// ListQuestions godoc
// GET /api/v1/admin/question-sets/:set_id/questions
func (h *CatalogHandler) ListQuestions(c *gin.Context) {
	setID, ok := parseUUIDParam(c, "set_id")
	if !ok {
		return
	}

	questions, err := h.catalog.ListQuestions(c.Request.Context(), setID)
	if err != nil {
		failCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// CreateQuestion godoc
// POST /api/v1/admin/question-sets/:set_id/questions
func (h *CatalogHandler) CreateQuestion(c *gin.Context) {
	setID, ok := parseUUIDParam(c, "set_id")
	if !ok {
		return
	}

	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.catalog.CreateQuestion(c.Request.Context(), setID, &req)
	if err != nil {
		failCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// UpdateQuestion godoc
// PATCH /api/v1/admin/question-sets/:set_id/questions/:question_id
func (h *CatalogHandler) UpdateQuestion(c *gin.Context) {
	setID, ok := parseUUIDParam(c, "set_id")
	if !ok {
		return
	}
	questionID, ok := parseUUIDParam(c, "question_id")
	if !ok {
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.catalog.UpdateQuestion(c.Request.Context(), setID, questionID, &req)
	if err != nil {
		failCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// DeleteQuestion godoc
// DELETE /api/v1/admin/question-sets/:set_id/questions/:question_id
func (h *CatalogHandler) DeleteQuestion(c *gin.Context) {
	setID, ok := parseUUIDParam(c, "set_id")
	if !ok {
		return
	}
	questionID, ok := parseUUIDParam(c, "question_id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteQuestion(c.Request.Context(), setID, questionID); err != nil {
		failCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ReorderQuestions godoc
// PUT /api/v1/admin/question-sets/:set_id/questions/order
func (h *CatalogHandler) ReorderQuestions(c *gin.Context) {
	setID, ok := parseUUIDParam(c, "set_id")
	if !ok {
		return
	}

	var req model.ReorderQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.catalog.ReorderQuestions(c.Request.Context(), setID, &req); err != nil {
		failCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func failCatalogError(c *gin.Context, err error) {
	switch {
	case service.IsNotFound(err):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrQuestionSetMismatch):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrInvalidChoiceConfig):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidPayload)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
