package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/repository"
	"github.com/invigo/invigo-backend/internal/response"
)

// ErrQuestionSetMismatch is returned when a question does not belong to the
// question set named in the route.
var (
	ErrQuestionSetMismatch = errors.New("question does not belong to this question set")

	// ErrInvalidChoiceConfig wraps rejections of unanswerable question or
	// timing configurations.
	ErrInvalidChoiceConfig = errors.New("invalid question configuration")
)

// CatalogService handles test type, question set and question management.
type CatalogService struct {
	testTypeRepo    *repository.TestTypeRepository
	questionSetRepo *repository.QuestionSetRepository
	questionRepo    *repository.QuestionRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(
	testTypeRepo *repository.TestTypeRepository,
	questionSetRepo *repository.QuestionSetRepository,
	questionRepo *repository.QuestionRepository,
) *CatalogService {
	return &CatalogService{
		testTypeRepo:    testTypeRepo,
		questionSetRepo: questionSetRepo,
		questionRepo:    questionRepo,
	}
}

// ListTestTypes retrieves all test types.
func (s *CatalogService) ListTestTypes(ctx context.Context) ([]model.TestType, error) {
	return s.testTypeRepo.List(ctx)
}

// CreateTestType inserts a new test type.
func (s *CatalogService) CreateTestType(ctx context.Context, req *model.CreateTestTypeRequest) (*model.TestType, error) {
	t := &model.TestType{Name: req.Name, Description: req.Description}
	if err := s.testTypeRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTestType removes a test type.
func (s *CatalogService) DeleteTestType(ctx context.Context, id int) error {
	return s.testTypeRepo.Delete(ctx, id)
}

// GetQuestionSet retrieves a question set by id.
func (s *CatalogService) GetQuestionSet(ctx context.Context, id uuid.UUID) (*model.QuestionSet, error) {
	return s.questionSetRepo.GetByID(ctx, id)
}

// ListQuestionSets retrieves question sets with pagination.
func (s *CatalogService) ListQuestionSets(ctx context.Context, page, perPage int) ([]model.QuestionSet, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	sets, total, err := s.questionSetRepo.ListPaginated(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return sets, pagination, nil
}

// CreateQuestionSet inserts a new question set.
func (s *CatalogService) CreateQuestionSet(ctx context.Context, req *model.CreateQuestionSetRequest) (*model.QuestionSet, error) {
	if _, err := s.testTypeRepo.GetByID(ctx, req.TestTypeID); err != nil {
		return nil, err
	}

	qs := &model.QuestionSet{
		Name:            req.Name,
		Description:     req.Description,
		TestTypeID:      req.TestTypeID,
		DurationMinutes: req.DurationMinutes,
		WarningMinutes:  req.WarningMinutes,
		MaxAttempts:     req.MaxAttempts,
	}
	if err := s.questionSetRepo.Create(ctx, qs); err != nil {
		return nil, err
	}
	return qs, nil
}

// UpdateQuestionSet applies a partial update. Timing changes never touch
// in-flight sessions; their end time was stamped at start.
func (s *CatalogService) UpdateQuestionSet(ctx context.Context, id uuid.UUID, req *model.UpdateQuestionSetRequest) (*model.QuestionSet, error) {
	qs, err := s.questionSetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		qs.Name = *req.Name
	}
	if req.Description != nil {
		qs.Description = req.Description
	}
	if req.DurationMinutes != nil {
		qs.DurationMinutes = *req.DurationMinutes
	}
	if req.WarningMinutes != nil {
		qs.WarningMinutes = *req.WarningMinutes
	}
	if req.MaxAttempts != nil {
		qs.MaxAttempts = *req.MaxAttempts
	}
	if req.IsActive != nil {
		qs.IsActive = *req.IsActive
	}
	if qs.WarningMinutes >= qs.DurationMinutes {
		return nil, fmt.Errorf("%w: warning minutes must be below the duration", ErrInvalidChoiceConfig)
	}

	if err := s.questionSetRepo.Update(ctx, qs); err != nil {
		return nil, err
	}
	return qs, nil
}

// ListQuestions retrieves the questions of a set, options included.
func (s *CatalogService) ListQuestions(ctx context.Context, questionSetID uuid.UUID) ([]model.Question, error) {
	if _, err := s.questionSetRepo.GetByID(ctx, questionSetID); err != nil {
		return nil, err
	}
	return s.questionRepo.ListBySet(ctx, questionSetID)
}

// CreateQuestion adds a question to a set.
func (s *CatalogService) CreateQuestion(ctx context.Context, questionSetID uuid.UUID, req *model.CreateQuestionRequest) (*model.Question, error) {
	if _, err := s.questionSetRepo.GetByID(ctx, questionSetID); err != nil {
		return nil, err
	}
	if err := validateChoiceConfig(req.AnswerType, req.AllowMultiple, len(req.Options)); err != nil {
		return nil, err
	}

	q := &model.Question{
		QuestionSetID: questionSetID,
		Title:         req.Title,
		Body:          req.Body,
		Sections:      req.Sections,
		AnswerType:    req.AnswerType,
		AllowMultiple: req.AllowMultiple,
		Options:       optionsFromInput(req.Options),
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// UpdateQuestion applies a partial update; a non-nil option list replaces
// all options.
func (s *CatalogService) UpdateQuestion(ctx context.Context, questionSetID, questionID uuid.UUID, req *model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q.QuestionSetID != questionSetID {
		return nil, ErrQuestionSetMismatch
	}

	if req.Title != nil {
		q.Title = *req.Title
	}
	if req.Body != nil {
		q.Body = *req.Body
	}
	if req.Sections != nil {
		q.Sections = req.Sections
	}
	if req.AnswerType != nil {
		q.AnswerType = *req.AnswerType
	}
	if req.AllowMultiple != nil {
		q.AllowMultiple = *req.AllowMultiple
	}

	replaceOptions := req.Options != nil
	if replaceOptions {
		q.Options = optionsFromInput(req.Options)
	}
	optionCount := len(q.Options)
	if err := validateChoiceConfig(q.AnswerType, q.AllowMultiple, optionCount); err != nil {
		return nil, err
	}

	if err := s.questionRepo.Update(ctx, q, replaceOptions); err != nil {
		return nil, err
	}
	return s.questionRepo.GetByID(ctx, questionID)
}

// DeleteQuestion removes a question from a set.
func (s *CatalogService) DeleteQuestion(ctx context.Context, questionSetID, questionID uuid.UUID) error {
	q, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return err
	}
	if q.QuestionSetID != questionSetID {
		return ErrQuestionSetMismatch
	}
	return s.questionRepo.Delete(ctx, questionID)
}

// ReorderQuestions rewrites the question order of a set. Every listed id
// must belong to the set.
func (s *CatalogService) ReorderQuestions(ctx context.Context, questionSetID uuid.UUID, req *model.ReorderQuestionsRequest) error {
	questions, err := s.questionRepo.ListBySet(ctx, questionSetID)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}
	for _, id := range req.QuestionIDs {
		if !known[id] {
			return ErrQuestionSetMismatch
		}
	}
	return s.questionRepo.Reorder(ctx, questionSetID, req.QuestionIDs)
}

// validateChoiceConfig rejects unanswerable question configurations before
// they reach storage.
func validateChoiceConfig(answerType model.AnswerType, allowMultiple bool, optionCount int) error {
	if answerType == model.AnswerTypeMultipleChoice {
		if optionCount < 2 {
			return fmt.Errorf("%w: multiple choice questions need at least two options", ErrInvalidChoiceConfig)
		}
		return nil
	}
	if optionCount > 0 {
		return fmt.Errorf("%w: text questions cannot carry options", ErrInvalidChoiceConfig)
	}
	if allowMultiple {
		return fmt.Errorf("%w: allow_multiple only applies to multiple choice questions", ErrInvalidChoiceConfig)
	}
	return nil
}

func optionsFromInput(inputs []model.OptionInput) []model.QuestionOption {
	options := make([]model.QuestionOption, 0, len(inputs))
	for _, in := range inputs {
		options = append(options, model.QuestionOption{
			OptionText: in.OptionText,
			IsCorrect:  in.IsCorrect,
		})
	}
	return options
}

// IsNotFound reports whether err is the repository's missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
