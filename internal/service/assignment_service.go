package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/invigo/invigo-backend/internal/exam"
	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/repository"
)

// ErrNotCandidate rejects assigning question sets to non-candidate users.
var ErrNotCandidate = errors.New("question sets can only be assigned to candidates")

// AssignmentWithCode pairs an assignment with its currently redeemable code,
// if any.
type AssignmentWithCode struct {
	Assignment model.Assignment   `json:"assignment"`
	Code       *model.SessionCode `json:"code,omitempty"`
}

// AssignmentService handles assigning question sets to candidates and the
// session codes that gate entry.
type AssignmentService struct {
	assignmentRepo *repository.AssignmentRepository
	codeRepo       *repository.CodeRepository
	userRepo       *repository.UserRepository
	setRepo        *repository.QuestionSetRepository
	registry       *exam.CodeRegistry
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(
	assignmentRepo *repository.AssignmentRepository,
	codeRepo *repository.CodeRepository,
	userRepo *repository.UserRepository,
	setRepo *repository.QuestionSetRepository,
	registry *exam.CodeRegistry,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		codeRepo:       codeRepo,
		userRepo:       userRepo,
		setRepo:        setRepo,
		registry:       registry,
	}
}

// Create assigns a question set to a candidate and issues the first session
// code in one go.
func (s *AssignmentService) Create(ctx context.Context, req *model.CreateAssignmentRequest) (*AssignmentWithCode, error) {
	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user.Role != model.RoleCandidate {
		return nil, ErrNotCandidate
	}
	if _, err := s.setRepo.GetByID(ctx, req.QuestionSetID); err != nil {
		return nil, err
	}

	a := &model.Assignment{
		QuestionSetID: req.QuestionSetID,
		UserID:        req.UserID,
	}
	if err := s.assignmentRepo.Create(ctx, a); err != nil {
		return nil, err
	}

	code, err := s.registry.Issue(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return &AssignmentWithCode{Assignment: *a, Code: code}, nil
}

// Get retrieves an assignment with its active code.
func (s *AssignmentService) Get(ctx context.Context, id uuid.UUID) (*AssignmentWithCode, error) {
	a, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	code, err := s.codeRepo.ActiveByAssignment(ctx, id)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return &AssignmentWithCode{Assignment: *a, Code: code}, nil
}

// RegenerateCode issues a replacement code, revoking the current one. The
// registry refuses while the candidate is mid-session.
func (s *AssignmentService) RegenerateCode(ctx context.Context, assignmentID uuid.UUID) (*model.SessionCode, error) {
	return s.registry.Issue(ctx, assignmentID)
}

// SetActive flips an assignment's active flag. Deactivating also revokes the
// outstanding code so it cannot be redeemed later.
func (s *AssignmentService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := s.assignmentRepo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.assignmentRepo.SetActive(ctx, id, active); err != nil {
		return err
	}
	if active {
		return nil
	}
	// Deactivation also revokes the outstanding code; reissuing would mint
	// a fresh redeemable one instead.
	return s.codeRepo.RevokeByAssignment(ctx, id)
}

// ListByQuestionSet retrieves all assignments of a question set.
func (s *AssignmentService) ListByQuestionSet(ctx context.Context, questionSetID uuid.UUID) ([]model.Assignment, error) {
	return s.assignmentRepo.ListByQuestionSet(ctx, questionSetID)
}

// ListForCandidate retrieves the candidate's own active assignments with
// latest session state.
func (s *AssignmentService) ListForCandidate(ctx context.Context, userID int) ([]repository.AssignmentOverview, error) {
	return s.assignmentRepo.ListByUser(ctx, userID)
}
