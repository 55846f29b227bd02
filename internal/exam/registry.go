package exam

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/invigo/invigo-backend/internal/model"
)

// CodeRegistry issues and validates single-use session codes.
type CodeRegistry struct {
	codes       CodeStore
	assignments AssignmentStore
	sessions    SessionStore
	codeBytes   int
	log         zerolog.Logger
	now         func() time.Time
}

// NewCodeRegistry creates a new CodeRegistry. codeBytes is the entropy of a
// generated code in bytes (the code string is hex, twice as long).
func NewCodeRegistry(codes CodeStore, assignments AssignmentStore, sessions SessionStore, codeBytes int, log zerolog.Logger) *CodeRegistry {
	return &CodeRegistry{
		codes:       codes,
		assignments: assignments,
		sessions:    sessions,
		codeBytes:   codeBytes,
		log:         log.With().Str("component", "code_registry").Logger(),
		now:         time.Now,
	}
}

// Issue generates a fresh hard-to-guess code for the assignment. Any prior
// unconsumed code of the assignment is revoked in the same write. Refused
// while a session for the assignment is in progress.
func (r *CodeRegistry) Issue(ctx context.Context, assignmentID uuid.UUID) (*model.SessionCode, error) {
	if _, err := r.assignments.GetByID(ctx, assignmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}

	latest, err := r.sessions.LatestByAssignment(ctx, assignmentID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("latest session: %w", err)
	}
	if latest != nil && latest.Status == model.SessionStatusInProgress {
		return nil, ErrSessionInProgress
	}

	code, err := randomHex(r.codeBytes)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	sc := &model.SessionCode{
		ID:           uuid.New(),
		AssignmentID: assignmentID,
		Code:         code,
		IssuedAt:     r.now().UTC(),
	}
	if err := r.codes.Issue(ctx, sc); err != nil {
		return nil, fmt.Errorf("store code: %w", err)
	}

	r.log.Info().
		Str("assignment_id", assignmentID.String()).
		Msg("Session code issued")
	return sc, nil
}

// ValidationResult is the outcome of a read-only code preflight.
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Validation reasons exposed to the client.
const (
	ReasonInvalid    = "invalid"
	ReasonWrongUser  = "wrong_user"
	ReasonInactive   = "inactive"
	ReasonInProgress = "in_progress"
	ReasonUsed       = "used"
)

// Validate checks whether the calling candidate could redeem the code right
// now, without consuming it.
func (r *CodeRegistry) Validate(ctx context.Context, userID int, code string) (*ValidationResult, error) {
	sc, err := r.codes.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &ValidationResult{Valid: false, Reason: ReasonInvalid}, nil
		}
		return nil, fmt.Errorf("get code: %w", err)
	}

	asg, err := r.assignments.GetByID(ctx, sc.AssignmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &ValidationResult{Valid: false, Reason: ReasonInvalid}, nil
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	if asg.UserID != userID {
		return &ValidationResult{Valid: false, Reason: ReasonWrongUser}, nil
	}
	if !asg.IsActive {
		return &ValidationResult{Valid: false, Reason: ReasonInactive}, nil
	}
	if sc.Consumed {
		return &ValidationResult{Valid: false, Reason: ReasonUsed}, nil
	}

	latest, err := r.sessions.LatestByAssignment(ctx, asg.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("latest session: %w", err)
	}
	if latest != nil && latest.Status == model.SessionStatusInProgress {
		return &ValidationResult{Valid: false, Reason: ReasonInProgress}, nil
	}

	return &ValidationResult{Valid: true}, nil
}
