package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invigo/invigo-backend/internal/exam"
	"github.com/invigo/invigo-backend/internal/model"
)

// CodeRepository handles session code data access. It implements
// exam.CodeStore.
type CodeRepository struct {
	pool *pgxpool.Pool
}

// NewCodeRepository creates a new CodeRepository.
func NewCodeRepository(pool *pgxpool.Pool) *CodeRepository {
	return &CodeRepository{pool: pool}
}

// GetByCode retrieves a session code row by its code string.
func (r *CodeRepository) GetByCode(ctx context.Context, code string) (*model.SessionCode, error) {
	sc := &model.SessionCode{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, assignment_id, code, issued_at, consumed
		 FROM session_codes WHERE code = $1`, code,
	).Scan(&sc.ID, &sc.AssignmentID, &sc.Code, &sc.IssuedAt, &sc.Consumed)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// Issue inserts a fresh code and revokes every unconsumed code of the same
// assignment in one transaction, so at most one code per assignment is ever
// redeemable.
func (r *CodeRepository) Issue(ctx context.Context, sc *model.SessionCode) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE session_codes SET consumed = TRUE
		 WHERE assignment_id = $1 AND consumed = FALSE`, sc.AssignmentID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO session_codes (id, assignment_id, code, issued_at)
		 VALUES ($1, $2, $3, $4)`,
		sc.ID, sc.AssignmentID, sc.Code, sc.IssuedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RevokeByAssignment consumes every outstanding code of an assignment
// without issuing a replacement.
func (r *CodeRepository) RevokeByAssignment(ctx context.Context, assignmentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE session_codes SET consumed = TRUE
		 WHERE assignment_id = $1 AND consumed = FALSE`, assignmentID)
	return err
}

// ActiveByAssignment retrieves the current unconsumed code of an assignment.
func (r *CodeRepository) ActiveByAssignment(ctx context.Context, assignmentID uuid.UUID) (*model.SessionCode, error) {
	sc := &model.SessionCode{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, assignment_id, code, issued_at, consumed
		 FROM session_codes
		 WHERE assignment_id = $1 AND consumed = FALSE
		 ORDER BY issued_at DESC LIMIT 1`, assignmentID,
	).Scan(&sc.ID, &sc.AssignmentID, &sc.Code, &sc.IssuedAt, &sc.Consumed)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

var _ exam.CodeStore = (*CodeRepository)(nil)
