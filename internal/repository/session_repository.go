package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invigo/invigo-backend/internal/exam"
	"github.com/invigo/invigo-backend/internal/model"
)

// SessionRepository handles session data access. It implements
// exam.SessionStore; the conditional writes back the lifecycle's
// single-winner guarantees.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create consumes the session code and inserts the session in one
// transaction. The UPDATE's "consumed = FALSE" guard makes the consumption a
// compare-and-set; the partial unique index on in-progress sessions rejects a
// second active session per assignment.
func (r *SessionRepository) Create(ctx context.Context, code string, s *model.Session) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE session_codes SET consumed = TRUE
		 WHERE code = $1 AND consumed = FALSE`, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return exam.ErrCodeConsumed
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO sessions (id, assignment_id, question_set_id, user_id, attempt,
		                       status, start_time, end_time, violation_token, snapshot)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at`,
		s.ID, s.AssignmentID, s.QuestionSetID, s.UserID, s.Attempt,
		s.Status, s.StartTime, s.EndTime, s.ViolationToken, s.Snapshot,
	).Scan(&s.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return exam.ErrActiveSession
		}
		return err
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a session by its UUID, snapshot included.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	s := &model.Session{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, assignment_id, question_set_id, user_id, attempt, status,
		        start_time, end_time, submitted_at, violation_token, snapshot, created_at
		 FROM sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.AssignmentID, &s.QuestionSetID, &s.UserID, &s.Attempt, &s.Status,
		&s.StartTime, &s.EndTime, &s.SubmittedAt, &s.ViolationToken, &s.Snapshot, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// LatestByAssignment retrieves the most recently created session of an
// assignment.
func (r *SessionRepository) LatestByAssignment(ctx context.Context, assignmentID uuid.UUID) (*model.Session, error) {
	s := &model.Session{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, assignment_id, question_set_id, user_id, attempt, status,
		        start_time, end_time, submitted_at, violation_token, snapshot, created_at
		 FROM sessions WHERE assignment_id = $1
		 ORDER BY created_at DESC LIMIT 1`, assignmentID,
	).Scan(&s.ID, &s.AssignmentID, &s.QuestionSetID, &s.UserID, &s.Attempt, &s.Status,
		&s.StartTime, &s.EndTime, &s.SubmittedAt, &s.ViolationToken, &s.Snapshot, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CountByAssignment counts all sessions ever created for an assignment.
func (r *SessionRepository) CountByAssignment(ctx context.Context, assignmentID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM sessions WHERE assignment_id = $1`, assignmentID,
	).Scan(&n)
	return n, err
}

// Finish performs the terminal transition. The status guard in the UPDATE is
// the whole concurrency story: of any number of racing submits and sweeps,
// exactly one caller flips the row and gets true back. The winner also locks
// every answer of the session in the same transaction.
func (r *SessionRepository) Finish(ctx context.Context, id uuid.UUID, to model.SessionStatus, submittedAt time.Time) (bool, error) {
	if !to.Terminal() {
		return false, fmt.Errorf("finish to non-terminal status %q", to)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE sessions SET status = $1, submitted_at = $2
		 WHERE id = $3 AND status = $4`,
		to, submittedAt, id, model.SessionStatusInProgress)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE answers SET is_final = TRUE WHERE session_id = $1`, id); err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

// ListExpired returns ids of in-progress sessions whose deadline is at or
// before now, oldest first.
func (r *SessionRepository) ListExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM sessions
		 WHERE status = $1 AND end_time <= $2
		 ORDER BY end_time ASC`,
		model.SessionStatusInProgress, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByUser retrieves all sessions of one candidate, newest first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID int) ([]model.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, assignment_id, question_set_id, user_id, attempt, status,
		        start_time, end_time, submitted_at, violation_token, snapshot, created_at
		 FROM sessions WHERE user_id = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.AssignmentID, &s.QuestionSetID, &s.UserID, &s.Attempt, &s.Status,
			&s.StartTime, &s.EndTime, &s.SubmittedAt, &s.ViolationToken, &s.Snapshot, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

var _ exam.SessionStore = (*SessionRepository)(nil)
