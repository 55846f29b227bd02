package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invigo/invigo-backend/internal/exam"
	"github.com/invigo/invigo-backend/internal/model"
)

// AssignmentOverview combines an assignment with its question set info and
// the state of its latest session, for the candidate's test list.
type AssignmentOverview struct {
	AssignmentID    uuid.UUID            `json:"assignment_id"`
	QuestionSetID   uuid.UUID            `json:"question_set_id"`
	TestName        string               `json:"test_name"`
	TestType        string               `json:"test_type"`
	DurationMinutes int                  `json:"duration_minutes"`
	MaxAttempts     int                  `json:"max_attempts"`
	AttemptsUsed    int                  `json:"attempts_used"`
	SessionStatus   *model.SessionStatus `json:"session_status,omitempty"`
	SessionID       *uuid.UUID           `json:"session_id,omitempty"`
	EndTime         *time.Time           `json:"end_time,omitempty"`
}

// AssignmentRepository handles assignment data access. It implements
// exam.AssignmentStore.
type AssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

// GetByID retrieves an assignment by its UUID.
func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	a := &model.Assignment{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, question_set_id, user_id, assigned_at, is_active
		 FROM assignments WHERE id = $1`, id,
	).Scan(&a.ID, &a.QuestionSetID, &a.UserID, &a.AssignedAt, &a.IsActive)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO assignments (question_set_id, user_id)
		 VALUES ($1, $2)
		 RETURNING id, assigned_at, is_active`,
		a.QuestionSetID, a.UserID,
	).Scan(&a.ID, &a.AssignedAt, &a.IsActive)
}

// SetActive flips an assignment's active flag.
func (r *AssignmentRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE assignments SET is_active = $1 WHERE id = $2`, active, id)
	return err
}

// ListByUser retrieves a candidate's active assignments with their latest
// session state, newest first.
func (r *AssignmentRepository) ListByUser(ctx context.Context, userID int) ([]AssignmentOverview, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.question_set_id, qs.name, tt.name, qs.duration_minutes, qs.max_attempts,
		        (SELECT COUNT(*) FROM sessions s WHERE s.assignment_id = a.id),
		        ls.id, ls.status, ls.end_time
		 FROM assignments a
		 JOIN question_sets qs ON a.question_set_id = qs.id
		 JOIN test_types tt ON qs.test_type_id = tt.id
		 LEFT JOIN LATERAL (
		     SELECT s.id, s.status, s.end_time
		     FROM sessions s
		     WHERE s.assignment_id = a.id
		     ORDER BY s.created_at DESC LIMIT 1
		 ) ls ON TRUE
		 WHERE a.user_id = $1 AND a.is_active = TRUE AND qs.is_active = TRUE
		 ORDER BY a.assigned_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overviews []AssignmentOverview
	for rows.Next() {
		var o AssignmentOverview
		if err := rows.Scan(&o.AssignmentID, &o.QuestionSetID, &o.TestName, &o.TestType,
			&o.DurationMinutes, &o.MaxAttempts, &o.AttemptsUsed,
			&o.SessionID, &o.SessionStatus, &o.EndTime); err != nil {
			return nil, err
		}
		overviews = append(overviews, o)
	}
	if overviews == nil {
		overviews = []AssignmentOverview{}
	}
	return overviews, rows.Err()
}

// ListByQuestionSet retrieves all assignments of a question set.
func (r *AssignmentRepository) ListByQuestionSet(ctx context.Context, questionSetID uuid.UUID) ([]model.Assignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_set_id, user_id, assigned_at, is_active
		 FROM assignments WHERE question_set_id = $1
		 ORDER BY assigned_at DESC`, questionSetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.QuestionSetID, &a.UserID, &a.AssignedAt, &a.IsActive); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	if assignments == nil {
		assignments = []model.Assignment{}
	}
	return assignments, rows.Err()
}

var _ exam.AssignmentStore = (*AssignmentRepository)(nil)
