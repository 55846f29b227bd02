package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invigo/invigo-backend/internal/model"
)

// MonitorRow is one candidate's live state for a question set, for the admin
// monitoring table.
type MonitorRow struct {
	AssignmentID  uuid.UUID            `json:"assignment_id"`
	UserID        int                  `json:"user_id"`
	Username      string               `json:"username"`
	SessionID     *uuid.UUID           `json:"session_id,omitempty"`
	SessionStatus *model.SessionStatus `json:"session_status,omitempty"`
	StartTime     *time.Time           `json:"start_time,omitempty"`
	EndTime       *time.Time           `json:"end_time,omitempty"`
	Answered      int                  `json:"answered"`
	Violations    int                  `json:"violations"`
}

// ReportRepository handles aggregated admin reporting reads.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// GetSummaryCounts retrieves the high-level metrics for the dashboard.
func (r *ReportRepository) GetSummaryCounts(ctx context.Context) (totalCandidates, totalSets, totalQuestions, totalSessions int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM users WHERE role = 'candidate'),
			(SELECT COUNT(*) FROM question_sets),
			(SELECT COUNT(*) FROM questions),
			(SELECT COUNT(*) FROM sessions)`,
	).Scan(&totalCandidates, &totalSets, &totalQuestions, &totalSessions)
	return
}

// GetSessionStatusCounts retrieves the distribution of sessions by status.
func (r *ReportRepository) GetSessionStatusCounts(ctx context.Context) (map[model.SessionStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM sessions GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.SessionStatus]int)
	for rows.Next() {
		var status model.SessionStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// GetMonitorRows retrieves the live state of every candidate assigned to a
// question set: latest session, answered-question count and violation count.
func (r *ReportRepository) GetMonitorRows(ctx context.Context, questionSetID uuid.UUID) ([]MonitorRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, u.id, u.username,
		        ls.id, ls.status, ls.start_time, ls.end_time,
		        COALESCE(ans.n, 0), COALESCE(vio.n, 0)
		 FROM assignments a
		 JOIN users u ON a.user_id = u.id
		 LEFT JOIN LATERAL (
		     SELECT s.id, s.status, s.start_time, s.end_time
		     FROM sessions s
		     WHERE s.assignment_id = a.id
		     ORDER BY s.created_at DESC LIMIT 1
		 ) ls ON TRUE
		 LEFT JOIN LATERAL (
		     SELECT COUNT(*) AS n FROM answers WHERE session_id = ls.id
		 ) ans ON TRUE
		 LEFT JOIN LATERAL (
		     SELECT COUNT(*) AS n FROM violations WHERE session_id = ls.id
		 ) vio ON TRUE
		 WHERE a.question_set_id = $1 AND a.is_active = TRUE
		 ORDER BY u.username ASC`, questionSetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MonitorRow
	for rows.Next() {
		var m MonitorRow
		if err := rows.Scan(&m.AssignmentID, &m.UserID, &m.Username,
			&m.SessionID, &m.SessionStatus, &m.StartTime, &m.EndTime,
			&m.Answered, &m.Violations); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if result == nil {
		result = []MonitorRow{}
	}
	return result, rows.Err()
}

// GetRecentViolations retrieves the newest violation events across all
// sessions, for the dashboard feed.
func (r *ReportRepository) GetRecentViolations(ctx context.Context, limit int) ([]model.Violation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, event_type, metadata, created_at
		 FROM violations ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var violations []model.Violation
	for rows.Next() {
		var v model.Violation
		if err := rows.Scan(&v.ID, &v.SessionID, &v.EventType, &v.Metadata, &v.CreatedAt); err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	if violations == nil {
		violations = []model.Violation{}
	}
	return violations, rows.Err()
}

// ViolationFilter narrows ListViolations. Zero values match everything.
type ViolationFilter struct {
	QuestionSetID *uuid.UUID
	EventType     *model.ViolationType
	Limit         int
}

// ListViolations retrieves violation events across sessions, newest first,
// optionally narrowed to one question set or event type.
func (r *ReportRepository) ListViolations(ctx context.Context, f ViolationFilter) ([]model.Violation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT v.id, v.session_id, v.event_type, v.metadata, v.created_at
		 FROM violations v
		 JOIN sessions s ON v.session_id = s.id
		 JOIN assignments a ON s.assignment_id = a.id
		 WHERE ($1::uuid IS NULL OR a.question_set_id = $1)
		   AND ($2::varchar IS NULL OR v.event_type = $2)
		 ORDER BY v.created_at DESC, v.id DESC
		 LIMIT $3`, f.QuestionSetID, f.EventType, f.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var violations []model.Violation
	for rows.Next() {
		var v model.Violation
		if err := rows.Scan(&v.ID, &v.SessionID, &v.EventType, &v.Metadata, &v.CreatedAt); err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	if violations == nil {
		violations = []model.Violation{}
	}
	return violations, rows.Err()
}
