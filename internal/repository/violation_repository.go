package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invigo/invigo-backend/internal/model"
)

// ViolationRepository handles violation data access. Rows are append-only;
// there are no update or delete methods on purpose.
type ViolationRepository struct {
	pool *pgxpool.Pool
}

// NewViolationRepository creates a new ViolationRepository.
func NewViolationRepository(pool *pgxpool.Pool) *ViolationRepository {
	return &ViolationRepository{pool: pool}
}

// Insert appends a single violation event.
func (r *ViolationRepository) Insert(ctx context.Context, v *model.Violation) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO violations (session_id, event_type, metadata, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		v.SessionID, v.EventType, v.Metadata, v.CreatedAt,
	).Scan(&v.ID)
}

// InsertBatch appends a drained batch of violation events with CopyFrom.
func (r *ViolationRepository) InsertBatch(ctx context.Context, vs []model.Violation) error {
	if len(vs) == 0 {
		return nil
	}
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"violations"},
		[]string{"session_id", "event_type", "metadata", "created_at"},
		pgx.CopyFromSlice(len(vs), func(i int) ([]interface{}, error) {
			return []interface{}{vs[i].SessionID, vs[i].EventType, vs[i].Metadata, vs[i].CreatedAt}, nil
		}),
	)
	return err
}

// ListBySession retrieves the violation timeline of a session, oldest first.
func (r *ViolationRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Violation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, event_type, metadata, created_at
		 FROM violations WHERE session_id = $1
		 ORDER BY created_at ASC, id ASC`, sessionID)
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

// CountBySession counts violations per session for the given sessions.
func (r *ViolationRepository) CountBySession(ctx context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	if len(sessionIDs) == 0 {
		return counts, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT session_id, COUNT(*) FROM violations
		 WHERE session_id = ANY($1)
		 GROUP BY session_id`, sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
