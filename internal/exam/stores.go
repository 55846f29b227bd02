package exam

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invigo/invigo-backend/internal/model"
)

// Store contracts consumed by the lifecycle services. The pgx repositories
// implement them for production; tests substitute in-memory fakes. Lookup
// methods report a missing row with pgx.ErrNoRows, matching the repository
// layer's native behavior.

// SessionStore owns session rows. All status changes go through Create and
// Finish; both are conditional writes, never read-modify-write.
type SessionStore interface {
	// Create atomically consumes the session code and inserts the session.
	// Returns ErrCodeConsumed when another redemption won the code, and
	// ErrActiveSession when the assignment already has an in-progress row.
	Create(ctx context.Context, code string, s *model.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	LatestByAssignment(ctx context.Context, assignmentID uuid.UUID) (*model.Session, error)
	CountByAssignment(ctx context.Context, assignmentID uuid.UUID) (int, error)
	// Finish performs the terminal transition "status := to WHERE status =
	// in_progress" and, when it wins, marks every answer of the session
	// final in the same transaction. Returns false when the session was
	// already terminal.
	Finish(ctx context.Context, id uuid.UUID, to model.SessionStatus, submittedAt time.Time) (bool, error)
	// ListExpired returns ids of in-progress sessions whose end time is at
	// or before now.
	ListExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// CodeStore owns session code rows.
type CodeStore interface {
	GetByCode(ctx context.Context, code string) (*model.SessionCode, error)
	// Issue stores a fresh unconsumed code, atomically revoking any prior
	// unconsumed codes of the same assignment.
	Issue(ctx context.Context, sc *model.SessionCode) error
}

// AssignmentStore resolves assignments for redemption checks.
type AssignmentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
}

// SnapshotSource supplies question-set configuration and the candidate-facing
// question snapshot captured at session start.
type SnapshotSource interface {
	QuestionSet(ctx context.Context, id uuid.UUID) (*model.QuestionSet, error)
	Snapshot(ctx context.Context, questionSetID uuid.UUID) ([]model.SnapshotQuestion, error)
}

// AnswerStore owns answer rows for a session.
type AnswerStore interface {
	// Upsert writes the answer by (session, question) key, last write wins.
	// Returns ErrAnswerFinal when the stored row is already final.
	Upsert(ctx context.Context, a *model.Answer) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Answer, error)
}

// ViolationSink accepts validated violation events for persistence.
// Implementations must only ever append.
type ViolationSink interface {
	Enqueue(ctx context.Context, v *model.Violation) error
}

// TokenCache caches per-session violation tokens so report validation does
// not hit the primary store on every event. A miss returns ("", nil).
type TokenCache interface {
	SetToken(ctx context.Context, sessionID uuid.UUID, token string, ttl time.Duration) error
	GetToken(ctx context.Context, sessionID uuid.UUID) (string, error)
}
