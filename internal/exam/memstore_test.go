package exam

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/invigo/invigo-backend/internal/model"
)

// memStore is an in-memory implementation of every store contract in this
// package, with the same conditional-write semantics the pgx repositories
// provide. A single mutex serializes each operation, so a multi-step method
// like Create or Finish is atomic exactly like its transactional counterpart.
type memStore struct {
	mu           sync.Mutex
	codes        map[string]model.SessionCode
	assignments  map[uuid.UUID]model.Assignment
	sets         map[uuid.UUID]model.QuestionSet
	snapshots    map[uuid.UUID][]model.SnapshotQuestion
	sessions     map[uuid.UUID]model.Session
	sessionOrder []uuid.UUID
	answers      map[uuid.UUID]map[uuid.UUID]model.Answer
	violations   []model.Violation
	tokens       map[uuid.UUID]string
}

func newMemStore() *memStore {
	return &memStore{
		codes:       make(map[string]model.SessionCode),
		assignments: make(map[uuid.UUID]model.Assignment),
		sets:        make(map[uuid.UUID]model.QuestionSet),
		snapshots:   make(map[uuid.UUID][]model.SnapshotQuestion),
		sessions:    make(map[uuid.UUID]model.Session),
		answers:     make(map[uuid.UUID]map[uuid.UUID]model.Answer),
		tokens:      make(map[uuid.UUID]string),
	}
}

// ─── SessionStore ────────────────────────────────────────────────────────────

func (m *memStore) Create(_ context.Context, code string, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc, ok := m.codes[code]
	if !ok || sc.Consumed {
		return ErrCodeConsumed
	}
	for _, id := range m.sessionOrder {
		if ex := m.sessions[id]; ex.AssignmentID == s.AssignmentID && ex.Status == model.SessionStatusInProgress {
			return ErrActiveSession
		}
	}

	sc.Consumed = true
	m.codes[code] = sc

	stored := *s
	stored.CreatedAt = time.Now()
	m.sessions[s.ID] = stored
	m.sessionOrder = append(m.sessionOrder, s.ID)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := s
	return &out, nil
}

func (m *memStore) LatestByAssignment(_ context.Context, assignmentID uuid.UUID) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.sessionOrder) - 1; i >= 0; i-- {
		if s := m.sessions[m.sessionOrder[i]]; s.AssignmentID == assignmentID {
			out := s
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memStore) CountByAssignment(_ context.Context, assignmentID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, s := range m.sessions {
		if s.AssignmentID == assignmentID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) Finish(_ context.Context, id uuid.UUID, to model.SessionStatus, submittedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return false, pgx.ErrNoRows
	}
	if s.Status != model.SessionStatusInProgress {
		return false, nil
	}

	s.Status = to
	at := submittedAt
	s.SubmittedAt = &at
	m.sessions[id] = s

	for qid, a := range m.answers[id] {
		a.IsFinal = true
		m.answers[id][qid] = a
	}
	return true, nil
}

func (m *memStore) ListExpired(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []uuid.UUID
	for _, id := range m.sessionOrder {
		s := m.sessions[id]
		if s.Status == model.SessionStatusInProgress && !now.Before(s.EndTime) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ─── CodeStore ───────────────────────────────────────────────────────────────

func (m *memStore) GetByCode(_ context.Context, code string) (*model.SessionCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc, ok := m.codes[code]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := sc
	return &out, nil
}

func (m *memStore) Issue(_ context.Context, sc *model.SessionCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for code, ex := range m.codes {
		if ex.AssignmentID == sc.AssignmentID && !ex.Consumed {
			ex.Consumed = true
			m.codes[code] = ex
		}
	}
	m.codes[sc.Code] = *sc
	return nil
}

// ─── AssignmentStore / SnapshotSource ────────────────────────────────────────

func (m *memStore) GetAssignmentByID(_ context.Context, id uuid.UUID) (*model.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.assignments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := a
	return &out, nil
}

func (m *memStore) QuestionSet(_ context.Context, id uuid.UUID) (*model.QuestionSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	qs, ok := m.sets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := qs
	return &out, nil
}

func (m *memStore) Snapshot(_ context.Context, questionSetID uuid.UUID) ([]model.SnapshotQuestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]model.SnapshotQuestion(nil), m.snapshots[questionSetID]...), nil
}

// ─── AnswerStore ─────────────────────────────────────────────────────────────

func (m *memStore) Upsert(_ context.Context, a *model.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bySession := m.answers[a.SessionID]
	if bySession == nil {
		bySession = make(map[uuid.UUID]model.Answer)
		m.answers[a.SessionID] = bySession
	}
	if ex, ok := bySession[a.QuestionID]; ok && ex.IsFinal {
		return ErrAnswerFinal
	}
	bySession[a.QuestionID] = *a
	return nil
}

func (m *memStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Answer
	for _, a := range m.answers[sessionID] {
		out = append(out, a)
	}
	return out, nil
}

// ─── ViolationSink / TokenCache ──────────────────────────────────────────────

func (m *memStore) Enqueue(_ context.Context, v *model.Violation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.violations = append(m.violations, *v)
	return nil
}

func (m *memStore) SetToken(_ context.Context, sessionID uuid.UUID, token string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[sessionID] = token
	return nil
}

func (m *memStore) GetToken(_ context.Context, sessionID uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.tokens[sessionID], nil
}

// assignmentStoreAdapter narrows memStore to the AssignmentStore contract
// (GetByID would otherwise collide with the session method of the same name).
type assignmentStoreAdapter struct{ m *memStore }

func (a assignmentStoreAdapter) GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	return a.m.GetAssignmentByID(ctx, id)
}

// fakeClock is a settable time source for the services' now field.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (m *memStore) violationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.violations)
}

func (m *memStore) sessionStatus(id uuid.UUID) model.SessionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id].Status
}
