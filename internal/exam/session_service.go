package exam

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/invigo/invigo-backend/internal/model"
)

// violationTokenBytes is the entropy of the per-session violation signing
// token (hex-encoded, so the token string is twice as long).
const violationTokenBytes = 16

// tokenCacheTTL bounds how long a violation token stays cached. Longer than
// any exam duration so trailing reports after a terminal transition still
// validate from cache.
const tokenCacheTTL = 24 * time.Hour

// SessionService is the authoritative session lifecycle: it owns every
// status transition and all timer semantics. The deadline is re-derived from
// the server clock on each mutating call; no client input can move it.
type SessionService struct {
	sessions    SessionStore
	codes       CodeStore
	assignments AssignmentStore
	sets        SnapshotSource
	cache       TokenCache
	log         zerolog.Logger
	now         func() time.Time
}

// NewSessionService creates a new SessionService. cache may be nil when no
// token cache is wired (tokens are then always read from the session store).
func NewSessionService(
	sessions SessionStore,
	codes CodeStore,
	assignments AssignmentStore,
	sets SnapshotSource,
	cache TokenCache,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessions:    sessions,
		codes:       codes,
		assignments: assignments,
		sets:        sets,
		cache:       cache,
		log:         log.With().Str("component", "session_service").Logger(),
		now:         time.Now,
	}
}

// Start redeems a session code for the calling candidate and activates a new
// session. Code consumption and session creation are one atomic unit: of any
// number of concurrent redemptions of the same code, exactly one succeeds and
// the rest observe ErrCodeUsed.
func (s *SessionService) Start(ctx context.Context, userID int, code string) (*model.SessionView, error) {
	code = strings.TrimSpace(code)

	sc, err := s.codes.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("get code: %w", err)
	}

	asg, err := s.assignments.GetByID(ctx, sc.AssignmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	if asg.UserID != userID {
		return nil, ErrWrongUser
	}
	if !asg.IsActive {
		return nil, ErrInactive
	}

	qs, err := s.sets.QuestionSet(ctx, asg.QuestionSetID)
	if err != nil {
		return nil, fmt.Errorf("get question set: %w", err)
	}
	if !qs.IsActive {
		return nil, ErrInactive
	}

	if sc.Consumed {
		return nil, ErrCodeUsed
	}

	// A prior in-flight session blocks redemption; a stale one past its
	// deadline is expired here rather than left to the next sweep.
	latest, err := s.sessions.LatestByAssignment(ctx, asg.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("latest session: %w", err)
	}
	if latest != nil && latest.Status == model.SessionStatusInProgress {
		if !s.now().Before(latest.EndTime) {
			if err := s.AutoExpire(ctx, latest.ID); err != nil {
				return nil, fmt.Errorf("expire stale session: %w", err)
			}
			return nil, ErrSessionClosed
		}
		// The in-flight session may belong to a racing redemption of this
		// very code that committed between our code read and here; that
		// caller already consumed the code.
		if cur, err := s.codes.GetByCode(ctx, code); err == nil && cur.Consumed {
			return nil, ErrCodeUsed
		}
		return nil, ErrSessionInProgress
	}

	attempts, err := s.sessions.CountByAssignment(ctx, asg.ID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	if qs.MaxAttempts > 0 && attempts >= qs.MaxAttempts {
		return nil, ErrAttemptsExhausted
	}

	snapshot, err := s.sets.Snapshot(ctx, qs.ID)
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}

	token, err := randomHex(violationTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate violation token: %w", err)
	}

	start := s.now().UTC()
	session := &model.Session{
		ID:             uuid.New(),
		AssignmentID:   asg.ID,
		QuestionSetID:  qs.ID,
		UserID:         userID,
		Attempt:        attempts + 1,
		Status:         model.SessionStatusInProgress,
		StartTime:      start,
		EndTime:        start.Add(time.Duration(qs.DurationMinutes) * time.Minute),
		ViolationToken: token,
		Snapshot:       snapshot,
	}

	if err := s.sessions.Create(ctx, sc.Code, session); err != nil {
		switch {
		case errors.Is(err, ErrCodeConsumed):
			// Concurrent redemption: the other request won.
			return nil, ErrCodeUsed
		case errors.Is(err, ErrActiveSession):
			return nil, ErrSessionInProgress
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetToken(ctx, session.ID, token, tokenCacheTTL); err != nil {
			// Cache is an optimization; the store remains the source of truth.
			s.log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("Failed to cache violation token")
		}
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Int("user_id", userID).
		Int("attempt", session.Attempt).
		Time("end_time", session.EndTime).
		Msg("Session started")

	return &model.SessionView{
		SessionID: session.ID,
		Test: model.SessionTestInfo{
			Title:           qs.Name,
			TestType:        qs.TestTypeName,
			DurationMinutes: qs.DurationMinutes,
			WarningMinutes:  qs.WarningMinutes,
		},
		EndTime:        session.EndTime,
		ViolationToken: token,
		Questions:      snapshot,
	}, nil
}

// Submit finalizes the session on behalf of the candidate. Valid only from
// in_progress and only before the deadline; a call at or past the deadline
// is diverted into the expiry path. Losing the race against the sweeper (or
// a duplicate submit) yields ErrAlreadySubmitted, which callers treat as a
// success-equivalent terminal state.
func (s *SessionService) Submit(ctx context.Context, userID int, sessionID uuid.UUID) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("get session: %w", err)
	}
	if session.UserID != userID {
		return ErrNotOwner
	}
	if session.Status.Terminal() {
		return ErrAlreadySubmitted
	}

	now := s.now().UTC()
	if !now.Before(session.EndTime) {
		if err := s.AutoExpire(ctx, sessionID); err != nil {
			return fmt.Errorf("expire on submit: %w", err)
		}
		return ErrSessionClosed
	}

	won, err := s.sessions.Finish(ctx, sessionID, model.SessionStatusSubmitted, now)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	if !won {
		return ErrAlreadySubmitted
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Int("user_id", userID).
		Msg("Session submitted")
	return nil
}

// AutoExpire force-terminates a session past its deadline. The submitted
// time is stamped as the session's end time, not the sweep time, so elapsed
// time reporting stays deterministic regardless of sweep lag. Racing against
// a candidate submit is safe: the conditional update lets exactly one caller
// win, and the loser returns without error.
func (s *SessionService) AutoExpire(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("get session: %w", err)
	}
	if session.Status.Terminal() {
		return nil
	}
	if s.now().Before(session.EndTime) {
		return fmt.Errorf("session %s deadline has not passed", sessionID)
	}

	won, err := s.sessions.Finish(ctx, sessionID, model.SessionStatusAutoSubmitted, session.EndTime)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	if won {
		s.log.Info().
			Str("session_id", sessionID.String()).
			Time("end_time", session.EndTime).
			Msg("Session auto-submitted")
	}
	return nil
}

// ExpiredSessions lists in-progress sessions whose deadline has passed, for
// the sweeper.
func (s *SessionService) ExpiredSessions(ctx context.Context) ([]uuid.UUID, error) {
	return s.sessions.ListExpired(ctx, s.now().UTC())
}

// Get returns a session by id for the calling candidate.
func (s *SessionService) Get(ctx context.Context, userID int, sessionID uuid.UUID) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.UserID != userID {
		return nil, ErrNotOwner
	}
	return session, nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
