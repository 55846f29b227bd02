package exam

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/invigo/invigo-backend/internal/model"
)

// ViolationService accepts client-reported integrity events. Reports are
// authenticated solely by the per-session violation token; a matching report
// is always appended, regardless of session status and without server-side
// deduplication. Violations are advisory telemetry and never feed back into
// session-state transitions.
type ViolationService struct {
	sessions SessionStore
	sink     ViolationSink
	cache    TokenCache
	log      zerolog.Logger
	now      func() time.Time
}

// NewViolationService creates a new ViolationService. cache may be nil.
func NewViolationService(sessions SessionStore, sink ViolationSink, cache TokenCache, log zerolog.Logger) *ViolationService {
	return &ViolationService{
		sessions: sessions,
		sink:     sink,
		cache:    cache,
		log:      log.With().Str("component", "violation_service").Logger(),
		now:      time.Now,
	}
}

// Report validates the token and appends the event. The stored timestamp is
// the server receipt time, never a client-supplied one.
func (s *ViolationService) Report(ctx context.Context, req *model.ReportViolationRequest) error {
	token, err := s.sessionToken(ctx, req)
	if err != nil {
		return err
	}
	if req.Token != token {
		return ErrInvalidToken
	}

	v := &model.Violation{
		SessionID: req.SessionID,
		EventType: req.EventType,
		Metadata:  req.Metadata,
		CreatedAt: s.now().UTC(),
	}
	if err := s.sink.Enqueue(ctx, v); err != nil {
		return fmt.Errorf("enqueue violation: %w", err)
	}

	s.log.Debug().
		Str("session_id", req.SessionID.String()).
		Str("event_type", string(req.EventType)).
		Msg("Violation accepted")
	return nil
}

// sessionToken resolves the session's signing token, cache first with a
// store fallback that self-heals the cache.
func (s *ViolationService) sessionToken(ctx context.Context, req *model.ReportViolationRequest) (string, error) {
	if s.cache != nil {
		token, err := s.cache.GetToken(ctx, req.SessionID)
		if err != nil {
			s.log.Warn().Err(err).Msg("Token cache read failed, falling back to store")
		} else if token != "" {
			return token, nil
		}
	}

	session, err := s.sessions.GetByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("get session: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.SetToken(ctx, session.ID, session.ViolationToken, tokenCacheTTL)
	}
	return session.ViolationToken, nil
}
