package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionExpirer is the lifecycle surface the sweeper drives, implemented by
// exam.SessionService.
type SessionExpirer interface {
	ExpiredSessions(ctx context.Context) ([]uuid.UUID, error)
	AutoExpire(ctx context.Context, sessionID uuid.UUID) error
}

// Sweeper periodically force-terminates sessions whose deadline has passed.
// It is a safety net behind the inline deadline checks: a candidate who
// simply closes the laptop still gets auto-submitted within one interval.
// Overlapping sweeps and concurrent submits are safe; the terminal
// transition is conditional, so every session is closed exactly once.
type Sweeper struct {
	sessions SessionExpirer
	interval time.Duration
	log      zerolog.Logger
}

// NewSweeper creates a new Sweeper.
func NewSweeper(sessions SessionExpirer, interval time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		sessions: sessions,
		interval: interval,
		log:      log.With().Str("component", "sweeper").Logger(),
	}
}

// Start runs sweep rounds until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("Sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Sweeper stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep closes every session past its deadline. A failure on one session is
// logged and skipped; the next round retries it.
func (s *Sweeper) sweep(ctx context.Context) {
	ids, err := s.sessions.ExpiredSessions(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Listing expired sessions failed")
		return
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if err := s.sessions.AutoExpire(ctx, id); err != nil {
			s.log.Error().Err(err).Str("session_id", id.String()).Msg("Auto-submit failed")
		}
	}
	if len(ids) > 0 {
		s.log.Info().Int("count", len(ids)).Msg("Sweep round finished")
	}
}
