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

// AnswerService implements the autosave/answer-persistence contract. Writes
// are keyed by (session, question), idempotent, and last-write-wins by server
// receipt order. The service never touches session status; it only observes
// it to reject writes to closed sessions.
type AnswerService struct {
	sessions  SessionStore
	answers   AnswerStore
	lifecycle *SessionService
	log       zerolog.Logger
	now       func() time.Time
}

// NewAnswerService creates a new AnswerService. lifecycle is used to divert
// saves arriving past the deadline into the expiry path.
func NewAnswerService(sessions SessionStore, answers AnswerStore, lifecycle *SessionService, log zerolog.Logger) *AnswerService {
	return &AnswerService{
		sessions:  sessions,
		answers:   answers,
		lifecycle: lifecycle,
		log:       log.With().Str("component", "answer_service").Logger(),
		now:       time.Now,
	}
}

// Save upserts the answer for one question of an in-progress session.
// Payloads are validated against the session's question snapshot: option ids
// must belong to the snapshotted question, and a single-choice question
// rejects more than one selection outright (no truncation).
func (s *AnswerService) Save(ctx context.Context, userID int, req *model.SaveAnswerRequest) error {
	session, err := s.sessions.GetByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("get session: %w", err)
	}
	if session.UserID != userID {
		return ErrNotOwner
	}
	if session.Status != model.SessionStatusInProgress {
		return ErrSessionClosed
	}
	if !s.now().UTC().Before(session.EndTime) {
		// The deadline passed but the sweeper has not caught up yet.
		if err := s.lifecycle.AutoExpire(ctx, session.ID); err != nil {
			s.log.Error().Err(err).Str("session_id", session.ID.String()).Msg("Expire on save failed")
		}
		return ErrSessionClosed
	}

	question := session.Question(req.QuestionID)
	if question == nil {
		return ErrQuestionNotFound
	}

	answer := &model.Answer{
		SessionID:   session.ID,
		QuestionID:  question.ID,
		LastSavedAt: s.now().UTC(),
	}

	if question.AnswerType == model.AnswerTypeMultipleChoice {
		if !question.AllowMultiple && len(req.SelectedOptionIDs) > 1 {
			return ErrSingleChoiceOnly
		}
		for _, id := range req.SelectedOptionIDs {
			if !question.Option(id) {
				return ErrOptionUnknown
			}
		}
		answer.OptionIDs = req.SelectedOptionIDs
	} else {
		answer.AnswerText = req.AnswerText
	}

	if err := s.answers.Upsert(ctx, answer); err != nil {
		if errors.Is(err, ErrAnswerFinal) {
			return ErrAnswerLocked
		}
		return fmt.Errorf("upsert answer: %w", err)
	}
	return nil
}
