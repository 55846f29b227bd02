package exam

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invigo/invigo-backend/internal/model"
)

func TestSaveAnswer_TextUpsertIsIdempotent(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)

	first := "draft"
	req := &model.SaveAnswerRequest{SessionID: view.SessionID, QuestionID: env.qText, AnswerText: &first}
	require.NoError(t, env.answers.Save(context.Background(), testUserID, req))
	// Autosave retries resend the same payload; the second write must not
	// duplicate the row.
	require.NoError(t, env.answers.Save(context.Background(), testUserID, req))

	final := "final version"
	req.AnswerText = &final
	require.NoError(t, env.answers.Save(context.Background(), testUserID, req))

	answers, err := env.store.ListBySession(context.Background(), view.SessionID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	require.NotNil(t, answers[0].AnswerText)
	assert.Equal(t, "final version", *answers[0].AnswerText)
	assert.False(t, answers[0].IsFinal)
}

func TestSaveAnswer_SingleChoice(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)

	require.NoError(t, env.answers.Save(context.Background(), testUserID, &model.SaveAnswerRequest{
		SessionID:         view.SessionID,
		QuestionID:        env.qSingle,
		SelectedOptionIDs: []uuid.UUID{env.optA},
	}))

	// Changing the selection overwrites, it does not accumulate.
	require.NoError(t, env.answers.Save(context.Background(), testUserID, &model.SaveAnswerRequest{
		SessionID:         view.SessionID,
		QuestionID:        env.qSingle,
		SelectedOptionIDs: []uuid.UUID{env.optB},
	}))

	answers, err := env.store.ListBySession(context.Background(), view.SessionID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, []uuid.UUID{env.optB}, answers[0].OptionIDs)
}

func TestSaveAnswer_RejectsMultiSelectOnSingleChoice(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)

	err := env.answers.Save(context.Background(), testUserID, &model.SaveAnswerRequest{
		SessionID:         view.SessionID,
		QuestionID:        env.qSingle,
		SelectedOptionIDs: []uuid.UUID{env.optA, env.optB},
	})
	assert.ErrorIs(t, err, ErrSingleChoiceOnly)

	answers, listErr := env.store.ListBySession(context.Background(), view.SessionID)
	require.NoError(t, listErr)
	assert.Empty(t, answers, "a rejected save must not persist anything")
}

func TestSaveAnswer_AllowsMultiSelectWhenConfigured(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)

	require.NoError(t, env.answers.Save(context.Background(), testUserID, &model.SaveAnswerRequest{
		SessionID:         view.SessionID,
		QuestionID:        env.qMulti,
		SelectedOptionIDs: []uuid.UUID{env.optC, env.optD},
	}))

	answers, err := env.store.ListBySession(context.Background(), view.SessionID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Len(t, answers[0].OptionIDs, 2)
}

func TestSaveAnswer_RejectsForeignOption(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)

	// optA belongs to the single-choice question, not the multi one.
	err := env.answers.Save(context.Background(), testUserID, &model.SaveAnswerRequest{
		SessionID:         view.SessionID,
		QuestionID:        env.qMulti,
		SelectedOptionIDs: []uuid.UUID{env.optA},
	})
	assert.ErrorIs(t, err, ErrOptionUnknown)
}

func TestSaveAnswer_UnknownQuestion(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)

	text := "anything"
	err := env.answers.Save(context.Background(), testUserID, &model.SaveAnswerRequest{
		SessionID:  view.SessionID,
		QuestionID: uuid.New(),
		AnswerText: &text,
	})
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestSaveAnswer_NotOwner(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)

	text := "anything"
	err := env.answers.Save(context.Background(), otherUserID, &model.SaveAnswerRequest{
		SessionID:  view.SessionID,
		QuestionID: env.qText,
		AnswerText: &text,
	})
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestSaveAnswer_AfterSubmit(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)
	require.NoError(t, env.sessions.Submit(context.Background(), testUserID, view.SessionID))

	text := "too late"
	err := env.answers.Save(context.Background(), testUserID, &model.SaveAnswerRequest{
		SessionID:  view.SessionID,
		QuestionID: env.qText,
		AnswerText: &text,
	})
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSaveAnswer_AfterDeadlineExpiresSession(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)
	env.clock.Advance(60 * time.Minute)

	text := "too late"
	err := env.answers.Save(context.Background(), testUserID, &model.SaveAnswerRequest{
		SessionID:  view.SessionID,
		QuestionID: env.qText,
		AnswerText: &text,
	})
	assert.ErrorIs(t, err, ErrSessionClosed)

	// The late save is what noticed the deadline, so it also closed the
	// session rather than waiting for the sweeper.
	session := mustGetSession(t, env, view.SessionID)
	assert.Equal(t, model.SessionStatusAutoSubmitted, session.Status)
	assert.Equal(t, view.EndTime, *session.SubmittedAt)
}

func TestSaveAnswer_LockedAnswer(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)

	text := "draft"
	require.NoError(t, env.answers.Save(context.Background(), testUserID, &model.SaveAnswerRequest{
		SessionID:  view.SessionID,
		QuestionID: env.qText,
		AnswerText: &text,
	}))

	// Force the row final while the session still looks open, mimicking a
	// submit that lands between the status check and the write.
	env.store.mu.Lock()
	a := env.store.answers[view.SessionID][env.qText]
	a.IsFinal = true
	env.store.answers[view.SessionID][env.qText] = a
	env.store.mu.Unlock()

	err := env.answers.Save(context.Background(), testUserID, &model.SaveAnswerRequest{
		SessionID:  view.SessionID,
		QuestionID: env.qText,
		AnswerText: &text,
	})
	assert.ErrorIs(t, err, ErrAnswerLocked)
}
