package exam

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invigo/invigo-backend/internal/model"
)

const (
	testUserID  = 7
	otherUserID = 8
	testCode    = "a1b2c3d4e5f6"
)

// testEnv wires every lifecycle service against one shared memStore, with a
// controllable clock injected into each service.
type testEnv struct {
	store      *memStore
	clock      *fakeClock
	sessions   *SessionService
	answers    *AnswerService
	violations *ViolationService
	registry   *CodeRegistry

	assignmentID uuid.UUID
	setID        uuid.UUID
	qText        uuid.UUID
	qSingle      uuid.UUID
	qMulti       uuid.UUID
	optA, optB   uuid.UUID
	optC, optD   uuid.UUID
}

// newEnv seeds one candidate assignment on a 60-minute question set with a
// two-attempt cap and one unconsumed session code (testCode).
func newEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store:        newMemStore(),
		clock:        newFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)),
		assignmentID: uuid.New(),
		setID:        uuid.New(),
		qText:        uuid.New(),
		qSingle:      uuid.New(),
		qMulti:       uuid.New(),
		optA:         uuid.New(),
		optB:         uuid.New(),
		optC:         uuid.New(),
		optD:         uuid.New(),
	}

	env.store.sets[env.setID] = model.QuestionSet{
		ID:              env.setID,
		Name:            "Network Fundamentals",
		TestTypeName:    "Theory",
		DurationMinutes: 60,
		WarningMinutes:  5,
		MaxAttempts:     2,
		IsActive:        true,
	}
	env.store.snapshots[env.setID] = []model.SnapshotQuestion{
		{ID: env.qText, Title: "Explain subnetting", AnswerType: model.AnswerTypeLongText},
		{
			ID:         env.qSingle,
			Title:      "Default HTTPS port",
			AnswerType: model.AnswerTypeMultipleChoice,
			Options: []model.SnapshotOption{
				{ID: env.optA, OptionText: "443", Position: 1},
				{ID: env.optB, OptionText: "80", Position: 2},
			},
		},
		{
			ID:            env.qMulti,
			Title:         "Select the transport protocols",
			AnswerType:    model.AnswerTypeMultipleChoice,
			AllowMultiple: true,
			Options: []model.SnapshotOption{
				{ID: env.optC, OptionText: "TCP", Position: 1},
				{ID: env.optD, OptionText: "UDP", Position: 2},
			},
		},
	}
	env.store.assignments[env.assignmentID] = model.Assignment{
		ID:            env.assignmentID,
		QuestionSetID: env.setID,
		UserID:        testUserID,
		IsActive:      true,
	}
	env.addCode(testCode)

	log := zerolog.Nop()
	asgStore := assignmentStoreAdapter{env.store}

	env.sessions = NewSessionService(env.store, env.store, asgStore, env.store, env.store, log)
	env.sessions.now = env.clock.Now
	env.answers = NewAnswerService(env.store, env.store, env.sessions, log)
	env.answers.now = env.clock.Now
	env.violations = NewViolationService(env.store, env.store, env.store, log)
	env.violations.now = env.clock.Now
	env.registry = NewCodeRegistry(env.store, asgStore, env.store, 6, log)
	env.registry.now = env.clock.Now

	return env
}

// addCode inserts an unconsumed code for the seeded assignment directly into
// the store, bypassing the registry's in-progress refusal.
func (e *testEnv) addCode(code string) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.store.codes[code] = model.SessionCode{
		ID:           uuid.New(),
		AssignmentID: e.assignmentID,
		Code:         code,
		IssuedAt:     e.clock.Now(),
	}
}

// start redeems testCode and fails the test unless it succeeds.
func (e *testEnv) start(t *testing.T) *model.SessionView {
	t.Helper()
	view, err := e.sessions.Start(context.Background(), testUserID, testCode)
	require.NoError(t, err)
	return view
}

func TestStart_Success(t *testing.T) {
	env := newEnv(t)
	startedAt := env.clock.Now()

	view := env.start(t)

	assert.Equal(t, "Network Fundamentals", view.Test.Title)
	assert.Equal(t, 60, view.Test.DurationMinutes)
	assert.Equal(t, 5, view.Test.WarningMinutes)
	assert.Equal(t, startedAt.Add(60*time.Minute), view.EndTime)
	assert.Len(t, view.ViolationToken, 2*violationTokenBytes)
	assert.Len(t, view.Questions, 3)

	session, err := env.store.GetByID(context.Background(), view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusInProgress, session.Status)
	assert.Equal(t, 1, session.Attempt)
	assert.Equal(t, startedAt, session.StartTime)
	assert.Nil(t, session.SubmittedAt)

	sc, err := env.store.GetByCode(context.Background(), testCode)
	require.NoError(t, err)
	assert.True(t, sc.Consumed)
}

func TestStart_UnknownCode(t *testing.T) {
	env := newEnv(t)

	_, err := env.sessions.Start(context.Background(), testUserID, "nope")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestStart_WrongUser(t *testing.T) {
	env := newEnv(t)

	_, err := env.sessions.Start(context.Background(), otherUserID, testCode)
	assert.ErrorIs(t, err, ErrWrongUser)

	sc, getErr := env.store.GetByCode(context.Background(), testCode)
	require.NoError(t, getErr)
	assert.False(t, sc.Consumed, "a rejected redemption must not consume the code")
}

func TestStart_InactiveAssignment(t *testing.T) {
	env := newEnv(t)
	asg := env.store.assignments[env.assignmentID]
	asg.IsActive = false
	env.store.assignments[env.assignmentID] = asg

	_, err := env.sessions.Start(context.Background(), testUserID, testCode)
	assert.ErrorIs(t, err, ErrInactive)
}

func TestStart_InactiveQuestionSet(t *testing.T) {
	env := newEnv(t)
	qs := env.store.sets[env.setID]
	qs.IsActive = false
	env.store.sets[env.setID] = qs

	_, err := env.sessions.Start(context.Background(), testUserID, testCode)
	assert.ErrorIs(t, err, ErrInactive)
}

func TestStart_ConsumedCode(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)
	require.NoError(t, env.sessions.Submit(context.Background(), testUserID, view.SessionID))

	_, err := env.sessions.Start(context.Background(), testUserID, testCode)
	assert.ErrorIs(t, err, ErrCodeUsed)
}

func TestStart_BlockedByInProgressSession(t *testing.T) {
	env := newEnv(t)
	env.start(t)
	env.addCode("second-code")

	_, err := env.sessions.Start(context.Background(), testUserID, "second-code")
	assert.ErrorIs(t, err, ErrSessionInProgress)
}

func TestStart_ExpiresStaleSession(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)
	env.clock.Advance(61 * time.Minute)
	env.addCode("second-code")

	_, err := env.sessions.Start(context.Background(), testUserID, "second-code")
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Equal(t, model.SessionStatusAutoSubmitted, env.store.sessionStatus(view.SessionID))

	// The stale session is now terminal, so the fresh code redeems cleanly.
	_, err = env.sessions.Start(context.Background(), testUserID, "second-code")
	require.NoError(t, err)
}

func TestStart_AttemptLimit(t *testing.T) {
	env := newEnv(t)

	view := env.start(t)
	require.NoError(t, env.sessions.Submit(context.Background(), testUserID, view.SessionID))

	env.addCode("second-code")
	view2, err := env.sessions.Start(context.Background(), testUserID, "second-code")
	require.NoError(t, err)
	assert.Equal(t, 2, mustGetSession(t, env, view2.SessionID).Attempt)
	require.NoError(t, env.sessions.Submit(context.Background(), testUserID, view2.SessionID))

	env.addCode("third-code")
	_, err = env.sessions.Start(context.Background(), testUserID, "third-code")
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
}

func TestStart_UnlimitedAttempts(t *testing.T) {
	env := newEnv(t)
	qs := env.store.sets[env.setID]
	qs.MaxAttempts = 0
	env.store.sets[env.setID] = qs

	for i := 0; i < 5; i++ {
		code := "code-" + string(rune('a'+i))
		env.addCode(code)
		view, err := env.sessions.Start(context.Background(), testUserID, code)
		require.NoError(t, err)
		require.NoError(t, env.sessions.Submit(context.Background(), testUserID, view.SessionID))
	}
}

func TestStart_ConcurrentRedemption_SingleWinner(t *testing.T) {
	env := newEnv(t)

	const callers = 16
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.sessions.Start(context.Background(), testUserID, testCode)
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, ErrCodeUsed)
	}
	assert.Equal(t, 1, won, "exactly one redemption of a code may succeed")
}

func TestSubmit_Success(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)

	text := "255.255.255.0"
	require.NoError(t, env.answers.Save(context.Background(), testUserID, &model.SaveAnswerRequest{
		SessionID:  view.SessionID,
		QuestionID: env.qText,
		AnswerText: &text,
	}))

	env.clock.Advance(20 * time.Minute)
	submittedAt := env.clock.Now()
	require.NoError(t, env.sessions.Submit(context.Background(), testUserID, view.SessionID))

	session := mustGetSession(t, env, view.SessionID)
	assert.Equal(t, model.SessionStatusSubmitted, session.Status)
	require.NotNil(t, session.SubmittedAt)
	assert.Equal(t, submittedAt, *session.SubmittedAt)

	answers, err := env.store.ListBySession(context.Background(), view.SessionID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.True(t, answers[0].IsFinal, "submit must finalize saved answers")
}

func TestSubmit_Idempotent(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)

	require.NoError(t, env.sessions.Submit(context.Background(), testUserID, view.SessionID))
	err := env.sessions.Submit(context.Background(), testUserID, view.SessionID)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, model.SessionStatusSubmitted, env.store.sessionStatus(view.SessionID))
}

func TestSubmit_AtDeadlineDivertsToExpiry(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)
	endTime := view.EndTime

	env.clock.Advance(60 * time.Minute)
	err := env.sessions.Submit(context.Background(), testUserID, view.SessionID)
	assert.ErrorIs(t, err, ErrSessionClosed)

	session := mustGetSession(t, env, view.SessionID)
	assert.Equal(t, model.SessionStatusAutoSubmitted, session.Status)
	require.NotNil(t, session.SubmittedAt)
	assert.Equal(t, endTime, *session.SubmittedAt)
}

func TestSubmit_NotOwner(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)

	err := env.sessions.Submit(context.Background(), otherUserID, view.SessionID)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, model.SessionStatusInProgress, env.store.sessionStatus(view.SessionID))
}

func TestSubmit_UnknownSession(t *testing.T) {
	env := newEnv(t)

	err := env.sessions.Submit(context.Background(), testUserID, uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAutoExpire_BeforeDeadline(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)
	env.clock.Advance(59 * time.Minute)

	err := env.sessions.AutoExpire(context.Background(), view.SessionID)
	assert.Error(t, err)
	assert.Equal(t, model.SessionStatusInProgress, env.store.sessionStatus(view.SessionID))
}

func TestAutoExpire_StampsEndTimeNotSweepTime(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)

	// The sweep runs long after the deadline; the recorded submission time
	// must still be the deadline itself.
	env.clock.Advance(75 * time.Minute)
	require.NoError(t, env.sessions.AutoExpire(context.Background(), view.SessionID))

	session := mustGetSession(t, env, view.SessionID)
	assert.Equal(t, model.SessionStatusAutoSubmitted, session.Status)
	require.NotNil(t, session.SubmittedAt)
	assert.Equal(t, view.EndTime, *session.SubmittedAt)
}

func TestAutoExpire_TerminalIsNoop(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)
	require.NoError(t, env.sessions.Submit(context.Background(), testUserID, view.SessionID))
	env.clock.Advance(2 * time.Hour)

	require.NoError(t, env.sessions.AutoExpire(context.Background(), view.SessionID))
	assert.Equal(t, model.SessionStatusSubmitted, env.store.sessionStatus(view.SessionID))
}

func TestAutoExpire_ConcurrentSweeps_OneWinner(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)
	env.clock.Advance(61 * time.Minute)

	const sweeps = 8
	var wg sync.WaitGroup
	errs := make([]error, sweeps)
	for i := 0; i < sweeps; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = env.sessions.AutoExpire(context.Background(), view.SessionID)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	session := mustGetSession(t, env, view.SessionID)
	assert.Equal(t, model.SessionStatusAutoSubmitted, session.Status)
	assert.Equal(t, view.EndTime, *session.SubmittedAt)
}

func TestExpiredSessions(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)

	ids, err := env.sessions.ExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)

	env.clock.Advance(60 * time.Minute)
	ids, err = env.sessions.ExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{view.SessionID}, ids)
}

func TestGet_OwnerOnly(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)

	session, err := env.sessions.Get(context.Background(), testUserID, view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, view.SessionID, session.ID)

	_, err = env.sessions.Get(context.Background(), otherUserID, view.SessionID)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func mustGetSession(t *testing.T, env *testEnv, id uuid.UUID) *model.Session {
	t.Helper()
	session, err := env.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	return session
}
