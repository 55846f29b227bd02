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

func reportReq(view *model.SessionView, eventType model.ViolationType) *model.ReportViolationRequest {
	return &model.ReportViolationRequest{
		SessionID: view.SessionID,
		EventType: eventType,
		Token:     view.ViolationToken,
	}
}

func TestReportViolation_Accepted(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)
	env.clock.Advance(3 * time.Minute)

	require.NoError(t, env.violations.Report(context.Background(), reportReq(view, model.ViolationTabSwitch)))

	env.store.mu.Lock()
	defer env.store.mu.Unlock()
	require.Len(t, env.store.violations, 1)
	v := env.store.violations[0]
	assert.Equal(t, view.SessionID, v.SessionID)
	assert.Equal(t, model.ViolationTabSwitch, v.EventType)
	assert.Equal(t, env.clock.Now().UTC(), v.CreatedAt, "timestamp is the server receipt time")
}

func TestReportViolation_NoDeduplication(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)

	// Leaving fullscreen five times is five events; the timeline is the
	// audit trail.
	for i := 0; i < 5; i++ {
		require.NoError(t, env.violations.Report(context.Background(), reportReq(view, model.ViolationFullscreenExit)))
	}
	assert.Equal(t, 5, env.store.violationCount())
}

func TestReportViolation_ForgedToken(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)

	req := reportReq(view, model.ViolationDevtoolsOpen)
	req.Token = "deadbeefdeadbeefdeadbeefdeadbeef"
	err := env.violations.Report(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, 0, env.store.violationCount())
}

func TestReportViolation_TokenFromAnotherSession(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)
	require.NoError(t, env.sessions.Submit(context.Background(), testUserID, view.SessionID))

	env.addCode("second-code")
	view2, err := env.sessions.Start(context.Background(), testUserID, "second-code")
	require.NoError(t, err)

	req := reportReq(view2, model.ViolationWindowBlur)
	req.Token = view.ViolationToken
	assert.ErrorIs(t, env.violations.Report(context.Background(), req), ErrInvalidToken)
}

func TestReportViolation_UnknownSession(t *testing.T) {
	env := newEnv(t)

	err := env.violations.Report(context.Background(), &model.ReportViolationRequest{
		SessionID: uuid.New(),
		EventType: model.ViolationTabSwitch,
		Token:     "whatever",
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestReportViolation_AcceptedAfterTerminal(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)
	require.NoError(t, env.sessions.Submit(context.Background(), testUserID, view.SessionID))

	// A trailing event that was in flight when the session closed still
	// lands on the timeline.
	require.NoError(t, env.violations.Report(context.Background(), reportReq(view, model.ViolationWindowBlur)))
	assert.Equal(t, 1, env.store.violationCount())
}

func TestReportViolation_CacheMissFallsBackToStore(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)

	// Drop the cached token, simulating cache eviction.
	env.store.mu.Lock()
	delete(env.store.tokens, view.SessionID)
	env.store.mu.Unlock()

	require.NoError(t, env.violations.Report(context.Background(), reportReq(view, model.ViolationTabSwitch)))

	// The fallback read re-primed the cache.
	token, err := env.store.GetToken(context.Background(), view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, view.ViolationToken, token)
}

func TestReportViolation_WorksWithoutCache(t *testing.T) {
	env := newEnv(t)
	env.violations.cache = nil
	view := env.start(t)

	require.NoError(t, env.violations.Report(context.Background(), reportReq(view, model.ViolationUnknown)))
	assert.Equal(t, 1, env.store.violationCount())
}
