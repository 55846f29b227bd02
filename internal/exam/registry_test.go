package exam

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueCode_RevokesPriorCode(t *testing.T) {
	env := newEnv(t)

	issued, err := env.registry.Issue(context.Background(), env.assignmentID)
	require.NoError(t, err)
	assert.Len(t, issued.Code, 12)
	assert.NotEqual(t, testCode, issued.Code)

	// The seeded code was revoked by the issue.
	old, err := env.store.GetByCode(context.Background(), testCode)
	require.NoError(t, err)
	assert.True(t, old.Consumed)
	_, err = env.sessions.Start(context.Background(), testUserID, testCode)
	assert.ErrorIs(t, err, ErrCodeUsed)

	// The fresh one redeems.
	_, err = env.sessions.Start(context.Background(), testUserID, issued.Code)
	require.NoError(t, err)
}

func TestIssueCode_RefusedWhileInProgress(t *testing.T) {
	env := newEnv(t)
	env.start(t)

	_, err := env.registry.Issue(context.Background(), env.assignmentID)
	assert.ErrorIs(t, err, ErrSessionInProgress)
}

func TestIssueCode_AllowedAfterTerminal(t *testing.T) {
	env := newEnv(t)
	view := env.start(t)
	require.NoError(t, env.sessions.Submit(context.Background(), testUserID, view.SessionID))

	issued, err := env.registry.Issue(context.Background(), env.assignmentID)
	require.NoError(t, err)

	_, err = env.sessions.Start(context.Background(), testUserID, issued.Code)
	require.NoError(t, err)
}

func TestIssueCode_UnknownAssignment(t *testing.T) {
	env := newEnv(t)

	_, err := env.registry.Issue(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestValidateCode_Reasons(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	res, err := env.registry.Validate(ctx, testUserID, testCode)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Reason)

	res, err = env.registry.Validate(ctx, testUserID, "nope")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonInvalid, res.Reason)

	res, err = env.registry.Validate(ctx, otherUserID, testCode)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonWrongUser, res.Reason)

	asg := env.store.assignments[env.assignmentID]
	asg.IsActive = false
	env.store.assignments[env.assignmentID] = asg
	res, err = env.registry.Validate(ctx, testUserID, testCode)
	require.NoError(t, err)
	assert.Equal(t, ReasonInactive, res.Reason)
	asg.IsActive = true
	env.store.assignments[env.assignmentID] = asg
}

func TestValidateCode_UsedAndInProgress(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	env.start(t)
	res, err := env.registry.Validate(ctx, testUserID, testCode)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonUsed, res.Reason)

	// A second, not-yet-consumed code reports the in-flight session instead.
	env.addCode("second-code")
	res, err = env.registry.Validate(ctx, testUserID, "second-code")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonInProgress, res.Reason)
}

func TestValidateCode_DoesNotConsume(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := env.registry.Validate(ctx, testUserID, testCode)
		require.NoError(t, err)
		require.True(t, res.Valid)
	}

	// Preflights never burn the code.
	_, err := env.sessions.Start(ctx, testUserID, testCode)
	require.NoError(t, err)
}

func TestIssueCode_IssuedAtFromServerClock(t *testing.T) {
	env := newEnv(t)
	env.clock.Advance(90 * time.Minute)

	issued, err := env.registry.Issue(context.Background(), env.assignmentID)
	require.NoError(t, err)
	assert.Equal(t, env.clock.Now().UTC(), issued.IssuedAt)
}
