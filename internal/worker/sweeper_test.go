package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExpirer records AutoExpire calls and serves a mutable expired-id list.
type fakeExpirer struct {
	mu      sync.Mutex
	expired []uuid.UUID
	calls   []uuid.UUID
	fail    map[uuid.UUID]error
}

func (f *fakeExpirer) ExpiredSessions(context.Context) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.expired...), nil
}

func (f *fakeExpirer) AutoExpire(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	if err := f.fail[id]; err != nil {
		return err
	}
	for i, e := range f.expired {
		if e == id {
			f.expired = append(f.expired[:i], f.expired[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeExpirer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeExpirer) remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.expired)
}

func TestSweeper_ClosesExpiredSessions(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	expirer := &fakeExpirer{expired: []uuid.UUID{a, b}}
	sweeper := NewSweeper(expirer, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return expirer.remaining() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.GreaterOrEqual(t, expirer.callCount(), 2)
}

func TestSweeper_SkipsFailedSessionAndContinues(t *testing.T) {
	bad, good := uuid.New(), uuid.New()
	expirer := &fakeExpirer{
		expired: []uuid.UUID{bad, good},
		fail:    map[uuid.UUID]error{bad: errors.New("connection reset")},
	}
	sweeper := NewSweeper(expirer, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(done)
	}()

	// The good session gets closed even though the bad one keeps failing.
	require.Eventually(t, func() bool { return expirer.remaining() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestSweeper_StopsOnCancel(t *testing.T) {
	expirer := &fakeExpirer{}
	sweeper := NewSweeper(expirer, 5*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
