package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLocks_SerializesSameSession(t *testing.T) {
	locks := NewSessionLocks(time.Second)

	release1, err := locks.Acquire(context.Background(), "sess-1")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		release2, err := locks.Acquire(context.Background(), "sess-1")
		require.NoError(t, err)
		close(acquired)
		release2()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire for the same session should not complete before the first releases")
	case <-time.After(50 * time.Millisecond):
	}

	release1()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire should complete promptly after the first releases")
	}
}

func TestSessionLocks_DifferentSessionsDoNotBlock(t *testing.T) {
	locks := NewSessionLocks(time.Second)

	release1, err := locks.Acquire(context.Background(), "sess-a")
	require.NoError(t, err)
	defer release1()

	done := make(chan struct{})
	go func() {
		release2, err := locks.Acquire(context.Background(), "sess-b")
		require.NoError(t, err)
		release2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquiring a different session's lock must not wait on an unrelated session")
	}
}

func TestSessionLocks_DeadlineExceeded(t *testing.T) {
	locks := NewSessionLocks(20 * time.Millisecond)

	release, err := locks.Acquire(context.Background(), "sess-deadline")
	require.NoError(t, err)
	defer release()

	_, err = locks.Acquire(context.Background(), "sess-deadline")
	assert.Error(t, err)
}

func TestSessionLocks_ContextCancelled(t *testing.T) {
	locks := NewSessionLocks(time.Second)

	release, err := locks.Acquire(context.Background(), "sess-cancel")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = locks.Acquire(ctx, "sess-cancel")
	assert.Error(t, err)
}

func TestSessionLocks_ReleaseAllowsReacquire(t *testing.T) {
	locks := NewSessionLocks(time.Second)

	release, err := locks.Acquire(context.Background(), "sess-reacquire")
	require.NoError(t, err)
	release()

	release2, err := locks.Acquire(context.Background(), "sess-reacquire")
	require.NoError(t, err)
	release2()
}
