package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SessionLocks is a per-session advisory lock: turns for the same session
// serialize through a non-reentrant lock with a deadline; a second
// concurrent turn waits, or fails with a retriable SYSTEM error once the
// deadline elapses. A lazily populated map of session_id -> *sync.Mutex.
type SessionLocks struct {
	mu       sync.Map // session_id -> *sync.Mutex
	deadline time.Duration
}

// NewSessionLocks builds a SessionLocks with the given acquire deadline
// (default: 30s).
func NewSessionLocks(deadline time.Duration) *SessionLocks {
	if deadline <= 0 {
		deadline = 30 * time.Second
	}
	return &SessionLocks{deadline: deadline}
}

func (l *SessionLocks) mutexFor(sessionID string) *sync.Mutex {
	v, _ := l.mu.LoadOrStore(sessionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Acquire blocks until the session's lock is free, the deadline elapses, or
// ctx is cancelled, whichever comes first. On success it returns a release
// function the caller must invoke exactly once, on every path including
// errors.
func (l *SessionLocks) Acquire(ctx context.Context, sessionID string) (func(), error) {
	mutex := l.mutexFor(sessionID)

	acquired := make(chan struct{})
	go func() {
		mutex.Lock()
		close(acquired)
	}()

	timer := time.NewTimer(l.deadline)
	defer timer.Stop()

	select {
	case <-acquired:
		return mutex.Unlock, nil
	case <-ctx.Done():
		go func() { <-acquired; mutex.Unlock() }()
		return nil, fmt.Errorf("orchestrator: session %s: %w", sessionID, ctx.Err())
	case <-timer.C:
		go func() { <-acquired; mutex.Unlock() }()
		return nil, fmt.Errorf("orchestrator: session %s: lock acquire deadline exceeded", sessionID)
	}
}
