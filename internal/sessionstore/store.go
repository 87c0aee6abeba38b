// Package sessionstore is the SessionStore port: get/put/delete a
// SessionContext by session_id. Transport is out of scope; implementations
// persist JSON under a fixed key shape ("session:<session_id>").
package sessionstore

import (
	"context"
	"time"

	"github.com/drivethru-ai/conversation-core/internal/types"
)

// Store is the SessionStore port.
type Store interface {
	Get(ctx context.Context, sessionID string) (*types.SessionContext, error)
	Put(ctx context.Context, sessionID string, ctxVal *types.SessionContext, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}

// ErrNotFound is returned by Get when no session exists, including an
// expired one.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "sessionstore: session not found" }
