package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// RunLocker provides distributed concurrency control over run IDs, letting
// the session manager coordinate access across replicas when results are
// kept in a shared store.
type RunLocker interface {
	// Lock acquires a distributed lock for the given run ID. It blocks
	// until the lock is acquired or the context is canceled. The returned
	// UnlockFunc MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
