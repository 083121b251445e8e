package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serialises turns of one conversation across replicas that share a
// SessionStore.
type DistributedLocker interface {
	// Lock blocks until the lock on key is held or ctx is done. The lock expires after
	// ttl if it is never released. The returned UnlockFunc must be called.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
