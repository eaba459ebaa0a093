package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// DefaultLockTimeout is how long Acquire waits for another invocation to
// release the working copy.
const DefaultLockTimeout = 2 * time.Minute

// withLock acquires an exclusive lock on lockPath, runs fn, then releases.
func withLock(ctx context.Context, lockPath string, timeout time.Duration, fn func() error) error {
	fileLock := flock.New(lockPath)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquiring lock on %s: %w", lockPath, err)
	}
	if !locked {
		return fmt.Errorf("timed out acquiring lock on %s", lockPath)
	}
	defer fileLock.Unlock()

	return fn()
}
