package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// Locker serializes public registry operations. The ledger file is
// rewritten whole on every mutation, so concurrent processes sharing a
// repository root would otherwise race on read-modify-write; every
// public controller operation runs inside WithLock.
type Locker interface {
	// WithLock executes fn while holding the exclusive lock. It blocks
	// until the lock is acquired or ctx is done, then releases it after
	// fn returns.
	WithLock(ctx context.Context, fn func() error) error
}

// NoopLocker returns a Locker that provides no exclusion. It is intended
// for embedded single-process use where the caller already serializes
// operations.
func NoopLocker() Locker { return noopLocker{} }

type noopLocker struct{}

func (noopLocker) WithLock(_ context.Context, fn func() error) error { return fn() }

// fileLocker holds an OS file lock on a lock file under the repository
// root, giving cross-process exclusion.
type fileLocker struct {
	fl         *flock.Flock
	retryDelay time.Duration
}

// NewFileLocker creates a Locker backed by an OS file lock at path.
func NewFileLocker(path string) Locker {
	return &fileLocker{fl: flock.New(path), retryDelay: 50 * time.Millisecond}
}

func (l *fileLocker) WithLock(ctx context.Context, fn func() error) error {
	locked, err := l.fl.TryLockContext(ctx, l.retryDelay)
	if err != nil {
		return fmt.Errorf("acquire repository lock %s: %w", l.fl.Path(), err)
	}
	if !locked {
		return fmt.Errorf("acquire repository lock %s: lock not acquired", l.fl.Path())
	}
	defer l.fl.Unlock()
	return fn()
}
