package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrLockNotAcquired = errors.New("system busy, please try again later (lock)")

// Locker is implemented by RedisClient. A nil Locker disables distributed locking.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

// Store is the key/value surface used for short-lived report caching.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
}

type LockOptions struct {
	TTL      time.Duration
	Attempts int
	Backoff  time.Duration
}

var DefaultLockOptions = LockOptions{TTL: 5 * time.Second, Attempts: 3, Backoff: 100 * time.Millisecond}

// WithLock runs fn while holding key. With a nil locker fn runs unguarded.
func WithLock(ctx context.Context, locker Locker, key string, opts LockOptions, fn func() error) error {
	if locker == nil {
		return fn()
	}

	value := uuid.New().String()
	acquired := false
	for i := 0; i < opts.Attempts; i++ {
		ok, err := locker.AcquireLock(ctx, key, value, opts.TTL)
		if err == nil && ok {
			acquired = true
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(opts.Backoff):
		}
	}
	if !acquired {
		return ErrLockNotAcquired
	}
	defer locker.ReleaseLock(context.WithoutCancel(ctx), key, value)

	return fn()
}
