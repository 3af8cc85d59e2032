package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
)

// ErrLockNotObtained is returned when another holder owns the named lock.
var ErrLockNotObtained = errors.New("redis lock not obtained")

const (
	lockRetryStep  = 50 * time.Millisecond
	lockRetryLimit = 3
)

type obtainer interface {
	Obtain(ctx context.Context, key string, ttl time.Duration, opt *redislock.Options) (*redislock.Lock, error)
}

// WithLock runs fn while holding the named lock across API replicas. A lock
// that expired before fn returned is logged, not reported as an error.
func (c *Client) WithLock(ctx context.Context, name string, ttl time.Duration, fn func(context.Context) error) error {
	if c.locks == nil {
		return errors.New("redis locker not initialized")
	}
	lock, err := c.locks.Obtain(ctx, c.LockKey(name), ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(lockRetryStep), lockRetryLimit),
	})
	switch {
	case errors.Is(err, redislock.ErrNotObtained):
		return ErrLockNotObtained
	case err != nil:
		return fmt.Errorf("obtain lock %s: %w", name, err)
	}
	defer c.release(ctx, name, lock)
	return fn(ctx)
}

func (c *Client) release(ctx context.Context, name string, lock *redislock.Lock) {
	err := lock.Release(context.WithoutCancel(ctx))
	if err == nil || errors.Is(err, redislock.ErrLockNotHeld) || c.logger == nil {
		return
	}
	c.logger.Error(c.logger.WithFields(ctx, map[string]any{"lock": name}), "redis lock release failed", err)
}
