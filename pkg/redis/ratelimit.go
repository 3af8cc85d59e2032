package redis

import (
	"context"
	"time"
)

// FixedWindowAllow counts one hit for scope in the current window and
// reports whether the count is still within limit. The window starts at the
// first hit, when the counter gets its TTL.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if c.store == nil {
		return false, 0, errNotConnected
	}
	k := c.RateLimitKey(scope)
	hits, err := c.store.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}
	if hits == 1 && window > 0 {
		if err := c.store.Expire(ctx, k, window).Err(); err != nil {
			return false, hits, err
		}
	}
	return hits <= limit, hits, nil
}
