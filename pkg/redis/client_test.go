package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/drinkroute/distribution-backend/pkg/config"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "driver-1", 2, time.Second)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, int64(1), count)
	require.Len(t, mock.expireCalls, 1)
	require.Equal(t, "distro:rate_limit:driver-1", mock.expireCalls[0].key)

	allowed, count, err = client.FixedWindowAllow(ctx, "driver-1", 2, time.Second)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, int64(2), count)
	require.Len(t, mock.expireCalls, 1, "expire should only be set once per window")

	allowed, _, err = client.FixedWindowAllow(ctx, "driver-1", 2, time.Second)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestSetNXAndDel(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	ok, err := client.SetNX(ctx, "k", "v", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = client.SetNX(ctx, "k", "other", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	val, err := client.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", val)

	require.NoError(t, client.Del(ctx, "k"))
	_, err = client.Get(ctx, "k")
	require.ErrorIs(t, err, redis.Nil)
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	require.Equal(t, "distro:idempotency:scope:id", client.IdempotencyKey("scope", "id"))
	require.Equal(t, "distro:rate_limit:scope", client.RateLimitKey("scope"))
	require.Equal(t, "distro:lock:dispatch:abc", client.LockKey("dispatch:abc"))
	require.Equal(t, "distro:revoked_token:jti-1", client.RevokedTokenKey("jti-1"))
	require.Equal(t, "distro:idempotency:scope", client.IdempotencyKey("scope", ""), "empty parts are skipped")
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	_, err := client.Get(context.Background(), "k")
	require.Error(t, err)
	require.Error(t, client.Ping(context.Background()))
	require.NoError(t, client.Close())
}

func TestWithLockNotObtained(t *testing.T) {
	locks := &stubObtainer{err: redislock.ErrNotObtained}
	client := &Client{locks: locks}

	called := false
	err := client.WithLock(context.Background(), "dispatch:1", time.Second, func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrLockNotObtained)
	require.False(t, called)
	require.Equal(t, "distro:lock:dispatch:1", locks.key)
	require.Equal(t, time.Second, locks.ttl)
}

func TestWithLockWrapsBackendErrors(t *testing.T) {
	client := &Client{locks: &stubObtainer{err: errors.New("connection reset")}}

	err := client.WithLock(context.Background(), "dispatch:1", time.Second, func(context.Context) error { return nil })
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrLockNotObtained)
	require.Contains(t, err.Error(), "connection reset")
}

func TestWithLockRequiresLocker(t *testing.T) {
	client := &Client{}
	err := client.WithLock(context.Background(), "x", time.Second, func(context.Context) error { return nil })
	require.Error(t, err)
}

type stubObtainer struct {
	err error
	key string
	ttl time.Duration
}

func (s *stubObtainer) Obtain(_ context.Context, key string, ttl time.Duration, _ *redislock.Options) (*redislock.Lock, error) {
	s.key = key
	s.ttl = ttl
	return nil, s.err
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(_ context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestOptionsPreferURL(t *testing.T) {
	opts, err := options(config.RedisConfig{
		URL:         "redis://:secret@cache:6380/2",
		Address:     "ignored:6379",
		PoolSize:    7,
		DialTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	require.Equal(t, "cache:6380", opts.Addr)
	require.Equal(t, 2, opts.DB)
	require.Equal(t, "secret", opts.Password)
	require.Equal(t, 7, opts.PoolSize)
	require.Equal(t, 2*time.Second, opts.DialTimeout)

	opts, err = options(config.RedisConfig{Address: "localhost:6379", DB: 3})
	require.NoError(t, err)
	require.Equal(t, "localhost:6379", opts.Addr)
	require.Equal(t, 3, opts.DB)

	_, err = options(config.RedisConfig{})
	require.Error(t, err)
}
