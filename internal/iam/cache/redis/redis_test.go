package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/teamforge/iam/internal/iam/cache"
	"github.com/teamforge/iam/internal/iam/domain"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	c := NewWithClient(client)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	key := cache.TokenKey(domain.PurposePasswordReset, "fp-abc")
	require.NoError(t, c.Put(ctx, key, "user-1", time.Hour))

	subject, err := c.Consume(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "user-1", subject)

	_, err = c.Consume(ctx, key)
	require.ErrorIs(t, err, cache.ErrNotFound)
}

func TestEntriesExpirePassively(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	key := cache.TokenKey(domain.PurposeVerifyEmail, "fp-def")
	require.NoError(t, c.Put(ctx, key, "user-2", time.Minute))

	mr.FastForward(2 * time.Minute)

	_, err := c.Consume(ctx, key)
	require.ErrorIs(t, err, cache.ErrNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	key := cache.TokenKey(domain.PurposeVerifyEmail, "fp-ghi")
	require.NoError(t, c.Put(ctx, key, "user-3", time.Hour))

	require.NoError(t, c.Delete(ctx, key))
	require.NoError(t, c.Delete(ctx, key))

	_, err := c.Consume(ctx, key)
	require.ErrorIs(t, err, cache.ErrNotFound)
}

func TestPing(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Ping(ctx))

	mr.Close()
	require.Error(t, c.Ping(ctx))
}
