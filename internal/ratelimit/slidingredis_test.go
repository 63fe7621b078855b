package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newSlidingWindow(t *testing.T, clock *time.Time) SlidingWindow {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return SlidingWindow{Client: client, Prefix: "rl:", now: func() time.Time { return *clock }}
}

func TestSlidingWindowRejectsOverMax(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := newSlidingWindow(t, &clock)
	ctx := context.Background()

	for i, want := range []int{1, 0} {
		allowed, remaining, reset, err := limiter.Allow(ctx, "user|POST /lists", 2*time.Second, 2)
		require.NoError(t, err)
		require.True(t, allowed, "request %d", i)
		require.Equal(t, want, remaining)
		require.Equal(t, time.Date(2026, 3, 1, 12, 0, 2, 0, time.UTC), reset.UTC())
		clock = clock.Add(500 * time.Millisecond)
	}

	allowed, remaining, reset, err := limiter.Allow(ctx, "user|POST /lists", 2*time.Second, 2)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)
	require.Equal(t, time.Date(2026, 3, 1, 12, 0, 2, 0, time.UTC), reset.UTC())
}

func TestSlidingWindowSlides(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := newSlidingWindow(t, &clock)
	ctx := context.Background()

	allowed, _, _, err := limiter.Allow(ctx, "k", time.Second, 1)
	require.NoError(t, err)
	require.True(t, allowed)

	clock = clock.Add(400 * time.Millisecond)
	allowed, _, _, err = limiter.Allow(ctx, "k", time.Second, 1)
	require.NoError(t, err)
	require.False(t, allowed)

	// The rejected hit did not take a slot, so only the first one must expire.
	clock = clock.Add(600 * time.Millisecond)
	allowed, remaining, _, err := limiter.Allow(ctx, "k", time.Second, 1)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Zero(t, remaining)
}

func TestSlidingWindowDisabled(t *testing.T) {
	allowed, remaining, _, err := SlidingWindow{}.Allow(context.Background(), "k", time.Second, 3)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 3, remaining)
}
