package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenBucket_BurstThenCancel(t *testing.T) {
	t.Parallel()

	tb := NewTokenBucket(0.001, 2)

	// Act: the initial burst is served immediately.
	require.NoError(t, tb.Wait(t.Context()))
	require.NoError(t, tb.Wait(t.Context()))

	// Assert: the third call has to wait ~1000s and gives up with the context.
	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	err := tb.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTokenBucket_Refills(t *testing.T) {
	t.Parallel()

	tb := NewTokenBucket(100, 1)
	require.NoError(t, tb.Wait(t.Context()))

	start := time.Now()
	require.NoError(t, tb.Wait(t.Context()))
	require.Less(t, time.Since(start), time.Second)
}

func TestTokenBucket_Reservations(t *testing.T) {
	t.Parallel()

	tb := NewTokenBucket(1, 2)
	now := time.Now()

	// Act: two slots are free, the third is a full interval out
	require.LessOrEqual(t, tb.reserve(now), time.Duration(0))
	require.LessOrEqual(t, tb.reserve(now), time.Duration(0))
	require.Equal(t, time.Second, tb.reserve(now))

	// Assert: a released slot is handed to the next caller
	tb.release()
	require.Equal(t, time.Second, tb.reserve(now))
	require.Equal(t, 2*time.Second, tb.reserve(now))

	// Assert: idle time refills the bucket up to burst only
	later := now.Add(time.Hour)
	require.LessOrEqual(t, tb.reserve(later), time.Duration(0))
	require.LessOrEqual(t, tb.reserve(later), time.Duration(0))
	require.Equal(t, time.Second, tb.reserve(later))
}

func TestMinInterval_SpacesCalls(t *testing.T) {
	t.Parallel()

	m := &MinInterval{Interval: 30 * time.Millisecond}
	require.NoError(t, m.Wait(t.Context()))

	start := time.Now()
	require.NoError(t, m.Wait(t.Context()))
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestMinInterval_Canceled(t *testing.T) {
	t.Parallel()

	m := &MinInterval{Interval: time.Hour}
	require.NoError(t, m.Wait(t.Context()))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.ErrorIs(t, m.Wait(ctx), context.Canceled)
}

func TestNew(t *testing.T) {
	t.Parallel()

	require.IsType(t, &TokenBucket{}, New(5, 1, time.Second))
	require.IsType(t, &MinInterval{}, New(0, 1, time.Second))
	require.Nil(t, New(0, 0, 0))
	require.NoError(t, Wait(t.Context(), nil))
}
