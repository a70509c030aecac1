package resilience_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/resilience"
)

func TestBreakerOpensOnFailureRatio(t *testing.T) {
	t.Parallel()

	b := resilience.NewBreaker(4, 0.5, time.Minute).WithTarget("sales")
	for i := 0; i < 2; i++ {
		require.True(t, b.Allow())
		b.Report(true)
	}
	for i := 0; i < 2; i++ {
		require.True(t, b.Allow())
		b.Report(false)
	}
	require.Equal(t, resilience.Open, b.CurrentState())
	require.False(t, b.Allow())
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	t.Parallel()

	b := resilience.NewBreaker(1, 0.5, 10*time.Millisecond).WithTarget("catalog")
	require.True(t, b.Allow())
	b.Report(false)
	require.Equal(t, resilience.Open, b.CurrentState())

	time.Sleep(15 * time.Millisecond)
	require.True(t, b.Allow())
	require.Equal(t, resilience.HalfOpen, b.CurrentState())
	b.Report(true)
	require.Equal(t, resilience.Closed, b.CurrentState())
}

func TestBreakerHalfOpenReopensOnFailure(t *testing.T) {
	t.Parallel()

	b := resilience.NewBreaker(1, 0.5, 10*time.Millisecond)
	b.Report(false)
	require.Equal(t, resilience.Open, b.CurrentState())

	time.Sleep(15 * time.Millisecond)
	require.True(t, b.Allow())
	b.Report(false)
	require.Equal(t, resilience.Open, b.CurrentState())
}

func TestBackoffGrowth(t *testing.T) {
	t.Parallel()

	base := 100 * time.Millisecond
	require.Equal(t, base, resilience.Backoff(base, 1, 0))
	require.Equal(t, 2*base, resilience.Backoff(base, 2, 0))
	require.Equal(t, 4*base, resilience.Backoff(base, 3, 0))
}
