package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/exportmap/internal/config"
)

// TestDefaultPolicy verifies the baseline default values.
func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	require.Equal(t, config.RetryBackoffLinear, p.Mode)
	require.Equal(t, time.Second, p.Initial)
	require.Equal(t, 30*time.Second, p.Max)
	require.Equal(t, 2, p.MaxRetries)
	require.NoError(t, p.Validate())
}

// TestNewPolicyOverrides checks override precedence and clamping when initial > max.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, 5*time.Second, 2*time.Second, 5)
	require.Equal(t, 2*time.Second, p.Initial)
	require.Equal(t, 2*time.Second, p.Max)
	require.Equal(t, config.RetryBackoffFixed, p.Mode)
	require.Equal(t, 5, p.MaxRetries)

	unknown := NewPolicy("sometimes", 0, 0, -1)
	require.Equal(t, DefaultPolicy(), unknown)
}

func TestFromConfig(t *testing.T) {
	p := FromConfig(config.RetryConfig{Backoff: config.RetryBackoffExponential, Initial: "100ms", Max: "1s", MaxRetries: 4})
	require.Equal(t, Policy{Mode: config.RetryBackoffExponential, Initial: 100 * time.Millisecond, Max: time.Second, MaxRetries: 4}, p)
}

// TestDelayModes ensures fixed, linear, exponential behave and respect cap.
func TestDelayModes(t *testing.T) {
	fixed := NewPolicy(config.RetryBackoffFixed, 100*time.Millisecond, 500*time.Millisecond, 3)
	for i := 1; i <= 3; i++ {
		require.Equal(t, 100*time.Millisecond, fixed.Delay(i))
	}

	linear := NewPolicy(config.RetryBackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 5)
	for attempt, want := range map[int]time.Duration{1: 100 * time.Millisecond, 2: 200 * time.Millisecond, 3: 250 * time.Millisecond, 4: 250 * time.Millisecond} {
		require.Equal(t, want, linear.Delay(attempt), "linear attempt %d", attempt)
	}

	exp := NewPolicy(config.RetryBackoffExponential, 100*time.Millisecond, time.Second, 5)
	for attempt, want := range map[int]time.Duration{1: 100 * time.Millisecond, 2: 200 * time.Millisecond, 3: 400 * time.Millisecond, 4: 800 * time.Millisecond, 5: time.Second} {
		require.Equal(t, want, exp.Delay(attempt), "exponential attempt %d", attempt)
	}
	require.Zero(t, exp.Delay(0))
}

func TestDo(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 3)

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)

	calls = 0
	boom := errors.New("down")
	err = p.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 4, calls)
}

func TestDo_Canceled(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Hour, time.Hour, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Do(ctx, func(context.Context) error { return errors.New("down") })
	require.ErrorIs(t, err, context.Canceled)
}
