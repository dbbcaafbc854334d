package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubSleep(t *testing.T, delays *[]time.Duration) func() {
	t.Helper()
	orig := Sleep
	Sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return func() { Sleep = orig }
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	var delays []time.Duration
	defer stubSleep(t, &delays)()

	calls := 0
	err := Do(context.Background(), 3, time.Second, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDoExponentialBackoff(t *testing.T) {
	var delays []time.Duration
	defer stubSleep(t, &delays)()

	calls := 0
	err := Do(context.Background(), 3, time.Second, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestDoReturnsFinalErrorUnchanged(t *testing.T) {
	var delays []time.Duration
	defer stubSleep(t, &delays)()

	final := errors.New("still broken")
	calls := 0
	err := Do(context.Background(), 3, time.Second, func() error {
		calls++
		return final
	})
	assert.Equal(t, 3, calls)
	assert.Same(t, final, err)
}

func TestDoPermanentStopsImmediately(t *testing.T) {
	var delays []time.Duration
	defer stubSleep(t, &delays)()

	fatal := errors.New("bad request")
	calls := 0
	err := Do(context.Background(), 5, time.Second, func() error {
		calls++
		return Permanent(fatal)
	})
	assert.Equal(t, 1, calls)
	assert.Same(t, fatal, err)
	assert.Empty(t, delays)
}

func TestDoContextCancelled(t *testing.T) {
	orig := Sleep
	Sleep = func(ctx context.Context, _ time.Duration) error { return context.Canceled }
	defer func() { Sleep = orig }()

	err := Do(context.Background(), 3, time.Second, func() error {
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
