package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_RetrySuccess(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, WithMaxAttempts(3), WithBackoff(Fixed(time.Millisecond)))
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_MaxAttempts(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("persistent error")
	}, WithMaxAttempts(4), WithBackoff(Fixed(0)))
	require.EqualError(t, err, "persistent error")
	assert.Equal(t, 4, attempts)
}

func TestDo_Permanent(t *testing.T) {
	sentinel := errors.New("conflict")
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Permanent(sentinel)
	}, WithMaxAttempts(5), WithBackoff(Fixed(0)))
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, attempts)
}

func TestDo_CustomRetryIf(t *testing.T) {
	retryable := errors.New("retryable")
	fatal := errors.New("fatal")
	attempts := 0

	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			return retryable
		}
		return fatal
	}, WithMaxAttempts(3), WithBackoff(Fixed(0)), WithRetryIf(func(err error) bool {
		return errors.Is(err, retryable)
	}))

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 2, attempts)
}

func TestDo_NoRetryOnContextError(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return context.Canceled
	}, WithMaxAttempts(3))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCancellationDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, func(ctx context.Context) error {
		return errors.New("error")
	}, WithMaxAttempts(5), WithBackoff(Fixed(time.Second)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExponential(t *testing.T) {
	b := Exponential(10*time.Millisecond, 35*time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, b.Next(0))
	assert.Equal(t, 20*time.Millisecond, b.Next(1))
	assert.Equal(t, 35*time.Millisecond, b.Next(2))
	assert.Equal(t, 35*time.Millisecond, b.Next(60))
}
