package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), quickRetry(3), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("timeout: %w", domain.ErrTransientIO)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_GivesUpAfterAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), quickRetry(3), "search", func(context.Context) error {
		calls++
		return domain.ErrTransientIO
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, errors.Is(err, domain.ErrTransientIO))
	assert.Contains(t, err.Error(), "giving up after 3 attempts")
}

func TestRetry_DoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), quickRetry(3), "op", func(context.Context) error {
		calls++
		return domain.ErrNotFound
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, domain.ErrNotFound, err)
}

func TestRetry_CustomPredicate(t *testing.T) {
	p := quickRetry(2)
	p.RetryIf = func(error) bool { return true }

	calls := 0
	_ = Retry(context.Background(), p, "op", func(context.Context) error {
		calls++
		return errors.New("anything")
	})
	assert.Equal(t, 2, calls)
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := RetryPolicy{Attempts: 5, Delay: time.Hour}
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Retry(ctx, p, "op", func(context.Context) error {
			calls++
			return domain.ErrTransientIO
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}

func TestRetryValue_ReturnsValue(t *testing.T) {
	calls := 0
	v, err := RetryValue(context.Background(), quickRetry(2), "op", func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, domain.ErrRateLimited
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestRetryPolicies(t *testing.T) {
	d := DefaultRetryPolicy()
	assert.Equal(t, 3, d.Attempts)
	assert.Greater(t, d.Multiplier, 1.0)

	n := NotifyRetryPolicy()
	assert.Equal(t, 3, n.Attempts)
	assert.Equal(t, 5*time.Second, n.Delay)
	assert.True(t, n.RetryIf(errors.New("smtp down")))
}
