package services

import (
	"context"
	"fmt"
	"time"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// RetryPolicy bounds how a collaborator call is retried.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// Delay is the wait before the second attempt.
	Delay time.Duration

	// Multiplier scales Delay after each failure. Values <= 1 give a fixed delay.
	Multiplier float64

	// MaxDelay caps the wait between attempts. Zero means no cap.
	MaxDelay time.Duration

	// RetryIf decides whether an error is worth another attempt.
	// Defaults to domain.IsRetryable.
	RetryIf func(error) bool
}

// DefaultRetryPolicy is used for reads and writes against the document
// store and the appointment sheet.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:   3,
		Delay:      500 * time.Millisecond,
		Multiplier: 2,
		MaxDelay:   10 * time.Second,
	}
}

// NotifyRetryPolicy retries report delivery on any failure with a fixed delay.
func NotifyRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 3,
		Delay:    5 * time.Second,
		RetryIf:  func(error) bool { return true },
	}
}

// Retry runs fn until it succeeds, returns a non-retryable error, the
// attempts are exhausted, or ctx is done.
func Retry(ctx context.Context, p RetryPolicy, op string, fn func(context.Context) error) error {
	_, err := RetryValue(ctx, p, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// RetryValue is Retry for calls that return a value.
func RetryValue[T any](ctx context.Context, p RetryPolicy, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	retryIf := p.RetryIf
	if retryIf == nil {
		retryIf = domain.IsRetryable
	}

	delay := p.Delay
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !retryIf(err) || attempt == attempts {
			break
		}

		logger.Debug("%s: attempt %d/%d failed: %v", op, attempt, attempts, err)

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		if p.Multiplier > 1 {
			delay = time.Duration(float64(delay) * p.Multiplier)
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}
	}

	if attempts > 1 && retryIf(lastErr) {
		return zero, fmt.Errorf("%s: giving up after %d attempts: %w", op, attempts, lastErr)
	}
	return zero, lastErr
}
