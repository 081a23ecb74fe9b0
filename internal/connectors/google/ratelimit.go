package google

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ServiceType identifies a Google API service for rate limiting purposes.
type ServiceType string

const (
	// ServiceDrive is the Google Drive API service.
	ServiceDrive ServiceType = "drive"
	// ServiceDocs is the Google Docs API service.
	ServiceDocs ServiceType = "docs"
	// ServiceSheets is the Google Sheets API service.
	ServiceSheets ServiceType = "sheets"
	// ServiceGmail is the Gmail API service.
	ServiceGmail ServiceType = "gmail"
)

// RateLimitConfig holds rate limiting configuration for a service.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimits provides conservative defaults for each Google service.
// Sheets allows 60 requests per minute per user.
var DefaultRateLimits = map[ServiceType]RateLimitConfig{
	ServiceDrive:  {RequestsPerSecond: 8.0, BurstSize: 10},
	ServiceDocs:   {RequestsPerSecond: 1.0, BurstSize: 3},
	ServiceSheets: {RequestsPerSecond: 1.0, BurstSize: 5},
	ServiceGmail:  {RequestsPerSecond: 2.0, BurstSize: 5},
}

// RateLimiter provides rate limiting for Google API requests.
// It uses a token bucket with a backoff window after a 429.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	service ServiceType
}

// NewRateLimiter creates a new rate limiter for the specified service.
func NewRateLimiter(service ServiceType) *RateLimiter {
	cfg, ok := DefaultRateLimits[service]
	if !ok {
		cfg = RateLimitConfig{RequestsPerSecond: 5.0, BurstSize: 10}
	}
	l := NewRateLimiterWithConfig(cfg)
	l.service = service
	return l
}

// NewRateLimiterWithConfig creates a rate limiter with custom configuration.
func NewRateLimiterWithConfig(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimitError.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError sets a backoff period. Zero or negative means 60s.
func (r *RateLimiter) RecordRateLimitError(retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if retryAfter <= 0 {
		retryAfter = 60 * time.Second
	}
	r.retryAt = time.Now().Add(retryAfter)
}

// Do waits for a slot, runs call and maps its error with WrapError.
// A rate-limited response starts a backoff window for later calls.
func (r *RateLimiter) Do(ctx context.Context, call func() error) error {
	if err := r.Wait(ctx); err != nil {
		return err
	}
	err := call()
	if err == nil {
		return nil
	}
	if IsRateLimited(err) {
		r.RecordRateLimitError(0)
	}
	return WrapError(err)
}
