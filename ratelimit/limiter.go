package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter bounds the number of concurrently in-flight operations and
// enforces a minimum interval between dispatches. It shapes timing only;
// errors from operations pass through untouched.
type Limiter struct {
	sem     chan struct{}
	spacing *rate.Limiter
}

// NewLimiter creates a limiter allowing at most maxConcurrent operations in
// flight, with at least minInterval between two dispatches.
func NewLimiter(maxConcurrent int, minInterval time.Duration) *Limiter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	var spacing *rate.Limiter
	if minInterval > 0 {
		spacing = rate.NewLimiter(rate.Every(minInterval), 1)
	} else {
		spacing = rate.NewLimiter(rate.Inf, 1)
	}
	return &Limiter{
		sem:     make(chan struct{}, maxConcurrent),
		spacing: spacing,
	}
}

// Execute runs op once a concurrency slot is free and the spacing interval
// since the previous dispatch has elapsed.
func (l *Limiter) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.sem }()

	if err := l.spacing.Wait(ctx); err != nil {
		return err
	}
	return op(ctx)
}

// Retry re-invokes op up to attempts times, sleeping baseDelay*2^n between
// tries. The final failure is returned unchanged.
func Retry(ctx context.Context, attempts int, baseDelay time.Duration, op func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		delay := baseDelay << uint(i)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
