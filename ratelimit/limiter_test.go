package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterBoundsConcurrency(t *testing.T) {
	l := NewLimiter(2, 0)

	var inFlight, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Execute(context.Background(), func(ctx context.Context) error {
				cur := atomic.AddInt32(&inFlight, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestLimiterEnforcesSpacing(t *testing.T) {
	l := NewLimiter(4, 50*time.Millisecond)

	var mu sync.Mutex
	var times []time.Time
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Execute(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				times = append(times, time.Now())
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	require.Len(t, times, 3)
	mu.Lock()
	defer mu.Unlock()
	for i := 0; i < len(times); i++ {
		for j := i + 1; j < len(times); j++ {
			gap := times[j].Sub(times[i])
			if gap < 0 {
				gap = -gap
			}
			assert.GreaterOrEqual(t, gap, 40*time.Millisecond,
				"dispatches %d and %d too close", i, j)
		}
	}
}

func TestLimiterPassesErrorsThrough(t *testing.T) {
	l := NewLimiter(1, 0)
	sentinel := errors.New("upstream broke")

	err := l.Execute(context.Background(), func(ctx context.Context) error {
		return sentinel
	})

	assert.Same(t, sentinel, err)
}

func TestLimiterRespectsContextWhileQueued(t *testing.T) {
	l := NewLimiter(1, 0)

	release := make(chan struct{})
	go func() {
		_ = l.Execute(context.Background(), func(ctx context.Context) error {
			<-release
			return nil
		})
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Execute(ctx, func(ctx context.Context) error { return nil })
	close(release)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryReturnsFinalErrorUnchanged(t *testing.T) {
	final := errors.New("still broken")
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		return final
	})

	assert.Same(t, final, err)
	assert.Equal(t, 3, calls)
}

func TestRetryBacksOffExponentially(t *testing.T) {
	start := time.Now()
	_ = Retry(context.Background(), 3, 20*time.Millisecond, func(ctx context.Context) error {
		return errors.New("nope")
	})
	elapsed := time.Since(start)

	// delays: 20ms + 40ms
	assert.GreaterOrEqual(t, elapsed, 55*time.Millisecond)
}
