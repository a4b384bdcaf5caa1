package account

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Strategy yields the wait before each retry
type Strategy interface {
	Next() (time.Duration, bool)
	Reset()
}

// FixedStrategy waits for a fixed duration between attempts
type FixedStrategy struct {
	duration time.Duration
}

// NewFixedStrategy creates a new fixed wait strategy
func NewFixedStrategy(duration time.Duration) *FixedStrategy {
	return &FixedStrategy{duration: duration}
}

func (s *FixedStrategy) Next() (time.Duration, bool) {
	return s.duration, true
}

func (s *FixedStrategy) Reset() {}

// BackoffStrategy implements exponential backoff with optional jitter
type BackoffStrategy struct {
	initial    time.Duration
	multiplier float64
	max        time.Duration
	jitter     bool
	attempt    int
}

// NewBackoffStrategy creates a new exponential backoff strategy
func NewBackoffStrategy(initial time.Duration, multiplier float64, max time.Duration, jitter bool) *BackoffStrategy {
	return &BackoffStrategy{
		initial:    initial,
		multiplier: multiplier,
		max:        max,
		jitter:     jitter,
	}
}

func (s *BackoffStrategy) Next() (time.Duration, bool) {
	duration := time.Duration(float64(s.initial) * math.Pow(s.multiplier, float64(s.attempt)))
	if s.max > 0 && duration > s.max {
		duration = s.max
	}

	if s.jitter {
		// ±25% of duration
		jitterRange := float64(duration) * 0.25
		duration = time.Duration(float64(duration) + (rand.Float64()-0.5)*2*jitterRange)
		if duration < 0 {
			duration = 0
		}
	}

	s.attempt++
	return duration, true
}

func (s *BackoffStrategy) Reset() {
	s.attempt = 0
}

// RetryPolicy bounds how often a whole handshake is repeated
type RetryPolicy struct {
	Attempts int // total attempts, values below 1 mean one
	Strategy Strategy
}

// DefaultRetryPolicy makes three attempts with exponential backoff
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 3,
		Strategy: NewBackoffStrategy(500*time.Millisecond, 2, 5*time.Second, true),
	}
}

// Retry runs fn until it returns a result whose kind is not retryable, the
// attempts are used up, or ctx ends. fn must open a fresh connection on every
// call. The last result is returned.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) Result) Result {
	if policy.Strategy == nil {
		policy.Strategy = DefaultRetryPolicy().Strategy
	}
	policy.Strategy.Reset()

	var res Result
	for attempt := 1; ; attempt++ {
		res = fn(ctx)
		if !res.Kind.Retryable() || attempt >= policy.Attempts {
			return res
		}

		wait, ok := policy.Strategy.Next()
		if !ok {
			return res
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return res
		case <-timer.C:
		}
	}
}
