package llm

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy bounds how often a failed model request is reissued before the
// error surfaces to the caller.
type RetryPolicy struct {
	MaxRetries int           // attempts after the first call
	BaseDelay  time.Duration // delay before the first retry
	MaxDelay   time.Duration // ceiling for backoff and Retry-After
	Multiplier float64       // backoff growth per attempt
	Jitter     bool          // randomize each delay by +/- 50%
	OnRetry    func(err error, attempt int, delay time.Duration)
}

// DefaultRetryPolicy returns the policy used when a client is built without one.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		BaseDelay:  time.Second,
		MaxDelay:   time.Minute,
		Multiplier: 2.0,
		Jitter:     true,
	}
}

// Delay returns the backoff delay preceding retry attempt n (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1)))
	if d > p.MaxDelay || d < 0 {
		d = p.MaxDelay
	}
	if p.Jitter {
		d = time.Duration(float64(d) * (0.5 + rand.Float64()))
	}
	return d
}

// Retry runs fn, reissuing it on retryable errors until the policy's attempt
// budget is spent. A rate limit carrying Retry-After replaces the computed
// backoff; a Retry-After beyond MaxDelay surfaces the error at once rather
// than stalling the conversation. Cancellation while waiting between attempts
// returns an AbortError.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if attempt >= policy.MaxRetries || !IsRetryable(err) {
			return zero, err
		}

		delay := policy.Delay(attempt + 1)
		if requested, ok := retryAfter(err); ok {
			if requested > policy.MaxDelay {
				return zero, err
			}
			delay = requested
		}

		if policy.OnRetry != nil {
			policy.OnRetry(err, attempt+1, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, &AbortError{APIError: APIError{Message: "request cancelled during retry", Cause: ctx.Err()}}
		case <-timer.C:
		}
	}
}

// retryAfter extracts the provider-requested delay, if the error carries one.
func retryAfter(err error) (time.Duration, bool) {
	rl, ok := err.(*RateLimitError)
	if !ok || rl.RetryAfter == nil {
		return 0, false
	}
	return time.Duration(*rl.RetryAfter * float64(time.Second)), true
}
