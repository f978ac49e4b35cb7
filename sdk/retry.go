package sdk

import (
	"context"
	"math"
	"time"
)

// RetryStrategy decides whether a failed call is attempted again and how
// long to wait first. Retry only consults a strategy for retryable errors
// (typed *Error values that are not validation failures).
//
// The SDK provides three built-in strategies:
//   - ExponentialBackoff: Unit * Base^i between attempts
//   - ConstantBackoff: Fixed delay between attempts
//   - NoRetry: Disables retries entirely
//
// You can also implement custom strategies:
//
//	type OnlyRateLimits struct{}
//
//	func (OnlyRateLimits) NextInterval(attempt int) time.Duration {
//	    return time.Duration(attempt) * 5 * time.Second
//	}
//
//	func (OnlyRateLimits) ShouldRetry(err error, attempt int) bool {
//	    return errors.Is(err, sdk.ErrRateLimited) && attempt < 4
//	}
type RetryStrategy interface {
	// NextInterval returns the delay before retry number attempt.
	// The attempt parameter starts at 1 for the first retry.
	NextInterval(attempt int) time.Duration

	// ShouldRetry reports whether another attempt is allowed after err.
	// attempt is the number of attempts made so far, starting at 1.
	ShouldRetry(err error, attempt int) bool
}

// ExponentialBackoff waits Unit * Base^i before attempt i+2, where i is the
// zero-based index of the failed attempt. With the defaults the waits are
// 1s and 2s, and the call is made at most 3 times.
//
// Example:
//
//	resp, err := sdk.Retry(ctx, sdk.ExponentialBackoff{MaxAttempts: 5, Base: 2, Unit: 500 * time.Millisecond},
//	    func(ctx context.Context) (sdk.Response, error) {
//	        return client.GetTaskStatus(ctx, taskID)
//	    })
type ExponentialBackoff struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int
	// Base is the growth factor.
	Base float64
	// Unit is the first delay.
	Unit time.Duration
}

// DefaultExponentialBackoff returns 3 attempts, base 2, unit 1s.
func DefaultExponentialBackoff() ExponentialBackoff {
	return ExponentialBackoff{MaxAttempts: 3, Base: 2, Unit: time.Second}
}

// NextInterval calculates the delay before retry number attempt
func (s ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return time.Duration(float64(s.Unit) * math.Pow(s.Base, float64(attempt-1)))
}

// ShouldRetry allows another attempt while attempts remain
func (s ExponentialBackoff) ShouldRetry(err error, attempt int) bool {
	return attempt < s.MaxAttempts
}

// ConstantBackoff waits the same Interval between attempts.
type ConstantBackoff struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int
	// Interval is the fixed delay.
	Interval time.Duration
}

// NextInterval returns the fixed interval
func (s ConstantBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return s.Interval
}

// ShouldRetry allows another attempt while attempts remain
func (s ConstantBackoff) ShouldRetry(err error, attempt int) bool {
	return attempt < s.MaxAttempts
}

// NoRetry disables retries entirely.
type NoRetry struct{}

// NextInterval always returns 0
func (NoRetry) NextInterval(attempt int) time.Duration { return 0 }

// ShouldRetry always returns false
func (NoRetry) ShouldRetry(err error, attempt int) bool { return false }

// RetryOption configures a single Retry or RetryAsync call.
type RetryOption func(*retryOptions)

type retryOptions struct {
	observer Observer
	label    string
}

// WithRetryObserver reports every scheduled retry to observer under label.
func WithRetryObserver(observer Observer, label string) RetryOption {
	return func(o *retryOptions) {
		o.observer = observer
		o.label = label
	}
}

// Retry calls fn until it succeeds, returns a non-retryable error, or the
// strategy gives up. It blocks the calling goroutine while waiting.
//
// Only *Error values other than validation failures are retried. Any other
// error is returned immediately and untouched. When attempts run out the
// error of the last attempt is returned unchanged. If ctx is cancelled
// during a wait, ctx.Err() is returned.
//
// A nil strategy means DefaultExponentialBackoff.
//
// Example:
//
//	languages, err := sdk.Retry(ctx, nil, func(ctx context.Context) (sdk.Response, error) {
//	    return client.ListLanguages(ctx)
//	})
func Retry[T any](ctx context.Context, strategy RetryStrategy, fn func(context.Context) (T, error), opts ...RetryOption) (T, error) {
	if strategy == nil {
		strategy = DefaultExponentialBackoff()
	}
	var o retryOptions
	for _, opt := range opts {
		opt(&o)
	}

	for attempt := 1; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) || !strategy.ShouldRetry(err, attempt) {
			return result, err
		}

		interval := strategy.NextInterval(attempt)
		if o.observer != nil {
			o.observer.OnRetryAttempt(o.label, attempt, interval, err)
		}

		if interval <= 0 {
			if ctx.Err() != nil {
				var zero T
				return zero, ctx.Err()
			}
			continue
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			var zero T
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// RetryAsync is the non-blocking form of Retry. It returns immediately and
// runs the attempts, including the waits, on a new goroutine.
//
// Example:
//
//	future := sdk.RetryAsync(ctx, nil, func(ctx context.Context) (sdk.Response, error) {
//	    return asyncClient.ListLanguages(ctx).Await(ctx)
//	})
//	languages, err := future.Await(ctx)
func RetryAsync[T any](ctx context.Context, strategy RetryStrategy, fn func(context.Context) (T, error), opts ...RetryOption) *Future[T] {
	return Go(ctx, func(ctx context.Context) (T, error) {
		return Retry(ctx, strategy, fn, opts...)
	})
}
