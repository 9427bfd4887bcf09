package client

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy produces a fresh backoff schedule for one logical operation.
// Schedules are stateful, so each retried operation needs its own; the
// executor calls the policy once per request and walks the returned schedule
// until it yields backoff.Stop.
type RetryPolicy func() backoff.BackOff

// ExponentialRetry returns a jittered exponential policy bounded by
// maxAttempts retries after the initial attempt.
func ExponentialRetry(initial, max time.Duration, maxAttempts uint64) RetryPolicy {
	return func() backoff.BackOff {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = initial
		bo.MaxInterval = max
		bo.MaxElapsedTime = 0
		return backoff.WithMaxRetries(bo, maxAttempts)
	}
}

// ConstantRetry returns a fixed-delay policy bounded by maxAttempts retries.
func ConstantRetry(delay time.Duration, maxAttempts uint64) RetryPolicy {
	return func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), maxAttempts)
	}
}

// NoRetry returns a policy that always gives up after the first attempt.
func NoRetry() RetryPolicy {
	return func() backoff.BackOff {
		return &backoff.StopBackOff{}
	}
}

// DefaultRetryPolicy retries up to three times with jittered exponential
// delays between 500ms and 10s.
func DefaultRetryPolicy() RetryPolicy {
	return ExponentialRetry(500*time.Millisecond, 10*time.Second, 3)
}
