package client

import (
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
)

func TestNoRetryStopsImmediately(t *testing.T) {
	bo := NoRetry()()
	assert.Equal(t, backoff.Stop, bo.NextBackOff())
}

func TestConstantRetryBoundedAttempts(t *testing.T) {
	bo := ConstantRetry(10*time.Millisecond, 3)()
	for i := 0; i < 3; i++ {
		assert.Equal(t, 10*time.Millisecond, bo.NextBackOff())
	}
	assert.Equal(t, backoff.Stop, bo.NextBackOff())
}

func TestExponentialRetryBoundedAndJittered(t *testing.T) {
	bo := ExponentialRetry(100*time.Millisecond, time.Second, 10)()
	for i := 0; i < 10; i++ {
		d := bo.NextBackOff()
		assert.NotEqual(t, backoff.Stop, d)
		assert.Greater(t, d, time.Duration(0))
		// Jittered exponential stays within the interval cap plus jitter.
		assert.LessOrEqual(t, d, 1500*time.Millisecond)
	}
	assert.Equal(t, backoff.Stop, bo.NextBackOff())
}

func TestPolicyProducesFreshSchedules(t *testing.T) {
	policy := ConstantRetry(time.Millisecond, 1)
	first := policy()
	second := policy()

	assert.NotEqual(t, backoff.Stop, first.NextBackOff())
	assert.Equal(t, backoff.Stop, first.NextBackOff())
	// A fresh schedule is unaffected by the first one's exhaustion.
	assert.NotEqual(t, backoff.Stop, second.NextBackOff())
}
