package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	old := retryBaseDelay
	retryBaseDelay = time.Millisecond
	defer func() { retryBaseDelay = old }()

	calls := 0
	err := WithRetry(func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, 3)

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ReturnsLastError(t *testing.T) {
	old := retryBaseDelay
	retryBaseDelay = time.Millisecond
	defer func() { retryBaseDelay = old }()

	calls := 0
	lastErr := errors.New("still broken")
	err := WithRetry(func() error {
		calls++
		if calls < 3 {
			return errors.New("earlier")
		}
		return lastErr
	}, 3)

	assert.Equal(t, lastErr, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_AtLeastOneAttempt(t *testing.T) {
	calls := 0
	err := WithRetry(func() error {
		calls++
		return nil
	}, 0)

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestHumanDelay_BoundedSleep(t *testing.T) {
	start := time.Now()
	HumanDelay(1, 5)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, time.Millisecond)
	assert.Less(t, elapsed, 200*time.Millisecond)
}
