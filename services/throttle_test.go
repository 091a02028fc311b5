package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jobpilot/config"
)

func newTestThrottle(limits config.RateLimits) (*Throttle, *[]time.Duration, *time.Time) {
	t := NewThrottle(limits)
	slept := &[]time.Duration{}
	clock := new(time.Time)
	*clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	t.now = func() time.Time { return *clock }
	t.sleep = func(d time.Duration) { *slept = append(*slept, d) }
	t.jitter = func() time.Duration { return 0 }
	return t, slept, clock
}

func TestThrottle_IntervalFromPerTargetLimit(t *testing.T) {
	th, _, _ := newTestThrottle(config.RateLimits{
		Global:    4,
		PerTarget: map[string]int{"linkedin": 2},
	})

	assert.Equal(t, 30*time.Second, th.Interval("linkedin"))
	assert.Equal(t, 15*time.Second, th.Interval("indeed")) // global fallback
}

func TestThrottle_IntervalRoundsUp(t *testing.T) {
	th, _, _ := newTestThrottle(config.RateLimits{Global: 7})

	// ceil(60000/7) = 8572ms
	assert.Equal(t, 8572*time.Millisecond, th.Interval("any"))
}

func TestThrottle_FirstWaitPassesImmediately(t *testing.T) {
	th, slept, _ := newTestThrottle(config.RateLimits{Global: 60})

	th.Wait("chatgpt")

	assert.Empty(t, *slept)
	_, seen := th.LastCall("chatgpt")
	assert.True(t, seen)
	_, seen = th.LastCall("gemini")
	assert.False(t, seen)
}

func TestThrottle_WaitSleepsRemainingInterval(t *testing.T) {
	th, slept, clock := newTestThrottle(config.RateLimits{Global: 60})

	th.Wait("chatgpt")
	*clock = clock.Add(400 * time.Millisecond)
	th.Wait("chatgpt")

	assert.Equal(t, []time.Duration{600 * time.Millisecond}, *slept)
}

func TestThrottle_ElapsedIntervalSkipsSleep(t *testing.T) {
	th, slept, clock := newTestThrottle(config.RateLimits{Global: 60})

	th.Wait("chatgpt")
	*clock = clock.Add(90 * time.Second)
	th.Wait("chatgpt")

	assert.Empty(t, *slept)
}

func TestThrottle_QueuedWaitsPaceOffEachOther(t *testing.T) {
	th, slept, _ := newTestThrottle(config.RateLimits{Global: 60})

	// Three calls with no time passing: the second owes one interval, the
	// third owes two.
	th.Wait("chatgpt")
	th.Wait("chatgpt")
	th.Wait("chatgpt")

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestThrottle_TargetsPaceIndependently(t *testing.T) {
	th, slept, _ := newTestThrottle(config.RateLimits{Global: 60})

	th.Wait("chatgpt")
	th.Wait("gemini")

	assert.Empty(t, *slept)
}
