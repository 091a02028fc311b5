package services

import (
	"math/rand"
	"sync"
	"time"

	"jobpilot/config"
)

// Throttle paces outgoing automation per target from configured
// requests-per-minute limits. The first call per target passes immediately;
// later calls sleep whatever remains of the interval since the previous one,
// plus a small jitter.
type Throttle struct {
	limits config.RateLimits

	mu   sync.Mutex
	last map[string]time.Time

	now    func() time.Time
	sleep  func(time.Duration)
	jitter func() time.Duration
}

// NewThrottle builds a throttle over the configured limits.
func NewThrottle(limits config.RateLimits) *Throttle {
	return &Throttle{
		limits: limits,
		last:   make(map[string]time.Time),
		now:    time.Now,
		sleep:  time.Sleep,
		jitter: func() time.Duration {
			return time.Duration(rand.Intn(120)) * time.Millisecond
		},
	}
}

// Interval computes the pacing interval for a target:
// ceil(60000ms / requests-per-minute).
func (t *Throttle) Interval(target string) time.Duration {
	limit := t.limits.LimitFor(target)
	intervalMs := (60000 + limit - 1) / limit
	return time.Duration(intervalMs) * time.Millisecond
}

// Wait blocks until a full interval has passed since the target's previous
// call, then records this one. Recording happens at the projected release
// time so queued callers pace off each other, not off the queue head.
func (t *Throttle) Wait(target string) {
	interval := t.Interval(target)
	now := t.now()

	t.mu.Lock()
	var wait time.Duration
	if prev, ok := t.last[target]; ok {
		if remaining := interval - now.Sub(prev); remaining > 0 {
			wait = remaining
		}
	}
	t.last[target] = now.Add(wait)
	t.mu.Unlock()

	if wait > 0 {
		t.sleep(wait + t.jitter())
	}
}

// LastCall reports when the target last passed through the throttle.
func (t *Throttle) LastCall(target string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	at, ok := t.last[target]
	return at, ok
}
