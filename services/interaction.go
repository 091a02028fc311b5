package services

import (
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Base delay for retry backoff; shortened in tests.
var retryBaseDelay = 500 * time.Millisecond

// HumanDelay sleeps a uniformly sampled duration between min and max
// milliseconds. Used between semantically meaningful actions so interaction
// timing does not look scripted.
func HumanDelay(minMs, maxMs int) {
	if maxMs <= minMs {
		time.Sleep(time.Duration(minMs) * time.Millisecond)
		return
	}
	delta := minMs + rand.Intn(maxMs-minMs)
	time.Sleep(time.Duration(delta) * time.Millisecond)
}

// TypeHuman clicks the locator, clears it, then types character by character
// with a 50-150ms jittered delay per keystroke.
func TypeHuman(locator playwright.Locator, text string) error {
	if err := locator.Click(); err != nil {
		return err
	}
	if err := locator.Clear(); err != nil {
		return err
	}
	for _, r := range text {
		delay := float64(50 + rand.Intn(100))
		if err := locator.PressSequentially(string(r), playwright.LocatorPressSequentiallyOptions{
			Delay: playwright.Float(delay),
		}); err != nil {
			return err
		}
	}
	return nil
}

// ScrollPage wheels the page down a human-ish amount.
func ScrollPage(page playwright.Page) {
	if page == nil {
		return
	}
	_ = page.Mouse().Wheel(0, 400+float64(rand.Intn(200)))
	HumanDelay(200, 750)
}

// MouseJitter moves the pointer a few pixels, enough to register activity.
func MouseJitter(page playwright.Page) {
	if page == nil {
		return
	}
	x := 200 + float64(rand.Intn(400))
	y := 200 + float64(rand.Intn(300))
	_ = page.Mouse().Move(x, y)
	_ = page.Mouse().Move(x+float64(rand.Intn(12)-6), y+float64(rand.Intn(12)-6))
}

// WithRetry runs fn up to attempts times with linearly increasing backoff
// (base * attempt index). The last error is returned after exhaustion; this
// is the only interaction primitive that propagates failure.
func WithRetry(fn func() error, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(retryBaseDelay * time.Duration(i+1))
		}
	}
	return lastErr
}
