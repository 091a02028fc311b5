package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobpilot/config"
	"jobpilot/models"
)

// fakeClock advances only when the detector sleeps.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(d time.Duration) { c.t = c.t.Add(d) }

// timedProbe reports the .gen indicator visible until a cutoff on the fake
// clock, and the stop control until its own cutoff.
type timedProbe struct {
	clock     *fakeClock
	genUntil  time.Time
	stopUntil time.Time
}

func (p *timedProbe) Count(selector string) int {
	if p.IsVisible(selector) {
		return 1
	}
	return 0
}

func (p *timedProbe) IsVisible(selector string) bool {
	switch selector {
	case ".gen":
		return p.clock.t.Before(p.genUntil)
	case ".stop":
		return p.clock.t.Before(p.stopUntil)
	}
	return false
}

func detectorProfile() SiteProfile {
	return SiteProfile{
		TargetID: "chatgpt",
		BaseURL:  "https://chat.openai.com",
		Catalog: SelectorCatalog{
			RoleGenerating:  {".gen"},
			RoleStopButton:  {".stop"},
			RolePromptInput: {".prompt"},
		},
		AntiStall: config.AntiStallConfig{Scroll: true, Refocus: true, Jitter: true},
	}
}

func newTestDetector(clock *fakeClock, probe DOMProbe, timeout time.Duration) *CompletionDetector {
	nudges := 0
	d := &CompletionDetector{
		probe:   probe,
		profile: detectorProfile(),
		timeout: timeout,
		now:     clock.now,
		sleep:   clock.sleep,
	}
	d.nudge = func() { nudges++ }
	return d
}

func TestAwaitCompletion_CompletesWhenIndicatorsClear(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	probe := &timedProbe{
		clock:    clock,
		genUntil: clock.t.Add(3 * time.Second),
	}
	d := newTestDetector(clock, probe, 30*time.Second)

	result, err := d.AwaitCompletion()

	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Contains(t, result.HeuristicsObserved, "generating")
	assert.Greater(t, result.ElapsedMs, int64(0))
}

func TestAwaitCompletion_StopControlDelaysCompletion(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	probe := &timedProbe{
		clock:     clock,
		genUntil:  clock.t.Add(1 * time.Second),
		stopUntil: clock.t.Add(5 * time.Second),
	}
	d := newTestDetector(clock, probe, 30*time.Second)

	result, err := d.AwaitCompletion()

	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Contains(t, result.HeuristicsObserved, "stop-control")
	// Completion must not be reported while the stop control was visible.
	assert.GreaterOrEqual(t, result.ElapsedMs, int64(5000))
}

func TestAwaitCompletion_TimesOutWhileActive(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	probe := &timedProbe{
		clock:    clock,
		genUntil: clock.t.Add(time.Hour),
	}
	d := newTestDetector(clock, probe, 10*time.Second)

	result, err := d.AwaitCompletion()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chatgpt")
	assert.False(t, result.Completed)
}

func TestAwaitCompletion_NudgesOnStall(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	probe := &timedProbe{
		clock:    clock,
		genUntil: clock.t.Add(time.Hour), // frozen active state
	}
	d := newTestDetector(clock, probe, 40*time.Second)
	nudges := 0
	d.nudge = func() { nudges++ }

	_, err := d.AwaitCompletion()

	require.Error(t, err)
	assert.GreaterOrEqual(t, nudges, 1)
}

func TestHandleErrors_PriorityOrder(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}

	d := newTestDetector(clock, fakeProbe{
		counts:  map[string]int{},
		visible: map[string]bool{},
	}, time.Second)

	// Off-origin redirect wins over everything else.
	d.currentURL = func() string { return "https://auth.example.com/login" }
	state := d.HandleErrors()
	assert.False(t, state.Recovered)
	assert.True(t, state.RequiresUser)
	assert.Equal(t, models.ReasonRedirected, state.Reason)
}

func TestHandleErrors_LoginWall(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	probe := fakeProbe{
		counts:  map[string]int{"a[href*='login']": 1},
		visible: map[string]bool{"a[href*='login']": true},
	}

	d := &CompletionDetector{
		probe:   probe,
		profile: SiteProfile{TargetID: "linkedin", BaseURL: "https://www.linkedin.com", Catalog: baseCatalog()},
		timeout: time.Second,
		now:     clock.now,
		sleep:   clock.sleep,
	}
	d.currentURL = func() string { return "https://www.linkedin.com/jobs/view/1" }

	state := d.HandleErrors()
	assert.Equal(t, models.ReasonLoginRequired, state.Reason)
	assert.True(t, state.RequiresUser)
}

func TestHandleErrors_CleanPage(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	d := &CompletionDetector{
		probe:   fakeProbe{counts: map[string]int{}, visible: map[string]bool{}},
		profile: SiteProfile{TargetID: "indeed", BaseURL: "https://www.indeed.com", Catalog: baseCatalog()},
		timeout: time.Second,
		now:     clock.now,
		sleep:   clock.sleep,
	}
	d.currentURL = func() string { return "https://tr.indeed.com/jobs?q=go" }

	state := d.HandleErrors()
	assert.True(t, state.Recovered)
	assert.Equal(t, models.ReasonNone, state.Reason)
}

func TestUnderOrigin(t *testing.T) {
	assert.True(t, underOrigin("https://www.linkedin.com/jobs", "https://www.linkedin.com"))
	assert.True(t, underOrigin("https://tr.indeed.com/jobs", "https://www.indeed.com"))
	assert.False(t, underOrigin("https://evil.com/linkedin.com", "https://www.linkedin.com"))
	assert.False(t, underOrigin("not a url://", "https://www.linkedin.com"))
}
