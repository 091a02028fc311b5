package services

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"jobpilot/models"
)

const (
	settleDelay  = 600 * time.Millisecond
	pollInterval = 750 * time.Millisecond
	stallAfter   = 15 * time.Second
)

// CompletionDetector answers "has the other side finished responding" for a
// UI that exposes no event to subscribe to: it polls activity indicators,
// nudges the session when the DOM stops changing, and times out with debug
// artifacts when the indicators never clear.
type CompletionDetector struct {
	page      playwright.Page
	probe     DOMProbe
	profile   SiteProfile
	artifacts *ArtifactService
	timeout   time.Duration

	// injectable for tests
	now        func() time.Time
	sleep      func(time.Duration)
	nudge      func()
	currentURL func() string
}

// NewCompletionDetector builds a detector bound to one page of one target.
func NewCompletionDetector(page playwright.Page, profile SiteProfile, artifacts *ArtifactService, timeout time.Duration) *CompletionDetector {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	d := &CompletionDetector{
		page:      page,
		probe:     NewPageProbe(page),
		profile:   profile,
		artifacts: artifacts,
		timeout:   timeout,
		now:       time.Now,
		sleep:     time.Sleep,
	}
	d.nudge = d.antiStallNudge
	d.currentURL = func() string {
		if page == nil {
			return ""
		}
		return page.URL()
	}
	return d
}

// activityGroups pairs indicator group names with their candidates. The
// target's extra stall heuristics join as their own group.
func (d *CompletionDetector) activityGroups() []struct {
	name       string
	candidates []string
} {
	groups := []struct {
		name       string
		candidates []string
	}{
		{"generating", d.profile.Catalog.Role(RoleGenerating)},
		{"typing", d.profile.Catalog.Role(RoleTyping)},
		{"spinner", d.profile.Catalog.Role(RoleSpinner)},
	}
	if len(d.profile.AdditionalStallIndicators) > 0 {
		groups = append(groups, struct {
			name       string
			candidates []string
		}{"custom", d.profile.AdditionalStallIndicators})
	}
	return groups
}

// activeFingerprint scans the indicator groups and returns whether anything
// is active plus a fingerprint of the observed state, used to detect stalls.
func (d *CompletionDetector) activeFingerprint(observed map[string]bool) (bool, string) {
	var fp strings.Builder
	active := false
	for _, group := range d.activityGroups() {
		visible := IsAnyVisible(d.probe, group.candidates)
		if visible {
			active = true
			observed[group.name] = true
		}
		fmt.Fprintf(&fp, "%s=%t;", group.name, visible)
	}
	fmt.Fprintf(&fp, "responses=%d", d.probe.Count(firstOr(d.profile.Catalog.Role(RoleResponseBlocks), "body")))
	return active, fp.String()
}

func (d *CompletionDetector) stopControlVisible() bool {
	return IsAnyVisible(d.probe, d.profile.Catalog.Role(RoleStopButton))
}

// AwaitCompletion polls until every activity indicator has been absent for a
// full settle cycle, nudging the page whenever the observed state freezes
// for more than 15s. Timing out is the one failure this detector propagates;
// callers should surface it, not crash on it.
func (d *CompletionDetector) AwaitCompletion() (models.CompletionResult, error) {
	start := d.now()
	observed := map[string]bool{}

	lastChange := start
	lastFingerprint := ""

	for d.now().Sub(start) < d.timeout {
		active, fingerprint := d.activeFingerprint(observed)

		if !active {
			// Settle, then re-check the stop control: a visible stop/cancel
			// button means generation is still in flight even with every
			// other indicator gone.
			d.sleep(settleDelay)
			stillActive, _ := d.activeFingerprint(observed)
			if !d.stopControlVisible() && !stillActive {
				return models.CompletionResult{
					Completed:          true,
					HeuristicsObserved: sortedKeys(observed),
					ElapsedMs:          d.now().Sub(start).Milliseconds(),
				}, nil
			}
			observed["stop-control"] = true
		}

		if fingerprint != lastFingerprint {
			lastFingerprint = fingerprint
			lastChange = d.now()
		} else if d.now().Sub(lastChange) > stallAfter {
			observed["stall-nudge"] = true
			d.nudge()
			lastChange = d.now()
		}

		d.sleep(pollInterval)
	}

	if d.artifacts != nil {
		d.artifacts.Capture(d.page, d.profile.TargetID+"-completion-timeout")
	}
	return models.CompletionResult{
		Completed:          false,
		HeuristicsObserved: sortedKeys(observed),
		ElapsedMs:          d.now().Sub(start).Milliseconds(),
	}, fmt.Errorf("completion polling timed out after %s on %s", d.timeout, d.profile.TargetID)
}

// antiStallNudge pokes the page just enough to keep the session from going
// idle: a small scroll, a refocus click on the primary input, a mouse
// wiggle. Each is independently toggled by the profile's anti-stall config.
func (d *CompletionDetector) antiStallNudge() {
	if d.page == nil {
		return
	}
	if d.profile.AntiStall.Scroll {
		ScrollPage(d.page)
	}
	if d.profile.AntiStall.Refocus {
		if input := FirstVisible(d.page, d.profile.Catalog.Role(RolePromptInput)); input != nil {
			_ = input.Click()
		}
	}
	if d.profile.AntiStall.Jitter {
		MouseJitter(d.page)
	}
}

// HandleErrors scans for blocking external states in priority order:
// off-origin redirect, login wall, CAPTCHA, anti-bot challenge. Runs
// independently of completion polling. Non-recovered states capture debug
// artifacts; callers must surface RequiresUser states to the operator
// instead of retrying.
func (d *CompletionDetector) HandleErrors() models.ErrorState {
	pageURL := ""
	if d.currentURL != nil {
		pageURL = d.currentURL()
	}
	if pageURL == "" {
		return models.ErrorState{Recovered: true, Reason: models.ReasonNone}
	}

	if !underOrigin(pageURL, d.profile.BaseURL) {
		d.captureBlocked("redirected")
		return models.ErrorState{Recovered: false, RequiresUser: true, Reason: models.ReasonRedirected}
	}
	if IsAnyVisible(d.probe, d.profile.Catalog.Role(RoleLogin)) {
		d.captureBlocked("login-required")
		return models.ErrorState{Recovered: false, RequiresUser: true, Reason: models.ReasonLoginRequired}
	}
	if IsAnyVisible(d.probe, d.profile.Catalog.Role(RoleCaptcha)) {
		d.captureBlocked("captcha")
		return models.ErrorState{Recovered: false, RequiresUser: true, Reason: models.ReasonCaptcha}
	}
	if IsAnyVisible(d.probe, d.profile.Catalog.Role(RoleChallenge)) {
		d.captureBlocked("cloudflare")
		return models.ErrorState{Recovered: false, RequiresUser: true, Reason: models.ReasonCloudflare}
	}

	return models.ErrorState{Recovered: true, Reason: models.ReasonNone}
}

func (d *CompletionDetector) captureBlocked(reason string) {
	if d.artifacts != nil {
		d.artifacts.Capture(d.page, d.profile.TargetID+"-"+reason)
	}
}

// underOrigin reports whether pageURL is still served from the target's
// host, treating subdomains of the base host as on-target.
func underOrigin(pageURL, baseURL string) bool {
	page, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return false
	}

	pageHost := strings.TrimPrefix(strings.ToLower(page.Hostname()), "www.")
	baseHost := strings.TrimPrefix(strings.ToLower(base.Hostname()), "www.")
	if pageHost == "" || baseHost == "" {
		return false
	}
	return pageHost == baseHost || strings.HasSuffix(pageHost, "."+baseHost)
}

func firstOr(candidates []string, fallback string) string {
	if len(candidates) > 0 {
		return candidates[0]
	}
	return fallback
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
