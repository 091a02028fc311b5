package services

import "github.com/playwright-community/playwright-go"

// DOMProbe is the narrow page view the resolver needs: element counting and
// visibility. Both report a zero value on any evaluation error so no failure
// escapes this layer.
type DOMProbe interface {
	Count(selector string) int
	IsVisible(selector string) bool
}

type pageProbe struct {
	page playwright.Page
}

// NewPageProbe wraps a live page as a DOMProbe.
func NewPageProbe(page playwright.Page) DOMProbe {
	return pageProbe{page: page}
}

func (p pageProbe) Count(selector string) int {
	if p.page == nil {
		return 0
	}
	count, err := p.page.Locator(selector).Count()
	if err != nil {
		return 0
	}
	return count
}

func (p pageProbe) IsVisible(selector string) bool {
	if p.page == nil {
		return false
	}
	visible, err := p.page.Locator(selector).First().IsVisible()
	if err != nil {
		return false
	}
	return visible
}

// ResolveSelector returns the first candidate with at least one matching
// element, in declaration order. Existence governs here, not visibility.
// No retries at this layer; retries belong to callers.
func ResolveSelector(probe DOMProbe, candidates []string) (string, bool) {
	if probe == nil {
		return "", false
	}
	for _, candidate := range candidates {
		if probe.Count(candidate) > 0 {
			return candidate, true
		}
	}
	return "", false
}

// Resolve is ResolveSelector against a live page, returning a Locator for the
// winning candidate, or nil when none exists.
func Resolve(page playwright.Page, candidates []string) playwright.Locator {
	if page == nil {
		return nil
	}
	selector, ok := ResolveSelector(NewPageProbe(page), candidates)
	if !ok {
		return nil
	}
	return page.Locator(selector)
}

// FirstVisibleSelector returns the first candidate that exists and reports
// itself visible. Transient evaluation errors count as "not visible".
func FirstVisibleSelector(probe DOMProbe, candidates []string) (string, bool) {
	if probe == nil {
		return "", false
	}
	for _, candidate := range candidates {
		if probe.Count(candidate) > 0 && probe.IsVisible(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// FirstVisible resolves the first visible candidate on a live page.
func FirstVisible(page playwright.Page, candidates []string) playwright.Locator {
	if page == nil {
		return nil
	}
	selector, ok := FirstVisibleSelector(NewPageProbe(page), candidates)
	if !ok {
		return nil
	}
	return page.Locator(selector).First()
}

// IsAnyVisible reports whether any candidate is currently visible.
func IsAnyVisible(probe DOMProbe, candidates []string) bool {
	_, ok := FirstVisibleSelector(probe, candidates)
	return ok
}
