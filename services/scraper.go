package services

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/playwright-community/playwright-go"

	"jobpilot/dataset"
	"jobpilot/models"
	"jobpilot/utils"
)

const maxCardsPerSearch = 25

// DiscoverySource tells the caller whether results came from the live site
// or the bundled dataset.
type DiscoverySource string

const (
	SourceLive     DiscoverySource = "live"
	SourceFallback DiscoverySource = "fallback"
)

// SearchResult is the outcome of one target's discovery pass. Reason is set
// only on fallback and names what pushed us off the live path.
type SearchResult struct {
	Target string              `json:"target"`
	Source DiscoverySource     `json:"source"`
	Reason string              `json:"reason,omitempty"`
	Jobs   []models.JobPosting `json:"jobs"`
}

// ApplyResult is the outcome of one apply flow against a posting.
type ApplyResult struct {
	Submitted   bool                `json:"submitted"`
	Steps       []string            `json:"steps"`
	FieldErrors []models.FieldError `json:"field_errors,omitempty"`
	Evidence    models.ArtifactRef  `json:"evidence"`
}

// SiteScraper drives one job board: search its listings and walk its apply
// forms. Every board shares the same flow; per-board differences live in
// the SiteProfile's selector catalog.
type SiteScraper struct {
	profile   SiteProfile
	sessions  *SessionManager
	throttle  *Throttle
	artifacts *ArtifactService
	logger    *utils.Logger
}

// NewSiteScraper binds a scraper to one board profile.
func NewSiteScraper(profile SiteProfile, sessions *SessionManager, throttle *Throttle, artifacts *ArtifactService, logger *utils.Logger) *SiteScraper {
	if logger == nil {
		logger = utils.GlobalLogger
	}
	return &SiteScraper{
		profile:   profile,
		sessions:  sessions,
		throttle:  throttle,
		artifacts: artifacts,
		logger:    logger.WithTarget(profile.TargetID),
	}
}

// Target names the board this scraper drives.
func (s *SiteScraper) Target() string { return s.profile.TargetID }

func (s *SiteScraper) searchURL(filters dataset.Filters) string {
	terms := strings.Fields(strings.ReplaceAll(filters.Keywords, ",", " "))
	keywords := url.QueryEscape(strings.Join(terms, " "))
	path := strings.ReplaceAll(s.profile.SearchPath, "{keywords}", keywords)
	return s.profile.BaseURL + path
}

// SearchJobs scrapes the board's result cards for postings matching the
// filters. Whenever the live site cannot be read - browser disabled, login
// wall, no recognizable cards - it degrades to the bundled dataset and says
// so in the result.
func (s *SiteScraper) SearchJobs(filters dataset.Filters) SearchResult {
	result := SearchResult{Target: s.profile.TargetID, Source: SourceLive}

	s.throttle.Wait(s.profile.TargetID)

	page := s.sessions.NewPage(s.searchURL(filters))
	if page == nil {
		return s.fallback(filters, "browser session unavailable")
	}

	detector := NewCompletionDetector(page, s.profile, s.artifacts, 0)
	if state := detector.HandleErrors(); state.RequiresUser {
		return s.fallback(filters, fmt.Sprintf("blocked: %s", state.Reason))
	}

	ScrollPage(page)

	cards := Resolve(page, s.profile.Catalog.Role(RoleJobCards))
	if cards == nil {
		return s.fallback(filters, "no job cards found")
	}
	count, err := cards.Count()
	if err != nil || count == 0 {
		return s.fallback(filters, "no job cards found")
	}
	if count > maxCardsPerSearch {
		count = maxCardsPerSearch
	}

	extracted := make([]models.JobPosting, 0, count)
	for i := 0; i < count; i++ {
		job, ok := s.extractCard(cards.Nth(i))
		if !ok {
			continue
		}
		extracted = append(extracted, job)
	}

	result = s.liveOutcome(extracted, filters)
	s.logger.Info("live search complete", map[string]any{"matches": len(result.Jobs), "cards": count})
	return result
}

// liveOutcome filters extracted postings into a live result. An empty match
// set is still a live outcome: the board answered, nothing fit. Fallback is
// reserved for the board being unreachable or unreadable.
func (s *SiteScraper) liveOutcome(jobs []models.JobPosting, filters dataset.Filters) SearchResult {
	result := SearchResult{Target: s.profile.TargetID, Source: SourceLive, Jobs: []models.JobPosting{}}
	for _, job := range jobs {
		if dataset.Matches(job, filters) {
			result.Jobs = append(result.Jobs, job)
		}
	}
	return result
}

func (s *SiteScraper) fallback(filters dataset.Filters, reason string) SearchResult {
	s.logger.Warn("falling back to bundled dataset", map[string]any{"reason": reason})
	return SearchResult{
		Target: s.profile.TargetID,
		Source: SourceFallback,
		Reason: reason,
		Jobs:   dataset.LoadJobsForSource(s.profile.TargetID, filters),
	}
}

func (s *SiteScraper) extractCard(card playwright.Locator) (models.JobPosting, bool) {
	title := textWithin(card, s.profile.Catalog.Role(RoleJobTitle))
	if title == "" {
		return models.JobPosting{}, false
	}

	job := models.JobPosting{
		Source:      s.profile.TargetID,
		Title:       title,
		Company:     textWithin(card, s.profile.Catalog.Role(RoleJobCompany)),
		Location:    textWithin(card, s.profile.Catalog.Role(RoleJobLocation)),
		ApplyMethod: "form",
	}

	for _, sel := range s.profile.Catalog.Role(RoleJobLink) {
		link := card.Locator(sel).First()
		if n, err := card.Locator(sel).Count(); err != nil || n == 0 {
			continue
		}
		if href, err := link.GetAttribute("href"); err == nil && href != "" {
			job.URL = absoluteURL(s.profile.BaseURL, href)
			break
		}
	}

	job.ID = livePostingID(s.profile.TargetID, job)
	return job, true
}

// livePostingID derives a stable id from the posting's own identity, so the
// same listing keeps one id across searches and two different listings never
// share one. The card's position in the result list is not identity.
func livePostingID(target string, job models.JobPosting) string {
	basis := job.URL
	if basis == "" {
		basis = job.Title + "|" + job.Company + "|" + job.Location
	}
	sum := md5.Sum([]byte(basis))
	return fmt.Sprintf("%s-live-%s", target, hex.EncodeToString(sum[:6]))
}

func textWithin(card playwright.Locator, selectors []string) string {
	for _, sel := range selectors {
		scoped := card.Locator(sel)
		if n, err := scoped.Count(); err != nil || n == 0 {
			continue
		}
		if text, err := scoped.First().InnerText(); err == nil {
			if trimmed := strings.TrimSpace(text); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func absoluteURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		return strings.TrimSuffix(base, "/") + href
	}
	return base + "/" + href
}

// Keywords that mark a post-submit confirmation page. Boards localize their
// confirmation copy, so both English and Turkish variants are checked.
var submitSuccessKeywords = []string{
	"thank", "success", "applied", "confirmation", "received",
	"teşekkür", "başarı", "başvuru alındı",
}

// Apply walks a posting's application form end to end: open it, clear the
// apply gate, fill every detected question from the answer source, attach
// the resume, submit, and verify the confirmation. The required-step rule
// holds throughout: a failed optional field is recorded and skipped, a
// failed required step aborts with evidence.
func (s *SiteScraper) Apply(job models.JobPosting, answers AnswerSource, resumePath string) (ApplyResult, error) {
	result := ApplyResult{}

	s.throttle.Wait(s.profile.TargetID)

	page := s.sessions.NewPage(job.URL)
	if page == nil {
		return result, fmt.Errorf("browser session unavailable for %s", s.profile.TargetID)
	}

	detector := NewCompletionDetector(page, s.profile, s.artifacts, 0)
	if state := detector.HandleErrors(); state.RequiresUser {
		result.Evidence = s.artifacts.Capture(page, s.profile.TargetID+"-apply-blocked")
		return result, fmt.Errorf("apply blocked on %s: %s", s.profile.TargetID, state.Reason)
	}
	result.Steps = append(result.Steps, "open:"+job.URL)

	// The apply gate is optional: some boards land directly on the form.
	if apply := FirstVisible(page, s.profile.Catalog.Role(RoleApplyButton)); apply != nil {
		HumanDelay(300, 900)
		if err := WithRetry(func() error { return apply.Click() }, 3); err != nil {
			result.Evidence = s.artifacts.Capture(page, s.profile.TargetID+"-apply-gate")
			return result, fmt.Errorf("clicking apply on %s: %w", s.profile.TargetID, err)
		}
		result.Steps = append(result.Steps, "click:apply")
		HumanDelay(500, 1200)
	}

	steps, fieldErrors := AutoFillQuestions(page, s.profile.Catalog, answers)
	result.Steps = append(result.Steps, steps...)
	result.FieldErrors = append(result.FieldErrors, fieldErrors...)

	if resumePath != "" {
		if err := s.attachResume(page, resumePath); err != nil {
			result.FieldErrors = append(result.FieldErrors, models.FieldError{
				Field:  "resume",
				Reason: err.Error(),
			})
		} else {
			result.Steps = append(result.Steps, "upload:resume")
		}
	}

	// Submit is the one required step of the flow.
	submit := FirstVisible(page, s.profile.Catalog.Role(RoleSubmitButton))
	if submit == nil {
		result.Evidence = s.artifacts.Capture(page, s.profile.TargetID+"-no-submit")
		return result, fmt.Errorf("submit button not found on %s", s.profile.TargetID)
	}
	HumanDelay(400, 1100)
	if err := WithRetry(func() error { return submit.Click() }, 3); err != nil {
		result.Evidence = s.artifacts.Capture(page, s.profile.TargetID+"-submit-failed")
		return result, fmt.Errorf("clicking submit on %s: %w", s.profile.TargetID, err)
	}
	result.Steps = append(result.Steps, "click:submit")

	HumanDelay(1500, 3000)
	result.Submitted = s.confirmSubmission(page)
	result.Evidence = s.artifacts.Capture(page, s.profile.TargetID+"-submit-outcome")
	if !result.Submitted {
		return result, fmt.Errorf("no submission confirmation detected on %s", s.profile.TargetID)
	}
	result.Steps = append(result.Steps, "confirmed:submission")
	return result, nil
}

func (s *SiteScraper) attachResume(page playwright.Page, resumePath string) error {
	input := page.Locator("input[type='file']")
	n, err := input.Count()
	if err != nil || n == 0 {
		return fmt.Errorf("no file input found")
	}
	if err := input.First().SetInputFiles(resumePath); err != nil {
		return fmt.Errorf("uploading resume: %w", err)
	}
	HumanDelay(800, 1600)
	return nil
}

func (s *SiteScraper) confirmSubmission(page playwright.Page) bool {
	probe := NewPageProbe(page)
	if IsAnyVisible(probe, s.profile.Catalog.Role(RoleSuccess)) {
		return true
	}

	haystack := strings.ToLower(page.URL())
	if title, err := page.Title(); err == nil {
		haystack += " " + strings.ToLower(title)
	}
	for _, kw := range submitSuccessKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}
