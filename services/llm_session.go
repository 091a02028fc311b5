package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"jobpilot/models"
	"jobpilot/utils"
)

// ErrSessionUnavailable is returned when the LLM target's browser session
// cannot be opened (automation disabled or launch failed).
var ErrSessionUnavailable = fmt.Errorf("llm session unavailable")

// LLMSession drives one chat-style LLM web front-end through its DOM: type a
// prompt, click send, poll until the streamed response settles, read it
// back. It implements PromptRunner so oversized prompts can be chunked
// through SplitAndChain.
type LLMSession struct {
	profile   SiteProfile
	sessions  *SessionManager
	throttle  *Throttle
	artifacts *ArtifactService
	timeout   time.Duration
	maxChars  int
	overlap   int
	logger    *utils.Logger
}

// NewLLMSession binds a driver to one provider profile.
func NewLLMSession(profile SiteProfile, sessions *SessionManager, throttle *Throttle, artifacts *ArtifactService, timeout time.Duration, maxChars, overlap int, logger *utils.Logger) *LLMSession {
	if logger == nil {
		logger = utils.GlobalLogger
	}
	if maxChars <= 0 {
		maxChars = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	return &LLMSession{
		profile:   profile,
		sessions:  sessions,
		throttle:  throttle,
		artifacts: artifacts,
		timeout:   timeout,
		maxChars:  maxChars,
		overlap:   overlap,
		logger:    logger.WithTarget(profile.TargetID),
	}
}

// Provider names the LLM target this session drives.
func (s *LLMSession) Provider() string { return s.profile.TargetID }

func (s *LLMSession) ensurePage() (playwright.Page, error) {
	page := s.sessions.Page()
	if page != nil && !page.IsClosed() && underOrigin(page.URL(), s.profile.BaseURL) {
		return page, nil
	}
	page = s.sessions.NewPage(s.profile.BaseURL)
	if page == nil {
		return nil, ErrSessionUnavailable
	}
	return page, nil
}

func (s *LLMSession) detector(page playwright.Page) *CompletionDetector {
	return NewCompletionDetector(page, s.profile, s.artifacts, s.timeout)
}

// Send types the prompt into the provider's input and submits it.
func (s *LLMSession) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	page, err := s.ensurePage()
	if err != nil {
		return err
	}

	input := FirstVisible(page, s.profile.Catalog.Role(RolePromptInput))
	if input == nil {
		return fmt.Errorf("prompt input not found on %s", s.profile.TargetID)
	}

	HumanDelay(200, 750)
	if err := TypeHuman(input, text); err != nil {
		return fmt.Errorf("typing prompt on %s: %w", s.profile.TargetID, err)
	}

	if send := FirstVisible(page, s.profile.Catalog.Role(RoleSendButton)); send != nil {
		if err := send.Click(); err != nil {
			return fmt.Errorf("clicking send on %s: %w", s.profile.TargetID, err)
		}
		return nil
	}
	return page.Keyboard().Press("Enter")
}

// Await polls the page until the streamed response completes.
func (s *LLMSession) Await(ctx context.Context) (models.CompletionResult, error) {
	if err := ctx.Err(); err != nil {
		return models.CompletionResult{}, err
	}
	page, err := s.ensurePage()
	if err != nil {
		return models.CompletionResult{}, err
	}
	return s.detector(page).AwaitCompletion()
}

// Read returns the text of the latest response block.
func (s *LLMSession) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	page, err := s.ensurePage()
	if err != nil {
		return "", err
	}

	blocks := Resolve(page, s.profile.Catalog.Role(RoleResponseBlocks))
	if blocks == nil {
		return "", fmt.Errorf("no response blocks found on %s", s.profile.TargetID)
	}
	text, err := blocks.Last().InnerText()
	if err != nil {
		return "", fmt.Errorf("reading response on %s: %w", s.profile.TargetID, err)
	}
	return strings.TrimSpace(text), nil
}

// Generate runs one full dialogue turn: throttle, pre-flight error scan,
// send (chunked when the prompt exceeds the provider's safe size), await,
// read. A blocking state (login wall, CAPTCHA, redirect) comes back in the
// ErrorState with no Go error; the caller surfaces it to the operator.
func (s *LLMSession) Generate(ctx context.Context, prompt string) (string, models.ErrorState, error) {
	s.throttle.Wait(s.profile.TargetID)

	page, err := s.ensurePage()
	if err != nil {
		return "", models.ErrorState{Recovered: true, Reason: models.ReasonNone}, err
	}

	if state := s.detector(page).HandleErrors(); state.RequiresUser {
		s.logger.Warn("llm session blocked", map[string]any{"reason": state.Reason})
		return "", state, nil
	}

	if len([]rune(prompt)) > s.maxChars {
		out, err := SplitAndChain(ctx, s, prompt, s.maxChars, s.overlap)
		return out, models.ErrorState{Recovered: true, Reason: models.ReasonNone}, err
	}

	if err := s.Send(ctx, prompt); err != nil {
		return "", models.ErrorState{Recovered: true, Reason: models.ReasonNone}, err
	}
	if _, err := s.Await(ctx); err != nil {
		return "", models.ErrorState{Recovered: true, Reason: models.ReasonNone}, err
	}
	out, err := s.Read(ctx)
	return out, models.ErrorState{Recovered: true, Reason: models.ReasonNone}, err
}

// SessionProbe is the result of a connectivity test against the provider.
type SessionProbe struct {
	OK       bool   `json:"ok"`
	Provider string `json:"provider"`
	Sample   string `json:"sample,omitempty"`
	Error    string `json:"error,omitempty"`
}

// TestSession opens the provider, sends a trivial prompt, and reports a
// sample of the reply.
func (s *LLMSession) TestSession(ctx context.Context, probePrompt string) SessionProbe {
	probe := SessionProbe{Provider: s.profile.TargetID}

	out, state, err := s.Generate(ctx, probePrompt)
	if err != nil {
		probe.Error = err.Error()
		return probe
	}
	if state.RequiresUser {
		probe.Error = string(state.Reason)
		return probe
	}

	probe.OK = true
	probe.Sample = truncateSample(out, sampleRunes)
	return probe
}

const sampleRunes = 120

// truncateSample caps text at max runes so multibyte replies keep valid UTF-8.
func truncateSample(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
