package services

import "jobpilot/config"

// Semantic roles resolved against a SelectorCatalog. Order inside a role
// encodes priority; the first matching candidate wins.
const (
	RolePromptInput        = "promptInput"
	RoleSendButton         = "sendButton"
	RoleStopButton         = "stopButton"
	RoleResponseBlocks     = "responseBlocks"
	RoleGenerating         = "generatingIndicators"
	RoleTyping             = "typingIndicators"
	RoleSpinner            = "spinnerIndicators"
	RoleLogin              = "loginIndicators"
	RoleCaptcha            = "captchaIndicators"
	RoleChallenge          = "challengeIndicators"
	RoleQuestionContainers = "questionContainers"
	RoleQuestionLabels     = "questionLabels"
	RoleApplyButton        = "applyButtons"
	RoleSubmitButton       = "submitButtons"
	RoleSuccess            = "successIndicators"
	RoleJobCards           = "jobCards"
	RoleJobTitle           = "jobTitle"
	RoleJobCompany         = "jobCompany"
	RoleJobLocation        = "jobLocation"
	RoleJobLink            = "jobLink"
	RoleSearchInput        = "searchInput"
)

// SelectorCatalog maps a semantic role to its ordered locator candidates.
type SelectorCatalog map[string][]string

// Role returns the candidates for a role, nil when the role is absent.
func (c SelectorCatalog) Role(role string) []string {
	if c == nil {
		return nil
	}
	return c[role]
}

// Merged returns the role's candidates followed by extras, preserving order.
func (c SelectorCatalog) Merged(role string, extra ...string) []string {
	base := c.Role(role)
	if len(extra) == 0 {
		return base
	}
	merged := make([]string, 0, len(base)+len(extra))
	merged = append(merged, base...)
	merged = append(merged, extra...)
	return merged
}

// SiteProfile is the immutable per-target configuration: where the target
// lives, how to locate its controls, and how to keep its sessions alive.
// Variant behavior across targets is data here, never code.
type SiteProfile struct {
	TargetID                  string
	BaseURL                   string
	SearchPath                string // relative path with a {keywords} placeholder
	Catalog                   SelectorCatalog
	AdditionalStallIndicators []string
	AntiStall                 config.AntiStallConfig
}

// Selector sets shared by every target. Per-target catalogs extend these.
var (
	defaultGeneratingIndicators = []string{
		"[data-testid='generating']",
		"[aria-label*='Generating']",
		"[class*='result-streaming']",
		"[class*='generating']",
	}
	defaultTypingIndicators = []string{
		"[class*='typing-indicator']",
		"[class*='cursor-blink']",
	}
	defaultSpinnerIndicators = []string{
		"[role='progressbar']",
		"[class*='spinner']",
		"[class*='loading']:not([class*='loaded'])",
	}
	defaultLoginIndicators = []string{
		"a[href*='login']",
		"a[href*='signin']",
		"button:has-text('Sign in')",
		"button:has-text('Log in')",
		"input[type='password']",
	}
	defaultCaptchaIndicators = []string{
		"iframe[src*='recaptcha']",
		"iframe[src*='hcaptcha']",
		"[class*='captcha']",
		"#captcha",
	}
	defaultChallengeIndicators = []string{
		"#challenge-stage",
		"#challenge-form",
		"[class*='cf-challenge']",
		"text=Checking your browser",
		"text=Verify you are human",
	}
	defaultQuestionContainers = []string{
		"[data-testid*='question']",
		"fieldset",
		"[class*='form-group']",
		"[class*='question']",
		"[class*='field']:has(label)",
	}
	defaultQuestionLabels = []string{
		"label",
		"legend",
		"[class*='label']",
		"[class*='question-text']",
	}
	defaultSuccessIndicators = []string{
		"text=Thank you for your application",
		"text=Application submitted",
		"text=Your application has been submitted",
		"text=We have received your application",
		"text=Başvurunuz alınmıştır",
		"[class*='success']",
		"[class*='confirmation']",
		"h1:has-text('Thank you')",
		"h2:has-text('Thank you')",
	}
)

func baseCatalog() SelectorCatalog {
	return SelectorCatalog{
		RoleGenerating:         defaultGeneratingIndicators,
		RoleTyping:             defaultTypingIndicators,
		RoleSpinner:            defaultSpinnerIndicators,
		RoleLogin:              defaultLoginIndicators,
		RoleCaptcha:            defaultCaptchaIndicators,
		RoleChallenge:          defaultChallengeIndicators,
		RoleQuestionContainers: defaultQuestionContainers,
		RoleQuestionLabels:     defaultQuestionLabels,
		RoleSuccess:            defaultSuccessIndicators,
	}
}

func withBase(overrides SelectorCatalog) SelectorCatalog {
	catalog := baseCatalog()
	for role, candidates := range overrides {
		catalog[role] = candidates
	}
	return catalog
}

// JobSiteProfiles returns the built-in job-board targets.
func JobSiteProfiles(antiStall config.AntiStallConfig) map[string]SiteProfile {
	return map[string]SiteProfile{
		"linkedin": {
			TargetID:   "linkedin",
			BaseURL:    "https://www.linkedin.com",
			SearchPath: "/jobs/search/?keywords={keywords}",
			AntiStall:  antiStall,
			Catalog: withBase(SelectorCatalog{
				RoleJobCards:    {"div.job-card-container", "li.jobs-search-results__list-item", "[data-job-id]"},
				RoleJobTitle:    {"a.job-card-list__title", "h3.base-search-card__title", "[class*='job-title']"},
				RoleJobCompany:  {"span.job-card-container__primary-description", "h4.base-search-card__subtitle", "[class*='company-name']"},
				RoleJobLocation: {"li.job-card-container__metadata-item", "span.job-search-card__location"},
				RoleJobLink:     {"a.job-card-list__title", "a.base-card__full-link"},
				RoleApplyButton: {"button[aria-label*='Easy Apply']", "button:has-text('Easy Apply')", "button:has-text('Apply')"},
				RoleSubmitButton: {
					"button[aria-label='Submit application']",
					"button:has-text('Submit application')",
					"button:has-text('Submit')",
				},
			}),
		},
		"indeed": {
			TargetID:   "indeed",
			BaseURL:    "https://www.indeed.com",
			SearchPath: "/jobs?q={keywords}",
			AntiStall:  antiStall,
			Catalog: withBase(SelectorCatalog{
				RoleJobCards:    {"div.job_seen_beacon", "td.resultContent", "[data-jk]"},
				RoleJobTitle:    {"h2.jobTitle span[title]", "h2.jobTitle a", "[class*='jobTitle']"},
				RoleJobCompany:  {"span[data-testid='company-name']", "span.companyName"},
				RoleJobLocation: {"div[data-testid='text-location']", "div.companyLocation"},
				RoleJobLink:     {"h2.jobTitle a", "a[data-jk]"},
				RoleApplyButton: {"#indeedApplyButton", "button:has-text('Apply now')", "button:has-text('Apply')"},
				RoleSubmitButton: {
					"button:has-text('Submit your application')",
					"button:has-text('Submit')",
					"button[type='submit']",
				},
			}),
		},
		"hiringcafe": {
			TargetID:   "hiringcafe",
			BaseURL:    "https://hiring.cafe",
			SearchPath: "/?q={keywords}",
			AntiStall:  antiStall,
			Catalog: withBase(SelectorCatalog{
				RoleJobCards:    {"[data-testid='job-card']", "article", "[class*='job-card']"},
				RoleJobTitle:    {"[data-testid='job-title']", "h3", "[class*='title']"},
				RoleJobCompany:  {"[data-testid='company']", "[class*='company']"},
				RoleJobLocation: {"[data-testid='location']", "[class*='location']"},
				RoleJobLink:     {"a[href*='/job/']", "a"},
				RoleApplyButton: {"a:has-text('Apply')", "button:has-text('Apply')"},
				RoleSubmitButton: {
					"button[type='submit']",
					"button:has-text('Submit')",
				},
			}),
		},
	}
}

// LLMProviderProfiles returns the built-in chat front-end targets.
func LLMProviderProfiles(antiStall config.AntiStallConfig) map[string]SiteProfile {
	return map[string]SiteProfile{
		"chatgpt": {
			TargetID:  "chatgpt",
			BaseURL:   "https://chat.openai.com",
			AntiStall: antiStall,
			Catalog: withBase(SelectorCatalog{
				RolePromptInput:    {"#prompt-textarea", "textarea[data-id='root']", "div[contenteditable='true']"},
				RoleSendButton:     {"button[data-testid='send-button']", "button[aria-label='Send prompt']"},
				RoleStopButton:     {"button[data-testid='stop-button']", "button[aria-label='Stop generating']"},
				RoleResponseBlocks: {"div[data-message-author-role='assistant']", ".markdown"},
			}),
			AdditionalStallIndicators: []string{"button[data-testid='stop-button']"},
		},
		"gemini": {
			TargetID:  "gemini",
			BaseURL:   "https://gemini.google.com",
			AntiStall: antiStall,
			Catalog: withBase(SelectorCatalog{
				RolePromptInput:    {"rich-textarea div[contenteditable='true']", "textarea[aria-label*='prompt']"},
				RoleSendButton:     {"button[aria-label='Send message']", "button.send-button"},
				RoleStopButton:     {"button[aria-label='Stop response']"},
				RoleResponseBlocks: {"message-content", "[class*='response-container']"},
			}),
			AdditionalStallIndicators: []string{"[class*='thinking']", "blinking-cursor"},
		},
		"claude": {
			TargetID:  "claude",
			BaseURL:   "https://claude.ai",
			AntiStall: antiStall,
			Catalog: withBase(SelectorCatalog{
				RolePromptInput:    {"div[contenteditable='true'].ProseMirror", "fieldset div[contenteditable='true']"},
				RoleSendButton:     {"button[aria-label='Send Message']", "button[aria-label='Send message']"},
				RoleStopButton:     {"button[aria-label='Stop Response']", "button[aria-label='Stop response']"},
				RoleResponseBlocks: {"div[data-is-streaming]", "div.font-claude-message"},
			}),
			AdditionalStallIndicators: []string{"div[data-is-streaming='true']"},
		},
	}
}
