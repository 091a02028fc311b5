package models

import "time"

// PromptPayload is the transient input to one LLM-session operation. It is
// constructed per call and never persisted.
type PromptPayload struct {
	Role        string            `json:"role"`
	Purpose     string            `json:"purpose"`
	Inputs      map[string]any    `json:"inputs"`
	Constraints map[string]string `json:"constraints"`
}

// CompletionResult is the outcome of one awaited generation.
type CompletionResult struct {
	Completed          bool     `json:"completed"`
	HeuristicsObserved []string `json:"heuristics_observed"`
	ElapsedMs          int64    `json:"elapsed_ms"`
}

// ErrorReason classifies blocking external states detected on a page.
type ErrorReason string

const (
	ReasonNone          ErrorReason = "none"
	ReasonLoginRequired ErrorReason = "login-required"
	ReasonCaptcha       ErrorReason = "captcha"
	ReasonCloudflare    ErrorReason = "cloudflare"
	ReasonRedirected    ErrorReason = "redirected"
)

// ErrorState is the result of an error scan over the current page.
type ErrorState struct {
	Recovered    bool        `json:"recovered"`
	RequiresUser bool        `json:"requires_user"`
	Reason       ErrorReason `json:"reason"`
}

// FieldError is one structured per-field failure collected during form filling.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ArtifactRef points at best-effort debug artifacts for one capture.
type ArtifactRef struct {
	ScreenshotPath string `json:"screenshot_path,omitempty"`
	DOMPath        string `json:"dom_path,omitempty"`
	S3Key          string `json:"s3_key,omitempty"`
}

// AnswerEntry is one cached form answer keyed by normalized question text.
type AnswerEntry struct {
	QuestionKey string    `json:"question_key"`
	Answer      string    `json:"answer"`
	Lang        string    `json:"lang"`
	UpdatedAt   time.Time `json:"updated_at"`
}
