package models

import (
	"strings"
	"time"
)

// ApplicationStatus is the pipeline stage of an application.
type ApplicationStatus string

const (
	StatusFound    ApplicationStatus = "found"
	StatusApplied  ApplicationStatus = "applied"
	StatusHR       ApplicationStatus = "hr"
	StatusTech     ApplicationStatus = "tech"
	StatusOffer    ApplicationStatus = "offer"
	StatusRejected ApplicationStatus = "rejected"
)

var knownStatuses = map[ApplicationStatus]bool{
	StatusFound:    true,
	StatusApplied:  true,
	StatusHR:       true,
	StatusTech:     true,
	StatusOffer:    true,
	StatusRejected: true,
}

// NormalizeStatus lowercases the input and falls back to "found" for anything
// outside the known set.
func NormalizeStatus(status string) ApplicationStatus {
	normalized := ApplicationStatus(strings.ToLower(strings.TrimSpace(status)))
	if knownStatuses[normalized] {
		return normalized
	}
	return StatusFound
}

// Timestamps tracks application lifecycle times. SubmittedAt is set exactly
// once, on first entry into the applied status.
type Timestamps struct {
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// Evidence points at debug artifacts captured during an apply flow.
type Evidence struct {
	ScreenshotPath string `json:"screenshot_path,omitempty"`
	LogPath        string `json:"log_path,omitempty"`
}

// Application is one tracked application against a cached JobPosting.
type Application struct {
	ID              string            `json:"id"`
	JobID           string            `json:"job_id"`
	ResumeVariantID string            `json:"resume_variant_id"`
	CoverLetterID   string            `json:"cover_letter_id"`
	Status          ApplicationStatus `json:"status"`
	Timestamps      Timestamps        `json:"timestamps"`
	Notes           string            `json:"notes"`
	Evidence        Evidence          `json:"evidence"`
}
