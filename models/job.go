package models

import "strings"

// SalaryHint carries an optional salary range attached to a posting.
type SalaryHint struct {
	Currency string `json:"currency,omitempty"`
	Min      int    `json:"min,omitempty"`
	Max      int    `json:"max,omitempty"`
}

// JobPosting is a discovered job. Immutable once created; cached by ID for
// the lifetime of the process.
type JobPosting struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location"`
	Remote      string     `json:"remote,omitempty"`
	Description string     `json:"description"`
	Skills      []string   `json:"skills"`
	Roles       []string   `json:"roles,omitempty"`
	Language    string     `json:"language,omitempty"`
	SalaryHint  SalaryHint `json:"salary_hint"`
	ApplyMethod string     `json:"apply_method"`
}

// MatchScore is the keyword-ratio match between a posting and a profile.
type MatchScore struct {
	Score         int      `json:"score"`
	MatchedSkills []string `json:"matched_skills"`
}

// ScoredJob pairs a posting with its computed match.
type ScoredJob struct {
	Job   JobPosting `json:"job"`
	Match MatchScore `json:"match"`
}

// ComputeMatchScore scores a posting against a profile as the percentage of
// the posting's skills present in the profile, case-insensitively.
func ComputeMatchScore(job JobPosting, profile UserProfile) MatchScore {
	if len(job.Skills) == 0 || len(profile.Skills) == 0 {
		return MatchScore{Score: 0, MatchedSkills: []string{}}
	}

	profileSkills := make(map[string]bool, len(profile.Skills))
	for _, s := range profile.Skills {
		profileSkills[strings.ToLower(s)] = true
	}

	matched := []string{}
	for _, skill := range job.Skills {
		if profileSkills[strings.ToLower(skill)] {
			matched = append(matched, skill)
		}
	}

	score := int(float64(len(matched))/float64(len(job.Skills))*100 + 0.5)
	return MatchScore{Score: score, MatchedSkills: matched}
}
