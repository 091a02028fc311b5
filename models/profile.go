package models

import "time"

// LanguageSkill is a spoken-language entry on the profile.
type LanguageSkill struct {
	Code  string `json:"code"`
	Level string `json:"level"` // beginner, intermediate, advanced, native
}

// UserProfile is the operator's profile used for matching and form answers.
type UserProfile struct {
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Locations        []string        `json:"locations"`
	Roles            []string        `json:"roles"`
	Skills           []string        `json:"skills"`
	Languages        []LanguageSkill `json:"languages"`
	WorkAuth         string          `json:"work_auth"`
	Relocation       bool            `json:"relocation"`
	RemotePreference string          `json:"remote_preference"` // remote, hybrid, onsite, any
	DailyCap         int             `json:"daily_cap"`
	Highlights       []string        `json:"highlights"`
	CoverTone        string          `json:"cover_tone"`
	SalaryRange      SalaryHint      `json:"salary_range"`
	NoticePeriod     string          `json:"notice_period"`
	CreatedAt        time.Time       `json:"created_at"`
}

// NewUserProfile fills unset fields with the defaults the rest of the engine
// assumes are present.
func NewUserProfile(p UserProfile) UserProfile {
	if p.Name == "" {
		p.Name = "Ad Soyad"
	}
	if p.Email == "" {
		p.Email = "example@email.com"
	}
	if p.Languages == nil {
		p.Languages = []LanguageSkill{{Code: "tr", Level: "native"}}
	}
	if p.WorkAuth == "" {
		p.WorkAuth = "Belirtilmedi"
	}
	if p.RemotePreference == "" {
		p.RemotePreference = "any"
	}
	if p.DailyCap == 0 {
		p.DailyCap = 10
	}
	if p.CoverTone == "" {
		p.CoverTone = "samimi"
	}
	if p.SalaryRange.Currency == "" {
		p.SalaryRange.Currency = "TRY"
	}
	if p.NoticePeriod == "" {
		p.NoticePeriod = "Hazır"
	}
	if p.Locations == nil {
		p.Locations = []string{}
	}
	if p.Roles == nil {
		p.Roles = []string{}
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Highlights == nil {
		p.Highlights = []string{}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	return p
}
