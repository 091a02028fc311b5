// Package dataset holds the static fallback job postings returned when live
// scraping is unavailable, plus the filter semantics shared with live search.
package dataset

import (
	"strings"

	"jobpilot/models"
)

// Filters narrows dataset and live search results.
type Filters struct {
	Remote    string   `json:"remote,omitempty"` // remote, hybrid, onsite, any
	Location  string   `json:"location,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	Keywords  string   `json:"keywords,omitempty"`
	Languages []string `json:"languages,omitempty"`
	SalaryMin int      `json:"salary_min,omitempty"`
}

var jobDataset = []models.JobPosting{
	{
		ID:          "linkedin-001",
		Source:      "linkedin",
		URL:         "https://www.linkedin.com/jobs/view/001",
		Title:       "Kıdemli Ürün Yöneticisi",
		Company:     "Anka Tech",
		Location:    "İstanbul · Hibrit",
		Remote:      "hybrid",
		Description: "Ölçeklenebilir SaaS ürünlerinde LLM destekli deneyimler tasarlayacak, OKR takibi yapacak ve çapraz ekipleri yönetecek kıdemli ürün yöneticisi.",
		Skills:      []string{"Product Strategy", "Roadmap", "OKR", "Stakeholder Management"},
		Roles:       []string{"product", "pm"},
		Language:    "tr",
		SalaryHint:  models.SalaryHint{Currency: "TRY", Min: 900000, Max: 1100000},
		ApplyMethod: "platform",
	},
	{
		ID:          "linkedin-002",
		Source:      "linkedin",
		URL:         "https://www.linkedin.com/jobs/view/002",
		Title:       "Senior Software Engineer (Node.js)",
		Company:     "Stratus Systems",
		Location:    "Remote · Avrupa",
		Remote:      "remote",
		Description: "Node.js, GraphQL ve AWS üzerinde çalışan dağıtık mikro servis mimarisinde deneyimli yazılım mühendisi arıyoruz.",
		Skills:      []string{"Node.js", "GraphQL", "AWS", "Microservices"},
		Roles:       []string{"software", "backend"},
		Language:    "en",
		SalaryHint:  models.SalaryHint{Currency: "EUR", Min: 85000, Max: 105000},
		ApplyMethod: "platform",
	},
	{
		ID:          "indeed-001",
		Source:      "indeed",
		URL:         "https://www.indeed.com/viewjob?jk=001",
		Title:       "Product Marketing Manager",
		Company:     "Nova Labs",
		Location:    "Remote · Global",
		Remote:      "remote",
		Description: "Yeni ürün lansmanları için GTM stratejisi, içerik ve büyüme kampanyalarını yönetecek product marketing manager.",
		Skills:      []string{"Go-To-Market", "Content Strategy", "Analytics"},
		Roles:       []string{"marketing", "product"},
		Language:    "en",
		SalaryHint:  models.SalaryHint{Currency: "USD", Min: 100000, Max: 130000},
		ApplyMethod: "external",
	},
	{
		ID:          "indeed-002",
		Source:      "indeed",
		URL:         "https://www.indeed.com/viewjob?jk=002",
		Title:       "UX/UI Designer",
		Company:     "Pixelcraft",
		Location:    "İzmir · Ofis",
		Remote:      "onsite",
		Description: "Mobil ve web uygulamalarında kullanıcı deneyimini geliştirecek, araştırma ve görsel tasarım becerilerine sahip UX/UI designer.",
		Skills:      []string{"UX Research", "Figma", "Design Systems"},
		Roles:       []string{"design"},
		Language:    "tr",
		SalaryHint:  models.SalaryHint{Currency: "TRY", Min: 600000, Max: 750000},
		ApplyMethod: "platform",
	},
	{
		ID:          "hiringcafe-001",
		Source:      "hiringcafe",
		URL:         "https://hiring.cafe/job/001",
		Title:       "AI Product Lead",
		Company:     "Crescent AI",
		Location:    "Remote · GMT+3",
		Remote:      "remote",
		Description: "LLM destekli iş akışları için yol haritası çıkaracak, prompt mühendisliği ve deney tasarımı bilen AI product lead.",
		Skills:      []string{"Prompt Engineering", "Product Discovery", "Analytics"},
		Roles:       []string{"product", "ai"},
		Language:    "en",
		SalaryHint:  models.SalaryHint{Currency: "USD", Min: 120000, Max: 150000},
		ApplyMethod: "external",
	},
	{
		ID:          "hiringcafe-002",
		Source:      "hiringcafe",
		URL:         "https://hiring.cafe/job/002",
		Title:       "Customer Success Specialist",
		Company:     "Supportly",
		Location:    "Ankara · Hibrit",
		Remote:      "hybrid",
		Description: "B2B SaaS müşterileri için onboarding ve destek süreçlerini yönetecek customer success specialist.",
		Skills:      []string{"Customer Success", "CRM", "Training"},
		Roles:       []string{"support", "operations"},
		Language:    "tr",
		SalaryHint:  models.SalaryHint{Currency: "TRY", Min: 450000, Max: 520000},
		ApplyMethod: "platform",
	},
}

// Matches reports whether a posting passes the given filters.
func Matches(job models.JobPosting, filters Filters) bool {
	if filters.Remote != "" && filters.Remote != "any" && job.Remote != filters.Remote {
		return false
	}

	if filters.Location != "" {
		locationText := strings.ToLower(job.Location)
		found := false
		for _, token := range strings.Split(filters.Location, ",") {
			token = strings.ToLower(strings.TrimSpace(token))
			if token != "" && strings.Contains(locationText, token) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(filters.Roles) > 0 {
		jobRoles := make(map[string]bool, len(job.Roles))
		for _, r := range job.Roles {
			jobRoles[strings.ToLower(r)] = true
		}
		found := false
		for _, role := range filters.Roles {
			if jobRoles[strings.ToLower(role)] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filters.Keywords != "" {
		haystack := strings.ToLower(job.Title + " " + job.Description)
		for _, token := range strings.Split(filters.Keywords, ",") {
			token = strings.ToLower(strings.TrimSpace(token))
			if token != "" && !strings.Contains(haystack, token) {
				return false
			}
		}
	}

	if len(filters.Languages) > 0 {
		found := false
		for _, lang := range filters.Languages {
			if job.Language == lang {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filters.SalaryMin > 0 && job.SalaryHint.Min > 0 && job.SalaryHint.Min < filters.SalaryMin {
		return false
	}

	return true
}

// LoadJobsForSource returns shallow copies of the dataset postings for one
// source, filtered. Callers may mutate the returned slice freely.
func LoadJobsForSource(source string, filters Filters) []models.JobPosting {
	jobs := []models.JobPosting{}
	for _, job := range jobDataset {
		if job.Source == source && Matches(job, filters) {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

// Sources lists the sources present in the static dataset.
func Sources() []string {
	return []string{"linkedin", "indeed", "hiringcafe"}
}
