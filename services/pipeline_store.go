package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobpilot/models"
)

// ApplicationOptions are the mutable references attached to an application.
type ApplicationOptions struct {
	ResumeVariantID string
	CoverLetterID   string
	Notes           string
}

// PipelineStore tracks discovered jobs and their application lifecycle.
// Mutations arrive both from the orchestrator's control flow and from gin
// request goroutines, so the store guards its maps itself and only ever
// hands out copies.
type PipelineStore struct {
	mu    sync.RWMutex
	jobs  map[string]models.JobPosting
	apps  map[string]*models.Application
	byJob map[string]string

	now func() time.Time
}

// NewPipelineStore builds an empty store with process lifetime.
func NewPipelineStore() *PipelineStore {
	return &PipelineStore{
		jobs:  make(map[string]models.JobPosting),
		apps:  make(map[string]*models.Application),
		byJob: make(map[string]string),
		now:   time.Now,
	}
}

func cloneApplication(app *models.Application) *models.Application {
	cp := *app
	if app.Timestamps.SubmittedAt != nil {
		submitted := *app.Timestamps.SubmittedAt
		cp.Timestamps.SubmittedAt = &submitted
	}
	return &cp
}

// CacheJob records a discovered posting. Postings are immutable once cached;
// a second cache of the same id is a no-op.
func (s *PipelineStore) CacheJob(job models.JobPosting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheJobLocked(job)
}

func (s *PipelineStore) cacheJobLocked(job models.JobPosting) {
	if job.ID == "" {
		return
	}
	if _, exists := s.jobs[job.ID]; !exists {
		s.jobs[job.ID] = job
	}
}

// Job resolves a cached posting by id.
func (s *PipelineStore) Job(id string) (models.JobPosting, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok
}

// Jobs returns every cached posting.
func (s *PipelineStore) Jobs() []models.JobPosting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]models.JobPosting, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// CreateFromJob creates the application record for a job, or updates the
// existing one: idempotent per job id, never a duplicate. The posting is
// cached first so every application always references a resolvable job.
func (s *PipelineStore) CreateFromJob(job models.JobPosting, opts ApplicationOptions) (*models.Application, error) {
	if job.ID == "" {
		return nil, fmt.Errorf("job has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheJobLocked(job)

	now := s.now()
	if existingID, ok := s.byJob[job.ID]; ok {
		app := s.apps[existingID]
		if opts.ResumeVariantID != "" {
			app.ResumeVariantID = opts.ResumeVariantID
		}
		if opts.CoverLetterID != "" {
			app.CoverLetterID = opts.CoverLetterID
		}
		if opts.Notes != "" {
			app.Notes = opts.Notes
		}
		app.Timestamps.UpdatedAt = now
		return cloneApplication(app), nil
	}

	app := &models.Application{
		ID:              uuid.NewString(),
		JobID:           job.ID,
		ResumeVariantID: opts.ResumeVariantID,
		CoverLetterID:   opts.CoverLetterID,
		Status:          models.StatusFound,
		Timestamps: models.Timestamps{
			CreatedAt: now,
			UpdatedAt: now,
		},
		Notes: opts.Notes,
	}
	s.apps[app.ID] = app
	s.byJob[job.ID] = app.ID
	return cloneApplication(app), nil
}

// Restore seeds the store from persisted applications at startup. Existing
// records win over restored ones.
func (s *PipelineStore) Restore(apps []models.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range apps {
		app := apps[i]
		if app.ID == "" || app.JobID == "" {
			continue
		}
		if _, exists := s.apps[app.ID]; exists {
			continue
		}
		s.apps[app.ID] = cloneApplication(&app)
		if _, taken := s.byJob[app.JobID]; !taken {
			s.byJob[app.JobID] = app.ID
		}
	}
}

// Find returns a copy of an application by id.
func (s *PipelineStore) Find(id string) (*models.Application, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, false
	}
	return cloneApplication(app), true
}

// FindByJob returns the application for a job, if one exists.
func (s *PipelineStore) FindByJob(jobID string) (*models.Application, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byJob[jobID]
	if !ok {
		return nil, false
	}
	return cloneApplication(s.apps[id]), true
}

// UpdateStatus moves an application to a new status. Transitions are not
// restricted, but SubmittedAt is stamped exactly once, on the first entry
// into applied; later status changes never overwrite it.
func (s *PipelineStore) UpdateStatus(applicationID string, status string) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[applicationID]
	if !ok {
		return nil, fmt.Errorf("application not found: %s", applicationID)
	}

	now := s.now()
	app.Status = models.NormalizeStatus(status)
	app.Timestamps.UpdatedAt = now
	if app.Status == models.StatusApplied && app.Timestamps.SubmittedAt == nil {
		submitted := now
		app.Timestamps.SubmittedAt = &submitted
	}
	return cloneApplication(app), nil
}

// AttachEvidence records apply-flow artifacts on an application.
func (s *PipelineStore) AttachEvidence(applicationID string, evidence models.Evidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[applicationID]
	if !ok {
		return fmt.Errorf("application not found: %s", applicationID)
	}
	if evidence.ScreenshotPath != "" {
		app.Evidence.ScreenshotPath = evidence.ScreenshotPath
	}
	if evidence.LogPath != "" {
		app.Evidence.LogPath = evidence.LogPath
	}
	app.Timestamps.UpdatedAt = s.now()
	return nil
}

// List returns copies of every application, most recently updated first.
func (s *PipelineStore) List() []models.Application {
	s.mu.RLock()
	apps := make([]models.Application, 0, len(s.apps))
	for _, app := range s.apps {
		apps = append(apps, *cloneApplication(app))
	}
	s.mu.RUnlock()

	sort.Slice(apps, func(i, j int) bool {
		return apps[i].Timestamps.UpdatedAt.After(apps[j].Timestamps.UpdatedAt)
	})
	return apps
}

// Summary is the status histogram of the pipeline.
func (s *PipelineStore) Summary() map[models.ApplicationStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary := map[models.ApplicationStatus]int{}
	for _, app := range s.apps {
		summary[app.Status]++
	}
	return summary
}

// GroupByStatus buckets applications by status.
func (s *PipelineStore) GroupByStatus() map[models.ApplicationStatus][]models.Application {
	groups := map[models.ApplicationStatus][]models.Application{}
	for _, app := range s.List() {
		groups[app.Status] = append(groups[app.Status], app)
	}
	return groups
}
