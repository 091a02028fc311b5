package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"jobpilot/dataset"
	"jobpilot/models"
	"jobpilot/prompts"
	"jobpilot/utils"
)

// DiscoveryOutcome is one target's contribution to a discovery run, with
// postings already scored against the operator profile.
type DiscoveryOutcome struct {
	Target  string             `json:"target"`
	Source  DiscoverySource    `json:"source"`
	Reason  string             `json:"reason,omitempty"`
	Matches []models.ScoredJob `json:"matches"`
}

// ApplicationMirror receives every application state change, so the
// pipeline can survive restarts. Mirroring is best-effort.
type ApplicationMirror interface {
	Save(app models.Application) error
}

// Orchestrator fans discovery out to the board scrapers, funnels every
// state change through the pipeline store, and routes generation work to
// the LLM session. HTTP handlers call in from gin's request goroutines;
// the store locks its own maps and apply flows are serialized here.
type Orchestrator struct {
	scrapers  map[string]*SiteScraper
	order     []string
	llm       *LLMSession
	store     *PipelineStore
	answers   AnswerStore
	renderer  *prompts.Renderer
	outputDir string
	dailyCap  int
	logger    *utils.Logger
	persist   ApplicationMirror

	mu      sync.Mutex
	profile models.UserProfile

	applyMu sync.Mutex

	now func() time.Time
}

// NewOrchestrator wires the engine together. Scrapers keep their given
// order in discovery results.
func NewOrchestrator(scrapers []*SiteScraper, llm *LLMSession, store *PipelineStore, answers AnswerStore, renderer *prompts.Renderer, profile models.UserProfile, outputDir string, dailyCap int, logger *utils.Logger) *Orchestrator {
	if logger == nil {
		logger = utils.GlobalLogger
	}
	byTarget := make(map[string]*SiteScraper, len(scrapers))
	order := make([]string, 0, len(scrapers))
	for _, s := range scrapers {
		byTarget[s.Target()] = s
		order = append(order, s.Target())
	}
	if dailyCap <= 0 {
		dailyCap = 10
	}
	return &Orchestrator{
		scrapers:  byTarget,
		order:     order,
		llm:       llm,
		store:     store,
		answers:   answers,
		renderer:  renderer,
		profile:   models.NewUserProfile(profile),
		outputDir: outputDir,
		dailyCap:  dailyCap,
		logger:    logger,
		now:       time.Now,
	}
}

// SetPersistence attaches an application mirror. Call before serving.
func (o *Orchestrator) SetPersistence(p ApplicationMirror) { o.persist = p }

func (o *Orchestrator) mirror(app *models.Application) {
	if o.persist == nil || app == nil {
		return
	}
	if err := o.persist.Save(*app); err != nil {
		o.logger.Warn("persisting application failed", map[string]any{"application_id": app.ID, "error": err.Error()})
	}
}

// Profile returns the current operator profile.
func (o *Orchestrator) Profile() models.UserProfile {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.profile
}

// UpdateProfile replaces the operator profile, filling defaults.
func (o *Orchestrator) UpdateProfile(p models.UserProfile) models.UserProfile {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.profile = models.NewUserProfile(p)
	return o.profile
}

// DiscoverJobs runs every configured scraper in parallel, caches the
// postings, and returns per-target outcomes with matches sorted by score.
func (o *Orchestrator) DiscoverJobs(filters dataset.Filters) []DiscoveryOutcome {
	results := make(chan SearchResult, len(o.order))

	var wg sync.WaitGroup
	for _, target := range o.order {
		wg.Add(1)
		go func(s *SiteScraper) {
			defer wg.Done()
			results <- s.SearchJobs(filters)
		}(o.scrapers[target])
	}
	wg.Wait()
	close(results)

	profile := o.Profile()
	byTarget := make(map[string]DiscoveryOutcome, len(o.order))
	for result := range results {
		outcome := DiscoveryOutcome{
			Target:  result.Target,
			Source:  result.Source,
			Reason:  result.Reason,
			Matches: make([]models.ScoredJob, 0, len(result.Jobs)),
		}
		for _, job := range result.Jobs {
			o.store.CacheJob(job)
			outcome.Matches = append(outcome.Matches, models.ScoredJob{
				Job:   job,
				Match: models.ComputeMatchScore(job, profile),
			})
		}
		sort.SliceStable(outcome.Matches, func(i, j int) bool {
			return outcome.Matches[i].Match.Score > outcome.Matches[j].Match.Score
		})
		byTarget[result.Target] = outcome
	}

	outcomes := make([]DiscoveryOutcome, 0, len(o.order))
	for _, target := range o.order {
		outcomes = append(outcomes, byTarget[target])
	}
	return outcomes
}

func (o *Orchestrator) submittedToday() int {
	today := o.now().Format("2006-01-02")
	count := 0
	for _, app := range o.store.List() {
		if app.Timestamps.SubmittedAt != nil && app.Timestamps.SubmittedAt.Format("2006-01-02") == today {
			count++
		}
	}
	return count
}

// Apply runs the full apply flow for a cached posting and records the
// outcome in the pipeline. A panic anywhere in the browser flow is caught
// and reported as a field error rather than taking the process down.
func (o *Orchestrator) Apply(jobID string, opts ApplicationOptions, resumePath string) (app *models.Application, result ApplyResult, err error) {
	// One apply flow at a time: the daily cap check and the browser session
	// both assume no concurrent sibling.
	o.applyMu.Lock()
	defer o.applyMu.Unlock()

	job, ok := o.store.Job(jobID)
	if !ok {
		return nil, ApplyResult{}, fmt.Errorf("unknown job: %s", jobID)
	}

	if o.submittedToday() >= o.dailyCap {
		return nil, ApplyResult{}, fmt.Errorf("daily application cap reached (%d)", o.dailyCap)
	}

	app, err = o.store.CreateFromJob(job, opts)
	if err != nil {
		return nil, ApplyResult{}, err
	}

	scraper, ok := o.scrapers[job.Source]
	if !ok {
		return app, ApplyResult{}, fmt.Errorf("no scraper configured for source %s", job.Source)
	}

	defer func() {
		if r := recover(); r != nil {
			result.FieldErrors = append(result.FieldErrors, models.FieldError{
				Field:  "exception",
				Reason: fmt.Sprint(r),
			})
			err = fmt.Errorf("apply flow failed on %s: %v", job.Source, r)
			o.logger.Error("apply flow panic", err, map[string]any{"job_id": jobID})
		}
		if app != nil {
			if latest, found := o.store.Find(app.ID); found {
				o.mirror(latest)
			}
		}
	}()

	result, err = scraper.Apply(job, o.answers, resumePath)

	if result.Evidence.ScreenshotPath != "" || result.Evidence.DOMPath != "" {
		_ = o.store.AttachEvidence(app.ID, models.Evidence{
			ScreenshotPath: result.Evidence.ScreenshotPath,
			LogPath:        result.Evidence.DOMPath,
		})
	}

	if err == nil && result.Submitted {
		app, err = o.store.UpdateStatus(app.ID, string(models.StatusApplied))
	}
	return app, result, err
}

// ListApplications returns tracked applications, most recently updated
// first.
func (o *Orchestrator) ListApplications() []models.Application {
	return o.store.List()
}

// SetStatus moves an application to a new pipeline stage.
func (o *Orchestrator) SetStatus(applicationID, status string) (*models.Application, error) {
	app, err := o.store.UpdateStatus(applicationID, status)
	if err != nil {
		return nil, err
	}
	o.mirror(app)
	return app, nil
}

// Summary counts applications per pipeline stage.
func (o *Orchestrator) Summary() map[models.ApplicationStatus]int {
	return o.store.Summary()
}

func (o *Orchestrator) generate(ctx context.Context, templateKey string, vars map[string]any) (out string, err error) {
	if o.llm == nil {
		return "", fmt.Errorf("no llm session configured")
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generation flow failed for %s: %v", templateKey, r)
			o.logger.Error("generation flow panic", err)
		}
	}()

	prompt, err := o.renderer.Render(templateKey, vars)
	if err != nil {
		return "", err
	}
	out, state, err := o.llm.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if state.RequiresUser {
		return "", fmt.Errorf("llm session requires operator attention: %s", state.Reason)
	}
	return out, nil
}

func jobText(job models.JobPosting) string {
	return fmt.Sprintf("%s - %s (%s)\n%s", job.Title, job.Company, job.Location, job.Description)
}

// GenerateCoverLetter drafts a cover letter for a cached posting and
// exports it as a Word document. Export failure is logged but does not
// discard the generated text.
func (o *Orchestrator) GenerateCoverLetter(ctx context.Context, jobID, companyNotes string) (string, string, error) {
	job, ok := o.store.Job(jobID)
	if !ok {
		return "", "", fmt.Errorf("unknown job: %s", jobID)
	}
	profile := o.Profile()

	lang := job.Language
	if lang == "" {
		lang = "tr"
	}
	text, err := o.generate(ctx, "cover_letter", map[string]any{
		"LANG":          lang,
		"TONE":          profile.CoverTone,
		"JOB_TEXT":      jobText(job),
		"ACHIEVEMENTS":  profile.Highlights,
		"COMPANY_NOTES": companyNotes,
	})
	if err != nil {
		return "", "", err
	}

	docPath, exportErr := utils.ExportDocument(o.outputDir, "cover-letter-"+jobID, "Ön Yazı - "+job.Company, text)
	if exportErr != nil {
		o.logger.Warn("cover letter export failed", map[string]any{"error": exportErr.Error()})
		docPath = ""
	}
	return text, docPath, nil
}

// TailorResume rewrites a resume against a cached posting and exports the
// result as a Word document.
func (o *Orchestrator) TailorResume(ctx context.Context, jobID, resumeText string) (string, string, error) {
	job, ok := o.store.Job(jobID)
	if !ok {
		return "", "", fmt.Errorf("unknown job: %s", jobID)
	}

	text, err := o.generate(ctx, "resume_tailoring", map[string]any{
		"JOB_TEXT":      jobText(job),
		"RESUME_TEXT":   resumeText,
		"TARGET_SKILLS": job.Skills,
	})
	if err != nil {
		return "", "", err
	}

	docPath, exportErr := utils.ExportDocument(o.outputDir, "resume-"+jobID, "Özgeçmiş - "+job.Title, text)
	if exportErr != nil {
		o.logger.Warn("resume export failed", map[string]any{"error": exportErr.Error()})
		docPath = ""
	}
	return text, docPath, nil
}

// AnswerFormQuestion answers one application-form question. Saved answers
// win over a fresh generation; new answers are written through to the
// answer store under the question's normalized key.
func (o *Orchestrator) AnswerFormQuestion(ctx context.Context, question, lang string) (string, error) {
	key := NormalizeQuestionKey(question)
	if key == "" {
		return "", fmt.Errorf("empty question")
	}
	if answer, ok := o.answers.Lookup(key); ok {
		return answer, nil
	}

	answer, err := o.generate(ctx, "form_qa", map[string]any{
		"QUESTION": question,
		"PROFILE":  o.Profile(),
		"VAULT":    "(kayıtlı yanıt yok)",
	})
	if err != nil {
		return "", err
	}

	if saveErr := o.answers.Save(models.AnswerEntry{
		QuestionKey: key,
		Answer:      answer,
		Lang:        lang,
		UpdatedAt:   o.now(),
	}); saveErr != nil {
		o.logger.Warn("saving generated answer failed", map[string]any{"key": key, "error": saveErr.Error()})
	}
	return answer, nil
}

// AskForMissing drafts the questions an operator should be asked to fill
// gaps in the profile.
func (o *Orchestrator) AskForMissing(ctx context.Context, fields []string) (string, error) {
	if len(fields) == 0 {
		return "", fmt.Errorf("no missing fields named")
	}
	return o.generate(ctx, "missing_info", map[string]any{
		"MISSING_FIELDS": fields,
	})
}

// TestSession verifies the LLM front-end is reachable and responsive.
func (o *Orchestrator) TestSession(ctx context.Context) SessionProbe {
	if o.llm == nil {
		return SessionProbe{Error: "no llm session configured"}
	}
	prompt, err := o.renderer.Render("session_probe", nil)
	if err != nil {
		return SessionProbe{Provider: o.llm.Provider(), Error: err.Error()}
	}
	return o.llm.TestSession(ctx, prompt)
}
