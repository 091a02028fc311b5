// Package handlers exposes the automation engine over a thin JSON API.
// Every handler delegates to the orchestrator; no browser or LLM logic
// lives here.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobpilot/dataset"
	"jobpilot/models"
	"jobpilot/services"
	"jobpilot/utils"
)

// Handler carries the orchestrator into the gin routes.
type Handler struct {
	orch *services.Orchestrator
}

// New builds the handler set.
func New(orch *services.Orchestrator) *Handler {
	return &Handler{orch: orch}
}

// RegisterRoutes mounts the API under /api.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/health", h.Health)

	api.POST("/jobs/discover", h.DiscoverJobs)
	api.POST("/jobs/apply", h.Apply)

	api.GET("/pipeline", h.Pipeline)
	api.POST("/pipeline/status", h.UpdateStatus)

	api.GET("/profile", h.GetProfile)
	api.PUT("/profile", h.UpdateProfile)

	api.POST("/llm/cover-letter", h.CoverLetter)
	api.POST("/llm/tailor-resume", h.TailorResume)
	api.POST("/llm/answer", h.AnswerQuestion)
	api.POST("/llm/ask-missing", h.AskMissing)
	api.POST("/llm/test-session", h.TestSession)
}

// Health reports process liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DiscoverJobs runs discovery across every configured board.
func (h *Handler) DiscoverJobs(c *gin.Context) {
	var filters dataset.Filters
	if err := c.ShouldBindJSON(&filters); err != nil {
		utils.BadRequestError(c, "Invalid discovery filters", err)
		return
	}

	outcomes := h.orch.DiscoverJobs(filters)
	utils.SuccessResponse(c, http.StatusOK, "Discovery complete", outcomes)
}

// ApplyRequest starts an apply flow for a discovered job.
type ApplyRequest struct {
	JobID           string `json:"job_id" binding:"required"`
	ResumeVariantID string `json:"resume_variant_id"`
	CoverLetterID   string `json:"cover_letter_id"`
	Notes           string `json:"notes"`
	ResumePath      string `json:"resume_path"`
}

// ApplyResponse reports the apply outcome with the tracked application.
type ApplyResponse struct {
	Application *models.Application  `json:"application,omitempty"`
	Result      services.ApplyResult `json:"result"`
}

// Apply runs the full apply flow for one cached posting.
func (h *Handler) Apply(c *gin.Context) {
	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestError(c, "Invalid apply request", err)
		return
	}

	app, result, err := h.orch.Apply(req.JobID, services.ApplicationOptions{
		ResumeVariantID: req.ResumeVariantID,
		CoverLetterID:   req.CoverLetterID,
		Notes:           req.Notes,
	}, req.ResumePath)

	response := ApplyResponse{Application: app, Result: result}
	if err != nil {
		c.JSON(http.StatusBadGateway, utils.StandardResponse{
			Success: false,
			Message: "Apply flow did not complete",
			Data:    response,
			Error:   err.Error(),
		})
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Application submitted", response)
}

// PipelineResponse lists tracked applications with per-stage counts.
type PipelineResponse struct {
	Applications []models.Application             `json:"applications"`
	Summary      map[models.ApplicationStatus]int `json:"summary"`
}

// Pipeline lists tracked applications, most recently updated first.
func (h *Handler) Pipeline(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Pipeline", PipelineResponse{
		Applications: h.orch.ListApplications(),
		Summary:      h.orch.Summary(),
	})
}

// StatusRequest moves an application to a new stage.
type StatusRequest struct {
	ApplicationID string `json:"application_id" binding:"required"`
	Status        string `json:"status" binding:"required"`
}

// UpdateStatus moves an application to a new pipeline stage.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestError(c, "Invalid status update", err)
		return
	}

	app, err := h.orch.SetStatus(req.ApplicationID, req.Status)
	if err != nil {
		utils.NotFoundError(c, err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Status updated", app)
}

// GetProfile returns the operator profile.
func (h *Handler) GetProfile(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Profile", h.orch.Profile())
}

// UpdateProfile replaces the operator profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var profile models.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		utils.BadRequestError(c, "Invalid profile", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Profile updated", h.orch.UpdateProfile(profile))
}

// CoverLetterRequest drafts a cover letter for a discovered job.
type CoverLetterRequest struct {
	JobID        string `json:"job_id" binding:"required"`
	CompanyNotes string `json:"company_notes"`
}

// GenerationResponse carries generated text and its exported document.
type GenerationResponse struct {
	Text    string `json:"text"`
	DocPath string `json:"doc_path,omitempty"`
}

// CoverLetter drafts and exports a cover letter.
func (h *Handler) CoverLetter(c *gin.Context) {
	var req CoverLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestError(c, "Invalid cover letter request", err)
		return
	}

	text, docPath, err := h.orch.GenerateCoverLetter(c.Request.Context(), req.JobID, req.CompanyNotes)
	if err != nil {
		utils.InternalServerError(c, "Cover letter generation failed", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Cover letter generated", GenerationResponse{Text: text, DocPath: docPath})
}

// TailorRequest rewrites a resume against a discovered job.
type TailorRequest struct {
	JobID      string `json:"job_id" binding:"required"`
	ResumeText string `json:"resume_text" binding:"required"`
}

// TailorResume rewrites and exports a resume for one posting.
func (h *Handler) TailorResume(c *gin.Context) {
	var req TailorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestError(c, "Invalid resume tailoring request", err)
		return
	}

	text, docPath, err := h.orch.TailorResume(c.Request.Context(), req.JobID, req.ResumeText)
	if err != nil {
		utils.InternalServerError(c, "Resume tailoring failed", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Resume tailored", GenerationResponse{Text: text, DocPath: docPath})
}

// AnswerRequest answers one application-form question.
type AnswerRequest struct {
	Question string `json:"question" binding:"required"`
	Lang     string `json:"lang"`
}

// AnswerQuestion answers a form question, preferring saved answers.
func (h *Handler) AnswerQuestion(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestError(c, "Invalid question", err)
		return
	}

	answer, err := h.orch.AnswerFormQuestion(c.Request.Context(), req.Question, req.Lang)
	if err != nil {
		utils.InternalServerError(c, "Answer generation failed", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Answer ready", gin.H{"answer": answer})
}

// AskMissingRequest names the profile fields still unknown.
type AskMissingRequest struct {
	Fields []string `json:"fields" binding:"required"`
}

// AskMissing drafts operator questions for missing profile fields.
func (h *Handler) AskMissing(c *gin.Context) {
	var req AskMissingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestError(c, "Invalid missing-info request", err)
		return
	}

	questions, err := h.orch.AskForMissing(c.Request.Context(), req.Fields)
	if err != nil {
		utils.InternalServerError(c, "Missing-info generation failed", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Questions ready", gin.H{"questions": questions})
}

// TestSession probes the LLM front-end session.
func (h *Handler) TestSession(c *gin.Context) {
	probe := h.orch.TestSession(c.Request.Context())
	if !probe.OK {
		c.JSON(http.StatusBadGateway, utils.StandardResponse{
			Success: false,
			Message: "Session probe failed",
			Data:    probe,
			Error:   probe.Error,
		})
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Session ready", probe)
}
