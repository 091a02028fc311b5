package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobpilot/config"
	"jobpilot/models"
	"jobpilot/prompts"
	"jobpilot/services"
)

type memAnswers map[string]string

func (m memAnswers) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m memAnswers) Save(entry models.AnswerEntry) error {
	m[entry.QuestionKey] = entry.Answer
	return nil
}

func testRouter(t *testing.T) (*gin.Engine, *services.PipelineStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// High API-side limit keeps the browser throttle negligible in tests.
	throttle := services.NewThrottle(config.RateLimits{Global: 60000})
	artifacts := services.NewArtifactService(t.TempDir(), nil)

	scrapers := make([]*services.SiteScraper, 0, 3)
	for _, p := range services.JobSiteProfiles(config.AntiStallConfig{}) {
		sessions := services.NewSessionManager(nil, p.TargetID, config.BrowserConfig{}, true, nil)
		scrapers = append(scrapers, services.NewSiteScraper(p, sessions, throttle, artifacts, nil))
	}

	renderer, err := prompts.NewRenderer()
	require.NoError(t, err)

	store := services.NewPipelineStore()
	orch := services.NewOrchestrator(scrapers, nil, store, memAnswers{}, renderer,
		models.UserProfile{}, t.TempDir(), 10, nil)

	router := gin.New()
	New(orch).RegisterRoutes(router)
	return router, store
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(router, "GET", "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestDiscoverJobsEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(router, "POST", "/api/jobs/discover", map[string]any{})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                        `json:"success"`
		Data    []services.DiscoveryOutcome `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 3)
	for _, outcome := range resp.Data {
		assert.Equal(t, services.SourceFallback, outcome.Source)
		assert.NotEmpty(t, outcome.Matches)
	}
}

func TestApplyUnknownJobEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(router, "POST", "/api/jobs/apply", map[string]any{"job_id": "nope"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "unknown job")
}

func TestApplyValidation(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(router, "POST", "/api/jobs/apply", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPipelineEndpoint(t *testing.T) {
	router, store := testRouter(t)

	job := models.JobPosting{ID: "j1", Source: "linkedin", Title: "Backend Developer"}
	store.CacheJob(job)
	_, err := store.CreateFromJob(job, services.ApplicationOptions{})
	require.NoError(t, err)

	w := doJSON(router, "GET", "/api/pipeline", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data PipelineResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Applications, 1)
	assert.Equal(t, 1, resp.Data.Summary[models.StatusFound])
}

func TestUpdateStatusEndpoint(t *testing.T) {
	router, store := testRouter(t)

	job := models.JobPosting{ID: "j1", Source: "linkedin", Title: "Backend Developer"}
	store.CacheJob(job)
	app, err := store.CreateFromJob(job, services.ApplicationOptions{})
	require.NoError(t, err)

	w := doJSON(router, "POST", "/api/pipeline/status", map[string]any{
		"application_id": app.ID,
		"status":         "hr",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"hr"`)

	w = doJSON(router, "POST", "/api/pipeline/status", map[string]any{
		"application_id": "missing",
		"status":         "hr",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileRoundTrip(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(router, "PUT", "/api/profile", map[string]any{"name": "Ayşe Yılmaz"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ayşe Yılmaz")

	w = doJSON(router, "GET", "/api/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ayşe Yılmaz")
}

func TestAnswerQuestionWithoutLLM(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(router, "POST", "/api/llm/answer", map[string]any{"question": "Beklenen maaş?"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTestSessionWithoutLLM(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(router, "POST", "/api/llm/test-session", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
