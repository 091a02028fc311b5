package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/playwright-community/playwright-go"

	"jobpilot/config"
	"jobpilot/database"
	"jobpilot/handlers"
	"jobpilot/middleware"
	"jobpilot/models"
	"jobpilot/prompts"
	"jobpilot/services"
	"jobpilot/utils"
	"jobpilot/vault"
)

func main() {
	if err := godotenv.Load(); err != nil {
		utils.LogWarn("No .env file loaded, using environment defaults")
	}

	cfg := config.GetAppConfig()

	var pw *playwright.Playwright
	if !cfg.AutomationDisabled {
		var err error
		pw, err = playwright.Run()
		if err != nil {
			utils.LogWarn("Playwright driver unavailable, running on dataset fallback only", map[string]any{"error": err.Error()})
			pw = nil
		}
	}
	disabled := cfg.AutomationDisabled || pw == nil

	throttle := services.NewThrottle(cfg.RateLimits)
	artifacts := services.NewArtifactService(cfg.ArtifactDir, nil)

	var managers []*services.SessionManager
	scrapers := make([]*services.SiteScraper, 0, 3)
	for _, target := range []string{"linkedin", "indeed", "hiringcafe"} {
		profile := services.JobSiteProfiles(cfg.AntiStall)[target]
		sessions := services.NewSessionManager(pw, target, cfg.Browser, disabled, nil)
		managers = append(managers, sessions)
		scrapers = append(scrapers, services.NewSiteScraper(profile, sessions, throttle, artifacts, nil))
	}

	var llm *services.LLMSession
	if profile, ok := services.LLMProviderProfiles(cfg.AntiStall)[cfg.LLMProvider]; ok {
		sessions := services.NewSessionManager(pw, profile.TargetID, cfg.Browser, disabled, nil)
		managers = append(managers, sessions)
		llm = services.NewLLMSession(profile, sessions, throttle, artifacts,
			cfg.CompletionTimeout, cfg.PromptMaxChars, cfg.PromptOverlap, nil)
	} else {
		utils.LogWarn("Unknown LLM provider, generation endpoints disabled", map[string]any{"provider": cfg.LLMProvider})
	}

	renderer, err := prompts.NewRenderer()
	if err != nil {
		utils.LogError("Failed to load prompt templates", err)
		os.Exit(1)
	}

	// Answers and the pipeline persist to Postgres when configured;
	// otherwise answers go to the local encrypted vault and the pipeline
	// stays in memory.
	store := services.NewPipelineStore()
	var answers services.AnswerStore
	var appStore *database.ApplicationStore
	if cfg.Database.DBName != "" {
		db, err := database.Connect(cfg.Database)
		if err != nil {
			utils.LogError("Database connection failed", err)
			os.Exit(1)
		}
		defer db.Close()

		answerStore, err := database.NewAnswerStore(db)
		if err != nil {
			utils.LogError("Answer store bootstrap failed", err)
			os.Exit(1)
		}
		answers = answerStore

		appStore, err = database.NewApplicationStore(db)
		if err != nil {
			utils.LogError("Application store bootstrap failed", err)
			os.Exit(1)
		}
		persisted, err := appStore.LoadAll()
		if err != nil {
			utils.LogError("Loading persisted applications failed", err)
			os.Exit(1)
		}
		store.Restore(persisted)
	} else {
		v, err := vault.Open(cfg.VaultPath, cfg.VaultPassphrase)
		if err != nil {
			utils.LogError("Opening answer vault failed", err)
			os.Exit(1)
		}
		answers = v
	}

	orch := services.NewOrchestrator(scrapers, llm, store, answers, renderer,
		models.UserProfile{}, cfg.OutputDir, cfg.DailyCap, nil)
	if appStore != nil {
		orch.SetPersistence(appStore)
	}

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(cors.Default())
	r.Use(middleware.NewRateLimiter(120, time.Minute).Limit())

	handlers.New(orch).RegisterRoutes(r)

	go func() {
		utils.LogInfo("Server starting", map[string]any{"port": cfg.Port, "automation_disabled": disabled})
		if err := r.Run(":" + cfg.Port); err != nil {
			utils.LogError("Server stopped", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.LogInfo("Shutting down, closing browser sessions")
	for _, m := range managers {
		_ = m.Dispose()
	}
	if pw != nil {
		_ = pw.Stop()
	}
}
