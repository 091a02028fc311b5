package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// BrowserConfig holds the launch defaults shared by every automated session.
type BrowserConfig struct {
	Engine      string // chromium, firefox, webkit
	Headless    bool
	Locale      string
	UserAgent   string
	ViewportW   int
	ViewportH   int
	SlowMoMs    float64
	ProfileRoot string
}

// AntiStallConfig toggles the nudges used when a generation stops updating.
type AntiStallConfig struct {
	Scroll  bool
	Refocus bool
	Jitter  bool
}

// RateLimits is requests-per-minute pacing, per target with a global default.
type RateLimits struct {
	Global    int
	PerTarget map[string]int
}

type AppConfig struct {
	Port               string
	Environment        string
	AutomationDisabled bool
	LLMProvider        string // chatgpt, gemini, claude
	ArtifactDir        string
	OutputDir          string
	ResumeFilePath     string
	VaultPath          string
	VaultPassphrase    string
	CompletionTimeout  time.Duration
	PromptMaxChars     int
	PromptOverlap      int
	DailyCap           int
	Browser            BrowserConfig
	AntiStall          AntiStallConfig
	RateLimits         RateLimits
	Database           DatabaseConfig
}

func GetDatabaseConfig() DatabaseConfig {
	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))

	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

func GetBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Engine:      getEnv("BROWSER_ENGINE", "chromium"),
		Headless:    getBoolEnv("BROWSER_HEADLESS", false),
		Locale:      getEnv("BROWSER_LOCALE", "tr-TR"),
		UserAgent:   getEnv("BROWSER_USER_AGENT", ""),
		ViewportW:   getIntEnv("BROWSER_VIEWPORT_W", 1366),
		ViewportH:   getIntEnv("BROWSER_VIEWPORT_H", 860),
		SlowMoMs:    float64(getIntEnv("BROWSER_SLOWMO_MS", 40)),
		ProfileRoot: getEnv("BROWSER_PROFILE_ROOT", "profiles"),
	}
}

func GetRateLimits() RateLimits {
	perTarget := map[string]int{}
	// TARGET_RATE_LIMITS=linkedin:2,indeed:3
	if raw := getEnv("TARGET_RATE_LIMITS", ""); raw != "" {
		for _, pair := range strings.Split(raw, ",") {
			parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
			if len(parts) != 2 {
				continue
			}
			if limit, err := strconv.Atoi(parts[1]); err == nil && limit > 0 {
				perTarget[parts[0]] = limit
			}
		}
	}

	return RateLimits{
		Global:    getIntEnv("GLOBAL_RATE_LIMIT", 4),
		PerTarget: perTarget,
	}
}

func GetAppConfig() AppConfig {
	return AppConfig{
		Port:               getEnv("PORT", "8081"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		AutomationDisabled: getBoolEnv("AUTOMATION_DISABLED", false),
		LLMProvider:        getEnv("LLM_PROVIDER", "chatgpt"),
		ArtifactDir:        getEnv("ARTIFACT_DIR", "artifacts"),
		OutputDir:          getEnv("OUTPUT_DIR", "output"),
		ResumeFilePath:     getEnv("RESUME_FILE_PATH", ""),
		VaultPath:          getEnv("VAULT_PATH", "vault.bin"),
		VaultPassphrase:    getEnv("VAULT_PASSPHRASE", ""),
		CompletionTimeout:  time.Duration(getIntEnv("COMPLETION_TIMEOUT_S", 120)) * time.Second,
		PromptMaxChars:     getIntEnv("PROMPT_MAX_CHARS", 3500),
		PromptOverlap:      getIntEnv("PROMPT_OVERLAP", 200),
		DailyCap:           getIntEnv("DAILY_CAP", 10),
		Browser:            GetBrowserConfig(),
		AntiStall: AntiStallConfig{
			Scroll:  getBoolEnv("ANTISTALL_SCROLL", true),
			Refocus: getBoolEnv("ANTISTALL_REFOCUS", true),
			Jitter:  getBoolEnv("ANTISTALL_JITTER", true),
		},
		RateLimits: GetRateLimits(),
		Database:   GetDatabaseConfig(),
	}
}

// LimitFor returns the per-target limit, falling back to the global default.
func (r RateLimits) LimitFor(target string) int {
	if limit, ok := r.PerTarget[target]; ok && limit > 0 {
		return limit
	}
	if r.Global > 0 {
		return r.Global
	}
	return 4
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
