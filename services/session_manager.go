package services

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"jobpilot/config"
	"jobpilot/utils"
)

// Launch flags that keep the automated browser from advertising itself.
var antiDetectionArgs = []string{
	"--no-sandbox",
	"--disable-blink-features=AutomationControlled",
	"--disable-extensions",
	"--disable-plugins-discovery",
}

const defaultNavigationTimeoutMs = 45000

// SessionManager owns the persistent browser profile for exactly one target.
// Cookies and local storage survive process restarts through the profile
// directory. At most one context per target exists at a time, and every
// caller assumes exclusive access to its current page.
type SessionManager struct {
	targetID string
	cfg      config.BrowserConfig
	pw       *playwright.Playwright
	logger   *utils.Logger

	mu       sync.Mutex
	context  playwright.BrowserContext
	page     playwright.Page
	disabled bool
	openedAt time.Time
	lastErr  error
}

// NewSessionManager prepares a manager. disabled marks automation as
// administratively off: every EnsureContext call then returns nil without
// ever attempting a launch.
func NewSessionManager(pw *playwright.Playwright, targetID string, cfg config.BrowserConfig, disabled bool, logger *utils.Logger) *SessionManager {
	if logger == nil {
		logger = utils.GlobalLogger
	}
	return &SessionManager{
		targetID: targetID,
		cfg:      cfg,
		pw:       pw,
		logger:   logger.WithTarget(targetID),
		disabled: disabled || pw == nil,
	}
}

// TargetID names the target this manager owns.
func (m *SessionManager) TargetID() string { return m.targetID }

// LastError returns the most recent launch/navigation failure.
func (m *SessionManager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// EnsureContext returns a usable persistent context, launching it on first
// use. A nil return means automation is unavailable for this target; callers
// must fall back to static data, never treat it as an error to propagate.
// A failed launch soft-disables the manager: later calls return nil without
// retrying the launch.
func (m *SessionManager) EnsureContext() playwright.BrowserContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureContextLocked()
}

func (m *SessionManager) ensureContextLocked() playwright.BrowserContext {
	if m.disabled {
		return nil
	}
	if m.context != nil {
		return m.context
	}

	profileDir := filepath.Join(m.cfg.ProfileRoot, m.targetID)
	if err := os.MkdirAll(profileDir, 0o755); err != nil {
		m.lastErr = err
		m.disabled = true
		m.logger.Warn("browser profile directory unavailable, automation disabled", err.Error())
		return nil
	}

	options := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(m.cfg.Headless),
		Args:     antiDetectionArgs,
		Locale:   playwright.String(m.cfg.Locale),
		SlowMo:   playwright.Float(m.cfg.SlowMoMs),
		Viewport: &playwright.Size{Width: m.cfg.ViewportW, Height: m.cfg.ViewportH},
	}
	if m.cfg.UserAgent != "" {
		options.UserAgent = playwright.String(m.cfg.UserAgent)
	}

	context, err := m.browserType().LaunchPersistentContext(profileDir, options)
	if err != nil {
		m.lastErr = err
		m.disabled = true
		m.logger.Warn("browser launch failed, automation disabled for target", err.Error())
		return nil
	}

	m.context = context
	m.openedAt = time.Now()
	m.logger.Info("browser session opened", map[string]any{"profile": profileDir, "engine": m.cfg.Engine})
	return m.context
}

func (m *SessionManager) browserType() playwright.BrowserType {
	switch m.cfg.Engine {
	case "firefox":
		return m.pw.Firefox
	case "webkit":
		return m.pw.WebKit
	default:
		return m.pw.Chromium
	}
}

// NewPage ensures the context, reuses or creates the single active page, and
// navigates it with a network-idle wait and a bounded timeout. Returns nil
// when the context is unavailable or navigation failed.
func (m *SessionManager) NewPage(url string) playwright.Page {
	m.mu.Lock()
	defer m.mu.Unlock()

	context := m.ensureContextLocked()
	if context == nil {
		return nil
	}

	if m.page == nil || m.page.IsClosed() {
		page, err := context.NewPage()
		if err != nil {
			m.lastErr = err
			m.logger.Warn("page creation failed", err.Error())
			return nil
		}
		m.page = page
	}

	if url != "" {
		if _, err := m.page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateNetworkidle,
			Timeout:   playwright.Float(defaultNavigationTimeoutMs),
		}); err != nil {
			m.lastErr = err
			m.logger.Warn("navigation failed", map[string]any{"url": url, "error": err.Error()})
			return nil
		}
	}
	return m.page
}

// Page returns the current page handle without navigating.
func (m *SessionManager) Page() playwright.Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page
}

// Dispose tears the session down. The manager is terminal afterwards.
func (m *SessionManager) Dispose() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.context != nil {
		err = m.context.Close()
		m.context = nil
		m.page = nil
	}
	m.disabled = true
	return err
}
