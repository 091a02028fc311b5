package services

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"jobpilot/models"
	"jobpilot/utils"
)

// ArtifactService captures debug evidence (screenshot plus serialized DOM)
// into a local directory, optionally mirrored to S3. Capture is a detached
// side channel: it swallows every failure, because a missing artifact must
// never fail the operation that asked for it.
type ArtifactService struct {
	dir    string
	s3     *S3Service
	logger *utils.Logger
}

// NewArtifactService builds the service. S3 mirroring turns on only when
// AWS credentials are present.
func NewArtifactService(dir string, logger *utils.Logger) *ArtifactService {
	if logger == nil {
		logger = utils.GlobalLogger
	}
	s3Service, err := NewS3Service()
	if err != nil {
		logger.Debug("artifact S3 mirroring unavailable", err.Error())
		s3Service = nil
	}
	return &ArtifactService{dir: dir, s3: s3Service, logger: logger}
}

// Capture grabs a full-page screenshot and the current DOM for the page.
// Best effort: whatever could be captured is referenced in the result, and
// nothing here ever returns an error.
func (a *ArtifactService) Capture(page playwright.Page, label string) models.ArtifactRef {
	ref := models.ArtifactRef{}
	if page == nil {
		return ref
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		a.logger.Warn("artifact directory unavailable", err.Error())
		return ref
	}

	stem := fmt.Sprintf("%s-%s-%s", label, time.Now().Format("20060102-150405"), uuid.NewString()[:8])

	screenshotPath := filepath.Join(a.dir, stem+".png")
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(screenshotPath),
		FullPage: playwright.Bool(true),
	}); err != nil {
		a.logger.Debug("screenshot capture failed", err.Error())
	} else {
		ref.ScreenshotPath = screenshotPath
	}

	domPath := filepath.Join(a.dir, stem+".html")
	if content, err := page.Content(); err != nil {
		a.logger.Debug("dom capture failed", err.Error())
	} else if err := os.WriteFile(domPath, []byte(content), 0o644); err != nil {
		a.logger.Debug("dom write failed", err.Error())
	} else {
		ref.DOMPath = domPath
	}

	if a.s3 != nil && ref.ScreenshotPath != "" {
		key := "artifacts/" + stem + ".png"
		if _, err := a.s3.UploadFile(ref.ScreenshotPath, key, "image/png"); err != nil {
			a.logger.Debug("artifact upload failed", err.Error())
		} else {
			ref.S3Key = key
		}
	}

	return ref
}
