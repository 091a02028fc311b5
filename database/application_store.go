package database

import (
	"database/sql"
	"fmt"

	"jobpilot/models"
)

const applicationsSchema = `
CREATE TABLE IF NOT EXISTS applications (
    id                TEXT PRIMARY KEY,
    job_id            TEXT NOT NULL,
    resume_variant_id TEXT NOT NULL DEFAULT '',
    cover_letter_id   TEXT NOT NULL DEFAULT '',
    status            TEXT NOT NULL,
    notes             TEXT NOT NULL DEFAULT '',
    screenshot_path   TEXT NOT NULL DEFAULT '',
    log_path          TEXT NOT NULL DEFAULT '',
    created_at        TIMESTAMPTZ NOT NULL,
    updated_at        TIMESTAMPTZ NOT NULL,
    submitted_at      TIMESTAMPTZ
)`

// ApplicationStore mirrors the in-memory pipeline into Postgres so tracked
// applications survive restarts.
type ApplicationStore struct {
	db *sql.DB
}

// NewApplicationStore bootstraps the applications table and returns the
// store.
func NewApplicationStore(db *sql.DB) (*ApplicationStore, error) {
	if _, err := db.Exec(applicationsSchema); err != nil {
		return nil, fmt.Errorf("error creating applications table: %v", err)
	}
	return &ApplicationStore{db: db}, nil
}

// Save upserts one application row.
func (s *ApplicationStore) Save(app models.Application) error {
	_, err := s.db.Exec(`
		INSERT INTO applications
			(id, job_id, resume_variant_id, cover_letter_id, status, notes,
			 screenshot_path, log_path, created_at, updated_at, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			resume_variant_id = $3, cover_letter_id = $4, status = $5,
			notes = $6, screenshot_path = $7, log_path = $8,
			updated_at = $10, submitted_at = $11`,
		app.ID, app.JobID, app.ResumeVariantID, app.CoverLetterID,
		string(app.Status), app.Notes,
		app.Evidence.ScreenshotPath, app.Evidence.LogPath,
		app.Timestamps.CreatedAt, app.Timestamps.UpdatedAt, app.Timestamps.SubmittedAt)
	if err != nil {
		return fmt.Errorf("error saving application: %v", err)
	}
	return nil
}

// LoadAll returns every persisted application, most recently updated first.
func (s *ApplicationStore) LoadAll() ([]models.Application, error) {
	rows, err := s.db.Query(`
		SELECT id, job_id, resume_variant_id, cover_letter_id, status, notes,
		       screenshot_path, log_path, created_at, updated_at, submitted_at
		FROM applications ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("error listing applications: %v", err)
	}
	defer rows.Close()

	var apps []models.Application
	for rows.Next() {
		var app models.Application
		var status string
		if err := rows.Scan(&app.ID, &app.JobID, &app.ResumeVariantID, &app.CoverLetterID,
			&status, &app.Notes,
			&app.Evidence.ScreenshotPath, &app.Evidence.LogPath,
			&app.Timestamps.CreatedAt, &app.Timestamps.UpdatedAt, &app.Timestamps.SubmittedAt); err != nil {
			return nil, fmt.Errorf("error scanning application: %v", err)
		}
		app.Status = models.NormalizeStatus(status)
		apps = append(apps, app)
	}
	return apps, rows.Err()
}
