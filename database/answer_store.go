package database

import (
	"database/sql"
	"fmt"
	"time"

	"jobpilot/models"
)

const answersSchema = `
CREATE TABLE IF NOT EXISTS form_answers (
    question_key TEXT PRIMARY KEY,
    answer       TEXT NOT NULL,
    lang         TEXT NOT NULL DEFAULT '',
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// AnswerStore persists form answers in Postgres, keyed by normalized
// question key.
type AnswerStore struct {
	db *sql.DB
}

// NewAnswerStore bootstraps the answers table and returns the store.
func NewAnswerStore(db *sql.DB) (*AnswerStore, error) {
	if _, err := db.Exec(answersSchema); err != nil {
		return nil, fmt.Errorf("error creating form_answers table: %v", err)
	}
	return &AnswerStore{db: db}, nil
}

// Lookup returns the saved answer for a question key.
func (s *AnswerStore) Lookup(key string) (string, bool) {
	var answer string
	err := s.db.QueryRow(`SELECT answer FROM form_answers WHERE question_key = $1`, key).Scan(&answer)
	if err != nil {
		return "", false
	}
	return answer, true
}

// Save upserts an answer.
func (s *AnswerStore) Save(entry models.AnswerEntry) error {
	if entry.QuestionKey == "" {
		return fmt.Errorf("answer entry has no question key")
	}
	updatedAt := entry.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO form_answers (question_key, answer, lang, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (question_key)
		DO UPDATE SET answer = $2, lang = $3, updated_at = $4`,
		entry.QuestionKey, entry.Answer, entry.Lang, updatedAt)
	if err != nil {
		return fmt.Errorf("error saving form answer: %v", err)
	}
	return nil
}

// Entries returns every saved answer sorted by question key.
func (s *AnswerStore) Entries() ([]models.AnswerEntry, error) {
	rows, err := s.db.Query(`
		SELECT question_key, answer, lang, updated_at
		FROM form_answers ORDER BY question_key`)
	if err != nil {
		return nil, fmt.Errorf("error listing form answers: %v", err)
	}
	defer rows.Close()

	var entries []models.AnswerEntry
	for rows.Next() {
		var entry models.AnswerEntry
		if err := rows.Scan(&entry.QuestionKey, &entry.Answer, &entry.Lang, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning form answer: %v", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Delete removes a saved answer. Missing keys are a no-op.
func (s *AnswerStore) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM form_answers WHERE question_key = $1`, key); err != nil {
		return fmt.Errorf("error deleting form answer: %v", err)
	}
	return nil
}
