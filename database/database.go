// Package database holds the optional Postgres persistence layer: saved
// form answers and the application pipeline survive restarts when a
// database is configured, and the engine runs fully in memory when not.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"jobpilot/config"
)

// Connect opens and pings a Postgres connection from the given config.
func Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", psqlInfo)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %v", err)
	}

	return db, nil
}
