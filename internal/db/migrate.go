package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are idempotent and re-run on
// every open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN is not idempotent in SQLite.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL DEFAULT '',
		document       TEXT NOT NULL DEFAULT '',
		location       TEXT NOT NULL,
		admitted_at    TEXT NOT NULL,
		tier           INTEGER CHECK (tier IS NULL OR tier BETWEEN 1 AND 5),
		pending_notes  TEXT NOT NULL DEFAULT '',
		disposition    TEXT NOT NULL DEFAULT ''
			CHECK (disposition IN ('', 'hospitalization', 'observation', 'discharged')),
		observation_at TEXT,
		discharged_at  TEXT,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_patients_admitted ON patients(admitted_at)`,
	`CREATE INDEX IF NOT EXISTS idx_patients_location ON patients(location)`,

	`CREATE TABLE IF NOT EXISTS patient_stages (
		patient_id   TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
		stage        TEXT NOT NULL,
		status       TEXT NOT NULL,
		started_at   TEXT,
		requested_at TEXT,
		completed_at TEXT,
		updated_at   TEXT NOT NULL,
		PRIMARY KEY (patient_id, stage)
	)`,

	`CREATE TABLE IF NOT EXISTS display_preferences (
		user_id          TEXT PRIMARY KEY,
		area_filters     TEXT NOT NULL DEFAULT '[]',
		rotation_seconds INTEGER NOT NULL DEFAULT 10,
		updated_at       TEXT NOT NULL
	)`,
}
