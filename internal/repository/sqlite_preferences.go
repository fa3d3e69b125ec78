package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexanderramin/edboard/internal/db"
)

// SQLitePreferencesRepo implements PreferencesRepo on the
// display_preferences table, one row per user.
type SQLitePreferencesRepo struct {
	db db.DBTX
}

// NewSQLitePreferencesRepo creates a new SQLitePreferencesRepo.
func NewSQLitePreferencesRepo(conn db.DBTX) *SQLitePreferencesRepo {
	return &SQLitePreferencesRepo{db: conn}
}

func (r *SQLitePreferencesRepo) LoadAreaFilters(ctx context.Context, userID string) ([]string, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT area_filters FROM display_preferences WHERE user_id = ?`, userID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("area filters for %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("loading area filters: %w", err)
	}
	var areas []string
	if err := json.Unmarshal([]byte(raw), &areas); err != nil {
		return nil, fmt.Errorf("decoding area filters: %w", err)
	}
	return areas, nil
}

func (r *SQLitePreferencesRepo) SaveAreaFilters(ctx context.Context, userID string, areas []string) error {
	if areas == nil {
		areas = []string{}
	}
	raw, err := json.Marshal(areas)
	if err != nil {
		return fmt.Errorf("encoding area filters: %w", err)
	}
	query := `INSERT INTO display_preferences (user_id, area_filters, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			area_filters = excluded.area_filters,
			updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, userID, string(raw), nowUTC()); err != nil {
		return fmt.Errorf("saving area filters: %w", err)
	}
	return nil
}

func (r *SQLitePreferencesRepo) LoadRotationInterval(ctx context.Context, userID string) (int, error) {
	var seconds int
	err := r.db.QueryRowContext(ctx,
		`SELECT rotation_seconds FROM display_preferences WHERE user_id = ?`, userID,
	).Scan(&seconds)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("rotation interval for %s: %w", userID, ErrNotFound)
		}
		return 0, fmt.Errorf("loading rotation interval: %w", err)
	}
	return seconds, nil
}

func (r *SQLitePreferencesRepo) SaveRotationInterval(ctx context.Context, userID string, seconds int) error {
	query := `INSERT INTO display_preferences (user_id, rotation_seconds, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			rotation_seconds = excluded.rotation_seconds,
			updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, userID, seconds, nowUTC()); err != nil {
		return fmt.Errorf("saving rotation interval: %w", err)
	}
	return nil
}
