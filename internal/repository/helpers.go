package repository

import (
	"database/sql"
	"time"

	"github.com/alexanderramin/edboard/internal/domain"
)

// timeLayout is used for every stored timestamp. Values are always UTC so
// that string comparison orders them chronologically.
const timeLayout = time.RFC3339

// parseNullableTime parses a sql.NullString into a *time.Time.
// Returns nil if the value is NULL, empty, or fails to parse.
func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// nullableTimeToString converts a *time.Time to a value suitable for SQLite
// storage, or SQL NULL for nil.
func nullableTimeToString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// tierToValue stores TierNone as SQL NULL.
func tierToValue(t domain.SeverityTier) any {
	if !t.Valid() {
		return nil
	}
	return int(t)
}

func tierFromNull(v sql.NullInt64) domain.SeverityTier {
	if !v.Valid {
		return domain.TierNone
	}
	t := domain.SeverityTier(v.Int64)
	if !t.Valid() {
		return domain.TierNone
	}
	return t
}

// nowUTC returns the current UTC time in the storage layout.
func nowUTC() string {
	return formatTime(time.Now())
}
