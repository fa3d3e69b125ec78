package repository

import (
	"context"

	"github.com/alexanderramin/edboard/internal/board"
	"github.com/alexanderramin/edboard/internal/domain"
)

// PatientRepo stores patients and the state of their stages.
type PatientRepo interface {
	board.SnapshotSource
	Create(ctx context.Context, p *domain.PatientSnapshot) error
	GetByID(ctx context.Context, id string) (*domain.PatientSnapshot, error)
	Update(ctx context.Context, p *domain.PatientSnapshot) error
	Delete(ctx context.Context, id string) error
	ListAreas(ctx context.Context) ([]string, error)
}

// PreferencesRepo stores per-user display preferences.
type PreferencesRepo interface {
	LoadAreaFilters(ctx context.Context, userID string) ([]string, error)
	SaveAreaFilters(ctx context.Context, userID string, areas []string) error
	LoadRotationInterval(ctx context.Context, userID string) (int, error)
	SaveRotationInterval(ctx context.Context, userID string, seconds int) error
}
