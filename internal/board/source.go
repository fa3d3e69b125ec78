package board

import (
	"context"
	"time"

	"github.com/alexanderramin/edboard/internal/domain"
)

// Query selects the patients to fetch. Empty Areas means every area; nil
// bounds leave the admission range open.
type Query struct {
	Areas []string
	From  *time.Time
	To    *time.Time
}

// SnapshotSource provides the current patients. Implementations are
// expected to honor ctx cancellation.
type SnapshotSource interface {
	FetchPatientSnapshots(ctx context.Context, q Query) ([]domain.PatientSnapshot, error)
}

// SourceFunc adapts a function to SnapshotSource.
type SourceFunc func(ctx context.Context, q Query) ([]domain.PatientSnapshot, error)

func (f SourceFunc) FetchPatientSnapshots(ctx context.Context, q Query) ([]domain.PatientSnapshot, error) {
	return f(ctx, q)
}
