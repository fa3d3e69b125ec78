package service

import (
	"context"
	"time"

	"github.com/alexanderramin/edboard/internal/board"
	"github.com/alexanderramin/edboard/internal/domain"
)

// PatientService records the pathway of a patient through the department.
// It also serves as the board's snapshot source.
type PatientService interface {
	board.SnapshotSource
	Admit(ctx context.Context, req AdmitRequest) (*domain.PatientSnapshot, error)
	SetTier(ctx context.Context, id string, tier domain.SeverityTier, now time.Time) (*domain.PatientSnapshot, error)
	SetStageStatus(ctx context.Context, id string, stage domain.StageKind, status domain.StageStatus, now time.Time) (*domain.PatientSnapshot, error)
	SetDisposition(ctx context.Context, id string, d domain.Disposition, now time.Time) (*domain.PatientSnapshot, error)
	SetPendingNotes(ctx context.Context, id, notes string) (*domain.PatientSnapshot, error)
	Get(ctx context.Context, id string) (*domain.PatientSnapshot, error)
	Delete(ctx context.Context, id string) error
	ListAreas(ctx context.Context) ([]string, error)
}
