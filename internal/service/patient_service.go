package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/edboard/internal/board"
	"github.com/alexanderramin/edboard/internal/db"
	"github.com/alexanderramin/edboard/internal/domain"
	"github.com/alexanderramin/edboard/internal/repository"
)

var (
	ErrInvalidStatus      = errors.New("status does not belong to stage")
	ErrInvalidDisposition = errors.New("invalid disposition")
	ErrMissingLocation    = errors.New("location is required")
)

// AdmitRequest describes a patient entering the department.
type AdmitRequest struct {
	Name       string
	Document   string
	Location   string
	AdmittedAt time.Time
	Tier       domain.SeverityTier
	Notes      string
}

type patientService struct {
	patients repository.PatientRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewPatientService(patients repository.PatientRepo, uow db.UnitOfWork, observers ...UseCaseObserver) PatientService {
	return &patientService{
		patients: patients,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *patientService) observe(ctx context.Context, name string, startedAt time.Time, fields map[string]any, err error) {
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
	})
}

func (s *patientService) Admit(ctx context.Context, req AdmitRequest) (p *domain.PatientSnapshot, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"location": req.Location}
	defer func() { s.observe(ctx, "admit-patient", startedAt, fields, err) }()

	if strings.TrimSpace(req.Location) == "" {
		return nil, ErrMissingLocation
	}
	admittedAt := req.AdmittedAt
	if admittedAt.IsZero() {
		admittedAt = startedAt
	}

	p = &domain.PatientSnapshot{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Document:     strings.TrimSpace(req.Document),
		Location:     strings.TrimSpace(req.Location),
		AdmittedAt:   admittedAt.UTC(),
		PendingNotes: req.Notes,
	}
	if req.Tier.Valid() {
		completeTriage(p, req.Tier, admittedAt)
	}
	fields["patient_id"] = p.ID

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLitePatientRepo(tx).Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *patientService) SetTier(ctx context.Context, id string, tier domain.SeverityTier, now time.Time) (p *domain.PatientSnapshot, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"patient_id": id, "tier": int(tier)}
	defer func() { s.observe(ctx, "set-tier", startedAt, fields, err) }()

	if !tier.Valid() {
		return nil, fmt.Errorf("tier %d out of range 1-5", int(tier))
	}
	return s.mutate(ctx, id, func(p *domain.PatientSnapshot) error {
		completeTriage(p, tier, now)
		return nil
	})
}

func (s *patientService) SetStageStatus(ctx context.Context, id string, stage domain.StageKind, status domain.StageStatus, now time.Time) (p *domain.PatientSnapshot, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"patient_id": id, "stage": stage.String()}
	defer func() { s.observe(ctx, "set-stage-status", startedAt, fields, err) }()

	if status == nil {
		return nil, fmt.Errorf("%w: no status given for %s", ErrInvalidStatus, stage)
	}
	fields["status"] = status.String()
	if _, perr := domain.ParseStageStatus(stage, status.String()); perr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, perr)
	}
	if stage == domain.StageTriage && status.Complete() {
		return nil, fmt.Errorf("%w: triage completes when a tier is assigned", ErrInvalidStatus)
	}
	return s.mutate(ctx, id, func(p *domain.PatientSnapshot) error {
		p.SetStage(stage, p.Stages[stage].Transition(status, now))
		return nil
	})
}

func (s *patientService) SetDisposition(ctx context.Context, id string, d domain.Disposition, now time.Time) (p *domain.PatientSnapshot, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"patient_id": id, "disposition": string(d)}
	defer func() { s.observe(ctx, "set-disposition", startedAt, fields, err) }()

	if !d.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDisposition, d)
	}
	return s.mutate(ctx, id, func(p *domain.PatientSnapshot) error {
		at := now.UTC()
		p.Disposition = d
		switch d {
		case domain.DispositionObservation:
			p.ObservationAt = &at
		case domain.DispositionDischarged:
			p.DischargedAt = &at
		}
		return nil
	})
}

func (s *patientService) SetPendingNotes(ctx context.Context, id, notes string) (*domain.PatientSnapshot, error) {
	return s.mutate(ctx, id, func(p *domain.PatientSnapshot) error {
		p.PendingNotes = notes
		return nil
	})
}

// mutate loads, changes and stores a patient inside one transaction.
func (s *patientService) mutate(ctx context.Context, id string, fn func(p *domain.PatientSnapshot) error) (*domain.PatientSnapshot, error) {
	var out *domain.PatientSnapshot
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLitePatientRepo(tx)
		p, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		if err := repo.Update(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

func (s *patientService) Get(ctx context.Context, id string) (*domain.PatientSnapshot, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *patientService) Delete(ctx context.Context, id string) error {
	return s.patients.Delete(ctx, id)
}

func (s *patientService) FetchPatientSnapshots(ctx context.Context, q board.Query) ([]domain.PatientSnapshot, error) {
	return s.patients.FetchPatientSnapshots(ctx, q)
}

func (s *patientService) ListAreas(ctx context.Context) ([]string, error) {
	return s.patients.ListAreas(ctx)
}

// completeTriage assigns the tier, closes triage and opens the initial
// consultation if it has not been recorded yet.
func completeTriage(p *domain.PatientSnapshot, tier domain.SeverityTier, at time.Time) {
	p.Tier = tier
	p.SetStage(domain.StageTriage, p.Stages[domain.StageTriage].Transition(domain.TriageDone, at))
	if _, ok := p.Stages[domain.StageInitialConsultation]; !ok {
		p.SetStage(domain.StageInitialConsultation, domain.StageState{}.Transition(domain.ConsultNotDone, at))
	}
}
