package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/edboard/internal/domain"
)

var testPatientCounter atomic.Int64

// Patient options
type PatientOption func(*domain.PatientSnapshot)

func WithTier(t domain.SeverityTier) PatientOption {
	return func(p *domain.PatientSnapshot) {
		p.Tier = t
	}
}

func WithName(name string) PatientOption {
	return func(p *domain.PatientSnapshot) {
		p.Name = name
	}
}

func WithDocument(doc string) PatientOption {
	return func(p *domain.PatientSnapshot) {
		p.Document = doc
	}
}

func WithID(id string) PatientOption {
	return func(p *domain.PatientSnapshot) {
		p.ID = id
	}
}

func WithPendingNotes(notes string) PatientOption {
	return func(p *domain.PatientSnapshot) {
		p.PendingNotes = notes
	}
}

// WithStage records a stage state as-is.
func WithStage(k domain.StageKind, st domain.StageState) PatientOption {
	return func(p *domain.PatientSnapshot) {
		p.SetStage(k, st)
	}
}

// WithTransitions replays status changes on a stage in order, as the
// service would record them.
func WithTransitions(k domain.StageKind, steps ...Step) PatientOption {
	return func(p *domain.PatientSnapshot) {
		st := p.Stages[k]
		for _, s := range steps {
			st = st.Transition(s.Status, s.At)
		}
		p.SetStage(k, st)
	}
}

// Step is one status change at a point in time.
type Step struct {
	Status domain.StageStatus
	At     time.Time
}

func WithDisposition(d domain.Disposition, at time.Time) PatientOption {
	return func(p *domain.PatientSnapshot) {
		p.Disposition = d
		switch d {
		case domain.DispositionObservation:
			p.ObservationAt = &at
		case domain.DispositionDischarged:
			p.DischargedAt = &at
		}
	}
}

// NewTestPatient creates a patient admitted at the given time in location.
func NewTestPatient(location string, admittedAt time.Time, opts ...PatientOption) *domain.PatientSnapshot {
	n := testPatientCounter.Add(1)
	p := &domain.PatientSnapshot{
		ID:         uuid.New().String(),
		Name:       fmt.Sprintf("Test Patient %d", n),
		Document:   fmt.Sprintf("10000%05d", n),
		Location:   location,
		AdmittedAt: admittedAt.UTC(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}
