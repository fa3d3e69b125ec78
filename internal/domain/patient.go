package domain

import (
	"strings"
	"time"
)

// Disposition is the decision taken for a patient leaving the pathway.
type Disposition string

const (
	DispositionNone            Disposition = ""
	DispositionHospitalization Disposition = "hospitalization"
	DispositionObservation     Disposition = "observation"
	DispositionDischarged      Disposition = "discharged"
)

func AllDispositions() []Disposition {
	return []Disposition{DispositionHospitalization, DispositionObservation, DispositionDischarged}
}

func (d Disposition) Valid() bool {
	switch d {
	case DispositionNone, DispositionHospitalization, DispositionObservation, DispositionDischarged:
		return true
	}
	return false
}

func (d Disposition) String() string {
	if d == DispositionNone {
		return "-"
	}
	return string(d)
}

// LocationSeparator splits the area from the bed in a patient location.
const LocationSeparator = " - "

// PatientSnapshot is the read-only view of one patient used by the board.
type PatientSnapshot struct {
	ID         string
	Name       string
	Document   string
	Location   string
	AdmittedAt time.Time
	Tier       SeverityTier
	Stages     map[StageKind]StageState

	// Free-text pending actions shown next to the patient.
	PendingNotes string

	Disposition   Disposition
	ObservationAt *time.Time
	DischargedAt  *time.Time
}

// Area returns the area part of Location ("Amarilla - 12" -> "Amarilla").
func (p PatientSnapshot) Area() string {
	area, _, _ := strings.Cut(p.Location, LocationSeparator)
	return strings.TrimSpace(area)
}

// Stage returns the recorded state of a stage, or its default status when
// nothing was recorded.
func (p PatientSnapshot) Stage(k StageKind) StageState {
	if st, ok := p.Stages[k]; ok && st.Status != nil {
		return st
	}
	return StageState{Status: DefaultStatus(k)}
}

// SetStage records a stage state, allocating the map on first use.
func (p *PatientSnapshot) SetStage(k StageKind, st StageState) {
	if p.Stages == nil {
		p.Stages = make(map[StageKind]StageState, len(AllStages()))
	}
	p.Stages[k] = st
}

// LeftAt is the latest of discharge, observation and revaluation completion.
// It returns nil while the patient is still in the pathway.
func (p PatientSnapshot) LeftAt() *time.Time {
	var latest *time.Time
	candidates := []*time.Time{p.DischargedAt, p.ObservationAt, p.Stage(StageRevaluation).CompletedAt}
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if latest == nil || c.After(*latest) {
			latest = c
		}
	}
	return latest
}
