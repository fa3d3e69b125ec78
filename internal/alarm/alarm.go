// Package alarm decides which board cells are past their budget and must
// blink.
package alarm

import (
	"sort"
	"time"

	"github.com/alexanderramin/edboard/internal/domain"
	"github.com/alexanderramin/edboard/internal/sla"
)

// Cell identifies one patient/stage cell on the board.
type Cell struct {
	PatientID string
	Stage     domain.StageKind
}

// Set is the result of one alarm computation.
type Set struct {
	standard map[Cell]struct{}
	conduct  map[string]struct{}
}

// NewSet returns an empty set.
func NewSet() Set {
	return Set{
		standard: make(map[Cell]struct{}),
		conduct:  make(map[string]struct{}),
	}
}

func (s Set) IsAlarmed(patientID string, stage domain.StageKind) bool {
	_, ok := s.standard[Cell{PatientID: patientID, Stage: stage}]
	return ok
}

// IsConductAlarmed reports whether a patient under observation is overdue for
// a conduct decision.
func (s Set) IsConductAlarmed(patientID string) bool {
	_, ok := s.conduct[patientID]
	return ok
}

// Len is the number of alarmed stage cells.
func (s Set) Len() int { return len(s.standard) }

// ConductLen is the number of conduct alarms.
func (s Set) ConductLen() int { return len(s.conduct) }

// Cells returns the alarmed cells ordered by patient then stage.
func (s Set) Cells() []Cell {
	out := make([]Cell, 0, len(s.standard))
	for c := range s.standard {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PatientID != out[j].PatientID {
			return out[i].PatientID < out[j].PatientID
		}
		return out[i].Stage < out[j].Stage
	})
	return out
}

// ConductPatients returns the patients with a conduct alarm, sorted.
func (s Set) ConductPatients() []string {
	out := make([]string, 0, len(s.conduct))
	for id := range s.conduct {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Registry computes alarm sets from patient snapshots.
type Registry struct {
	Matrix sla.Matrix
	// ConductThreshold is how long an observation patient may stay in the
	// department without a conduct decision. Zero disables conduct alarms.
	ConductThreshold time.Duration
}

// Compute classifies every stage of every patient at now. A stage whose
// compliance is CRITICAL becomes an alarmed cell, whether it is still pending
// or was completed over budget.
func (r Registry) Compute(snaps []domain.PatientSnapshot, now time.Time) Set {
	set := NewSet()
	for _, p := range snaps {
		for _, stage := range domain.AllStages() {
			res := r.Matrix.ClassifyPatient(p, stage, now)
			if res.Status == domain.ComplianceCritical {
				set.standard[Cell{PatientID: p.ID, Stage: stage}] = struct{}{}
			}
		}
		if r.conductOverdue(p, now) {
			set.conduct[p.ID] = struct{}{}
		}
	}
	return set
}

func (r Registry) conductOverdue(p domain.PatientSnapshot, now time.Time) bool {
	if r.ConductThreshold <= 0 || p.Disposition != domain.DispositionObservation {
		return false
	}
	if p.AdmittedAt.IsZero() {
		return false
	}
	return now.Sub(p.AdmittedAt) > r.ConductThreshold
}
