package sla

import (
	"math"
	"time"

	"github.com/alexanderramin/edboard/internal/domain"
)

// Band thresholds on the compliance percentage.
const (
	OKThreshold      = 90.0
	WarningThreshold = 60.0
)

// Band maps a compliance percentage to its status.
func Band(pct float64) domain.ComplianceStatus {
	switch {
	case pct >= OKThreshold:
		return domain.ComplianceOK
	case pct >= WarningThreshold:
		return domain.ComplianceWarning
	default:
		return domain.ComplianceCritical
	}
}

// Classify returns the compliance of a stage that has been running for
// elapsed minutes. A nil elapsed or an untriaged patient yields a WARNING with
// no percentage.
func (m Matrix) Classify(stage domain.StageKind, tier domain.SeverityTier, elapsed *float64) domain.ComplianceResult {
	if elapsed == nil || !tier.Valid() {
		return domain.NoData()
	}
	budget, ok := m.Budget(stage, tier)
	if !ok {
		return domain.NoData()
	}
	pct := Percentage(*elapsed, float64(budget))
	return domain.ComplianceResult{Status: Band(pct), Percentage: &pct}
}

// ClassifyAggregate classifies a population-level value, falling back to
// domain.AggregateFallbackTier when the tier is unknown.
func (m Matrix) ClassifyAggregate(stage domain.StageKind, tier domain.SeverityTier, elapsed *float64) domain.ComplianceResult {
	return m.Classify(stage, tier.Effective(), elapsed)
}

// Percentage is 100 while within budget, then drops linearly with the overrun
// and is floored at 0. A zero budget is breached by any positive time. Any
// overrun stays strictly below 100, however small.
func Percentage(elapsed, budget float64) float64 {
	if elapsed <= budget {
		return 100
	}
	if budget <= 0 {
		return 0
	}
	pct := 100 - (elapsed-budget)/budget*100
	return math.Min(round2(math.Max(0, pct)), math.Nextafter(100, 0))
}

// Elapsed returns the minutes measured for a stage: from its clock start to
// completion, or to now while still pending. Triage is measured from
// admission. It returns nil when the stage has not started.
func Elapsed(p domain.PatientSnapshot, stage domain.StageKind, now time.Time) *float64 {
	st := p.Stage(stage)
	var start *time.Time
	if stage == domain.StageTriage {
		if p.AdmittedAt.IsZero() {
			return nil
		}
		admitted := p.AdmittedAt
		start = &admitted
	} else {
		start = st.ClockStart()
	}
	if start == nil {
		return nil
	}

	var end time.Time
	switch {
	case st.Status.Complete() && st.CompletedAt != nil:
		end = *st.CompletedAt
	case st.Status.Complete():
		return nil
	default:
		end = now
	}

	minutes := math.Max(0, end.Sub(*start).Minutes())
	minutes = round2(minutes)
	return &minutes
}

// ClassifyPatient classifies one stage of a patient at the given time.
func (m Matrix) ClassifyPatient(p domain.PatientSnapshot, stage domain.StageKind, now time.Time) domain.ComplianceResult {
	return m.Classify(stage, p.Tier, Elapsed(p, stage, now))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
