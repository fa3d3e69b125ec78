package stats

import (
	"math"
	"time"

	"github.com/alexanderramin/edboard/internal/domain"
)

// Interval selects which part of a stage is measured.
type Interval string

const (
	// IntervalRequest runs from stage start to the request step.
	IntervalRequest Interval = "request"
	// IntervalResult runs from the request step to completion.
	IntervalResult Interval = "result"
	// IntervalTotal runs from stage start to completion.
	IntervalTotal Interval = "total"
)

// IntervalMinutes returns the measured length of an interval, or nil when the
// interval is not closed yet. Request and result only exist on compound stages.
func IntervalMinutes(p domain.PatientSnapshot, stage domain.StageKind, iv Interval) *float64 {
	st := p.Stage(stage)
	start := st.StartedAt
	if stage == domain.StageTriage && !p.AdmittedAt.IsZero() {
		admitted := p.AdmittedAt
		start = &admitted
	}

	switch iv {
	case IntervalRequest:
		if !stage.Compound() || !domain.IsRequested(st.Status) {
			return nil
		}
		return between(start, st.RequestedAt)
	case IntervalResult:
		if !stage.Compound() || !st.Status.Complete() {
			return nil
		}
		return between(st.RequestedAt, st.CompletedAt)
	case IntervalTotal:
		if !st.Status.Complete() {
			return nil
		}
		return between(start, st.CompletedAt)
	}
	return nil
}

func between(from, to *time.Time) *float64 {
	if from == nil || to == nil {
		return nil
	}
	m := math.Max(0, to.Sub(*from).Minutes())
	return &m
}
