package domain

import (
	"fmt"
	"time"
)

// StageStatus is the state of a single stage. Each stage family has its own
// concrete status type so that a status from one family cannot be assigned
// to a stage of another.
type StageStatus interface {
	// Pending reports whether the stage clock is running.
	Pending() bool
	// Complete reports whether the stage has finished.
	Complete() bool
	String() string
	stageStatus()
}

// TriageStatus is the status of StageTriage.
type TriageStatus string

const (
	TriagePending TriageStatus = "pending"
	TriageDone    TriageStatus = "done"
)

func (s TriageStatus) Pending() bool  { return s == TriagePending }
func (s TriageStatus) Complete() bool { return s == TriageDone }
func (s TriageStatus) String() string { return string(s) }
func (TriageStatus) stageStatus()     {}

// ConsultStatus is the status of StageInitialConsultation and StageRevaluation.
type ConsultStatus string

const (
	ConsultNotDone ConsultStatus = "not_done"
	ConsultDone    ConsultStatus = "done"
)

func (s ConsultStatus) Pending() bool  { return s == ConsultNotDone }
func (s ConsultStatus) Complete() bool { return s == ConsultDone }
func (s ConsultStatus) String() string { return string(s) }
func (ConsultStatus) stageStatus()     {}

// ResultStatus is the status of StageLabs and StageImaging.
type ResultStatus string

const (
	ResultNotDone         ResultStatus = "not_done"
	ResultAwaiting        ResultStatus = "awaiting_results"
	ResultResultsComplete ResultStatus = "results_complete"
)

func (s ResultStatus) Pending() bool  { return s == ResultNotDone || s == ResultAwaiting }
func (s ResultStatus) Complete() bool { return s == ResultResultsComplete }
func (s ResultStatus) String() string { return string(s) }
func (ResultStatus) stageStatus()     {}

// InterStatus is the status of StageInterconsultation.
type InterStatus string

const (
	InterNotOpened InterStatus = "not_opened"
	InterOpened    InterStatus = "opened"
	InterDone      InterStatus = "done"
)

func (s InterStatus) Pending() bool  { return s == InterNotOpened || s == InterOpened }
func (s InterStatus) Complete() bool { return s == InterDone }
func (s InterStatus) String() string { return string(s) }
func (InterStatus) stageStatus()     {}

// DefaultStatus is the status a stage has before anything was recorded for it.
func DefaultStatus(k StageKind) StageStatus {
	switch k {
	case StageTriage:
		return TriagePending
	case StageInitialConsultation, StageRevaluation:
		return ConsultNotDone
	case StageLabs, StageImaging:
		return ResultNotDone
	case StageInterconsultation:
		return InterNotOpened
	}
	return nil
}

// StatusesFor lists the statuses valid for a stage, in workflow order.
func StatusesFor(k StageKind) []StageStatus {
	switch k {
	case StageTriage:
		return []StageStatus{TriagePending, TriageDone}
	case StageInitialConsultation, StageRevaluation:
		return []StageStatus{ConsultNotDone, ConsultDone}
	case StageLabs, StageImaging:
		return []StageStatus{ResultNotDone, ResultAwaiting, ResultResultsComplete}
	case StageInterconsultation:
		return []StageStatus{InterNotOpened, InterOpened, InterDone}
	}
	return nil
}

// ParseStageStatus resolves a stored status string for the given stage.
func ParseStageStatus(k StageKind, s string) (StageStatus, error) {
	for _, st := range StatusesFor(k) {
		if st.String() == s {
			return st, nil
		}
	}
	return nil, fmt.Errorf("invalid status %q for stage %s", s, k)
}

// IsRequested reports whether a compound stage has passed its request step.
func IsRequested(st StageStatus) bool {
	switch v := st.(type) {
	case ResultStatus:
		return v == ResultAwaiting || v == ResultResultsComplete
	case InterStatus:
		return v == InterOpened || v == InterDone
	}
	return false
}

// StageState is the recorded state of one stage for one patient.
//
// StartedAt is when the stage clock started (for triage this is left nil and
// the admission time is used). RequestedAt is only set on compound stages once
// the request step happened.
type StageState struct {
	Status      StageStatus
	StartedAt   *time.Time
	RequestedAt *time.Time
	CompletedAt *time.Time
}

// ClockStart returns the timestamp the stage SLA is measured from: the
// request time on compound stages that have one, otherwise the start time.
func (s StageState) ClockStart() *time.Time {
	if s.RequestedAt != nil {
		return s.RequestedAt
	}
	return s.StartedAt
}

// Transition moves the stage to a new status at the given time and stamps the
// timestamps that status implies. Earlier stamps are kept; moving back to a
// not-yet-requested status clears later stamps.
func (s StageState) Transition(to StageStatus, at time.Time) StageState {
	at = at.UTC()
	next := StageState{
		Status:      to,
		StartedAt:   s.StartedAt,
		RequestedAt: s.RequestedAt,
		CompletedAt: s.CompletedAt,
	}
	if next.StartedAt == nil {
		next.StartedAt = &at
	}
	switch {
	case to.Complete():
		if next.CompletedAt == nil {
			next.CompletedAt = &at
		}
		if next.RequestedAt == nil && isCompoundStatus(to) {
			next.RequestedAt = &at
		}
	case IsRequested(to):
		next.CompletedAt = nil
		if next.RequestedAt == nil {
			next.RequestedAt = &at
		}
	default:
		next.RequestedAt = nil
		next.CompletedAt = nil
	}
	return next
}

func isCompoundStatus(st StageStatus) bool {
	switch st.(type) {
	case ResultStatus, InterStatus:
		return true
	}
	return false
}
