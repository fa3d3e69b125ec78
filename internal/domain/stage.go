package domain

import (
	"fmt"
	"strings"
)

// StageKind identifies one step of the emergency-department care pathway.
// The order of the constants is the column order on the board.
type StageKind int

const (
	StageTriage StageKind = iota
	StageInitialConsultation
	StageLabs
	StageImaging
	StageInterconsultation
	StageRevaluation
)

var stageNames = [...]string{
	StageTriage:              "triage",
	StageInitialConsultation: "initial_consultation",
	StageLabs:                "labs",
	StageImaging:             "imaging",
	StageInterconsultation:   "interconsultation",
	StageRevaluation:         "revaluation",
}

var stageLabels = [...]string{
	StageTriage:              "Triage",
	StageInitialConsultation: "CI",
	StageLabs:                "Labs",
	StageImaging:             "IMG",
	StageInterconsultation:   "Inter",
	StageRevaluation:         "RV",
}

// AllStages returns every stage in pathway order.
func AllStages() []StageKind {
	return []StageKind{
		StageTriage,
		StageInitialConsultation,
		StageLabs,
		StageImaging,
		StageInterconsultation,
		StageRevaluation,
	}
}

func (k StageKind) Valid() bool {
	return k >= StageTriage && k <= StageRevaluation
}

func (k StageKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("stage(%d)", int(k))
	}
	return stageNames[k]
}

// Label is the short column header used on the board.
func (k StageKind) Label() string {
	if !k.Valid() {
		return "?"
	}
	return stageLabels[k]
}

// Compound reports whether the stage goes through a request step before it
// completes, which gives it separate request and result sub-intervals.
func (k StageKind) Compound() bool {
	switch k {
	case StageLabs, StageImaging, StageInterconsultation:
		return true
	}
	return false
}

// ParseStage resolves a stage from its name or its board label.
func ParseStage(s string) (StageKind, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, k := range AllStages() {
		if s == stageNames[k] || s == strings.ToLower(stageLabels[k]) {
			return k, nil
		}
	}
	switch s {
	case "consult":
		return StageInitialConsultation, nil
	case "ix":
		return StageImaging, nil
	}
	return 0, fmt.Errorf("unknown stage %q", s)
}
