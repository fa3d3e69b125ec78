package sla

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/edboard/internal/domain"
)

// ErrIncompleteMatrix is wrapped by every matrix validation failure.
var ErrIncompleteMatrix = errors.New("incomplete SLA matrix")

// Matrix maps every (stage, tier) pair to its time budget in minutes.
type Matrix map[domain.StageKind]map[domain.SeverityTier]int

// DefaultMatrix returns the budgets used by the emergency department.
func DefaultMatrix() Matrix {
	return Matrix{
		domain.StageTriage:              perTier(0, 30, 120, 30, 60),
		domain.StageInitialConsultation: perTier(210, 210, 360, 420, 420),
		domain.StageLabs:                perTier(360, 360, 360, 360, 360),
		domain.StageImaging:             perTier(360, 360, 360, 360, 360),
		domain.StageInterconsultation:   perTier(30, 45, 60, 120, 180),
		domain.StageRevaluation:         perTier(30, 60, 120, 240, 360),
	}
}

func perTier(t1, t2, t3, t4, t5 int) map[domain.SeverityTier]int {
	return map[domain.SeverityTier]int{
		domain.Tier1: t1,
		domain.Tier2: t2,
		domain.Tier3: t3,
		domain.Tier4: t4,
		domain.Tier5: t5,
	}
}

// Pair names one cell of the matrix.
type Pair struct {
	Stage domain.StageKind
	Tier  domain.SeverityTier
}

func (p Pair) String() string {
	return fmt.Sprintf("%s/tier %s", p.Stage, p.Tier)
}

// ConfigError lists the cells that made a matrix unusable.
type ConfigError struct {
	Missing  []Pair
	Negative []Pair
}

func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+joinPairs(e.Missing))
	}
	if len(e.Negative) > 0 {
		parts = append(parts, "negative "+joinPairs(e.Negative))
	}
	return fmt.Sprintf("%s: %s", ErrIncompleteMatrix, strings.Join(parts, "; "))
}

func (e *ConfigError) Unwrap() error { return ErrIncompleteMatrix }

func joinPairs(ps []Pair) string {
	s := make([]string, len(ps))
	for i, p := range ps {
		s[i] = p.String()
	}
	return strings.Join(s, ", ")
}

// Validate checks that every stage and tier has a non-negative budget.
func (m Matrix) Validate() error {
	cfgErr := &ConfigError{}
	for _, stage := range domain.AllStages() {
		for _, tier := range domain.AllTiers() {
			b, ok := m[stage][tier]
			switch {
			case !ok:
				cfgErr.Missing = append(cfgErr.Missing, Pair{stage, tier})
			case b < 0:
				cfgErr.Negative = append(cfgErr.Negative, Pair{stage, tier})
			}
		}
	}
	if len(cfgErr.Missing) > 0 || len(cfgErr.Negative) > 0 {
		return cfgErr
	}
	return nil
}

// Budget returns the budget in minutes for a stage and tier.
func (m Matrix) Budget(stage domain.StageKind, tier domain.SeverityTier) (int, bool) {
	b, ok := m[stage][tier]
	return b, ok
}

// Clone returns a deep copy so callers can override cells safely.
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for stage, tiers := range m {
		cp := make(map[domain.SeverityTier]int, len(tiers))
		for t, b := range tiers {
			cp[t] = b
		}
		out[stage] = cp
	}
	return out
}

// Override sets a single budget, allocating the stage row if needed.
func (m Matrix) Override(stage domain.StageKind, tier domain.SeverityTier, minutes int) {
	if m[stage] == nil {
		m[stage] = make(map[domain.SeverityTier]int, 5)
	}
	m[stage][tier] = minutes
}
