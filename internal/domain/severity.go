package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// SeverityTier is the triage category assigned to a patient. 1 is the most
// urgent. TierNone means the patient has not been triaged yet.
type SeverityTier int

const (
	TierNone SeverityTier = 0
	Tier1    SeverityTier = 1
	Tier2    SeverityTier = 2
	Tier3    SeverityTier = 3
	Tier4    SeverityTier = 4
	Tier5    SeverityTier = 5
)

// AggregateFallbackTier is used in place of TierNone when a tier is needed
// for population-level budget lookups.
const AggregateFallbackTier = Tier3

// AllTiers lists the assignable tiers in urgency order.
func AllTiers() []SeverityTier {
	return []SeverityTier{Tier1, Tier2, Tier3, Tier4, Tier5}
}

func (t SeverityTier) Valid() bool {
	return t >= Tier1 && t <= Tier5
}

// Effective returns the tier itself, or AggregateFallbackTier when untriaged.
func (t SeverityTier) Effective() SeverityTier {
	if !t.Valid() {
		return AggregateFallbackTier
	}
	return t
}

func (t SeverityTier) String() string {
	if !t.Valid() {
		return "-"
	}
	return strconv.Itoa(int(t))
}

// ParseSeverityTier accepts "1".."5"; an empty string or "-" yields TierNone.
func ParseSeverityTier(s string) (SeverityTier, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return TierNone, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return TierNone, fmt.Errorf("invalid severity tier %q", s)
	}
	t := SeverityTier(n)
	if !t.Valid() {
		return TierNone, fmt.Errorf("severity tier %d out of range 1-5", n)
	}
	return t, nil
}
