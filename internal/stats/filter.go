package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/edboard/internal/domain"
)

// Filter narrows the population considered by an aggregation. Zero values
// mean "no restriction".
type Filter struct {
	// Area matches locations that start with it, ignoring case.
	Area string
	// From and To bound the admission time, both inclusive.
	From *time.Time
	To   *time.Time
	Tier domain.SeverityTier
}

// PeerWindow bounds the admissions a patient is compared with.
const PeerWindow = 30 * 24 * time.Hour

// PeerFilter selects the population a patient is compared with: the same
// area, admitted within PeerWindow either side of the patient.
func PeerFilter(p domain.PatientSnapshot) Filter {
	from, to := p.AdmittedAt.Add(-PeerWindow), p.AdmittedAt.Add(PeerWindow)
	return Filter{Area: p.Area(), From: &from, To: &to}
}

// Match reports whether a patient falls inside the filter.
func (f Filter) Match(p domain.PatientSnapshot) bool {
	if f.Area != "" && !hasPrefixFold(p.Location, f.Area) {
		return false
	}
	if f.From != nil && p.AdmittedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && p.AdmittedAt.After(*f.To) {
		return false
	}
	if f.Tier.Valid() && p.Tier != f.Tier {
		return false
	}
	return true
}

func hasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix))
}

// ParseFilter builds a Filter from user input. Empty strings leave the
// corresponding bound open.
func ParseFilter(area, from, to, tier string) (Filter, error) {
	f := Filter{Area: strings.TrimSpace(area)}
	for _, b := range []struct {
		name, value string
		dst         **time.Time
	}{{"from", from, &f.From}, {"to", to, &f.To}} {
		if b.value == "" {
			continue
		}
		t, err := ParseBound(b.value)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid %s: %w", b.name, err)
		}
		*b.dst = &t
	}
	t, err := domain.ParseSeverityTier(tier)
	if err != nil {
		return Filter{}, err
	}
	f.Tier = t
	return f, nil
}

// ParseBound accepts RFC3339 or a bare date. A bare date is the start of
// that day in UTC, so a "to" bound covering a whole day is the next date.
func ParseBound(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, v)
}
