package stats

import (
	"math"
	"slices"
)

// Summary describes a set of durations in minutes. The statistics are nil
// when Count is zero.
type Summary struct {
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	P90    *float64 `json:"p90"`
}

// Summarize computes mean, median and 90th percentile, rounded to two
// decimals. Percentiles use linear interpolation between closest ranks.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := round2(sum / float64(len(sorted)))
	median := round2(Percentile(sorted, 50))
	p90 := round2(Percentile(sorted, 90))
	return Summary{
		Count:  len(sorted),
		Mean:   &mean,
		Median: &median,
		P90:    &p90,
	}
}

// Percentile returns the p-th percentile of an ascending slice using the
// rank p/100*(n-1). It returns 0 for an empty slice.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo = 0
	}
	if hi >= n {
		hi = n - 1
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
