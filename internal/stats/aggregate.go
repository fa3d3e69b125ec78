package stats

import (
	"math"
	"time"

	"github.com/alexanderramin/edboard/internal/domain"
	"github.com/alexanderramin/edboard/internal/sla"
)

// StageStats summarizes the completed intervals of one stage. Request and
// Result are nil for stages without a request step.
type StageStats struct {
	Stage   domain.StageKind `json:"-"`
	Name    string           `json:"stage"`
	Request *Summary         `json:"request,omitempty"`
	Result  *Summary         `json:"result,omitempty"`
	Total   Summary          `json:"total"`
	// Compliance is the share of completed stages that met their budget,
	// in whole percent. Nil when no stage completed.
	Compliance *float64 `json:"compliance"`
	// MeanCompliance classifies the mean total time against the budget of
	// the filtered tier, or the fallback tier when none is set.
	MeanCompliance domain.ComplianceResult `json:"mean_compliance"`
}

// Aggregate summarizes one stage over the patients matching filter. Only
// closed intervals are counted.
func Aggregate(snaps []domain.PatientSnapshot, stage domain.StageKind, filter Filter, m sla.Matrix) StageStats {
	matched := filtered(snaps, filter)
	out := StageStats{
		Stage:      stage,
		Name:       stage.String(),
		Total:      Summarize(collect(matched, stage, IntervalTotal)),
		Compliance: ComplianceRate(matched, stage, Filter{}, m),
	}
	if stage.Compound() {
		req := Summarize(collect(matched, stage, IntervalRequest))
		res := Summarize(collect(matched, stage, IntervalResult))
		out.Request = &req
		out.Result = &res
	}
	out.MeanCompliance = m.ClassifyAggregate(stage, filter.Tier, out.Total.Mean)
	return out
}

// Report is the full statistics view over a population.
type Report struct {
	Filter        Filter                         `json:"-"`
	Patients      int                            `json:"patients"`
	Stages        []StageStats                   `json:"stages"`
	TotalTime     Summary                        `json:"total_time"`
	ByDisposition map[domain.Disposition]Summary `json:"by_disposition"`
}

// StageStatsFor returns the stats of one stage in the report.
func (r Report) StageStatsFor(stage domain.StageKind) (StageStats, bool) {
	for _, s := range r.Stages {
		if s.Stage == stage {
			return s, true
		}
	}
	return StageStats{}, false
}

// AggregateAll builds a Report covering every stage, the time spent in the
// department and its breakdown by disposition.
func AggregateAll(snaps []domain.PatientSnapshot, filter Filter, m sla.Matrix) Report {
	matched := filtered(snaps, filter)
	report := Report{
		Filter:        filter,
		Patients:      len(matched),
		Stages:        make([]StageStats, 0, len(domain.AllStages())),
		ByDisposition: make(map[domain.Disposition]Summary, len(domain.AllDispositions())),
	}
	for _, stage := range domain.AllStages() {
		report.Stages = append(report.Stages, Aggregate(matched, stage, Filter{Tier: filter.Tier}, m))
	}

	var all []float64
	byDisp := make(map[domain.Disposition][]float64)
	for _, p := range matched {
		v := TimeInDepartment(p)
		if v == nil {
			continue
		}
		all = append(all, *v)
		if p.Disposition != domain.DispositionNone {
			byDisp[p.Disposition] = append(byDisp[p.Disposition], *v)
		}
	}
	report.TotalTime = Summarize(all)
	for _, d := range domain.AllDispositions() {
		report.ByDisposition[d] = Summarize(byDisp[d])
	}
	return report
}

// TimeInDepartment is the minutes from admission to the patient leaving the
// pathway, or nil while still in it.
func TimeInDepartment(p domain.PatientSnapshot) *float64 {
	left := p.LeftAt()
	if left == nil || p.AdmittedAt.IsZero() {
		return nil
	}
	m := left.Sub(p.AdmittedAt).Minutes()
	if m <= 0 {
		return nil
	}
	return &m
}

// ComplianceRate is the whole-percent share of completed stages that met
// their budget. Patients without a tier are skipped. Nil when nothing
// qualifies.
func ComplianceRate(snaps []domain.PatientSnapshot, stage domain.StageKind, filter Filter, m sla.Matrix) *float64 {
	var total, within int
	for _, p := range snaps {
		if !filter.Match(p) || !p.Tier.Valid() {
			continue
		}
		st := p.Stage(stage)
		if !st.Status.Complete() {
			continue
		}
		elapsed := sla.Elapsed(p, stage, time.Time{})
		budget, ok := m.Budget(stage, p.Tier)
		if elapsed == nil || !ok {
			continue
		}
		total++
		if *elapsed <= float64(budget) {
			within++
		}
	}
	if total == 0 {
		return nil
	}
	rate := math.Round(float64(within) / float64(total) * 100)
	return &rate
}

// Delta is how many minutes a patient value is above the population mean.
// Positive means slower than the population. Nil when either side is missing.
func Delta(value *float64, population Summary) *float64 {
	if value == nil || population.Mean == nil {
		return nil
	}
	d := round2(*value - *population.Mean)
	return &d
}

// StageDelta compares one stage of a patient with the population.
type StageDelta struct {
	Stage   domain.StageKind
	Minutes *float64
	Mean    *float64
	Delta   *float64
}

// Compare returns, for each stage, the patient's total stage time against the
// report's population mean. Pending stages are measured up to now.
func Compare(p domain.PatientSnapshot, report Report, now time.Time) []StageDelta {
	out := make([]StageDelta, 0, len(report.Stages))
	for _, s := range report.Stages {
		v := IntervalMinutes(p, s.Stage, IntervalTotal)
		if v == nil {
			v = sla.Elapsed(p, s.Stage, now)
		}
		out = append(out, StageDelta{
			Stage:   s.Stage,
			Minutes: v,
			Mean:    s.Total.Mean,
			Delta:   Delta(v, s.Total),
		})
	}
	return out
}

func filtered(snaps []domain.PatientSnapshot, f Filter) []domain.PatientSnapshot {
	out := make([]domain.PatientSnapshot, 0, len(snaps))
	for _, p := range snaps {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

func collect(snaps []domain.PatientSnapshot, stage domain.StageKind, iv Interval) []float64 {
	var out []float64
	for _, p := range snaps {
		if v := IntervalMinutes(p, stage, iv); v != nil {
			out = append(out, *v)
		}
	}
	return out
}
