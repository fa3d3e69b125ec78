package stats

import (
	"testing"
	"time"

	"github.com/alexanderramin/edboard/internal/domain"
	"github.com/alexanderramin/edboard/internal/sla"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC)

func at(min int) *time.Time {
	t := base.Add(time.Duration(min) * time.Minute)
	return &t
}

// patient builds a snapshot admitted at base+admitOffset whose stage was
// started, optionally requested, and completed at the given minute offsets.
// A negative offset leaves the stamp unset.
func patient(location string, tier domain.SeverityTier, stage domain.StageKind, status domain.StageStatus, started, requested, completed int) domain.PatientSnapshot {
	p := domain.PatientSnapshot{
		ID:         location,
		Location:   location,
		AdmittedAt: base,
		Tier:       tier,
	}
	st := domain.StageState{Status: status}
	if started >= 0 {
		st.StartedAt = at(started)
	}
	if requested >= 0 {
		st.RequestedAt = at(requested)
	}
	if completed >= 0 {
		st.CompletedAt = at(completed)
	}
	p.SetStage(stage, st)
	return p
}

func TestSummarize_Basic(t *testing.T) {
	s := Summarize([]float64{10, 20, 30, 40})
	assert.Equal(t, 4, s.Count)
	require.NotNil(t, s.Mean)
	assert.Equal(t, 25.0, *s.Mean)
	assert.Equal(t, 25.0, *s.Median)
	assert.Equal(t, 37.0, *s.P90)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Count)
	assert.Nil(t, s.Mean)
	assert.Nil(t, s.Median)
	assert.Nil(t, s.P90)
}

func TestSummarize_Single(t *testing.T) {
	s := Summarize([]float64{42})
	assert.Equal(t, 42.0, *s.Mean)
	assert.Equal(t, 42.0, *s.Median)
	assert.Equal(t, 42.0, *s.P90)
}

func TestSummarize_UnsortedInputNotMutated(t *testing.T) {
	in := []float64{30, 10, 20}
	s := Summarize(in)
	assert.Equal(t, 20.0, *s.Median)
	assert.Equal(t, []float64{30, 10, 20}, in)
}

func TestSummarize_OrderingInvariant(t *testing.T) {
	s := Summarize([]float64{3, 99, 14, 15, 92, 65, 35, 89, 79, 32})
	assert.LessOrEqual(t, *s.Median, *s.P90)
}

func TestFilter_Match(t *testing.T) {
	p := domain.PatientSnapshot{Location: "Pediatría - 3", AdmittedAt: base, Tier: domain.Tier2}

	assert.True(t, Filter{}.Match(p))
	assert.True(t, Filter{Area: "pediatría"}.Match(p))
	assert.False(t, Filter{Area: "Amarilla"}.Match(p))
	assert.True(t, Filter{From: &base, To: &base}.Match(p), "range is inclusive")
	assert.False(t, Filter{From: at(1)}.Match(p))
	assert.False(t, Filter{Tier: domain.Tier4}.Match(p))
}

func TestIntervalMinutes_CompoundStage(t *testing.T) {
	p := patient("Amarilla - 1", domain.Tier3, domain.StageLabs, domain.ResultResultsComplete, 10, 30, 130)

	assert.Equal(t, 20.0, *IntervalMinutes(p, domain.StageLabs, IntervalRequest))
	assert.Equal(t, 100.0, *IntervalMinutes(p, domain.StageLabs, IntervalResult))
	assert.Equal(t, 120.0, *IntervalMinutes(p, domain.StageLabs, IntervalTotal))
}

func TestIntervalMinutes_PendingNotCounted(t *testing.T) {
	p := patient("Amarilla - 1", domain.Tier3, domain.StageLabs, domain.ResultAwaiting, 10, 30, -1)
	assert.NotNil(t, IntervalMinutes(p, domain.StageLabs, IntervalRequest))
	assert.Nil(t, IntervalMinutes(p, domain.StageLabs, IntervalResult))
	assert.Nil(t, IntervalMinutes(p, domain.StageLabs, IntervalTotal))
}

func TestIntervalMinutes_SimpleStageHasNoRequest(t *testing.T) {
	p := patient("Amarilla - 1", domain.Tier3, domain.StageRevaluation, domain.ConsultDone, 0, -1, 50)
	assert.Nil(t, IntervalMinutes(p, domain.StageRevaluation, IntervalRequest))
	assert.Equal(t, 50.0, *IntervalMinutes(p, domain.StageRevaluation, IntervalTotal))
}

func TestAggregate_FiltersByArea(t *testing.T) {
	snaps := []domain.PatientSnapshot{
		patient("Amarilla - 1", domain.Tier2, domain.StageRevaluation, domain.ConsultDone, 0, -1, 10),
		patient("Amarilla - 2", domain.Tier2, domain.StageRevaluation, domain.ConsultDone, 0, -1, 20),
		patient("Antigua - 1", domain.Tier2, domain.StageRevaluation, domain.ConsultDone, 0, -1, 300),
		patient("Amarilla - 3", domain.Tier2, domain.StageRevaluation, domain.ConsultNotDone, 0, -1, -1),
	}
	s := Aggregate(snaps, domain.StageRevaluation, Filter{Area: "Amarilla"}, sla.DefaultMatrix())
	assert.Equal(t, 2, s.Total.Count)
	assert.Equal(t, 15.0, *s.Total.Mean)
	assert.Nil(t, s.Request)
	require.NotNil(t, s.Compliance)
	assert.Equal(t, 100.0, *s.Compliance)
}

func TestAggregate_MeanComplianceUsesFallbackTier(t *testing.T) {
	// Untriaged patients are judged against the tier 3 budget of 120.
	snaps := []domain.PatientSnapshot{
		patient("Amarilla - 1", domain.TierNone, domain.StageRevaluation, domain.ConsultDone, 0, -1, 200),
		patient("Amarilla - 2", domain.TierNone, domain.StageRevaluation, domain.ConsultDone, 0, -1, 280),
	}
	s := Aggregate(snaps, domain.StageRevaluation, Filter{}, sla.DefaultMatrix())
	require.NotNil(t, s.MeanCompliance.Percentage)
	assert.Equal(t, domain.ComplianceCritical, s.MeanCompliance.Status)
	assert.Nil(t, s.Compliance, "untriaged patients have no individual budget")
}

func TestAggregateAll_MeanComplianceUsesFilterTier(t *testing.T) {
	// 100 minutes is within the tier 3 budget but over the tier 2 one (60).
	snaps := []domain.PatientSnapshot{
		patient("Amarilla - 1", domain.Tier2, domain.StageRevaluation, domain.ConsultDone, 0, -1, 100),
	}
	r := AggregateAll(snaps, Filter{Tier: domain.Tier2}, sla.DefaultMatrix())
	s, ok := r.StageStatsFor(domain.StageRevaluation)
	require.True(t, ok)
	assert.Equal(t, domain.ComplianceCritical, s.MeanCompliance.Status)

	r = AggregateAll(snaps, Filter{}, sla.DefaultMatrix())
	s, _ = r.StageStatsFor(domain.StageRevaluation)
	assert.Equal(t, domain.ComplianceOK, s.MeanCompliance.Status)

	empty, _ := r.StageStatsFor(domain.StageLabs)
	assert.Nil(t, empty.MeanCompliance.Percentage)
}

func TestAggregate_NoMatchesIsEmpty(t *testing.T) {
	s := Aggregate(nil, domain.StageLabs, Filter{Area: "Clini"}, sla.DefaultMatrix())
	assert.Equal(t, 0, s.Total.Count)
	assert.Nil(t, s.Total.Mean)
	require.NotNil(t, s.Result)
	assert.Nil(t, s.Result.Mean)
	assert.Nil(t, s.Compliance)
}

func TestComplianceRate(t *testing.T) {
	// tier 2 initial consultation budget is 210 minutes
	snaps := []domain.PatientSnapshot{
		patient("Amarilla - 1", domain.Tier2, domain.StageInitialConsultation, domain.ConsultDone, 0, -1, 100),
		patient("Amarilla - 2", domain.Tier2, domain.StageInitialConsultation, domain.ConsultDone, 0, -1, 210),
		patient("Amarilla - 3", domain.Tier2, domain.StageInitialConsultation, domain.ConsultDone, 0, -1, 500),
		patient("Amarilla - 4", domain.TierNone, domain.StageInitialConsultation, domain.ConsultDone, 0, -1, 999),
	}
	rate := ComplianceRate(snaps, domain.StageInitialConsultation, Filter{}, sla.DefaultMatrix())
	require.NotNil(t, rate)
	assert.Equal(t, 67.0, *rate)
}

func TestAggregateAll_TimeInDepartmentByDisposition(t *testing.T) {
	discharged := domain.PatientSnapshot{ID: "a", Location: "Antigua - 1", AdmittedAt: base, Disposition: domain.DispositionDischarged, DischargedAt: at(120)}
	observed := domain.PatientSnapshot{ID: "b", Location: "Antigua - 2", AdmittedAt: base, Disposition: domain.DispositionObservation, ObservationAt: at(240)}
	stillIn := domain.PatientSnapshot{ID: "c", Location: "Antigua - 3", AdmittedAt: base}

	r := AggregateAll([]domain.PatientSnapshot{discharged, observed, stillIn}, Filter{}, sla.DefaultMatrix())
	assert.Equal(t, 3, r.Patients)
	assert.Len(t, r.Stages, len(domain.AllStages()))
	assert.Equal(t, 2, r.TotalTime.Count)
	assert.Equal(t, 180.0, *r.TotalTime.Mean)
	assert.Equal(t, 120.0, *r.ByDisposition[domain.DispositionDischarged].Mean)
	assert.Equal(t, 240.0, *r.ByDisposition[domain.DispositionObservation].Mean)
	assert.Nil(t, r.ByDisposition[domain.DispositionHospitalization].Mean)

	_, ok := r.StageStatsFor(domain.StageImaging)
	assert.True(t, ok)
}

func TestPeerFilter(t *testing.T) {
	p := domain.PatientSnapshot{Location: "Amarilla - 3", AdmittedAt: base}
	f := PeerFilter(p)
	assert.Equal(t, "Amarilla", f.Area)

	inside := domain.PatientSnapshot{Location: "Amarilla - 9", AdmittedAt: base.Add(29 * 24 * time.Hour)}
	late := domain.PatientSnapshot{Location: "Amarilla - 9", AdmittedAt: base.Add(31 * 24 * time.Hour)}
	early := domain.PatientSnapshot{Location: "Amarilla - 9", AdmittedAt: base.Add(-31 * 24 * time.Hour)}
	elsewhere := domain.PatientSnapshot{Location: "Antigua - 1", AdmittedAt: base}
	assert.True(t, f.Match(p))
	assert.True(t, f.Match(inside))
	assert.False(t, f.Match(late))
	assert.False(t, f.Match(early))
	assert.False(t, f.Match(elsewhere))
}

func TestDelta(t *testing.T) {
	pop := Summarize([]float64{10, 20, 30, 40})
	v := 40.0
	d := Delta(&v, pop)
	require.NotNil(t, d)
	assert.Equal(t, 15.0, *d)

	assert.Nil(t, Delta(nil, pop))
	assert.Nil(t, Delta(&v, Summary{}))
}

func TestCompare_PendingStageMeasuredToNow(t *testing.T) {
	done := patient("Amarilla - 1", domain.Tier3, domain.StageRevaluation, domain.ConsultDone, 0, -1, 60)
	pending := patient("Amarilla - 2", domain.Tier3, domain.StageRevaluation, domain.ConsultNotDone, 0, -1, -1)
	r := AggregateAll([]domain.PatientSnapshot{done}, Filter{}, sla.DefaultMatrix())

	deltas := Compare(pending, r, base.Add(90*time.Minute))
	var rv StageDelta
	for _, d := range deltas {
		if d.Stage == domain.StageRevaluation {
			rv = d
		}
	}
	require.NotNil(t, rv.Delta)
	assert.Equal(t, 30.0, *rv.Delta)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(" Amarilla ", "2025-03-01", "2025-03-05T00:00:00Z", "2")
	require.NoError(t, err)
	assert.Equal(t, "Amarilla", f.Area)
	require.NotNil(t, f.From)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), *f.From)
	require.NotNil(t, f.To)
	assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), *f.To)
	assert.Equal(t, domain.Tier2, f.Tier)

	f, err = ParseFilter("", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, Filter{}, f)
}

func TestParseFilter_Errors(t *testing.T) {
	_, err := ParseFilter("", "03/01/2025", "", "")
	assert.ErrorContains(t, err, "invalid from")

	_, err = ParseFilter("", "", "tomorrow", "")
	assert.ErrorContains(t, err, "invalid to")

	_, err = ParseFilter("", "", "", "7")
	assert.ErrorContains(t, err, "out of range")
}
