package sla

import (
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/edboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 4, 14, 0, 0, 0, time.UTC)

func minutes(v float64) *float64 { return &v }

func TestDefaultMatrix_Validates(t *testing.T) {
	require.NoError(t, DefaultMatrix().Validate())
}

func TestValidate_ReportsMissingAndNegative(t *testing.T) {
	m := DefaultMatrix()
	delete(m[domain.StageLabs], domain.Tier4)
	m.Override(domain.StageRevaluation, domain.Tier2, -5)

	err := m.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompleteMatrix))

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []Pair{{domain.StageLabs, domain.Tier4}}, cfgErr.Missing)
	assert.Equal(t, []Pair{{domain.StageRevaluation, domain.Tier2}}, cfgErr.Negative)
	assert.Contains(t, err.Error(), "labs/tier 4")
}

func TestClassify_WithinBudgetIsFullCompliance(t *testing.T) {
	m := DefaultMatrix()
	res := m.Classify(domain.StageLabs, domain.Tier3, minutes(300))
	assert.Equal(t, domain.ComplianceOK, res.Status)
	require.NotNil(t, res.Percentage)
	assert.Equal(t, 100.0, *res.Percentage)
}

func TestClassify_OverrunDegradesLinearly(t *testing.T) {
	m := DefaultMatrix()
	res := m.Classify(domain.StageLabs, domain.Tier3, minutes(420))
	assert.Equal(t, domain.ComplianceWarning, res.Status)
	require.NotNil(t, res.Percentage)
	assert.InDelta(t, 83.33, *res.Percentage, 0.01)
}

func TestClassify_PercentageFlooredAtZero(t *testing.T) {
	m := DefaultMatrix()
	res := m.Classify(domain.StageLabs, domain.Tier3, minutes(900))
	assert.Equal(t, domain.ComplianceCritical, res.Status)
	require.NotNil(t, res.Percentage)
	assert.Equal(t, 0.0, *res.Percentage)
}

func TestClassify_ZeroBudgetBreachedImmediately(t *testing.T) {
	m := DefaultMatrix()
	res := m.Classify(domain.StageTriage, domain.Tier1, minutes(0.5))
	assert.Equal(t, domain.ComplianceCritical, res.Status)

	res = m.Classify(domain.StageTriage, domain.Tier1, minutes(0))
	assert.Equal(t, domain.ComplianceOK, res.Status)
}

func TestClassify_NoDataIsWarning(t *testing.T) {
	m := DefaultMatrix()
	res := m.Classify(domain.StageInitialConsultation, domain.Tier2, nil)
	assert.Equal(t, domain.ComplianceWarning, res.Status)
	assert.Nil(t, res.Percentage)
}

func TestClassify_UntriagedNeverCritical(t *testing.T) {
	m := DefaultMatrix()
	res := m.Classify(domain.StageTriage, domain.TierNone, minutes(10000))
	assert.Equal(t, domain.ComplianceWarning, res.Status)
	assert.Nil(t, res.Percentage)
}

func TestClassifyAggregate_FallsBackToTier3(t *testing.T) {
	m := DefaultMatrix()
	res := m.ClassifyAggregate(domain.StageRevaluation, domain.TierNone, minutes(240))
	require.NotNil(t, res.Percentage)
	// tier 3 budget is 120: 100 - 120/120*100 = 0
	assert.Equal(t, domain.ComplianceCritical, res.Status)
}

func TestBand_Boundaries(t *testing.T) {
	assert.Equal(t, domain.ComplianceOK, Band(90))
	assert.Equal(t, domain.ComplianceWarning, Band(89.99))
	assert.Equal(t, domain.ComplianceWarning, Band(60))
	assert.Equal(t, domain.ComplianceCritical, Band(59.99))
}

func TestPercentage_Monotonic(t *testing.T) {
	prev := 101.0
	for e := 0.0; e <= 1000; e += 7 {
		pct := Percentage(e, 120)
		assert.LessOrEqual(t, pct, prev, "elapsed=%v", e)
		assert.GreaterOrEqual(t, pct, 0.0)
		assert.LessOrEqual(t, pct, 100.0)
		if e > 120 {
			assert.Less(t, pct, 100.0, "elapsed=%v", e)
		}
		prev = pct
	}
}

func TestClassify_SmallOverrunIsNotFullCompliance(t *testing.T) {
	m := DefaultMatrix()
	for _, e := range []float64{360.01, 360.015, 360.001} {
		res := m.Classify(domain.StageLabs, domain.Tier3, minutes(e))
		require.NotNil(t, res.Percentage)
		assert.Less(t, *res.Percentage, 100.0, "elapsed=%v", e)
		assert.Equal(t, domain.ComplianceOK, res.Status, "elapsed=%v", e)
	}
	assert.Less(t, Percentage(2000.1, 2000), 100.0)
}

func TestElapsed_TriageFromAdmission(t *testing.T) {
	p := domain.PatientSnapshot{AdmittedAt: now.Add(-45 * time.Minute)}
	e := Elapsed(p, domain.StageTriage, now)
	require.NotNil(t, e)
	assert.Equal(t, 45.0, *e)
}

func TestElapsed_CompoundMeasuredFromRequest(t *testing.T) {
	started := now.Add(-5 * time.Hour)
	requested := now.Add(-4 * time.Hour)
	completed := now.Add(-1 * time.Hour)
	p := domain.PatientSnapshot{AdmittedAt: started}
	p.SetStage(domain.StageLabs, domain.StageState{
		Status:      domain.ResultResultsComplete,
		StartedAt:   &started,
		RequestedAt: &requested,
		CompletedAt: &completed,
	})
	e := Elapsed(p, domain.StageLabs, now)
	require.NotNil(t, e)
	assert.Equal(t, 180.0, *e)
}

func TestElapsed_NotStartedIsNil(t *testing.T) {
	p := domain.PatientSnapshot{AdmittedAt: now.Add(-time.Hour)}
	assert.Nil(t, Elapsed(p, domain.StageImaging, now))
}

func TestElapsed_CompleteWithoutTimestampIsNil(t *testing.T) {
	started := now.Add(-time.Hour)
	p := domain.PatientSnapshot{AdmittedAt: started}
	p.SetStage(domain.StageRevaluation, domain.StageState{Status: domain.ConsultDone, StartedAt: &started})
	assert.Nil(t, Elapsed(p, domain.StageRevaluation, now))
}

func TestClassifyPatient_PendingStageUsesNow(t *testing.T) {
	started := now.Add(-4 * time.Hour)
	p := domain.PatientSnapshot{AdmittedAt: started, Tier: domain.Tier2}
	p.SetStage(domain.StageInitialConsultation, domain.StageState{Status: domain.ConsultNotDone, StartedAt: &started})

	res := DefaultMatrix().ClassifyPatient(p, domain.StageInitialConsultation, now)
	// budget 210, elapsed 240: 100 - 30/210*100 = 85.71
	assert.Equal(t, domain.ComplianceWarning, res.Status)
	require.NotNil(t, res.Percentage)
	assert.InDelta(t, 85.71, *res.Percentage, 0.01)
}
