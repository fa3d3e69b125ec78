package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alexanderramin/edboard/internal/board"
	"github.com/alexanderramin/edboard/internal/domain"
	"github.com/alexanderramin/edboard/internal/repository"
	"github.com/alexanderramin/edboard/internal/testutil"
)

var admitted = time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC)

func newTestPatientService(t *testing.T, observers ...UseCaseObserver) (PatientService, repository.PatientRepo) {
	t.Helper()
	database := testutil.NewTestDB(t)
	repo := repository.NewSQLitePatientRepo(database)
	return NewPatientService(repo, testutil.NewTestUoW(database), observers...), repo
}

func TestAdmit_WithoutTierLeavesTriagePending(t *testing.T) {
	svc, repo := newTestPatientService(t)
	ctx := context.Background()

	p, err := svc.Admit(ctx, AdmitRequest{Name: "Ana Gómez", Location: "Amarilla - 3", AdmittedAt: admitted})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TierNone, got.Tier)
	assert.True(t, got.Stage(domain.StageTriage).Status.Pending())
}

func TestAdmit_RequiresLocation(t *testing.T) {
	svc, _ := newTestPatientService(t)
	_, err := svc.Admit(context.Background(), AdmitRequest{Name: "X"})
	assert.ErrorIs(t, err, ErrMissingLocation)
}

func TestSetTier_CompletesTriageAndOpensConsultation(t *testing.T) {
	svc, _ := newTestPatientService(t)
	ctx := context.Background()
	p, err := svc.Admit(ctx, AdmitRequest{Location: "Antigua - 1", AdmittedAt: admitted})
	require.NoError(t, err)

	triaged := admitted.Add(12 * time.Minute)
	got, err := svc.SetTier(ctx, p.ID, domain.Tier2, triaged)
	require.NoError(t, err)

	assert.Equal(t, domain.Tier2, got.Tier)
	triage := got.Stage(domain.StageTriage)
	assert.True(t, triage.Status.Complete())
	assert.True(t, triaged.Equal(*triage.CompletedAt))

	ci := got.Stage(domain.StageInitialConsultation)
	assert.Equal(t, domain.StageStatus(domain.ConsultNotDone), ci.Status)
	require.NotNil(t, ci.StartedAt)
	assert.True(t, triaged.Equal(*ci.StartedAt))
}

func TestSetTier_RejectsOutOfRange(t *testing.T) {
	svc, _ := newTestPatientService(t)
	_, err := svc.SetTier(context.Background(), "any", domain.SeverityTier(9), admitted)
	assert.Error(t, err)
}

func TestSetStageStatus_StampsRequestAndCompletion(t *testing.T) {
	svc, repo := newTestPatientService(t)
	ctx := context.Background()
	p, err := svc.Admit(ctx, AdmitRequest{Location: "Antigua - 1", AdmittedAt: admitted, Tier: domain.Tier3})
	require.NoError(t, err)

	_, err = svc.SetStageStatus(ctx, p.ID, domain.StageLabs, domain.ResultNotDone, admitted.Add(20*time.Minute))
	require.NoError(t, err)
	_, err = svc.SetStageStatus(ctx, p.ID, domain.StageLabs, domain.ResultAwaiting, admitted.Add(30*time.Minute))
	require.NoError(t, err)
	_, err = svc.SetStageStatus(ctx, p.ID, domain.StageLabs, domain.ResultResultsComplete, admitted.Add(4*time.Hour))
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	labs := got.Stage(domain.StageLabs)
	assert.True(t, admitted.Add(20*time.Minute).Equal(*labs.StartedAt))
	assert.True(t, admitted.Add(30*time.Minute).Equal(*labs.RequestedAt))
	assert.True(t, admitted.Add(4*time.Hour).Equal(*labs.CompletedAt))
}

func TestSetStageStatus_RejectsStatusFromOtherStage(t *testing.T) {
	svc, _ := newTestPatientService(t)
	ctx := context.Background()
	p, err := svc.Admit(ctx, AdmitRequest{Location: "Antigua - 1", AdmittedAt: admitted})
	require.NoError(t, err)

	_, err = svc.SetStageStatus(ctx, p.ID, domain.StageInitialConsultation, domain.InterOpened, admitted)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.SetStageStatus(ctx, p.ID, domain.StageTriage, domain.TriageDone, admitted)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSetStageStatus_UnknownPatient(t *testing.T) {
	svc, _ := newTestPatientService(t)
	_, err := svc.SetStageStatus(context.Background(), "missing", domain.StageLabs, domain.ResultNotDone, admitted)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSetDisposition_StampsObservation(t *testing.T) {
	svc, _ := newTestPatientService(t)
	ctx := context.Background()
	p, err := svc.Admit(ctx, AdmitRequest{Location: "Clini - 1", AdmittedAt: admitted})
	require.NoError(t, err)

	at := admitted.Add(3 * time.Hour)
	got, err := svc.SetDisposition(ctx, p.ID, domain.DispositionObservation, at)
	require.NoError(t, err)
	assert.Equal(t, domain.DispositionObservation, got.Disposition)
	require.NotNil(t, got.ObservationAt)
	assert.True(t, at.Equal(*got.ObservationAt))

	_, err = svc.SetDisposition(ctx, p.ID, domain.Disposition("transfer"), at)
	assert.ErrorIs(t, err, ErrInvalidDisposition)
}

func TestSetStageStatus_RollbackOnStageWriteFailure(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewSQLitePatientRepo(database)
	ctx := context.Background()

	p := testutil.NewTestPatient("Antigua - 1", admitted, testutil.WithTier(domain.Tier3))
	require.NoError(t, repo.Create(ctx, p))

	// ExecContext #1 = patient update, #2 = first stage upsert
	failUoW := &testutil.FailOnNthExecUoW{
		DB:     database,
		FailOn: 2,
		Err:    fmt.Errorf("injected stage write failure"),
	}
	svc := NewPatientService(repo, failUoW)

	_, err := svc.SetStageStatus(ctx, p.ID, domain.StageLabs, domain.ResultAwaiting, admitted.Add(time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected stage write failure")

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageStatus(domain.ResultNotDone), got.Stage(domain.StageLabs).Status, "stage unchanged after rollback")
}

func TestFetchPatientSnapshots_DelegatesToRepo(t *testing.T) {
	svc, _ := newTestPatientService(t)
	ctx := context.Background()
	_, err := svc.Admit(ctx, AdmitRequest{Location: "Pasillos - 2", AdmittedAt: admitted})
	require.NoError(t, err)
	_, err = svc.Admit(ctx, AdmitRequest{Location: "Antigua - 2", AdmittedAt: admitted})
	require.NoError(t, err)

	snaps, err := svc.FetchPatientSnapshots(ctx, board.Query{Areas: []string{"Pasillos"}})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "Pasillos", snaps[0].Area())
}

func TestZapObserver_LogsUseCases(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc, _ := newTestPatientService(t, NewZapUseCaseObserver(zap.New(core)))
	ctx := context.Background()

	_, err := svc.Admit(ctx, AdmitRequest{Location: "Antigua - 1", AdmittedAt: admitted})
	require.NoError(t, err)
	_, err = svc.SetTier(ctx, "missing", domain.Tier1, admitted)
	require.Error(t, err)

	entries := logs.FilterMessage("service_use_case").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "admit-patient", entries[0].ContextMap()["use_case"])
	assert.Equal(t, true, entries[0].ContextMap()["success"])
	assert.Equal(t, "set-tier", entries[1].ContextMap()["use_case"])
	assert.Equal(t, false, entries[1].ContextMap()["success"])
}
