package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/edboard/internal/board"
	"github.com/alexanderramin/edboard/internal/domain"
	"github.com/alexanderramin/edboard/internal/preferences"
	"github.com/alexanderramin/edboard/internal/repository"
	"github.com/alexanderramin/edboard/internal/service"
	"github.com/alexanderramin/edboard/internal/testutil"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// flakySource wraps the patient service so tests can make fetches fail
// and count them.
type flakySource struct {
	inner board.SnapshotSource
	fail  atomic.Bool
	calls atomic.Int64
}

func (s *flakySource) FetchPatientSnapshots(ctx context.Context, q board.Query) ([]domain.PatientSnapshot, error) {
	s.calls.Add(1)
	if s.fail.Load() {
		return nil, errors.New("upstream unavailable")
	}
	return s.inner.FetchPatientSnapshots(ctx, q)
}

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) (*App, *flakySource) {
	t.Helper()
	database := testutil.NewTestDB(t)

	patients := service.NewPatientService(repository.NewSQLitePatientRepo(database), testutil.NewTestUoW(database))
	source := &flakySource{inner: patients}

	return &App{
		Patients:      patients,
		Board:         board.New(source, board.Options{ConductThreshold: 2 * time.Hour}),
		Preferences:   preferences.NewCache(repository.NewSQLitePreferencesRepo(database), []string{"Amarilla", "Antigua", "Pediatría"}, nil),
		User:          "nurse",
		PollInterval:  5 * time.Second,
		BlinkInterval: 500 * time.Millisecond,
		IsInteractive: func() bool { return true },
		Now:           func() time.Time { return testNow },
	}, source
}

// seedBoard admits two patients: Maria has labs waiting ten hours (an
// alarm); Lucia was triaged recently and is within budget.
func seedBoard(t *testing.T, app *App) (maria, lucia *domain.PatientSnapshot) {
	t.Helper()
	ctx := context.Background()
	svc := app.Patients

	admitted := testNow.Add(-11 * time.Hour)
	maria, err := svc.Admit(ctx, service.AdmitRequest{
		Name: "Maria Lopez", Document: "1032456789", Location: "Amarilla - 3", AdmittedAt: admitted,
	})
	require.NoError(t, err)
	_, err = svc.SetTier(ctx, maria.ID, domain.Tier3, admitted.Add(10*time.Minute))
	require.NoError(t, err)
	_, err = svc.SetStageStatus(ctx, maria.ID, domain.StageInitialConsultation, domain.ConsultDone, admitted.Add(40*time.Minute))
	require.NoError(t, err)
	_, err = svc.SetStageStatus(ctx, maria.ID, domain.StageLabs, domain.ResultAwaiting, testNow.Add(-10*time.Hour))
	require.NoError(t, err)

	admitted = testNow.Add(-30 * time.Minute)
	lucia, err = svc.Admit(ctx, service.AdmitRequest{
		Name: "Lucia Fernandez", Document: "52147896", Location: "Pediatría - 7", AdmittedAt: admitted,
	})
	require.NoError(t, err)
	_, err = svc.SetTier(ctx, lucia.ID, domain.Tier4, admitted.Add(5*time.Minute))
	require.NoError(t, err)

	return maria, lucia
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// --- patient ---

func TestPatientAdmit_AndList(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "patient", "admit",
		"--name", "Jorge Ramirez", "--location", "Antigua - 1", "--tier", "2",
		"--at", testNow.Add(-time.Hour).Format(time.RFC3339))
	require.NoError(t, err)
	assert.Contains(t, out, "Admitted Jorge Ramirez to Antigua - 1")

	out, err = executeCmd(t, app, "patient", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Jorge Ramirez")
	assert.Contains(t, out, "Antigua - 1")
	assert.Contains(t, out, "Triage:✔")
	assert.Contains(t, out, "1h 00m")
}

func TestPatientAdmit_RequiresLocation(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "patient", "admit", "--name", "Nobody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "location")
}

func TestPatientAdmit_InvalidTier(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "patient", "admit", "--location", "Clini - 1", "--tier", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestPatientList_FiltersByArea(t *testing.T) {
	app, _ := testApp(t)
	seedBoard(t, app)

	out, err := executeCmd(t, app, "patient", "list", "--area", "Pediatría")
	require.NoError(t, err)
	assert.Contains(t, out, "Lucia Fernandez")
	assert.NotContains(t, out, "Maria Lopez")
}

func TestPatientAreas(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "patient", "areas")
	require.NoError(t, err)
	assert.Contains(t, out, "No patients on the board.")

	seedBoard(t, app)
	_, err = executeCmd(t, app, "patient", "admit", "--name", "Ana Ruiz", "--location", "Triage - 2")
	require.NoError(t, err)

	out, err = executeCmd(t, app, "patient", "areas")
	require.NoError(t, err)
	assert.Contains(t, out, "Amarilla\n")
	assert.Contains(t, out, "Pediatría\n")
	assert.Contains(t, out, "Triage (not a filter option)")
}

func TestPatientSetStage_ByIDPrefix(t *testing.T) {
	app, _ := testApp(t)
	maria, _ := seedBoard(t, app)

	out, err := executeCmd(t, app, "patient", "set-stage", maria.ID[:8], "labs", "results_complete")
	require.NoError(t, err)
	assert.Contains(t, out, "Labs is now results_complete")

	p, err := app.Patients.Get(context.Background(), maria.ID)
	require.NoError(t, err)
	labs := p.Stage(domain.StageLabs)
	assert.Equal(t, domain.ResultResultsComplete, labs.Status)
	require.NotNil(t, labs.CompletedAt)
	assert.Equal(t, testNow, *labs.CompletedAt)
}

func TestPatientSetStage_WrongStatusFamily(t *testing.T) {
	app, _ := testApp(t)
	maria, _ := seedBoard(t, app)

	_, err := executeCmd(t, app, "patient", "set-stage", maria.ID, "rv", "opened")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status")
}

func TestPatientSetStage_UnknownPatient(t *testing.T) {
	app, _ := testApp(t)
	seedBoard(t, app)

	_, err := executeCmd(t, app, "patient", "set-stage", "zzzz", "labs", "done")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "patient not found")
}

func TestPatientSetTier(t *testing.T) {
	app, _ := testApp(t)
	out, err := executeCmd(t, app, "patient", "admit", "--location", "Pasillos - 2")
	require.NoError(t, err)
	assert.Contains(t, out, "Admitted")

	patients, err := app.Patients.FetchPatientSnapshots(context.Background(), board.Query{})
	require.NoError(t, err)
	require.Len(t, patients, 1)
	id := patients[0].ID

	out, err = executeCmd(t, app, "patient", "set-tier", id, "1")
	require.NoError(t, err)
	assert.Contains(t, out, "tier 1")

	p, err := app.Patients.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.Tier1, p.Tier)
	assert.Equal(t, domain.TriageDone, p.Stage(domain.StageTriage).Status)
}

func TestPatientSetDisposition(t *testing.T) {
	app, _ := testApp(t)
	_, lucia := seedBoard(t, app)

	out, err := executeCmd(t, app, "patient", "set-disposition", lucia.ID, "Observation")
	require.NoError(t, err)
	assert.Contains(t, out, "disposition observation")

	p, err := app.Patients.Get(context.Background(), lucia.ID)
	require.NoError(t, err)
	require.NotNil(t, p.ObservationAt)
	assert.Equal(t, testNow, *p.ObservationAt)

	_, err = executeCmd(t, app, "patient", "set-disposition", lucia.ID, "home")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrInvalidDisposition)
}

func TestPatientNotesAndRemove(t *testing.T) {
	app, _ := testApp(t)
	_, lucia := seedBoard(t, app)

	_, err := executeCmd(t, app, "patient", "notes", lucia.ID, "Waiting for X-ray")
	require.NoError(t, err)
	p, err := app.Patients.Get(context.Background(), lucia.ID)
	require.NoError(t, err)
	assert.Equal(t, "Waiting for X-ray", p.PendingNotes)

	out, err := executeCmd(t, app, "patient", "remove", lucia.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed patient")
	_, err = app.Patients.Get(context.Background(), lucia.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// --- stats / alarms ---

func TestAlarmsCmd_ListsOverdueStage(t *testing.T) {
	app, _ := testApp(t)
	seedBoard(t, app)

	out, err := executeCmd(t, app, "alarms")
	require.NoError(t, err)
	assert.Contains(t, out, "ALARMS (1)")
	assert.Contains(t, out, "Maria Lopez")
	assert.Contains(t, out, "Labs")
	assert.NotContains(t, out, "Lucia Fernandez")
}

func TestAlarmsCmd_NoAlarms(t *testing.T) {
	app, _ := testApp(t)
	out, err := executeCmd(t, app, "alarms")
	require.NoError(t, err)
	assert.Contains(t, out, "No alarms")
}

func TestAlarmsCmd_ConductAlarm(t *testing.T) {
	app, _ := testApp(t)
	maria, lucia := seedBoard(t, app)
	ctx := context.Background()
	// Maria has been in the department 11h, Lucia 30m; the threshold is 2h.
	_, err := app.Patients.SetDisposition(ctx, maria.ID, domain.DispositionObservation, testNow.Add(-5*time.Minute))
	require.NoError(t, err)
	_, err = app.Patients.SetDisposition(ctx, lucia.ID, domain.DispositionObservation, testNow.Add(-5*time.Minute))
	require.NoError(t, err)

	out, err := executeCmd(t, app, "alarms")
	require.NoError(t, err)
	assert.Contains(t, out, "OBSERVATION OVERDUE (1)")
	assert.Contains(t, out, "11h 00m")
	assert.NotContains(t, out, "Lucia Fernandez")
}

func TestAlarmsCmd_FetchFailure(t *testing.T) {
	app, source := testApp(t)
	source.fail.Store(true)

	_, err := executeCmd(t, app, "alarms")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream unavailable")
}

func TestStatsCmd(t *testing.T) {
	app, _ := testApp(t)
	seedBoard(t, app)

	out, err := executeCmd(t, app, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "STAGE TIMES (2 PATIENTS)")
	assert.Contains(t, out, "TIME IN DEPARTMENT")
	assert.Contains(t, out, "Triage")
}

func TestStatsCmd_AreaFilter(t *testing.T) {
	app, _ := testApp(t)
	seedBoard(t, app)

	out, err := executeCmd(t, app, "stats", "--area", "Pediatría")
	require.NoError(t, err)
	assert.Contains(t, out, "STAGE TIMES (1 PATIENTS)")
}

func TestStatsCmd_BadDate(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "stats", "--from", "yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid from")
}

func TestStatsCmd_XLSXExport(t *testing.T) {
	app, _ := testApp(t)
	seedBoard(t, app)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	out, err := executeCmd(t, app, "stats", "--xlsx", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Report written to "+path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

// --- seed ---

func TestSeedCmd(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 7 demo patients")

	patients, err := app.Patients.FetchPatientSnapshots(context.Background(), board.Query{})
	require.NoError(t, err)
	assert.Len(t, patients, len(demoPatients))

	require.NoError(t, app.Board.Refresh(context.Background(), testNow))
	assert.Positive(t, app.Board.Alarms().Len(), "demo data should include overdue stages")
}

// --- interactive commands ---

func TestBoardCmd_RequiresTerminal(t *testing.T) {
	app, _ := testApp(t)
	app.IsInteractive = func() bool { return false }

	_, err := executeCmd(t, app, "board")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")

	_, err = executeCmd(t, app, "display")
	require.Error(t, err)
}

func TestBoardCmd_RunsProgram(t *testing.T) {
	app, _ := testApp(t)
	var got []ViewID
	app.RunProgram = func(m tea.Model) error {
		am, ok := m.(appModel)
		require.True(t, ok)
		got = append(got, am.activeView().ID())
		return nil
	}

	_, err := executeCmd(t, app, "board")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "display")
	require.NoError(t, err)
	assert.Equal(t, []ViewID{ViewBoard, ViewDisplay}, got)
}

// --- serve ---

func TestRunServer_StopsOnCancel(t *testing.T) {
	app, _ := testApp(t)
	seedBoard(t, app)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServer(ctx, app, "127.0.0.1:0") }()

	require.Eventually(t, func() bool { return app.Board.Status().Loaded }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runServer did not return after cancel")
	}
}

func TestRunServer_ListenError(t *testing.T) {
	app, _ := testApp(t)
	err := runServer(context.Background(), app, "256.0.0.1:99999")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "http server"))
}
