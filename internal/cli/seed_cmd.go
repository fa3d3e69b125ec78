package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/edboard/internal/domain"
	"github.com/alexanderramin/edboard/internal/service"
)

// demoTransition is applied minutes after admission.
type demoTransition struct {
	after  time.Duration
	stage  domain.StageKind
	status domain.StageStatus
}

type demoPatient struct {
	name, document, location string
	admittedAgo              time.Duration
	tier                     domain.SeverityTier
	triageAfter              time.Duration
	transitions              []demoTransition
	disposition              domain.Disposition
	dispositionAfter         time.Duration
	notes                    string
}

var demoPatients = []demoPatient{
	{
		name: "Maria Lopez", document: "1032456789", location: "Amarilla - 3",
		admittedAgo: 11 * time.Hour, tier: domain.Tier3, triageAfter: 10 * time.Minute,
		transitions: []demoTransition{
			{40 * time.Minute, domain.StageInitialConsultation, domain.ConsultDone},
			{45 * time.Minute, domain.StageLabs, domain.ResultAwaiting},
		},
		notes: "Pending CBC",
	},
	{
		name: "Jorge Ramirez", document: "79845123", location: "Antigua - 1",
		admittedAgo: 90 * time.Minute, tier: domain.Tier2, triageAfter: 5 * time.Minute,
	},
	{
		name: "Lucia Fernandez", document: "52147896", location: "Pediatría - 7",
		admittedAgo: 3 * time.Hour, tier: domain.Tier4, triageAfter: 15 * time.Minute,
		transitions: []demoTransition{
			{60 * time.Minute, domain.StageInitialConsultation, domain.ConsultDone},
			{70 * time.Minute, domain.StageImaging, domain.ResultAwaiting},
			{130 * time.Minute, domain.StageImaging, domain.ResultResultsComplete},
		},
	},
	{
		location: "Pasillos - 2", admittedAgo: 40 * time.Minute,
	},
	{
		name: "Andres Gomez", document: "1020304050", location: "Clini - 4",
		admittedAgo: 8 * time.Hour, tier: domain.Tier3, triageAfter: 20 * time.Minute,
		transitions: []demoTransition{
			{80 * time.Minute, domain.StageInitialConsultation, domain.ConsultDone},
			{90 * time.Minute, domain.StageInterconsultation, domain.InterOpened},
			{4 * time.Hour, domain.StageInterconsultation, domain.InterDone},
			{5 * time.Hour, domain.StageRevaluation, domain.ConsultDone},
		},
		disposition: domain.DispositionObservation, dispositionAfter: 5 * time.Hour,
	},
	{
		name: "Sofia Martinez", document: "43219876", location: "Salaespera - 12",
		admittedAgo: 25 * time.Minute, tier: domain.Tier5, triageAfter: 8 * time.Minute,
	},
	{
		name: "Camilo Torres", document: "1122334455", location: "Amarilla - 9",
		admittedAgo: 6 * time.Hour, tier: domain.Tier1, triageAfter: 2 * time.Minute,
		transitions: []demoTransition{
			{10 * time.Minute, domain.StageInitialConsultation, domain.ConsultDone},
			{15 * time.Minute, domain.StageLabs, domain.ResultAwaiting},
			{75 * time.Minute, domain.StageLabs, domain.ResultResultsComplete},
			{2 * time.Hour, domain.StageRevaluation, domain.ConsultDone},
		},
		disposition: domain.DispositionHospitalization, dispositionAfter: 2 * time.Hour,
	},
}

func newSeedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Admit a set of demo patients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := seedDemo(cmd.Context(), app.Patients, app.now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d demo patients\n", n)
			return nil
		},
	}
}

// seedDemo admits the demo patients relative to now and replays their
// transitions.
func seedDemo(ctx context.Context, svc service.PatientService, now time.Time) (int, error) {
	for i, d := range demoPatients {
		admitted := now.Add(-d.admittedAgo)
		p, err := svc.Admit(ctx, service.AdmitRequest{
			Name:       d.name,
			Document:   d.document,
			Location:   d.location,
			AdmittedAt: admitted,
			Notes:      d.notes,
		})
		if err != nil {
			return i, fmt.Errorf("admitting demo patient %d: %w", i+1, err)
		}
		if d.tier.Valid() {
			if _, err := svc.SetTier(ctx, p.ID, d.tier, admitted.Add(d.triageAfter)); err != nil {
				return i, err
			}
		}
		for _, tr := range d.transitions {
			if _, err := svc.SetStageStatus(ctx, p.ID, tr.stage, tr.status, admitted.Add(tr.after)); err != nil {
				return i, err
			}
		}
		if d.disposition != domain.DispositionNone {
			if _, err := svc.SetDisposition(ctx, p.ID, d.disposition, admitted.Add(d.dispositionAfter)); err != nil {
				return i, err
			}
		}
	}
	return len(demoPatients), nil
}
