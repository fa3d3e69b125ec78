package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/edboard/internal/board"
	"github.com/alexanderramin/edboard/internal/cli/formatter"
	"github.com/alexanderramin/edboard/internal/domain"
	"github.com/alexanderramin/edboard/internal/service"
	"github.com/alexanderramin/edboard/internal/stats"
)

// resolvePatientID accepts a full patient ID or an unambiguous prefix.
func resolvePatientID(ctx context.Context, app *App, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("patient ID is required")
	}

	patients, err := app.Patients.FetchPatientSnapshots(ctx, board.Query{})
	if err != nil {
		return "", err
	}

	var matches []string
	for _, p := range patients {
		if p.ID == input {
			return p.ID, nil
		}
		if strings.HasPrefix(p.ID, input) {
			matches = append(matches, p.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("patient not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("patient ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

// parseAt reads an optional --at flag; empty means now.
func parseAt(app *App, at string) (time.Time, error) {
	if at == "" {
		return app.now(), nil
	}
	t, err := stats.ParseBound(at)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", at, err)
	}
	return t, nil
}

func newPatientCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patient",
		Short: "Record patients and their stage transitions",
	}

	cmd.AddCommand(
		newPatientAdmitCmd(app),
		newPatientListCmd(app),
		newPatientAreasCmd(app),
		newPatientSetTierCmd(app),
		newPatientSetStageCmd(app),
		newPatientSetDispositionCmd(app),
		newPatientNotesCmd(app),
		newPatientRemoveCmd(app),
	)

	return cmd
}

func newPatientAdmitCmd(app *App) *cobra.Command {
	var name, document, location, tier, at, notes string

	cmd := &cobra.Command{
		Use:   "admit",
		Short: "Admit a patient to the department",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := domain.ParseSeverityTier(tier)
			if err != nil {
				return err
			}
			admittedAt, err := parseAt(app, at)
			if err != nil {
				return err
			}

			p, err := app.Patients.Admit(cmd.Context(), service.AdmitRequest{
				Name:       name,
				Document:   document,
				Location:   location,
				AdmittedAt: admittedAt,
				Tier:       t,
				Notes:      notes,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Admitted %s to %s [%s]\n", patientName(*p), p.Location, formatter.TruncID(p.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Patient name (empty for unidentified patients)")
	cmd.Flags().StringVar(&document, "document", "", "Identity document")
	cmd.Flags().StringVar(&location, "location", "", `Location as "Area - Bed"`)
	cmd.Flags().StringVar(&tier, "tier", "", "Triage tier (1-5); omit if not triaged yet")
	cmd.Flags().StringVar(&at, "at", "", "Admission time (RFC3339); defaults to now")
	cmd.Flags().StringVar(&notes, "notes", "", "Pending actions")
	_ = cmd.MarkFlagRequired("location")

	return cmd
}

func newPatientListCmd(app *App) *cobra.Command {
	var areas []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List patients currently in the department",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			patients, err := app.Patients.FetchPatientSnapshots(cmd.Context(), board.Query{Areas: areas})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPatients(patients, app.now()))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&areas, "area", nil, "Only these areas (repeatable)")

	return cmd
}

// newPatientAreasCmd lists the areas patients are currently placed in.
// Areas outside the configured list cannot be chosen as board filters.
func newPatientAreasCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "areas",
		Short: "List the areas in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			areas, err := app.Patients.ListAreas(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(areas) == 0 {
				fmt.Fprintln(out, "No patients on the board.")
				return nil
			}
			known := app.Preferences.KnownAreas()
			for _, a := range areas {
				if slices.Contains(known, a) {
					fmt.Fprintln(out, a)
				} else {
					fmt.Fprintf(out, "%s (not a filter option)\n", a)
				}
			}
			return nil
		},
	}
}

func newPatientSetTierCmd(app *App) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "set-tier <patient-id> <tier>",
		Short: "Record the triage tier, completing triage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolvePatientID(ctx, app, args[0])
			if err != nil {
				return err
			}
			tier, err := domain.ParseSeverityTier(args[1])
			if err != nil {
				return err
			}
			now, err := parseAt(app, at)
			if err != nil {
				return err
			}

			p, err := app.Patients.SetTier(ctx, id, tier, now)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Triaged %s as tier %s\n", patientName(*p), p.Tier)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Transition time (RFC3339); defaults to now")

	return cmd
}

func newPatientSetStageCmd(app *App) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "set-stage <patient-id> <stage> <status>",
		Short: "Record a stage status transition",
		Long: `Record a stage status transition.

Stages: triage, initial_consultation (ci), labs, imaging (img),
interconsultation (inter), revaluation (rv).

Statuses depend on the stage:
  initial_consultation, revaluation:  not_done, done
  labs, imaging:                      not_done, awaiting_results, results_complete
  interconsultation:                  not_opened, opened, done

Triage is completed with set-tier.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolvePatientID(ctx, app, args[0])
			if err != nil {
				return err
			}
			stage, err := domain.ParseStage(args[1])
			if err != nil {
				return err
			}
			status, err := domain.ParseStageStatus(stage, args[2])
			if err != nil {
				return err
			}
			now, err := parseAt(app, at)
			if err != nil {
				return err
			}

			p, err := app.Patients.SetStageStatus(ctx, id, stage, status, now)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s is now %s\n", patientName(*p), stage.Label(), status)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Transition time (RFC3339); defaults to now")

	return cmd
}

func newPatientSetDispositionCmd(app *App) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "set-disposition <patient-id> <hospitalization|observation|discharged>",
		Short: "Record the disposition decision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolvePatientID(ctx, app, args[0])
			if err != nil {
				return err
			}
			now, err := parseAt(app, at)
			if err != nil {
				return err
			}

			d := domain.Disposition(strings.ToLower(strings.TrimSpace(args[1])))
			p, err := app.Patients.SetDisposition(ctx, id, d, now)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: disposition %s\n", patientName(*p), p.Disposition)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Decision time (RFC3339); defaults to now")

	return cmd
}

func newPatientNotesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "notes <patient-id> <text>",
		Short: "Replace the pending actions shown next to a patient",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolvePatientID(ctx, app, args[0])
			if err != nil {
				return err
			}
			p, err := app.Patients.SetPendingNotes(ctx, id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated notes for %s\n", patientName(*p))
			return nil
		},
	}
}

func newPatientRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <patient-id>",
		Short: "Remove a patient registered by mistake",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolvePatientID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Patients.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed patient %s\n", formatter.TruncID(id))
			return nil
		},
	}
}
