package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/edboard/internal/cli/formatter"
	"github.com/alexanderramin/edboard/internal/export"
	"github.com/alexanderramin/edboard/internal/stats"
)

// refreshBoard runs one fetch so one-shot commands see current data.
func refreshBoard(ctx context.Context, app *App) error {
	if err := app.Board.Refresh(ctx, app.now()); err != nil {
		return fmt.Errorf("loading patients: %w", err)
	}
	return nil
}

func newStatsCmd(app *App) *cobra.Command {
	var area, from, to, tier, xlsxPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stage times and SLA compliance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := stats.ParseFilter(area, from, to, tier)
			if err != nil {
				return err
			}
			if err := refreshBoard(cmd.Context(), app); err != nil {
				return err
			}
			report, err := app.Board.Stats(filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatStats(report))
			if xlsxPath != "" {
				if err := export.SaveReport(xlsxPath, report); err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%s Report written to %s\n", formatter.StyleGreen.Render("✔"), xlsxPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&area, "area", "", "Only patients whose location starts with this area")
	cmd.Flags().StringVar(&from, "from", "", "Admitted at or after (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&to, "to", "", "Admitted at or before (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&tier, "tier", "", "Only patients of this triage tier (1-5)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the report to an XLSX file")

	return cmd
}

func newAlarmsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "alarms",
		Short: "List overdue stages and observation patients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := refreshBoard(cmd.Context(), app); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatAlarms(app.Board.Alarms(), app.Board.Patient, app.now()))
			return nil
		},
	}
}
