package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBoardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Open the interactive patient board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return fmt.Errorf("board requires an interactive terminal (try 'edboard alarms' or 'edboard stats')")
			}
			return app.runProgram(newAppModel(app, newBoardView))
		},
	}
}

func newDisplayCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "display",
		Short: "Run the rotating waiting-room display",
		Long: `Run the unattended waiting-room display. Patient names and documents
are masked and pages rotate on the interval saved in the preferences
(press p to change areas or the interval).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return fmt.Errorf("display requires an interactive terminal")
			}
			return app.runProgram(newAppModel(app, newDisplayView))
		},
	}
}
