package cli

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexanderramin/edboard/internal/board"
	"github.com/alexanderramin/edboard/internal/preferences"
	"github.com/alexanderramin/edboard/internal/service"
)

// App holds the services and settings used by CLI commands and views.
type App struct {
	Patients    service.PatientService
	Board       *board.Board
	Preferences *preferences.Cache
	Logger      *zap.Logger

	// User keys the preferences of this terminal.
	User          string
	Areas         []string
	PollInterval  time.Duration
	BlinkInterval time.Duration
	HTTPAddr      string

	// IsInteractive reports whether stdin is a terminal. Nil means true.
	IsInteractive func() bool
	// Now is the board clock. Nil means time.Now.
	Now func() time.Time
	// RunProgram runs a full-screen model. Nil means a bubbletea program on
	// the alternate screen.
	RunProgram func(m tea.Model) error
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) logger() *zap.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return zap.NewNop()
}

func (a *App) interactive() bool {
	return a.IsInteractive == nil || a.IsInteractive()
}

func (a *App) runProgram(m tea.Model) error {
	if a.RunProgram != nil {
		return a.RunProgram(m)
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// NewRootCmd creates the top-level "edboard" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "edboard",
		Short:         "Emergency department patient board",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	// Read by main before the App is built; declared here so cobra accepts it.
	root.PersistentFlags().String("config", "", "Config file (YAML, JSON or TOML)")

	root.AddCommand(
		newBoardCmd(app),
		newDisplayCmd(app),
		newStatsCmd(app),
		newAlarmsCmd(app),
		newServeCmd(app),
		newPatientCmd(app),
		newSeedCmd(app),
	)
	return root
}
