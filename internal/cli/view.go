package cli

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// ViewID identifies each type of view in the TUI.
type ViewID int

const (
	ViewBoard ViewID = iota
	ViewDisplay
	ViewPatient
	ViewForm
)

// View is the interface that all TUI views must implement.
// It extends tea.Model with navigation, help metadata and teardown.
type View interface {
	tea.Model
	ID() ViewID
	ShortHelp() []key.Binding // key hints shown in the bottom bar
	Title() string            // breadcrumb segment for this view
	// Close stops the view's periodic tasks. It is called when the view
	// leaves the stack or the program quits.
	Close()
}
