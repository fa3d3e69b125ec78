package cli

import (
	"testing"

	"github.com/alexanderramin/edboard/internal/teatest"
)

// TestDriver wraps teatest.Driver with inspection methods for the app
// model: the view stack, shared state and the views themselves.
type TestDriver struct {
	*teatest.Driver
}

// NewTestDriver builds the app model around home, sets the terminal size
// and drains Init(), which fetches the first snapshot synchronously from
// the in-memory database.
func NewTestDriver(t *testing.T, app *App, home func(*SharedState) View) *TestDriver {
	t.Helper()

	m := newAppModel(app, home)
	d := teatest.New(t, m, teatest.WithSize(160, 40))
	d.DrainInit()

	return &TestDriver{Driver: d}
}

func (d *TestDriver) appModel() appModel {
	return d.Model.(appModel)
}

// ActiveViewID returns the ViewID of the top view on the stack.
func (d *TestDriver) ActiveViewID() ViewID {
	m := d.appModel()
	v := m.activeView()
	if v == nil {
		return ViewID(-1)
	}
	return v.ID()
}

// ViewStackIDs returns the ViewIDs of all views on the stack, bottom to top.
func (d *TestDriver) ViewStackIDs() []ViewID {
	m := d.appModel()
	ids := make([]ViewID, len(m.viewStack))
	for i, v := range m.viewStack {
		ids[i] = v.ID()
	}
	return ids
}

// State returns the shared state for inspection.
func (d *TestDriver) State() *SharedState {
	return d.appModel().state
}

// IsQuitting returns whether the app has signaled a quit.
func (d *TestDriver) IsQuitting() bool {
	return d.appModel().quitting || d.Quitting
}

// Flash returns the status bar message.
func (d *TestDriver) Flash() string {
	return d.appModel().flash
}

// BoardView returns the board view at the bottom of the stack.
func (d *TestDriver) BoardView() *boardView {
	d.T.Helper()
	v, ok := d.appModel().viewStack[0].(*boardView)
	if !ok {
		d.T.Fatalf("bottom view is %T, not *boardView", d.appModel().viewStack[0])
	}
	return v
}

// DisplayView returns the display view at the bottom of the stack.
func (d *TestDriver) DisplayView() *displayView {
	d.T.Helper()
	v, ok := d.appModel().viewStack[0].(*displayView)
	if !ok {
		d.T.Fatalf("bottom view is %T, not *displayView", d.appModel().viewStack[0])
	}
	return v
}
