package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexanderramin/edboard/internal/board"
	"github.com/alexanderramin/edboard/internal/cadence"
	"github.com/alexanderramin/edboard/internal/cli/formatter"
	"github.com/alexanderramin/edboard/internal/domain"
	"github.com/alexanderramin/edboard/internal/presentation"
)

const (
	// displayRowHeight is the number of terminal lines one patient takes.
	displayRowHeight = 1
	// displayChrome is the lines around the table: spacing, the summary,
	// the table header and the page indicator.
	displayChrome = 7
)

// displayView is the unattended waiting-room board. Names are masked and
// pages rotate on the user's chosen interval.
type displayView struct {
	state    *SharedState
	poll     *cadence.Task
	blink    *board.BlinkScheduler
	pager    *presentation.Paginator
	rotation *presentation.RotationScheduler

	fetching bool
}

func newDisplayView(state *SharedState) View {
	app := state.App
	seconds := app.Preferences.RotationInterval(context.Background(), app.User)
	pager := presentation.NewPaginator(displayViewport(state), displayRowHeight)
	return &displayView{
		state:    state,
		poll:     cadence.NewTask(app.PollInterval),
		blink:    board.NewBlinkScheduler(app.BlinkInterval),
		pager:    pager,
		rotation: presentation.NewRotationScheduler(pager, seconds),
	}
}

func displayViewport(state *SharedState) int {
	return state.ContentHeight() - displayChrome
}

func (v *displayView) ID() ViewID    { return ViewDisplay }
func (v *displayView) Title() string { return "Display" }

func (v *displayView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "preferences")),
		key.NewBinding(key.WithKeys("right"), key.WithHelp("→/←", "page")),
		key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "board")),
		key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
}

func (v *displayView) Init() tea.Cmd {
	app := v.state.App
	areas := app.Preferences.AreaFilters(context.Background(), app.User)
	app.Board.SetQuery(board.Query{Areas: areas})

	v.fetching = true
	return tea.Batch(
		fetchSnapshot(app.Board),
		pollTick(v.poll.Start(), v.poll.Interval()),
		blinkTick(v.blink.Start(), v.blink.Interval()),
		rotationTick(v.rotation.Start(), v.rotation.Interval()),
	)
}

// Close stops every cadence the view started.
func (v *displayView) Close() {
	v.poll.Stop()
	v.blink.Stop()
	v.rotation.Stop()
}

func (v *displayView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	app := v.state.App
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.pager.Resize(displayViewport(v.state))
		return v, nil

	case snapshotFetchedMsg:
		v.fetching = false
		app.Board.Apply(msg.Snapshot, app.now())
		v.pager.SetCount(len(app.Board.Patients()))
		return v, nil

	case pollTickMsg:
		if !v.poll.Accept(msg.Tick) {
			return v, nil
		}
		next := pollTick(v.poll.Token(), v.poll.Interval())
		if v.fetching {
			return v, next
		}
		v.fetching = true
		return v, tea.Batch(fetchSnapshot(app.Board), next)

	case blinkTickMsg:
		if !v.blink.Handle(msg.Tick) {
			return v, nil
		}
		return v, blinkTick(v.blink.Token(), v.blink.Interval())

	case rotationTickMsg:
		if !v.rotation.Handle(msg.Tick) {
			return v, nil
		}
		return v, rotationTick(v.rotation.Token(), v.rotation.Interval())

	case prefsSavedMsg:
		if msg.err != nil {
			return v, flash(formatter.StyleRed.Render("Error: " + msg.err.Error()))
		}
		var cmds []tea.Cmd
		if msg.seconds != v.rotation.Seconds() {
			tok, armed, err := v.rotation.SetInterval(msg.seconds)
			if err != nil {
				return v, flash(formatter.StyleRed.Render("Error: " + err.Error()))
			}
			if armed {
				cmds = append(cmds, rotationTick(tok, v.rotation.Interval()))
			}
		}
		app.Board.SetQuery(board.Query{Areas: msg.areas})
		v.fetching = true
		cmds = append(cmds, fetchSnapshot(app.Board), pollTick(v.poll.Start(), v.poll.Interval()))
		if notice, ok := app.Preferences.Notice(); ok {
			cmds = append(cmds, flash(formatter.StyleYellow.Render(notice)))
		}
		return v, tea.Batch(cmds...)

	case tea.KeyMsg:
		switch msg.String() {
		case "p":
			return v, pushView(newPreferencesForm(v.state, true))
		case "b":
			return v, replaceView(newBoardView(v.state))
		case "right", "l":
			v.pager.Advance()
		case "left", "h":
			v.pager.Back()
		}
	}
	return v, nil
}

func (v *displayView) View() string {
	app := v.state.App
	st := app.Board.Status()
	if !st.Loaded {
		return "\n  " + formatter.Dim("Loading...")
	}

	var b strings.Builder
	b.WriteString("\n")
	if st.Stale {
		b.WriteString("  " + staleBanner(st, app.now()) + "\n")
	} else {
		b.WriteString("  " + formatter.Bold(fmt.Sprintf("%d patients", st.Patients)) +
			formatter.Dim("  ·  updated "+formatter.HumanTimestamp(st.RefreshedAt, app.now())) + "\n")
	}
	b.WriteString("\n")

	patients := presentation.Page(v.pager, app.Board.Patients())
	if len(patients) == 0 {
		b.WriteString("  " + formatter.Dim("No patients.") + "\n")
	} else {
		b.WriteString(v.renderTable(patients))
	}

	ps := v.pager.State()
	b.WriteString("\n" + formatter.Dim(fmt.Sprintf("  page %d/%d  ·  every %ds", ps.Current+1, ps.Total, v.rotation.Seconds())))
	return b.String()
}

func (v *displayView) renderTable(patients []domain.PatientSnapshot) string {
	app := v.state.App
	headers := []string{"PATIENT", "DOCUMENT", "LOCATION", "WAITING"}
	for _, k := range domain.AllStages() {
		headers = append(headers, strings.ToUpper(k.Label()))
	}

	blinkOn := v.blink.On()
	now := app.now()
	rows := make([][]string, 0, len(patients))
	for _, p := range patients {
		row := []string{
			maskedName(p),
			presentation.MaskDocument(p.Document),
			p.Location,
			formatter.Elapsed(p.AdmittedAt, now),
		}
		for _, k := range domain.AllStages() {
			row = append(row, formatter.ComplianceCell(
				p.Stage(k).Status,
				app.Board.ComplianceResult(p.ID, k),
				app.Board.IsAlarmed(p.ID, k),
				blinkOn,
			))
		}
		rows = append(rows, row)
	}
	return formatter.RenderTable(headers, rows)
}

func maskedName(p domain.PatientSnapshot) string {
	if strings.TrimSpace(p.Name) == "" {
		return presentation.UnidentifiedName(p.ID)
	}
	return presentation.MaskName(p.Name)
}
