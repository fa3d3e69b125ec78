package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/edboard/internal/board"
	"github.com/alexanderramin/edboard/internal/cadence"
	"github.com/alexanderramin/edboard/internal/cli/formatter"
	"github.com/alexanderramin/edboard/internal/domain"
	"github.com/alexanderramin/edboard/internal/stats"
)

// boardView is the clinician board: one row per patient with a compliance
// cell per stage. Alarmed cells blink; the poll cadence refreshes the data.
type boardView struct {
	state *SharedState
	poll  *cadence.Task
	blink *board.BlinkScheduler

	cursor    int
	showStats bool
	fetching  bool
}

func newBoardView(state *SharedState) View {
	app := state.App
	return &boardView{
		state: state,
		poll:  cadence.NewTask(app.PollInterval),
		blink: board.NewBlinkScheduler(app.BlinkInterval),
	}
}

func (v *boardView) ID() ViewID    { return ViewBoard }
func (v *boardView) Title() string { return "Board" }

func (v *boardView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "detail")),
		key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stats")),
		key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "areas")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "display")),
		key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
}

func (v *boardView) Init() tea.Cmd {
	app := v.state.App
	areas := app.Preferences.AreaFilters(context.Background(), app.User)
	app.Board.SetQuery(board.Query{Areas: areas})

	v.fetching = true
	return tea.Batch(
		fetchSnapshot(app.Board),
		pollTick(v.poll.Start(), v.poll.Interval()),
		blinkTick(v.blink.Start(), v.blink.Interval()),
	)
}

// Close stops polling and blinking; ticks already in flight are dropped.
func (v *boardView) Close() {
	v.poll.Stop()
	v.blink.Stop()
}

func (v *boardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	app := v.state.App
	switch msg := msg.(type) {
	case snapshotFetchedMsg:
		v.fetching = false
		app.Board.Apply(msg.Snapshot, app.now())
		v.clampCursor()
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

	case prefsSavedMsg:
		if msg.err != nil {
			return v, flash(formatter.StyleRed.Render("Error: " + msg.err.Error()))
		}
		app.Board.SetQuery(board.Query{Areas: msg.areas})
		// Restart the poll cadence so the new filter is fetched now.
		v.fetching = true
		cmds := []tea.Cmd{fetchSnapshot(app.Board), pollTick(v.poll.Start(), v.poll.Interval())}
		if notice, ok := app.Preferences.Notice(); ok {
			cmds = append(cmds, flash(formatter.StyleYellow.Render(notice)))
		}
		return v, tea.Batch(cmds...)

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.cursor > 0 {
				v.cursor--
			}
		case "down", "j":
			if v.cursor < len(app.Board.Patients())-1 {
				v.cursor++
			}
		case "enter":
			patients := app.Board.Patients()
			if v.cursor < len(patients) {
				return v, pushView(newPatientView(v.state, patients[v.cursor].ID))
			}
		case "s":
			v.showStats = !v.showStats
		case "f":
			return v, pushView(newPreferencesForm(v.state, false))
		case "d":
			return v, replaceView(newDisplayView(v.state))
		case "r":
			if v.fetching {
				return v, nil
			}
			v.fetching = true
			return v, tea.Batch(fetchSnapshot(app.Board), pollTick(v.poll.Start(), v.poll.Interval()))
		}
	}
	return v, nil
}

func (v *boardView) clampCursor() {
	n := len(v.state.App.Board.Patients())
	if v.cursor >= n {
		v.cursor = max(0, n-1)
	}
}

// ── view rendering ───────────────────────────────────────────────────────────

func (v *boardView) View() string {
	app := v.state.App
	st := app.Board.Status()
	if !st.Loaded {
		if st.LastError != nil {
			return "\n  " + formatter.StyleRed.Render("Error: "+st.LastError.Error())
		}
		return "\n  " + formatter.Dim("Loading...")
	}

	var b strings.Builder
	b.WriteString("\n")
	if st.Stale {
		b.WriteString("  " + staleBanner(st, app.now()) + "\n\n")
	}
	b.WriteString(v.renderSummary(st) + "\n\n")
	b.WriteString(v.renderTable())
	if v.showStats {
		b.WriteString("\n" + v.renderStats())
	}
	return b.String()
}

// staleBanner tells the viewer the rows are from the last good fetch.
func staleBanner(st board.Status, now time.Time) string {
	msg := "STALE: showing data from " + formatter.HumanTimestamp(st.RefreshedAt, now)
	if st.LastError != nil {
		msg += " (" + formatter.Truncate(st.LastError.Error(), 60) + ")"
	}
	return formatter.StyleAlarm.Render(" " + msg + " ")
}

func (v *boardView) renderSummary(st board.Status) string {
	app := v.state.App
	alarms := app.Board.Alarms()
	areas := app.Board.Query().Areas
	scope := "all areas"
	if len(areas) > 0 {
		scope = strings.Join(areas, ", ")
	}
	parts := []string{
		formatter.Bold(fmt.Sprintf("%d patients", st.Patients)),
		formatter.Dim(scope),
	}
	if n := alarms.Len(); n > 0 {
		parts = append(parts, formatter.StyleRed.Render(fmt.Sprintf("%d alarms", n)))
	} else {
		parts = append(parts, formatter.StyleGreen.Render("no alarms"))
	}
	if n := alarms.ConductLen(); n > 0 {
		parts = append(parts, formatter.StyleYellow.Render(fmt.Sprintf("%d observation overdue", n)))
	}
	parts = append(parts, formatter.Dim("updated "+formatter.HumanTimestamp(st.RefreshedAt, app.now())))
	return "  " + strings.Join(parts, formatter.Dim("  ·  "))
}

func (v *boardView) renderTable() string {
	app := v.state.App
	patients := app.Board.Patients()
	if len(patients) == 0 {
		return "  " + formatter.Dim("No patients in the selected areas.") + "\n"
	}

	headers := []string{"", "PATIENT", "LOCATION", "TIER", "WAITING"}
	for _, k := range domain.AllStages() {
		headers = append(headers, strings.ToUpper(k.Label()))
	}
	headers = append(headers, "DISPOSITION", "NOTES")

	blinkOn := v.blink.On()
	now := app.now()
	rows := make([][]string, 0, len(patients))
	for i, p := range patients {
		marker := " "
		if i == v.cursor {
			marker = formatter.StyleBlue.Render("›")
		}
		row := []string{
			marker,
			formatter.Truncate(patientName(p), 24),
			p.Location,
			p.Tier.String(),
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
		row = append(row, dispositionCell(p, app.Board.IsConductAlarmed(p.ID), blinkOn))
		row = append(row, formatter.Dim(formatter.Truncate(p.PendingNotes, 30)))
		rows = append(rows, row)
	}
	return formatter.RenderTable(headers, rows)
}

func (v *boardView) renderStats() string {
	report, err := v.state.App.Board.Stats(stats.Filter{})
	if err != nil {
		return "  " + formatter.StyleRed.Render(err.Error()) + "\n"
	}
	return lipgloss.NewStyle().PaddingLeft(2).Render(formatter.FormatStats(report))
}

// dispositionCell blinks while a patient stays in observation past the
// conduct threshold.
func dispositionCell(p domain.PatientSnapshot, alarmed, blinkOn bool) string {
	text := p.Disposition.String()
	if alarmed && blinkOn {
		return formatter.StyleAlarm.Render(text)
	}
	if alarmed {
		return formatter.StyleRed.Render(text)
	}
	return text
}

func patientName(p domain.PatientSnapshot) string {
	if p.Name != "" {
		return p.Name
	}
	return formatter.TruncID(p.ID)
}
