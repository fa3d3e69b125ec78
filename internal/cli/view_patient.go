package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexanderramin/edboard/internal/cli/formatter"
	"github.com/alexanderramin/edboard/internal/domain"
	"github.com/alexanderramin/edboard/internal/stats"
)

// patientView shows every stage of one patient with its timestamps and
// compliance. It reads from the board, so it follows the board's refreshes.
type patientView struct {
	state     *SharedState
	patientID string
}

func newPatientView(state *SharedState, patientID string) View {
	return &patientView{state: state, patientID: patientID}
}

func (v *patientView) ID() ViewID    { return ViewPatient }
func (v *patientView) Title() string { return "Patient" }
func (v *patientView) Close()        {}

func (v *patientView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

func (v *patientView) Init() tea.Cmd { return nil }

// Update closes the view once a refresh no longer lists the patient. The
// board view below applies the fetch first.
func (v *patientView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if fetched, ok := msg.(snapshotFetchedMsg); ok && fetched.Err == nil {
		if _, found := v.state.App.Board.Patient(v.patientID); !found {
			return v, tea.Batch(popView(), flash(formatter.Dim("Patient left the board.")))
		}
	}
	return v, nil
}

func (v *patientView) View() string {
	app := v.state.App
	p, ok := app.Board.Patient(v.patientID)
	if !ok {
		return "\n  " + formatter.Dim("Patient is no longer on the board.")
	}
	now := app.now()

	var b strings.Builder
	b.WriteString("\n")
	info := []string{
		formatter.Bold(patientName(p)),
		"Location:    " + p.Location,
		"Tier:        " + p.Tier.String(),
		"Admitted:    " + formatter.HumanTimestamp(p.AdmittedAt, now),
		"Disposition: " + p.Disposition.String(),
	}
	if p.ObservationAt != nil {
		info = append(info, "Observation: "+formatter.HumanTimestamp(*p.ObservationAt, now))
	}
	if p.PendingNotes != "" {
		info = append(info, "Notes:       "+p.PendingNotes)
	}
	b.WriteString(formatter.RenderBox("", strings.Join(info, "\n")) + "\n\n")

	deltas := make(map[domain.StageKind]*float64)
	if report, err := app.Board.Stats(stats.PeerFilter(p)); err == nil {
		for _, d := range stats.Compare(p, report, now) {
			deltas[d.Stage] = d.Delta
		}
	}

	rows := make([][]string, 0, len(domain.AllStages()))
	for _, k := range domain.AllStages() {
		st := p.Stage(k)
		r := app.Board.ComplianceResult(p.ID, k)
		compliance := formatter.RenderComplianceBar(r, 12) + "  " + formatter.ComplianceIndicator(r)
		rows = append(rows, []string{
			k.Label(),
			formatter.StageStatusLabel(st.Status),
			stamp(st.StartedAt, now),
			stamp(st.RequestedAt, now),
			stamp(st.CompletedAt, now),
			deltaCell(deltas[k]),
			compliance,
		})
	}
	b.WriteString(formatter.RenderTable(
		[]string{"STAGE", "STATUS", "STARTED", "REQUESTED", "COMPLETED", "VS AVG", "COMPLIANCE"}, rows))
	b.WriteString("\n" + formatter.Dim(fmt.Sprintf("VS AVG: against %s patients admitted within %d days.",
		p.Area(), int(stats.PeerWindow.Hours()/24))))
	return b.String()
}

func deltaCell(d *float64) string {
	switch {
	case d == nil:
		return formatter.Dim("-")
	case *d > 0:
		return formatter.StyleYellow.Render(formatter.FormatDelta(d))
	default:
		return formatter.StyleGreen.Render(formatter.FormatDelta(d))
	}
}

func stamp(t *time.Time, now time.Time) string {
	if t == nil {
		return formatter.Dim("-")
	}
	return formatter.HumanTimestamp(*t, now)
}
