package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/edboard/internal/alarm"
	"github.com/alexanderramin/edboard/internal/domain"
	"github.com/alexanderramin/edboard/internal/stats"
)

var statsAlign = []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignLeft}

// FormatStats renders the per-stage statistics of a report, including the
// sub-intervals of compound stages, followed by time in the department.
func FormatStats(r stats.Report) string {
	var b strings.Builder
	b.WriteString(Header(fmt.Sprintf("Stage times (%d patients)", r.Patients)) + "\n")

	var rows [][]string
	for _, s := range r.Stages {
		label := s.Stage.Label()
		total := statsRow(label, "total", s.Total, FormatPercent(s.Compliance))
		rows = append(rows, append(total, ComplianceIndicator(s.MeanCompliance)))
		if s.Request != nil {
			rows = append(rows, statsRow("", "request", *s.Request, ""))
		}
		if s.Result != nil {
			rows = append(rows, statsRow("", "result", *s.Result, ""))
		}
	}
	b.WriteString(RenderTableAligned(
		[]string{"STAGE", "INTERVAL", "N", "MEAN", "MEDIAN", "P90", "SLA", "MEAN VS BUDGET"},
		rows, statsAlign))

	b.WriteString("\n" + Header("Time in department") + "\n")
	deptRows := [][]string{statsRow("all", "", r.TotalTime, "")}
	for _, d := range domain.AllDispositions() {
		deptRows = append(deptRows, statsRow(d.String(), "", r.ByDisposition[d], ""))
	}
	b.WriteString(RenderTableAligned(
		[]string{"DISPOSITION", "", "N", "MEAN", "MEDIAN", "P90", "", ""},
		deptRows, statsAlign))
	return b.String()
}

func statsRow(label, interval string, s stats.Summary, sla string) []string {
	return []string{label, interval, fmt.Sprintf("%d", s.Count),
		FormatMinutes(s.Mean), FormatMinutes(s.Median), FormatMinutes(s.P90), sla}
}

// FormatAlarms lists alarmed cells and overdue observation patients. lookup
// resolves patient IDs to snapshots for display.
func FormatAlarms(set alarm.Set, lookup func(id string) (domain.PatientSnapshot, bool), now time.Time) string {
	if set.Len() == 0 && set.ConductLen() == 0 {
		return StyleGreen.Render("✔ No alarms.") + "\n"
	}
	var b strings.Builder
	if set.Len() > 0 {
		b.WriteString(Header(fmt.Sprintf("Alarms (%d)", set.Len())) + "\n")
		rows := make([][]string, 0, set.Len())
		for _, c := range set.Cells() {
			p, _ := lookup(c.PatientID)
			rows = append(rows, []string{
				patientLabel(p, c.PatientID),
				p.Location,
				p.Tier.String(),
				c.Stage.Label(),
				StageStatusLabel(p.Stage(c.Stage).Status),
			})
		}
		b.WriteString(RenderTable([]string{"PATIENT", "LOCATION", "TIER", "STAGE", "STATUS"}, rows))
	}
	if set.ConductLen() > 0 {
		if set.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(Header(fmt.Sprintf("Observation overdue (%d)", set.ConductLen())) + "\n")
		var rows [][]string
		for _, id := range set.ConductPatients() {
			p, _ := lookup(id)
			rows = append(rows, []string{patientLabel(p, id), p.Location, Elapsed(p.AdmittedAt, now)})
		}
		b.WriteString(RenderTable([]string{"PATIENT", "LOCATION", "IN DEPARTMENT"}, rows))
	}
	return b.String()
}

// FormatPatients renders a plain patient list for the CLI.
func FormatPatients(patients []domain.PatientSnapshot, now time.Time) string {
	if len(patients) == 0 {
		return Dim("No patients.") + "\n"
	}
	rows := make([][]string, 0, len(patients))
	for _, p := range patients {
		var stages []string
		for _, k := range domain.AllStages() {
			if _, ok := p.Stages[k]; ok || k == domain.StageTriage {
				stages = append(stages, k.Label()+":"+StageStatusLabel(p.Stage(k).Status))
			}
		}
		rows = append(rows, []string{
			TruncID(p.ID),
			patientLabel(p, p.ID),
			p.Location,
			p.Tier.String(),
			Elapsed(p.AdmittedAt, now),
			strings.Join(stages, " "),
			p.Disposition.String(),
		})
	}
	return RenderTable([]string{"ID", "NAME", "LOCATION", "TIER", "WAITING", "STAGES", "DISPOSITION"}, rows)
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

func patientLabel(p domain.PatientSnapshot, id string) string {
	if p.Name != "" {
		return p.Name
	}
	return TruncID(id)
}
