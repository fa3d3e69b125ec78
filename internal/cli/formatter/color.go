package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/edboard/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorBg     = lipgloss.Color("#282828")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)

	// StyleAlarm is the lit phase of a blinking alarm cell.
	StyleAlarm = lipgloss.NewStyle().Foreground(ColorBg).Background(ColorRed).Bold(true)
)

// ComplianceStyle returns the style for a compliance band. A result without
// a percentage has no data and renders dim.
func ComplianceStyle(r domain.ComplianceResult) lipgloss.Style {
	if r.Percentage == nil {
		return StyleDim
	}
	switch r.Status {
	case domain.ComplianceOK:
		return StyleGreen
	case domain.ComplianceWarning:
		return StyleYellow
	case domain.ComplianceCritical:
		return StyleRed
	default:
		return StyleDim
	}
}

// ComplianceIndicator returns a colored band label such as "● CRITICAL".
func ComplianceIndicator(r domain.ComplianceResult) string {
	if r.Percentage == nil {
		return StyleDim.Render("● NO DATA")
	}
	return ComplianceStyle(r).Render("● " + strings.ToUpper(string(r.Status)))
}

// ComplianceCell renders one board cell: the stage status and, when the
// clock is running, the compliance percentage. Alarmed cells use the alarm
// style while the blink phase is on.
func ComplianceCell(st domain.StageStatus, r domain.ComplianceResult, alarmed, blinkOn bool) string {
	text := StageStatusLabel(st)
	if r.Percentage != nil {
		text = fmt.Sprintf("%s %3.0f%%", text, *r.Percentage)
	}
	if alarmed && blinkOn {
		return StyleAlarm.Render(text)
	}
	return ComplianceStyle(r).Render(text)
}

// StageStatusLabel is the short status text shown in a board cell.
func StageStatusLabel(st domain.StageStatus) string {
	if st == nil {
		return "·"
	}
	if st.Complete() {
		return "✔"
	}
	switch st {
	case domain.TriagePending:
		return "pend"
	case domain.ResultAwaiting:
		return "wait"
	case domain.InterOpened:
		return "open"
	default:
		return "·"
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
