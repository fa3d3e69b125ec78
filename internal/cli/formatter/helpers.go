package formatter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2)

	if title != "" {
		titleRendered := StyleHeader.Render(strings.ToUpper(title))
		return boxStyle.Render(titleRendered + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// FormatMinutes renders a duration in minutes as "2h 05m", "45m" or "-"
// when the value is missing.
func FormatMinutes(v *float64) string {
	if v == nil {
		return "-"
	}
	total := int(math.Round(*v))
	if total <= 0 {
		return "0m"
	}
	h, m := total/60, total%60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// FormatDelta renders a signed difference in minutes such as "+1h 10m" or
// "-25m". Slower than the population is positive.
func FormatDelta(v *float64) string {
	if v == nil {
		return "-"
	}
	abs := math.Abs(*v)
	if math.Round(abs) == 0 {
		return "±0m"
	}
	sign := "+"
	if *v < 0 {
		sign = "-"
	}
	return sign + FormatMinutes(&abs)
}

// FormatPercent renders a percentage or "-" when it is missing.
func FormatPercent(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", *v)
}

// Elapsed renders the time since t as "3h 12m" for waiting-room rows.
func Elapsed(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	m := now.Sub(t).Minutes()
	return FormatMinutes(&m)
}

// HumanTimestamp returns a human-friendly relative timestamp string.
func HumanTimestamp(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < 0:
		return t.Format("15:04")
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return t.Format("Jan 2 15:04")
	}
}

// Truncate shortens s to width runes, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
