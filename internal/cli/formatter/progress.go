package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/edboard/internal/domain"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderComplianceBar renders the remaining SLA budget of a stage like
// [████░░░░]  45%, colored by compliance band. No data renders an empty
// dim bar.
func RenderComplianceBar(r domain.ComplianceResult, width int) string {
	if width < 2 {
		width = 2
	}
	if r.Percentage == nil {
		return fmt.Sprintf("[%s]    -", StyleDim.Render(strings.Repeat(emptyBlock, width)))
	}

	pct := min(max(*r.Percentage/100, 0), 1)
	filled := min(int(pct*float64(width)), width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	return fmt.Sprintf("[%s] %3.0f%%", ComplianceStyle(r).Render(bar), *r.Percentage)
}
