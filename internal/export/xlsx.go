// Package export writes aggregate statistics to spreadsheet files.
package export

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/alexanderramin/edboard/internal/domain"
	"github.com/alexanderramin/edboard/internal/stats"
)

const (
	StagesSheet     = "Stages"
	DepartmentSheet = "Time in department"
)

var stageHeader = []string{"Stage", "Interval", "Count", "Mean (min)", "Median (min)", "P90 (min)", "SLA compliance (%)"}

var departmentHeader = []string{"Disposition", "Count", "Mean (min)", "Median (min)", "P90 (min)"}

// WriteReport renders report as an XLSX workbook to w. Missing statistics
// are left as empty cells.
func WriteReport(w io.Writer, report stats.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(StagesSheet)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	if _, err := f.NewSheet(DepartmentSheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	if err := writeHeader(f, StagesSheet, stageHeader, headerStyle); err != nil {
		return err
	}
	row := 2
	for _, s := range report.Stages {
		rows := [][]any{summaryRow(s.Name, string(stats.IntervalTotal), s.Total, s.Compliance)}
		if s.Request != nil {
			rows = append(rows, summaryRow(s.Name, string(stats.IntervalRequest), *s.Request, nil))
		}
		if s.Result != nil {
			rows = append(rows, summaryRow(s.Name, string(stats.IntervalResult), *s.Result, nil))
		}
		for _, r := range rows {
			if err := setRow(f, StagesSheet, row, r); err != nil {
				return err
			}
			row++
		}
	}

	if err := writeHeader(f, DepartmentSheet, departmentHeader, headerStyle); err != nil {
		return err
	}
	deptRows := [][]any{departmentRow("all", report.TotalTime)}
	for _, d := range domain.AllDispositions() {
		deptRows = append(deptRows, departmentRow(d.String(), report.ByDisposition[d]))
	}
	for i, r := range deptRows {
		if err := setRow(f, DepartmentSheet, i+2, r); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(StagesSheet, "A", "G", 18); err != nil {
		return fmt.Errorf("setting column width: %w", err)
	}
	if err := f.SetColWidth(DepartmentSheet, "A", "E", 18); err != nil {
		return fmt.Errorf("setting column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// SaveReport writes report to an .xlsx file at path.
func SaveReport(path string, report stats.Report) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteReport(out, report)
}

func writeHeader(f *excelize.File, sheet string, header []string, style int) error {
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err := setRow(f, sheet, 1, cells); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("converting coordinates: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("setting header style: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("converting coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func summaryRow(stage, interval string, s stats.Summary, compliance *float64) []any {
	return []any{stage, interval, s.Count, optional(s.Mean), optional(s.Median), optional(s.P90), optional(compliance)}
}

func departmentRow(label string, s stats.Summary) []any {
	return []any{label, s.Count, optional(s.Mean), optional(s.Median), optional(s.P90)}
}

// optional maps a missing value to nil so the cell stays empty.
func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
