package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ignite/insight-engine/internal/narrative"
)

// XLSX renders the summary and segment tables as a workbook with a
// "Summary" sheet and, when segments exist, a "Segments" sheet.
func XLSX(b Bundle) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := setRow(f, summary, 1, "Metric", "Value"); err != nil {
		return nil, err
	}
	for i, e := range b.Summary.Ordered() {
		if err := setRow(f, summary, i+2, narrative.Label(e.Key), e.Value); err != nil {
			return nil, err
		}
	}

	if seg := b.Segments; seg != nil && len(seg.Rows) > 0 {
		const sheet = "Segments"
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("add sheet: %w", err)
		}
		header := []any{seg.Column, "count"}
		for _, m := range seg.Metrics {
			header = append(header, m)
		}
		if err := setRow(f, sheet, 1, header...); err != nil {
			return nil, err
		}
		for i, r := range seg.Rows {
			row := []any{r.Key, r.Count}
			for _, m := range seg.Metrics {
				row = append(row, r.Value(m))
			}
			if err := setRow(f, sheet, i+2, row...); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	for c, v := range values {
		cell, err := excelize.CoordinatesToCellName(c+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
