// Package preprocess cleans raw campaign tables and derives the marketing
// ratio and calendar features the metrics and narrative stages read.
package preprocess

import (
	"strings"
	"time"

	"github.com/ignite/insight-engine/internal/pkg/logger"
	"github.com/ignite/insight-engine/internal/table"
)

// Unknown fills missing cells of non-numeric columns.
const Unknown = "Unknown"

// dateLayouts are tried in order for every cell of a date column.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
}

// CleanReport records what Clean changed.
type CleanReport struct {
	OriginalRows        int            `json:"original_rows"`
	DuplicatesRemoved   int            `json:"duplicates_removed"`
	NullsFilled         map[string]int `json:"nulls_filled,omitempty"`
	DateColumns         []string       `json:"date_columns,omitempty"`
	DateFailures        []string       `json:"date_failures,omitempty"`
	NegativeRowsRemoved map[string]int `json:"negative_rows_removed,omitempty"`
	FinalRows           int            `json:"final_rows"`
}

// Clean returns a copy of raw with exact duplicates removed, nulls filled,
// date columns parsed and rows holding negative numbers dropped, in that order.
func Clean(raw *table.Table) (*table.Table, CleanReport) {
	rep := CleanReport{
		OriginalRows:        raw.Len(),
		NullsFilled:         map[string]int{},
		NegativeRowsRemoved: map[string]int{},
	}

	seen := make(map[string]struct{}, raw.Len())
	t := raw.Filter(func(r int) bool {
		k := raw.RowKey(r)
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
		return true
	})
	rep.DuplicatesRemoved = raw.Len() - t.Len()

	for _, col := range t.Columns() {
		fill := table.String(Unknown)
		if t.ColumnKind(col) == table.KindNumber {
			fill = table.Number(0)
		}
		n := 0
		for r := 0; r < t.Len(); r++ {
			if t.Cell(r, col).IsNull() {
				t.Set(r, col, fill)
				n++
			}
		}
		if n > 0 {
			rep.NullsFilled[col] = n
		}
	}

	for _, col := range t.Columns() {
		if !strings.Contains(strings.ToLower(col), "date") {
			continue
		}
		if parseDateColumn(t, col) {
			rep.DateColumns = append(rep.DateColumns, col)
		} else {
			rep.DateFailures = append(rep.DateFailures, col)
			logger.Warn("date column left unparsed", "column", col)
		}
	}

	for _, col := range t.Columns() {
		if t.ColumnKind(col) != table.KindNumber {
			continue
		}
		cur := t
		t = cur.Filter(func(r int) bool {
			f, _ := cur.Cell(r, col).Float()
			return f >= 0
		})
		if removed := cur.Len() - t.Len(); removed > 0 {
			rep.NegativeRowsRemoved[col] = removed
		}
	}

	rep.FinalRows = t.Len()
	logger.Info("cleaned dataset",
		"original_rows", rep.OriginalRows,
		"duplicates_removed", rep.DuplicatesRemoved,
		"final_rows", rep.FinalRows)
	return t, rep
}

// parseDateColumn converts the column in place only if every cell parses.
func parseDateColumn(t *table.Table, col string) bool {
	parsed := make([]table.Value, t.Len())
	for r := 0; r < t.Len(); r++ {
		v := t.Cell(r, col)
		if _, ok := v.TimeValue(); ok {
			parsed[r] = v
			continue
		}
		at, ok := parseDate(v.Text())
		if !ok {
			return false
		}
		parsed[r] = table.Time(at)
	}
	return t.AddColumn(col, parsed) == nil
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if at, err := time.Parse(layout, s); err == nil {
			return at, true
		}
	}
	return time.Time{}, false
}
