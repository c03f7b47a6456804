package metrics

import (
	"sort"
	"strings"

	"github.com/ignite/insight-engine/internal/table"
)

// SegmentRow is one group of a SegmentTable.
type SegmentRow struct {
	Key    string             `json:"key"`
	Count  int                `json:"count"`
	Values map[string]float64 `json:"values"`
}

// Value returns an aggregate such as "total_spent", 0 if absent.
func (r SegmentRow) Value(name string) float64 { return r.Values[name] }

// SegmentTable holds one row per distinct value of Column.
type SegmentTable struct {
	Column  string       `json:"column"`
	Metrics []string     `json:"metrics"`
	Rows    []SegmentRow `json:"rows"`
}

// Segment groups t by column and computes the count, a total_ sum for each
// present TotalColumns entry and an avg_ mean for each present RatioColumns
// entry. Averages are plain means within the group. Rows are ordered by
// total_spent descending when spent exists, else by first appearance.
func Segment(t *table.Table, column string) (*SegmentTable, error) {
	if err := requireColumn(t, column); err != nil {
		return nil, err
	}

	type source struct{ name, col string }
	var sources []source
	add := func(prefix string, names []string) {
		for _, m := range names {
			col := m
			if m == "conversions" {
				col = ConversionsColumn(t)
			}
			if col != "" && t.IsNumeric(col) {
				sources = append(sources, source{name: prefix + m, col: col})
			}
		}
	}
	add("total_", TotalColumns)
	add("avg_", RatioColumns)

	st := &SegmentTable{Column: column}
	cols := make(map[string][]float64, len(sources))
	for _, src := range sources {
		st.Metrics = append(st.Metrics, src.name)
		cols[src.name] = t.Floats(src.col)
	}

	for _, g := range t.GroupBy(column) {
		row := SegmentRow{Key: g.Label(), Count: len(g.Rows), Values: make(map[string]float64, len(st.Metrics))}
		for _, src := range sources {
			vals := pick(cols[src.name], g.Rows)
			if strings.HasPrefix(src.name, "total_") {
				row.Values[src.name] = Sum(vals)
			} else {
				row.Values[src.name] = Mean(vals)
			}
		}
		st.Rows = append(st.Rows, row)
	}

	if _, ok := cols["total_spent"]; ok {
		sort.SliceStable(st.Rows, func(i, j int) bool {
			return st.Rows[i].Values["total_spent"] > st.Rows[j].Values["total_spent"]
		})
	}
	return st, nil
}

func pick(xs []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = xs[r]
	}
	return out
}
