package metrics

import (
	"fmt"
	"sort"

	"github.com/ignite/insight-engine/internal/table"
)

// Ranked is one segment with its metric total.
type Ranked struct {
	Key   string  `json:"key"`
	Total float64 `json:"total"`
}

// TopPerformers sums metric per value of segmentBy and returns the n largest,
// earlier groups first on ties.
func TopPerformers(t *table.Table, metric string, n int, segmentBy string) ([]Ranked, error) {
	if err := requireColumn(t, segmentBy); err != nil {
		return nil, err
	}
	if err := requireColumn(t, metric); err != nil {
		return nil, err
	}
	if !t.IsNumeric(metric) {
		return nil, fmt.Errorf("column %q is not numeric", metric)
	}
	stats := GroupStats(t, segmentBy, metric)
	out := make([]Ranked, len(stats))
	for i, s := range stats {
		out[i] = Ranked{Key: s.Label, Total: s.Sum}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}
