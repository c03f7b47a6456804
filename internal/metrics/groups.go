package metrics

import "github.com/ignite/insight-engine/internal/table"

// GroupStat is the mean and sum of one metric within one group.
type GroupStat struct {
	Label string
	Count int
	Sum   float64
	Mean  float64
}

// GroupStats aggregates metric per distinct value of by, in first-appearance
// order. Returns nil when either column is missing or metric is not numeric.
func GroupStats(t *table.Table, by, metric string) []GroupStat {
	if !t.Has(by) || !t.IsNumeric(metric) {
		return nil
	}
	vals := t.Floats(metric)
	groups := t.GroupBy(by)
	out := make([]GroupStat, 0, len(groups))
	for _, g := range groups {
		xs := pick(vals, g.Rows)
		out = append(out, GroupStat{Label: g.Label(), Count: len(g.Rows), Sum: Sum(xs), Mean: Mean(xs)})
	}
	return out
}

// MaxBy returns the stat with the largest key; ties go to the earliest group.
func MaxBy(stats []GroupStat, key func(GroupStat) float64) (GroupStat, bool) {
	if len(stats) == 0 {
		return GroupStat{}, false
	}
	best := stats[0]
	for _, s := range stats[1:] {
		if key(s) > key(best) {
			best = s
		}
	}
	return best, true
}

// MinBy returns the stat with the smallest key; ties go to the earliest group.
func MinBy(stats []GroupStat, key func(GroupStat) float64) (GroupStat, bool) {
	if len(stats) == 0 {
		return GroupStat{}, false
	}
	best := stats[0]
	for _, s := range stats[1:] {
		if key(s) < key(best) {
			best = s
		}
	}
	return best, true
}

// ByMean and BySum are the usual keys for MaxBy/MinBy.
func ByMean(s GroupStat) float64 { return s.Mean }
func BySum(s GroupStat) float64  { return s.Sum }

// Means extracts the group means.
func Means(stats []GroupStat) []float64 {
	out := make([]float64, len(stats))
	for i, s := range stats {
		out[i] = s.Mean
	}
	return out
}
