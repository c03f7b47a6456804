package narrative

import (
	"sort"

	"github.com/ignite/insight-engine/internal/metrics"
	"github.com/ignite/insight-engine/internal/table"
)

// facts gathers the figures every section builder reads, computed once per
// document from the engineered table and its summary.
type facts struct {
	t   *table.Table
	s   metrics.Summary
	n   numbers
	rec float64

	impressions, clicks, conversions, spent float64
	ctr, cpc, cpm, convRate                 float64

	has map[string]bool
	// conv is the conversions column name, "" if absent
	conv string

	ctrs     []float64
	q25, q75 float64
	low      lowQuartile
}

// lowQuartile describes the rows with CTR below the 25th percentile.
type lowQuartile struct {
	rows        int
	impressions float64
	clicks      float64
}

func newFacts(t *table.Table, s metrics.Summary) *facts {
	f := &facts{
		t:    t,
		s:    s,
		n:    newNumbers(),
		rec:  float64(t.Len()),
		conv: metrics.ConversionsColumn(t),
		has:  map[string]bool{},
	}
	for _, c := range t.Columns() {
		f.has[c] = true
	}

	f.impressions = s.Value("total_impressions")
	f.clicks = s.Value("total_clicks")
	f.conversions = s.Value("total_conversions")
	f.spent = s.Value("total_spent")
	f.ctr = s.Value("avg_CTR")
	f.cpc = s.Value("avg_CPC")
	f.cpm = s.Value("avg_CPM")
	f.convRate = s.Value("avg_conversion_rate")

	if t.IsNumeric("CTR") {
		f.ctrs = t.Floats("CTR")
		f.q25 = metrics.Quantile(f.ctrs, 0.25)
		f.q75 = metrics.Quantile(f.ctrs, 0.75)
		imps, clicks := t.Floats("impressions"), t.Floats("clicks")
		for r, v := range f.ctrs {
			if v >= f.q25 {
				continue
			}
			f.low.rows++
			if imps != nil {
				f.low.impressions += imps[r]
			}
			if clicks != nil {
				f.low.clicks += clicks[r]
			}
		}
	}
	return f
}

// numeric reports whether every named column is present and numeric.
func (f *facts) numeric(cols ...string) bool {
	for _, c := range cols {
		if !f.t.IsNumeric(c) {
			return false
		}
	}
	return true
}

// key reports whether every summary key is present.
func (f *facts) key(keys ...string) bool {
	for _, k := range keys {
		if _, ok := f.s.Get(k); !ok {
			return false
		}
	}
	return true
}

// groupCTR is the mean CTR per value of col.
func (f *facts) groupCTR(col string) []metrics.GroupStat {
	return metrics.GroupStats(f.t, col, "CTR")
}

// groupSum sums metric per value of col, aligned to groupCTR order.
func (f *facts) groupSum(col, metric string) map[string]float64 {
	out := map[string]float64{}
	for _, g := range metrics.GroupStats(f.t, col, metric) {
		out[g.Label] = g.Sum
	}
	return out
}

// sumWhere sums metric over rows whose col text equals label.
func (f *facts) sumWhere(col, label, metric string) float64 {
	if !f.t.IsNumeric(metric) {
		return 0
	}
	vals := f.t.Floats(metric)
	total := 0.0
	for r, v := range f.t.Strings(col) {
		if v == label {
			total += vals[r]
		}
	}
	return total
}

// topByCTR returns the group stats sorted by mean CTR descending, first n.
func topByCTR(stats []metrics.GroupStat, n int) []metrics.GroupStat {
	sorted := make([]metrics.GroupStat, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Mean > sorted[j].Mean })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// topRows returns the indices of the n rows with the highest CTR, earlier
// rows first on ties.
func (f *facts) topRows(n int) []int {
	idx := make([]int, len(f.ctrs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return f.ctrs[idx[a]] > f.ctrs[idx[b]] })
	if len(idx) > n {
		idx = idx[:n]
	}
	return idx
}

// lowSpend is the estimated spend behind the low-quartile impressions.
func (f *facts) lowSpend() float64 { return f.low.impressions * f.cpm / 1000 }

// grade is the CTR tier used as the overall performance grade.
func (f *facts) grade() string { return CTRTier(f.ctr).Grade() }
