package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/insight-engine/internal/table"
)

func build(t *testing.T, cols []string, rows ...[]table.Value) *table.Table {
	t.Helper()
	tb := table.New(cols...)
	for _, r := range rows {
		require.NoError(t, tb.AppendRow(r...))
	}
	return tb
}

func n(f float64) table.Value { return table.Number(f) }
func s(v string) table.Value { return table.String(v) }

func TestSummarizeScenario(t *testing.T) {
	tb := build(t, []string{"impressions", "clicks", "spent", "conversions", "CTR", "CPC", "CPM", "conversion_rate", "cost_per_conversion"},
		[]table.Value{n(1000), n(50), n(25), n(5), n(5), n(0.5), n(25), n(10), n(5)})

	sum := Summarize(tb)
	assert.Equal(t, 1000.0, sum["total_impressions"])
	assert.Equal(t, 50.0, sum["total_clicks"])
	assert.Equal(t, 25.0, sum["total_spent"])
	assert.Equal(t, 5.0, sum["total_conversions"])
	assert.Equal(t, 5.0, sum["avg_CTR"])
	_, hasROAS := sum.Get("ROAS")
	assert.False(t, hasROAS)
}

func TestSummarizeAbsentColumnsAreAbsentKeys(t *testing.T) {
	tb := build(t, []string{"impressions", "clicks"}, []table.Value{n(10), n(1)})
	sum := Summarize(tb)
	for _, k := range []string{"total_conversions", "total_spent", "avg_CPC", "total_campaigns", "ROAS"} {
		_, ok := sum.Get(k)
		assert.False(t, ok, k)
	}
	assert.Equal(t, 1.0, sum["total_records"])
}

func TestSummarizeExcludesZerosFromAverages(t *testing.T) {
	tb := build(t, []string{"CTR", "CPC", "CPM"},
		[]table.Value{n(4), n(1), n(20)},
		[]table.Value{n(0), n(0), n(0)},
		[]table.Value{n(2), n(3), n(0)},
	)
	sum := Summarize(tb)
	assert.InDelta(t, 3.0, sum["avg_CTR"], 1e-9)
	assert.InDelta(t, 2.0, sum["avg_CPC"], 1e-9)
	assert.InDelta(t, 20.0, sum["avg_CPM"], 1e-9)

	zeros := build(t, []string{"CTR"}, []table.Value{n(0)})
	assert.Equal(t, 0.0, Summarize(zeros)["avg_CTR"])
}

func TestSummarizeCountsAndROAS(t *testing.T) {
	tb := build(t, []string{"campaign_id", "ad_id", "spent", "revenue"},
		[]table.Value{s("CMP_1"), s("AD_1"), n(10), n(30)},
		[]table.Value{s("CMP_1"), s("AD_2"), n(10), n(10)},
		[]table.Value{s("CMP_2"), s("AD_1"), n(0), n(0)},
	)
	sum := Summarize(tb)
	assert.Equal(t, 2.0, sum["total_campaigns"])
	assert.Equal(t, 2.0, sum["total_ads"])
	assert.Equal(t, 2.0, sum["ROAS"])

	zeroSpend := build(t, []string{"spent", "revenue"}, []table.Value{n(0), n(5)})
	assert.Equal(t, 0.0, Summarize(zeroSpend)["ROAS"])
}

func TestSummaryOrdered(t *testing.T) {
	sum := Summary{"avg_CTR": 2, "total_clicks": 5, "total_records": 1}
	got := sum.Ordered()
	require.Len(t, got, 3)
	assert.Equal(t, "total_records", got[0].Key)
	assert.Equal(t, "total_clicks", got[1].Key)
	assert.Equal(t, "avg_CTR", got[2].Key)
}

func TestSegmentSortedBySpend(t *testing.T) {
	tb := build(t, []string{"campaign_id", "spent", "clicks"},
		[]table.Value{s("A"), n(5), n(10)},
		[]table.Value{s("B"), n(20), n(1)},
		[]table.Value{s("A"), n(5), n(30)},
		[]table.Value{s("C"), n(10), n(0)},
	)
	seg, err := Segment(tb, "campaign_id")
	require.NoError(t, err)
	require.Len(t, seg.Rows, 3)
	assert.Equal(t, []string{"B", "A", "C"}, []string{seg.Rows[0].Key, seg.Rows[1].Key, seg.Rows[2].Key})
	a := seg.Rows[1]
	assert.Equal(t, 2, a.Count)
	assert.Equal(t, 10.0, a.Value("total_spent"))
	assert.Equal(t, 40.0, a.Value("total_clicks"))
	assert.Equal(t, []string{"total_spent", "total_clicks"}, seg.Metrics)
}

func TestSegmentTotalsCountsAndAveragesRatios(t *testing.T) {
	tb := build(t, []string{"campaign_id", "spent", "CTR", "cost_per_conversion"},
		[]table.Value{s("A"), n(10), n(2), n(4)},
		[]table.Value{s("A"), n(30), n(4), n(0)},
		[]table.Value{s("B"), n(5), n(1), n(8)},
	)
	seg, err := Segment(tb, "campaign_id")
	require.NoError(t, err)
	assert.Equal(t, []string{"total_spent", "avg_CTR", "avg_cost_per_conversion"}, seg.Metrics)

	a := seg.Rows[0]
	require.Equal(t, "A", a.Key)
	assert.Equal(t, 40.0, a.Value("total_spent"))
	assert.Equal(t, 3.0, a.Value("avg_CTR"))
	assert.Equal(t, 2.0, a.Value("avg_cost_per_conversion"))
	for _, row := range seg.Rows {
		assert.NotContains(t, row.Values, "avg_spent")
		assert.NotContains(t, row.Values, "total_CTR")
		assert.Len(t, row.Values, 3)
	}
}

func TestSegmentWithoutSpendKeepsGroupOrder(t *testing.T) {
	tb := build(t, []string{"gender", "clicks"},
		[]table.Value{s("M"), n(1)},
		[]table.Value{s("F"), n(9)},
	)
	seg, err := Segment(tb, "gender")
	require.NoError(t, err)
	assert.Equal(t, "M", seg.Rows[0].Key)
	assert.Equal(t, "F", seg.Rows[1].Key)
}

func TestSegmentMissingColumn(t *testing.T) {
	tb := build(t, []string{"clicks"}, []table.Value{n(1)})
	_, err := Segment(tb, "campaign_id")
	assert.True(t, errors.Is(err, ErrColumnNotFound))
}

func TestTimeSeriesWeeklyFillsGaps(t *testing.T) {
	d := func(day int) table.Value { return table.Time(time.Date(2024, 11, day, 0, 0, 0, 0, time.UTC)) }
	tb := build(t, []string{"date", "clicks", "CTR"},
		[]table.Value{d(1), n(10), n(2)}, // Fri, week ending Nov 3
		[]table.Value{d(3), n(5), n(4)},  // Sun, same week
		[]table.Value{d(15), n(7), n(1)}, // Fri, week ending Nov 17
	)
	ts, err := TimeSeries(tb, "date", Weekly)
	require.NoError(t, err)
	require.Len(t, ts.Points, 3)
	assert.Equal(t, 3, ts.Points[0].Period.Day())
	assert.Equal(t, 15.0, ts.Points[0].Values["clicks"])
	assert.Equal(t, 3.0, ts.Points[0].Values["CTR"])
	assert.Equal(t, 0, ts.Points[1].Rows)
	assert.Equal(t, 0.0, ts.Points[1].Values["clicks"])
	assert.Equal(t, 17, ts.Points[2].Period.Day())
}

func TestTimeSeriesMonthly(t *testing.T) {
	tb := build(t, []string{"date", "spent"},
		[]table.Value{table.Time(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)), n(1)},
		[]table.Value{table.Time(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)), n(2)},
	)
	ts, err := TimeSeries(tb, "date", Monthly)
	require.NoError(t, err)
	require.Len(t, ts.Points, 3)
	assert.Equal(t, time.February, ts.Points[1].Period.Month())
	assert.Equal(t, 29, ts.Points[1].Period.Day())
}

func TestTopPerformers(t *testing.T) {
	tb := build(t, []string{"ad_id", "clicks"},
		[]table.Value{s("AD_1"), n(5)},
		[]table.Value{s("AD_2"), n(8)},
		[]table.Value{s("AD_1"), n(4)},
		[]table.Value{s("AD_3"), n(1)},
	)
	top, err := TopPerformers(tb, "clicks", 2, "ad_id")
	require.NoError(t, err)
	assert.Equal(t, []Ranked{{Key: "AD_1", Total: 9}, {Key: "AD_2", Total: 8}}, top)

	_, err = TopPerformers(tb, "spent", 2, "ad_id")
	assert.True(t, errors.Is(err, ErrColumnNotFound))
}

func TestStats(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	assert.Equal(t, 1.75, Quantile(xs, 0.25))
	assert.Equal(t, 3.25, Quantile(xs, 0.75))
	assert.InDelta(t, 1.2909944, StdDev(xs), 1e-6)
	assert.Equal(t, 0.0, StdDev([]float64{7}))
	assert.Equal(t, 0.0, Quantile(nil, 0.5))
	assert.Equal(t, 0.0, SafeDiv(1, 0))

	g, ok := Gap(3, 2)
	assert.True(t, ok)
	assert.InDelta(t, 50.0, g, 1e-9)
	_, ok = Gap(3, 0)
	assert.False(t, ok)
}

func TestMaxByTieKeepsFirst(t *testing.T) {
	stats := []GroupStat{{Label: "a", Mean: 2}, {Label: "b", Mean: 2}, {Label: "c", Mean: 1}}
	best, _ := MaxBy(stats, ByMean)
	worst, _ := MinBy(stats, ByMean)
	assert.Equal(t, "a", best.Label)
	assert.Equal(t, "c", worst.Label)
}
