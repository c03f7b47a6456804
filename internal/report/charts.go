package report

import (
	"sort"

	"github.com/ignite/insight-engine/internal/pkg/logger"
	"github.com/ignite/insight-engine/internal/metrics"
	"github.com/ignite/insight-engine/internal/table"
)

// Chart is a rendered PNG ready to be stored.
type Chart struct {
	Name  string
	Title string
	PNG   []byte
}

type groupChart struct {
	name, title, by, metric string
	sum                     bool
	limit                   int
}

var groupCharts = []groupChart{
	{name: "ctr_by_platform.png", title: "Average CTR by Platform (%)", by: "ad_platform", metric: "CTR"},
	{name: "ctr_by_category.png", title: "Average CTR by Ad Category (%)", by: "ad_category", metric: "CTR"},
	{name: "ctr_by_age.png", title: "Average CTR by Age Group (%)", by: "age", metric: "CTR"},
	{name: "spend_by_campaign.png", title: "Top Campaigns by Spend ($)", by: "campaign_id", metric: "spent", sum: true, limit: 10},
}

// Charts renders every chart the table has columns for. A chart that fails to
// render is logged and skipped.
func Charts(t *table.Table) []Chart {
	var out []Chart
	for _, gc := range groupCharts {
		stats := metrics.GroupStats(t, gc.by, gc.metric)
		if len(stats) == 0 {
			continue
		}
		key := metrics.ByMean
		if gc.sum {
			key = metrics.BySum
		}
		sort.SliceStable(stats, func(i, j int) bool { return key(stats[i]) > key(stats[j]) })
		if gc.limit > 0 && len(stats) > gc.limit {
			stats = stats[:gc.limit]
		}
		labels := make([]string, len(stats))
		values := make([]float64, len(stats))
		for i, s := range stats {
			labels[i] = s.Label
			values[i] = key(s)
		}
		out = appendChart(out, gc.name, gc.title, labels, values)
	}

	if col := timeColumn(t); col != "" && t.IsNumeric("clicks") {
		ts, err := metrics.TimeSeries(t, col, metrics.Daily)
		if err == nil && len(ts.Points) > 0 {
			labels := make([]string, len(ts.Points))
			values := make([]float64, len(ts.Points))
			for i, p := range ts.Points {
				labels[i] = p.Period.Format("01-02")
				values[i] = p.Values["clicks"]
			}
			out = appendChart(out, "daily_clicks.png", "Daily Clicks", labels, values)
		}
	}
	return out
}

func appendChart(out []Chart, name, title string, labels []string, values []float64) []Chart {
	png, err := BarChart(title, labels, values)
	if err != nil {
		logger.Warn("chart skipped", "chart", name, "error", err)
		return out
	}
	return append(out, Chart{Name: name, Title: title, PNG: png})
}

func timeColumn(t *table.Table) string {
	for _, c := range t.Columns() {
		if t.ColumnKind(c) == table.KindTime {
			return c
		}
	}
	return ""
}
