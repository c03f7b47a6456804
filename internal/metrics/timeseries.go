package metrics

import (
	"fmt"
	"time"

	"github.com/ignite/insight-engine/internal/table"
)

// Frequency is the bucket width of a time series.
type Frequency string

const (
	Daily   Frequency = "D"
	Weekly  Frequency = "W"
	Monthly Frequency = "M"
)

// ParseFrequency accepts D/W/M or daily/weekly/monthly.
func ParseFrequency(s string) (Frequency, error) {
	switch s {
	case "D", "d", "daily", "":
		return Daily, nil
	case "W", "w", "weekly":
		return Weekly, nil
	case "M", "m", "monthly":
		return Monthly, nil
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}

var (
	seriesSums  = []string{"impressions", "clicks", "spent", "conversions"}
	seriesMeans = []string{"CTR", "CPC", "CPM", "conversion_rate"}
)

// TimePoint is one bucket. Period is the bucket label: the day, the Sunday
// closing the week, or the last day of the month.
type TimePoint struct {
	Period time.Time          `json:"period"`
	Rows   int                `json:"rows"`
	Values map[string]float64 `json:"values"`
}

// TimeSeriesTable is a contiguous run of buckets from the first to the last
// observation; empty buckets carry zeros.
type TimeSeriesTable struct {
	Frequency Frequency   `json:"frequency"`
	Metrics   []string    `json:"metrics"`
	Points    []TimePoint `json:"points"`
}

// TimeSeries buckets rows by the time column dateCol. Sums are taken for
// volume metrics and means for ratio metrics.
func TimeSeries(t *table.Table, dateCol string, freq Frequency) (*TimeSeriesTable, error) {
	if err := requireColumn(t, dateCol); err != nil {
		return nil, err
	}
	if t.ColumnKind(dateCol) != table.KindTime {
		return nil, fmt.Errorf("column %q is not a date column", dateCol)
	}

	type agg struct{ name, col string }
	var sums, means []agg
	for _, m := range seriesSums {
		col := m
		if m == "conversions" {
			col = ConversionsColumn(t)
		}
		if col != "" && t.IsNumeric(col) {
			sums = append(sums, agg{m, col})
		}
	}
	for _, m := range seriesMeans {
		if t.IsNumeric(m) {
			means = append(means, agg{m, m})
		}
	}

	ts := &TimeSeriesTable{Frequency: freq}
	for _, a := range sums {
		ts.Metrics = append(ts.Metrics, a.name)
	}
	for _, a := range means {
		ts.Metrics = append(ts.Metrics, a.name)
	}

	buckets := make(map[time.Time][]int)
	var first, last time.Time
	for r, v := range t.Values(dateCol) {
		at, ok := v.TimeValue()
		if !ok {
			continue
		}
		p := periodOf(at, freq)
		if len(buckets) == 0 || p.Before(first) {
			first = p
		}
		if len(buckets) == 0 || p.After(last) {
			last = p
		}
		buckets[p] = append(buckets[p], r)
	}
	if len(buckets) == 0 {
		return ts, nil
	}

	cols := make(map[string][]float64)
	for _, a := range append(sums, means...) {
		cols[a.name] = t.Floats(a.col)
	}

	for p := first; !p.After(last); p = nextPeriod(p, freq) {
		rows := buckets[p]
		pt := TimePoint{Period: p, Rows: len(rows), Values: make(map[string]float64, len(ts.Metrics))}
		for _, a := range sums {
			pt.Values[a.name] = Sum(pick(cols[a.name], rows))
		}
		for _, a := range means {
			pt.Values[a.name] = Mean(pick(cols[a.name], rows))
		}
		ts.Points = append(ts.Points, pt)
	}
	return ts, nil
}

func periodOf(at time.Time, freq Frequency) time.Time {
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	switch freq {
	case Weekly:
		offset := (7 - int(day.Weekday())) % 7
		return day.AddDate(0, 0, offset)
	case Monthly:
		return time.Date(at.Year(), at.Month()+1, 0, 0, 0, 0, 0, at.Location())
	default:
		return day
	}
}

func nextPeriod(p time.Time, freq Frequency) time.Time {
	switch freq {
	case Weekly:
		return p.AddDate(0, 0, 7)
	case Monthly:
		return time.Date(p.Year(), p.Month()+2, 0, 0, 0, 0, 0, p.Location())
	default:
		return p.AddDate(0, 0, 1)
	}
}
