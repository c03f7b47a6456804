package preprocess

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/insight-engine/internal/metrics"
	"github.com/ignite/insight-engine/internal/pkg/logger"
	"github.com/ignite/insight-engine/internal/table"
)

// ErrNonNumericColumn means a ratio prerequisite exists but holds text.
var ErrNonNumericColumn = errors.New("column is not numeric")

type ratio struct {
	name     string
	num, den string
	scale    float64
}

// ratios are computed in this order; den "conversions" resolves to whichever
// conversions column the table carries.
var ratios = []ratio{
	{name: "CTR", num: "clicks", den: "impressions", scale: 100},
	{name: "CPC", num: "spent", den: "clicks", scale: 1},
	{name: "CPM", num: "spent", den: "impressions", scale: 1000},
	{name: "conversion_rate", num: "conversions", den: "clicks", scale: 100},
	{name: "cost_per_conversion", num: "spent", den: "conversions", scale: 1},
}

// EngineerFeatures returns a copy of t with ratio and calendar columns added.
// Each column is derived only when its inputs exist; zero denominators yield 0.
// Existing derived columns are overwritten, so the function is idempotent.
func EngineerFeatures(t *table.Table) (*table.Table, error) {
	out := t.Clone()
	conv := metrics.ConversionsColumn(out)

	var added []string
	for _, rt := range ratios {
		num, den := resolve(rt.num, conv), resolve(rt.den, conv)
		if num == "" || den == "" || !out.Has(num) || !out.Has(den) {
			continue
		}
		for _, c := range []string{num, den} {
			if !out.IsNumeric(c) {
				return nil, fmt.Errorf("deriving %s from %q: %w", rt.name, c, ErrNonNumericColumn)
			}
		}
		nums, dens := out.Floats(num), out.Floats(den)
		vals := make([]table.Value, out.Len())
		for r := range vals {
			vals[r] = table.Number(metrics.SafeDiv(nums[r], dens[r]) * rt.scale)
		}
		if err := out.AddColumn(rt.name, vals); err != nil {
			return nil, fmt.Errorf("adding %s: %w", rt.name, err)
		}
		added = append(added, rt.name)
	}

	if col := dateColumn(out); col != "" && out.ColumnKind(col) == table.KindTime {
		if err := addCalendarFeatures(out, col); err != nil {
			return nil, err
		}
		added = append(added, "day_of_week", "is_weekend", "week_of_year")
	}

	logger.Info("engineered features", "columns", strings.Join(added, ","))
	return out, nil
}

func resolve(col, conv string) string {
	if col == "conversions" {
		return conv
	}
	return col
}

// dateColumn is the first column whose name contains "date".
func dateColumn(t *table.Table) string {
	for _, c := range t.Columns() {
		if strings.Contains(strings.ToLower(c), "date") {
			return c
		}
	}
	return ""
}

// DayOfWeek numbers Monday as 0 through Sunday as 6.
func DayOfWeek(at time.Time) int {
	return (int(at.Weekday()) + 6) % 7
}

func addCalendarFeatures(t *table.Table, col string) error {
	n := t.Len()
	dow := make([]table.Value, n)
	weekend := make([]table.Value, n)
	week := make([]table.Value, n)
	for r := 0; r < n; r++ {
		at, _ := t.Cell(r, col).TimeValue()
		d := DayOfWeek(at)
		dow[r] = table.Number(float64(d))
		if d >= 5 {
			weekend[r] = table.Number(1)
		} else {
			weekend[r] = table.Number(0)
		}
		_, w := at.ISOWeek()
		week[r] = table.Number(float64(w))
	}
	cols := []struct {
		name string
		vals []table.Value
	}{{"day_of_week", dow}, {"is_weekend", weekend}, {"week_of_year", week}}
	for _, c := range cols {
		if err := t.AddColumn(c.name, c.vals); err != nil {
			return fmt.Errorf("adding %s: %w", c.name, err)
		}
	}
	return nil
}
