package preprocess

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

func num(f float64) table.Value { return table.Number(f) }
func str(s string) table.Value { return table.String(s) }
func cell(t *table.Table, r int, c string) float64 {
	f, _ := t.Cell(r, c).Float()
	return f
}

func TestCleanOrderAndCounts(t *testing.T) {
	raw := build(t, []string{"campaign_id", "impressions", "spent", "date"},
		[]table.Value{str("CMP_1"), num(100), num(5), str("2024-11-01")},
		[]table.Value{str("CMP_1"), num(100), num(5), str("2024-11-01")},
		[]table.Value{table.Null(), num(200), table.Null(), str("2024-11-02")},
		[]table.Value{str("CMP_2"), num(-1), num(3), str("2024-11-03")},
	)

	out, rep := Clean(raw)

	assert.Equal(t, 4, rep.OriginalRows)
	assert.Equal(t, 1, rep.DuplicatesRemoved)
	assert.Equal(t, 1, rep.NullsFilled["campaign_id"])
	assert.Equal(t, 1, rep.NullsFilled["spent"])
	assert.Equal(t, []string{"date"}, rep.DateColumns)
	assert.Equal(t, 1, rep.NegativeRowsRemoved["impressions"])
	assert.Equal(t, 2, rep.FinalRows)
	require.Equal(t, 2, out.Len())

	assert.Equal(t, Unknown, out.Cell(1, "campaign_id").Text())
	assert.Equal(t, 0.0, cell(out, 1, "spent"))
	at, ok := out.Cell(0, "date").TimeValue()
	require.True(t, ok)
	assert.Equal(t, time.November, at.Month())

	// raw untouched
	assert.Equal(t, 4, raw.Len())
	assert.True(t, raw.Cell(2, "campaign_id").IsNull())
}

func TestCleanLeavesUnparseableDateColumn(t *testing.T) {
	raw := build(t, []string{"start_date", "clicks"},
		[]table.Value{str("2024-11-01"), num(1)},
		[]table.Value{str("soon"), num(2)},
	)
	out, rep := Clean(raw)
	assert.Equal(t, []string{"start_date"}, rep.DateFailures)
	assert.Equal(t, table.KindString, out.ColumnKind("start_date"))
	assert.Equal(t, 2, out.Len())
}

func TestEngineerFeaturesScenario(t *testing.T) {
	in := build(t, []string{"impressions", "clicks", "spent", "conversions"},
		[]table.Value{num(1000), num(50), num(25), num(5)})

	out, err := EngineerFeatures(in)
	require.NoError(t, err)

	assert.InDelta(t, 5.0, cell(out, 0, "CTR"), 1e-9)
	assert.InDelta(t, 0.5, cell(out, 0, "CPC"), 1e-9)
	assert.InDelta(t, 25.0, cell(out, 0, "CPM"), 1e-9)
	assert.InDelta(t, 10.0, cell(out, 0, "conversion_rate"), 1e-9)
	assert.InDelta(t, 5.0, cell(out, 0, "cost_per_conversion"), 1e-9)
	assert.False(t, in.Has("CTR"))
}

func TestEngineerFeaturesZeroDenominators(t *testing.T) {
	in := build(t, []string{"impressions", "clicks", "spent", "conversions"},
		[]table.Value{num(0), num(0), num(10), num(0)})

	out, err := EngineerFeatures(in)
	require.NoError(t, err)
	for _, c := range []string{"CTR", "CPM", "CPC", "conversion_rate", "cost_per_conversion"} {
		assert.Equal(t, 0.0, cell(out, 0, c), c)
	}
}

func TestEngineerFeaturesIdempotent(t *testing.T) {
	in := build(t, []string{"impressions", "clicks", "spent", "conversions", "date"},
		[]table.Value{num(1200), num(37), num(18.5), num(2), table.Time(time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC))},
		[]table.Value{num(0), num(0), num(0), num(0), table.Time(time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC))},
	)
	once, err := EngineerFeatures(in)
	require.NoError(t, err)
	twice, err := EngineerFeatures(once)
	require.NoError(t, err)

	assert.Equal(t, once.Columns(), twice.Columns())
	for r := 0; r < once.Len(); r++ {
		assert.Equal(t, once.Row(r), twice.Row(r))
	}
}

func TestEngineerFeaturesSkipsMissingPrerequisites(t *testing.T) {
	in := build(t, []string{"impressions", "clicks"}, []table.Value{num(10), num(1)})
	out, err := EngineerFeatures(in)
	require.NoError(t, err)
	assert.True(t, out.Has("CTR"))
	for _, c := range []string{"CPC", "CPM", "conversion_rate", "cost_per_conversion", "day_of_week"} {
		assert.False(t, out.Has(c), c)
	}
}

func TestEngineerFeaturesRejectsTextPrerequisite(t *testing.T) {
	in := build(t, []string{"impressions", "clicks"}, []table.Value{str("many"), num(1)})
	_, err := EngineerFeatures(in)
	assert.True(t, errors.Is(err, ErrNonNumericColumn))
}

func TestCalendarFeatures(t *testing.T) {
	sat := time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC) // Saturday, ISO week 44
	mon := time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC)
	in := build(t, []string{"date", "clicks"},
		[]table.Value{table.Time(sat), num(1)},
		[]table.Value{table.Time(mon), num(1)},
	)
	out, err := EngineerFeatures(in)
	require.NoError(t, err)
	assert.Equal(t, 5.0, cell(out, 0, "day_of_week"))
	assert.Equal(t, 1.0, cell(out, 0, "is_weekend"))
	assert.Equal(t, 44.0, cell(out, 0, "week_of_year"))
	assert.Equal(t, 0.0, cell(out, 1, "day_of_week"))
	assert.Equal(t, 0.0, cell(out, 1, "is_weekend"))
}

func TestConversionSingularColumn(t *testing.T) {
	in := build(t, []string{"clicks", "spent", "conversion"}, []table.Value{num(20), num(10), num(4)})
	out, err := EngineerFeatures(in)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, cell(out, 0, "conversion_rate"), 1e-9)
	assert.InDelta(t, 2.5, cell(out, 0, "cost_per_conversion"), 1e-9)
}
