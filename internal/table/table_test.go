package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *Table {
	t.Helper()
	tb := New("campaign_id", "impressions", "date")
	day := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, tb.AppendRow(String("B"), Number(100), Time(day)))
	require.NoError(t, tb.AppendRow(String("A"), Number(50), Time(day)))
	require.NoError(t, tb.AppendRow(String("B"), Null(), Time(day.AddDate(0, 0, 1))))
	return tb
}

func TestGroupByKeepsFirstAppearanceOrder(t *testing.T) {
	tb := sample(t)
	groups := tb.GroupBy("campaign_id")
	require.Len(t, groups, 2)
	assert.Equal(t, "B", groups[0].Label())
	assert.Equal(t, []int{0, 2}, groups[0].Rows)
	assert.Equal(t, "A", groups[1].Label())
	assert.Nil(t, tb.GroupBy("missing"))
}

func TestColumnKind(t *testing.T) {
	tb := sample(t)
	assert.Equal(t, KindNumber, tb.ColumnKind("impressions"))
	assert.Equal(t, KindString, tb.ColumnKind("campaign_id"))
	assert.Equal(t, KindTime, tb.ColumnKind("date"))

	empty := New("notes")
	require.NoError(t, empty.AppendRow(Null()))
	assert.Equal(t, KindNumber, empty.ColumnKind("notes"))

	mixed := New("x")
	require.NoError(t, mixed.AppendRow(Number(1)))
	require.NoError(t, mixed.AppendRow(String("n/a")))
	assert.Equal(t, KindString, mixed.ColumnKind("x"))
}

func TestCloneIsIndependent(t *testing.T) {
	tb := sample(t)
	c := tb.Clone()
	c.Set(0, "impressions", Number(1))
	require.NoError(t, c.AddColumn("clicks", []Value{Number(1), Number(2), Number(3)}))

	v, _ := tb.Cell(0, "impressions").Float()
	assert.Equal(t, 100.0, v)
	assert.False(t, tb.Has("clicks"))
	assert.True(t, c.Has("clicks"))
}

func TestAddColumnOverwritesInPlace(t *testing.T) {
	tb := sample(t)
	require.NoError(t, tb.AddColumn("impressions", []Value{Number(1), Number(2), Number(3)}))
	assert.Equal(t, []string{"campaign_id", "impressions", "date"}, tb.Columns())
	assert.Equal(t, []float64{1, 2, 3}, tb.Floats("impressions"))

	assert.Error(t, tb.AddColumn("short", []Value{Number(1)}))
}

func TestRowKeyTreatsNullsAsEqual(t *testing.T) {
	tb := New("a", "b")
	require.NoError(t, tb.AppendRow(String("x"), Null()))
	require.NoError(t, tb.AppendRow(String("x"), Null()))
	require.NoError(t, tb.AppendRow(String("x"), Number(0)))
	assert.Equal(t, tb.RowKey(0), tb.RowKey(1))
	assert.NotEqual(t, tb.RowKey(0), tb.RowKey(2))
}

func TestRowKeyDistinguishesSeparatorText(t *testing.T) {
	tb := New("a", "b")
	require.NoError(t, tb.AppendRow(String("a\x1fs:b"), String("c")))
	require.NoError(t, tb.AppendRow(String("a"), String("b\x1fs:c")))
	require.NoError(t, tb.AppendRow(String("a:"), String("b")))
	require.NoError(t, tb.AppendRow(String("a"), String(":b")))
	assert.NotEqual(t, tb.RowKey(0), tb.RowKey(1))
	assert.NotEqual(t, tb.RowKey(2), tb.RowKey(3))
}

func TestParse(t *testing.T) {
	assert.True(t, Parse("").IsNull())
	f, ok := Parse("12.5").Float()
	assert.True(t, ok)
	assert.Equal(t, 12.5, f)
	assert.Equal(t, KindString, Parse("Facebook").Kind())
	for _, raw := range []string{"Inf", "-Infinity", "+inf", "NaN"} {
		v := Parse(raw)
		assert.Equal(t, KindString, v.Kind(), raw)
		assert.Equal(t, raw, v.Text())
	}
	assert.Equal(t, "2024-11-01", Time(time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)).Text())
}

func TestDistinctSkipsNull(t *testing.T) {
	tb := New("ad_id")
	for _, v := range []Value{String("AD_1"), String("AD_2"), String("AD_1"), Null()} {
		require.NoError(t, tb.AppendRow(v))
	}
	assert.Equal(t, 2, tb.Distinct("ad_id"))
}
