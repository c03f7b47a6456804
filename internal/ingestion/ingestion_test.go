package ingestion

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ignite/insight-engine/internal/table"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileCSV(t *testing.T) {
	path := writeFile(t, t.TempDir(), "c.csv", "\xEF\xBB\xBFcampaign_id,impressions,clicks,date\nC1,1000,50,2024-11-01\nC2,,7,2024-11-02\n")

	tb, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"campaign_id", "impressions", "clicks", "date"}, tb.Columns())
	require.Equal(t, 2, tb.Len())
	assert.Equal(t, table.String("C1"), tb.Cell(0, "campaign_id"))
	assert.Equal(t, table.Number(1000), tb.Cell(0, "impressions"))
	assert.True(t, tb.Cell(1, "impressions").IsNull())
	assert.Equal(t, table.String("2024-11-02"), tb.Cell(1, "date"))
}

func TestLoadFileCSVDuplicateHeaders(t *testing.T) {
	path := writeFile(t, t.TempDir(), "d.csv", "a,a,\n1,2,3\n")
	tb, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a.1", "Unnamed: 2"}, tb.Columns())
	assert.Equal(t, table.Number(3), tb.Cell(0, "Unnamed: 2"))
}

func TestLoadFileJSONRecords(t *testing.T) {
	path := writeFile(t, t.TempDir(), "r.json", `[{"campaign_id":"C1","impressions":1000},{"campaign_id":"C2","clicks":5,"impressions":null}]`)

	tb, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"campaign_id", "impressions", "clicks"}, tb.Columns())
	assert.Equal(t, table.Number(1000), tb.Cell(0, "impressions"))
	assert.True(t, tb.Cell(0, "clicks").IsNull())
	assert.True(t, tb.Cell(1, "impressions").IsNull())
}

func TestLoadFileJSONColumns(t *testing.T) {
	path := writeFile(t, t.TempDir(), "c.json", `{"ad_id":{"1":"B","0":"A"},"clicks":[3,4]}`)

	tb, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ad_id", "clicks"}, tb.Columns())
	assert.Equal(t, []string{"A", "B"}, tb.Strings("ad_id"))
	assert.Equal(t, []float64{3, 4}, tb.Floats("clicks"))
}

func TestLoadFileXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"ad_id", "impressions", "spent"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"AD_1", 1200, 12.5}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"AD_2", 800}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tb, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, tb.Len())
	assert.Equal(t, table.Number(1200), tb.Cell(0, "impressions"))
	assert.Equal(t, table.Number(12.5), tb.Cell(0, "spent"))
	assert.True(t, tb.Cell(1, "spent").IsNull())
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadFile(writeFile(t, dir, "old.xls", "x"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = LoadFile(writeFile(t, dir, "notes.txt", "x"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = LoadFile(filepath.Join(dir, "missing.csv"))
	assert.True(t, errors.Is(err, ErrFileNotFound))
}

func TestLoadDirectoryUnionsColumns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", "ad_id,clicks\nA2,9\n")
	writeFile(t, dir, "a.csv", "ad_id,impressions\nA1,100\n")
	writeFile(t, dir, "skip.json", `[]`)

	tb, err := LoadDirectory(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ad_id", "impressions", "clicks"}, tb.Columns())
	assert.Equal(t, []string{"A1", "A2"}, tb.Strings("ad_id"))
	assert.True(t, tb.Cell(0, "clicks").IsNull())
	assert.True(t, tb.Cell(1, "impressions").IsNull())
}

func TestLoadDirectoryNoFiles(t *testing.T) {
	_, err := LoadDirectory(t.TempDir(), "*.csv")
	assert.True(t, errors.Is(err, ErrNoFiles))

	_, err = Load(filepath.Join(t.TempDir(), "nope"), "")
	assert.True(t, errors.Is(err, ErrFileNotFound))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("text/csv; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("application/json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("text/plain")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestLoadSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM campaign_stats").
		WillReturnRows(sqlmock.NewRows([]string{"CAMPAIGN_ID", "IMPRESSIONS", "SPENT"}).
			AddRow("C1", int64(1000), []byte("12.5")).
			AddRow("C2", nil, 3.25))

	tb, err := LoadSQL(context.Background(), db, "SELECT campaign_id, impressions, spent FROM campaign_stats")
	require.NoError(t, err)
	assert.Equal(t, []string{"campaign_id", "impressions", "spent"}, tb.Columns())
	assert.Equal(t, table.Number(1000), tb.Cell(0, "impressions"))
	assert.Equal(t, table.Number(12.5), tb.Cell(0, "spent"))
	assert.True(t, tb.Cell(1, "impressions").IsNull())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadSQLQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("relation does not exist"))
	_, err = LoadSQL(context.Background(), db, "SELECT 1")
	assert.Error(t, err)
}

func TestOpenSQLRejectsUnknownDriver(t *testing.T) {
	_, err := OpenSQL(context.Background(), "mysql", "dsn")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

type fakeS3 struct {
	objects map[string]string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var out s3.ListObjectsV2Output
	for _, key := range []string{"exports/a.csv", "exports/b.json", "exports/readme.md", "other/c.csv"} {
		body, ok := f.objects[key]
		if !ok || !strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			continue
		}
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key), Size: aws.Int64(int64(len(body)))})
	}
	return &out, nil
}

func TestS3Source(t *testing.T) {
	src := NewS3SourceWithClient(&fakeS3{objects: map[string]string{
		"exports/a.csv":     "ad_id,clicks\nA1,4\n",
		"exports/b.json":    `[{"ad_id":"A2","clicks":6}]`,
		"exports/readme.md": "# notes",
		"other/c.csv":       "ad_id\nX\n",
	}}, "campaign-data")

	tb, err := src.Load(context.Background(), "exports/a.csv")
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, tb.Floats("clicks"))

	all, err := src.LoadPrefix(context.Background(), "exports/")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, all.Strings("ad_id"))

	_, err = src.LoadPrefix(context.Background(), "empty/")
	assert.True(t, errors.Is(err, ErrNoFiles))

	_, err = src.Load(context.Background(), "exports/missing.csv")
	assert.Error(t, err)
}

func TestSampleDataset(t *testing.T) {
	a := SampleDataset(42, 30)
	b := SampleDataset(42, 30)
	assert.Equal(t, a.Len(), b.Len())
	for r := 0; r < a.Len(); r++ {
		assert.Equal(t, a.RowKey(r), b.RowKey(r))
	}

	assert.GreaterOrEqual(t, a.Len(), 300)
	assert.Less(t, a.Len(), 600)
	assert.Equal(t, SampleColumns, a.Columns())
	assert.LessOrEqual(t, a.Distinct("campaign_id"), 6)
	assert.LessOrEqual(t, a.Distinct("ad_id"), 10)
	assert.Equal(t, 30, a.Distinct("date"))

	imps, clicks := a.Floats("impressions"), a.Floats("clicks")
	for r := range imps {
		assert.GreaterOrEqual(t, imps[r], 1000.0)
		assert.Less(t, imps[r], 10000.0)
		assert.LessOrEqual(t, clicks[r], imps[r]*0.08)
	}
}
