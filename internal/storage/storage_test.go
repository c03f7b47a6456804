package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/insight-engine/internal/config"
	"github.com/ignite/insight-engine/internal/metrics"
)

func TestLocalStoreSave(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(filepath.Join(dir, "reports"))
	require.NoError(t, err)

	loc, err := s.Save(context.Background(), "run-1/report.md", []byte("# Report"), "text/markdown")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reports", "run-1", "report.md"), loc)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "# Report", string(data))

	_, err = os.Stat(loc + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreRejectsEscapingNames(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../x.md", "/etc/passwd", "a/../../b"} {
		_, err := s.Save(context.Background(), name, []byte("x"), "text/plain")
		assert.Error(t, err, name)
	}
}

func TestLocalStoreCanceledContext(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Save(ctx, "a.md", nil, "")
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeS3 struct {
	puts map[string][]byte
	ct   map[string]string
	err  error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.puts == nil {
		f.puts, f.ct = map[string][]byte{}, map[string]string{}
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.puts[key] = data
	f.ct[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestS3StoreSave(t *testing.T) {
	fake := &fakeS3{}
	s := NewS3StoreWithClient(fake, "insights", "/reports/")

	loc, err := s.Save(context.Background(), "run-1/summary.json", []byte(`{}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, "s3://insights/reports/run-1/summary.json", loc)
	assert.Equal(t, []byte(`{}`), fake.puts["insights/reports/run-1/summary.json"])
	assert.Equal(t, "application/json", fake.ct["insights/reports/run-1/summary.json"])
}

func TestS3StoreError(t *testing.T) {
	s := NewS3StoreWithClient(&fakeS3{err: errors.New("denied")}, "b", "")
	_, err := s.Save(context.Background(), "x.md", nil, "text/markdown")
	assert.ErrorContains(t, err, "denied")
}

type fakeDynamo struct {
	items []map[string]types.AttributeValue
	last  *dynamodb.QueryInput
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.items = append(f.items, in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.last = in
	pk := in.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS).Value
	var out []map[string]types.AttributeValue
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.items[i]["PK"].(*types.AttributeValueMemberS).Value == pk {
			out = append(out, f.items[i])
		}
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

func TestDynamoSummaryIndex(t *testing.T) {
	fake := &fakeDynamo{}
	idx := NewDynamoSummaryIndexWithClient(fake, "insight-runs")
	at := time.Date(2024, 11, 30, 12, 0, 0, 0, time.UTC)
	idx.now = func() time.Time { return at }

	summary := metrics.Summary{"total_records": 8, "avg_CTR": 3.5}
	require.NoError(t, idx.SaveSummary(context.Background(), "abc", "sample", summary))
	require.Len(t, fake.items, 1)

	var item DynamoDBItem
	require.NoError(t, attributevalue.UnmarshalMap(fake.items[0], &item))
	assert.Equal(t, "RUN#abc", item.PK)
	assert.Equal(t, "2024-11-30T12:00:00Z", item.SK)
	assert.Equal(t, "sample", item.Dataset)
	assert.Equal(t, at.Add(90*24*time.Hour).Unix(), item.TTL)

	got, err := idx.GetSummary(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, summary, got)
	assert.False(t, aws.ToBool(fake.last.ScanIndexForward))

	missing, err := idx.GetSummary(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNewSelectsStore(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Type = "local"
	cfg.Storage.LocalPath = t.TempDir()

	store, index, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)
	assert.Nil(t, index)

	cfg.Storage.Type = "s3"
	_, _, err = New(context.Background(), cfg)
	assert.ErrorContains(t, err, "s3_bucket")

	cfg.Storage.Type = "ftp"
	_, _, err = New(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown storage type")
}
