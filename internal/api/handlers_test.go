package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/insight-engine/internal/config"
	"github.com/ignite/insight-engine/internal/narrative"
	"github.com/ignite/insight-engine/internal/pipeline"
	"github.com/ignite/insight-engine/internal/pkg/distlock"
	"github.com/ignite/insight-engine/internal/repository/postgres"
)

const campaignCSV = `date,campaign_id,ad_id,ad_platform,gender,age,impressions,clicks,spent,conversions
2024-11-04,C1,A1,Facebook,Male,25-34,10000,600,240,30
2024-11-05,C1,A2,Google,Female,35-44,8000,120,180,2
2024-11-06,C2,A3,Facebook,Female,18-24,12000,480,200,12
2024-11-07,C2,A4,Instagram,Male,25-34,5000,50,90,1
`

type fakeRuns struct {
	runs map[string]postgres.Run
	err  error
}

func (f *fakeRuns) Get(ctx context.Context, id string) (*postgres.Run, error) {
	if f.err != nil {
		return nil, f.err
	}
	run, ok := f.runs[id]
	if !ok {
		return nil, postgres.ErrRunNotFound
	}
	return &run, nil
}

func (f *fakeRuns) List(ctx context.Context, limit int) ([]postgres.Run, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []postgres.Run{}
	for _, r := range f.runs {
		out = append(out, r)
	}
	return out, nil
}

func newTestServer(t *testing.T, opts ...HandlerOption) http.Handler {
	t.Helper()
	engine := narrative.NewEngine(context.Background(), config.NarrativeConfig{}, config.AWSConfig{})
	p := pipeline.New(&config.Config{}, engine)
	health := NewHealthChecker(nil, nil, string(engine.Mode()), map[string]string{"storage": "none"})
	return NewServer(config.ServerConfig{}, NewHandlers(p, opts...), health).Handler()
}

func post(h http.Handler, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(newTestServer(t), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "rule", body.Narrative)
	assert.Equal(t, "none", body.Backends["storage"])
	assert.Equal(t, "not_configured", body.Checks["database"].Status)
	assert.Equal(t, "insight-engine-v1.0", rec.Header().Get("X-Server-Identity"))
}

func TestCreateReportCSV(t *testing.T) {
	rec := post(newTestServer(t), "/api/reports?dataset=nov&segment_by=ad_platform", "text/csv", campaignCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		RunID         string             `json:"run_id"`
		Dataset       string             `json:"dataset"`
		NarrativeMode string             `json:"narrative_mode"`
		Summary       map[string]float64 `json:"summary"`
		Segments      struct {
			Column string `json:"column"`
		} `json:"segments"`
		Analysis string `json:"analysis"`
		Markdown string `json:"markdown"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.RunID)
	assert.Equal(t, "nov", body.Dataset)
	assert.Equal(t, "rule", body.NarrativeMode)
	assert.Equal(t, 4.0, body.Summary["total_records"])
	assert.Equal(t, "ad_platform", body.Segments.Column)
	assert.Contains(t, body.Analysis, "EXECUTIVE SUMMARY")
	assert.Contains(t, body.Markdown, "# Campaign Performance Report")
}

func TestCreateReportJSON(t *testing.T) {
	payload := `[{"ad_platform":"Google","impressions":1000,"clicks":30,"spent":12.5},
	             {"ad_platform":"Meta","impressions":2000,"clicks":25,"spent":20}]`
	rec := post(newTestServer(t), "/api/reports?format=json", "application/json", payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), `"markdown"`)
}

func TestCreateReportErrors(t *testing.T) {
	h := newTestServer(t)

	rec := post(h, "/api/reports", "text/plain", "x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(h, "/api/reports", "text/csv", "impressions,clicks\n")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = post(h, "/api/reports", "text/csv", "impressions,clicks\n-1,-1\n")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = post(h, "/api/reports?segment_by=region", "text/csv", campaignCSV)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(h, "/api/reports", "text/csv", "impressions,clicks\n100,N/A\n200,5\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not numeric")

	rec = post(h, "/api/reports?format=pdf", "text/csv", campaignCSV)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(h, "/api/reports", "application/json", `{"broken":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReportTooLarge(t *testing.T) {
	h := newTestServer(t, WithMaxUploadMB(1))
	rec := post(h, "/api/reports", "text/csv", "a\n"+strings.Repeat("1\n", 1<<20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCreateReportConflict(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	h := newTestServer(t, WithLocker(distlock.NewLocker(client, nil, time.Minute)))

	key := "lock:" + distlock.PayloadKey("report", []byte(campaignCSV))
	require.NoError(t, mr.Set(key, "another-request"))
	rec := post(h, "/api/reports", "text/csv", campaignCSV)
	assert.Equal(t, http.StatusConflict, rec.Code)

	mr.Del(key)
	rec = post(h, "/api/reports", "text/csv", campaignCSV)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, mr.Exists(key), "lock released after the run")
}

func TestReportHistory(t *testing.T) {
	at := time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC)
	runs := &fakeRuns{runs: map[string]postgres.Run{
		"r1": {ID: "r1", Dataset: "nov", RowCount: 8, CreatedAt: at},
	}}
	h := newTestServer(t, WithRunStore(runs))

	rec := get(h, "/api/reports/r1")
	require.Equal(t, http.StatusOK, rec.Code)
	var run postgres.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "nov", run.Dataset)

	assert.Equal(t, http.StatusNotFound, get(h, "/api/reports/missing").Code)

	rec = get(h, "/api/reports?limit=10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	assert.Equal(t, http.StatusBadRequest, get(h, "/api/reports?limit=abc").Code)

	runs.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, get(h, "/api/reports/r1").Code)
}

func TestReportHistoryWithoutDatabase(t *testing.T) {
	h := newTestServer(t)
	assert.Equal(t, http.StatusNotImplemented, get(h, "/api/reports").Code)
	assert.Equal(t, http.StatusNotImplemented, get(h, "/api/reports/r1").Code)
}
