package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/insight-engine/internal/metrics"
)

func newMock(t *testing.T) (*RunRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRunRepo(db), mock
}

var cols = []string{"id", "dataset", "row_count", "narrative_mode", "summary", "artifacts", "created_at"}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS insight_runs").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAssignsID(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec("INSERT INTO insight_runs").
		WithArgs(sqlmock.AnyArg(), "sample", 120, "rule", []byte(`{"total_records":120}`), `{"report.md"}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	run := &Run{
		Dataset:       "sample",
		RowCount:      120,
		NarrativeMode: "rule",
		Summary:       metrics.Summary{"total_records": 120},
		Artifacts:     []string{"report.md"},
	}
	require.NoError(t, repo.Create(context.Background(), run))
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateError(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec("INSERT INTO insight_runs").WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &Run{ID: "r1"})
	assert.ErrorContains(t, err, "create run")
}

func TestGet(t *testing.T) {
	repo, mock := newMock(t)
	at := time.Date(2024, 11, 30, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM insight_runs WHERE id = \\$1").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("r1", "sample", 8, "ai", []byte(`{"avg_CTR":3.5}`), "{report.md,report.json}", at))

	run, err := repo.Get(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "sample", run.Dataset)
	assert.Equal(t, 8, run.RowCount)
	assert.Equal(t, 3.5, run.Summary["avg_CTR"])
	assert.Equal(t, []string{"report.md", "report.json"}, run.Artifacts)
	assert.Equal(t, at, run.CreatedAt)
}

func TestGetNotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM insight_runs").WithArgs("missing").WillReturnRows(sqlmock.NewRows(cols))

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListDefaultsLimit(t *testing.T) {
	repo, mock := newMock(t)
	at := time.Date(2024, 11, 30, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("ORDER BY created_at DESC LIMIT \\$1").
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("r2", "b", 2, "rule", []byte(`{}`), "{}", at).
			AddRow("r1", "a", 1, "rule", []byte(`{}`), "{}", at.Add(-time.Hour)))

	runs, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r2", runs[0].ID)
	assert.Empty(t, runs[1].Artifacts)
}

func TestListEmpty(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("FROM insight_runs").WithArgs(5).WillReturnRows(sqlmock.NewRows(cols))

	runs, err := repo.List(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}
