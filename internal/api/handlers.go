package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/insight-engine/internal/ingestion"
	"github.com/ignite/insight-engine/internal/metrics"
	"github.com/ignite/insight-engine/internal/pipeline"
	"github.com/ignite/insight-engine/internal/pkg/distlock"
	"github.com/ignite/insight-engine/internal/pkg/httputil"
	"github.com/ignite/insight-engine/internal/pkg/logger"
	"github.com/ignite/insight-engine/internal/preprocess"
	"github.com/ignite/insight-engine/internal/report"
	"github.com/ignite/insight-engine/internal/repository/postgres"
	"github.com/ignite/insight-engine/internal/table"
)

// Runner executes the pipeline; *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, raw *table.Table, opts pipeline.Options) (*pipeline.Result, error)
}

// RunStore reads run history; *postgres.RunRepo satisfies it.
type RunStore interface {
	Get(ctx context.Context, id string) (*postgres.Run, error)
	List(ctx context.Context, limit int) ([]postgres.Run, error)
}

// Handlers serves the report endpoints.
type Handlers struct {
	runner    Runner
	runs      RunStore
	locker    *distlock.Locker
	maxUpload int64
}

// HandlerOption configures Handlers.
type HandlerOption func(*Handlers)

// WithRunStore enables the history endpoints.
func WithRunStore(s RunStore) HandlerOption {
	return func(h *Handlers) { h.runs = s }
}

// WithLocker rejects concurrent uploads of the same payload.
func WithLocker(l *distlock.Locker) HandlerOption {
	return func(h *Handlers) { h.locker = l }
}

// WithMaxUploadMB caps request bodies.
func WithMaxUploadMB(mb int) HandlerOption {
	return func(h *Handlers) {
		if mb > 0 {
			h.maxUpload = int64(mb) << 20
		}
	}
}

// NewHandlers creates handlers around runner.
func NewHandlers(runner Runner, opts ...HandlerOption) *Handlers {
	h := &Handlers{runner: runner, maxUpload: 50 << 20}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// reportResponse is the POST body: the run result plus inline Markdown when
// it was rendered.
type reportResponse struct {
	*pipeline.Result
	Markdown string `json:"markdown,omitempty"`
}

// HandleCreateReport runs the pipeline over the uploaded rows.
//
//	POST /api/reports?dataset=&segment_by=&format=
func (h *Handlers) HandleCreateReport(w http.ResponseWriter, r *http.Request) {
	format, err := ingestion.ParseFormat(r.Header.Get("Content-Type"))
	if err != nil {
		httputil.BadRequest(w, "Content-Type must be text/csv, application/json or an XLSX workbook")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUpload))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.Error(w, http.StatusRequestEntityTooLarge, "too_large", fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		httputil.BadRequest(w, "failed to read body")
		return
	}

	q := r.URL.Query()
	var formats []report.Format
	if v := q.Get("format"); v != "" {
		if formats, err = report.ParseFormats(strings.Split(v, ",")...); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
	}

	raw, err := ingestion.ReadBytes(body, format)
	if err != nil {
		httputil.BadRequest(w, "could not parse upload: "+err.Error())
		return
	}

	if h.locker != nil {
		lock := h.locker.For(distlock.PayloadKey("report", body))
		ok, err := lock.Acquire(r.Context())
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		if !ok {
			httputil.Conflict(w, "an identical upload is already being processed")
			return
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := lock.Release(ctx); err != nil {
				logger.Warn("lock release failed", "error", err)
			}
		}()
	}

	dataset := q.Get("dataset")
	if dataset == "" {
		dataset = "upload"
	}
	res, err := h.runner.Run(r.Context(), raw, pipeline.Options{
		Dataset:   dataset,
		SegmentBy: q.Get("segment_by"),
		Formats:   formats,
	})
	switch {
	case errors.Is(err, pipeline.ErrEmptyDataset):
		httputil.Unprocessable(w, err.Error())
		return
	case errors.Is(err, metrics.ErrColumnNotFound), errors.Is(err, preprocess.ErrNonNumericColumn):
		httputil.BadRequest(w, err.Error())
		return
	case err != nil:
		httputil.InternalError(w, err)
		return
	}

	resp := reportResponse{Result: res}
	for _, o := range res.Outputs {
		if o.Format == report.FormatMarkdown {
			resp.Markdown = string(o.Data)
		}
	}
	httputil.OK(w, resp)
}

// HandleListReports lists recent runs.
//
//	GET /api/reports?limit=
func (h *Handlers) HandleListReports(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		httputil.NotImplemented(w, "run history requires a database")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			httputil.BadRequest(w, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	runs, err := h.runs.List(r.Context(), limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"runs": runs, "count": len(runs)})
}

// HandleGetReport returns one run.
//
//	GET /api/reports/{id}
func (h *Handlers) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		httputil.NotImplemented(w, "run history requires a database")
		return
	}
	run, err := h.runs.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, postgres.ErrRunNotFound) {
		httputil.NotFound(w, "run not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, run)
}
