// Package pipeline runs one dataset through cleaning, feature engineering,
// metrics, narrative and rendering, then stores the results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/insight-engine/internal/config"
	"github.com/ignite/insight-engine/internal/metrics"
	"github.com/ignite/insight-engine/internal/narrative"
	"github.com/ignite/insight-engine/internal/pkg/logger"
	"github.com/ignite/insight-engine/internal/preprocess"
	"github.com/ignite/insight-engine/internal/report"
	"github.com/ignite/insight-engine/internal/repository/postgres"
	"github.com/ignite/insight-engine/internal/storage"
	"github.com/ignite/insight-engine/internal/table"
)

// ErrEmptyDataset is returned when the input, or what survives cleaning, has
// no rows.
var ErrEmptyDataset = errors.New("dataset has no rows")

// DefaultSegmentColumn is used when Options.SegmentBy is empty. Unlike an
// explicit column, it is skipped silently when absent.
const DefaultSegmentColumn = "campaign_id"

// RunRecorder persists run history.
type RunRecorder interface {
	Create(ctx context.Context, run *postgres.Run) error
}

// Pipeline holds the collaborators shared across runs. It keeps no per-run
// state, so one Pipeline may serve concurrent requests.
type Pipeline struct {
	report config.ReportConfig
	engine *narrative.Engine
	store  storage.ArtifactStore
	index  storage.SummaryIndex
	runs   RunRecorder
	now    func() time.Time
	newID  func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithArtifactStore stores rendered reports and charts.
func WithArtifactStore(s storage.ArtifactStore) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithSummaryIndex records each run's summary.
func WithSummaryIndex(i storage.SummaryIndex) Option {
	return func(p *Pipeline) { p.index = i }
}

// WithRunRepository records each run in the history table.
func WithRunRepository(r RunRecorder) Option {
	return func(p *Pipeline) { p.runs = r }
}

// New creates a pipeline. engine must not be nil.
func New(cfg *config.Config, engine *narrative.Engine, opts ...Option) *Pipeline {
	p := &Pipeline{
		report: cfg.Report,
		engine: engine,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Options are per-run settings.
type Options struct {
	Dataset   string
	SegmentBy string
	// Formats defaults to the configured report formats, then Markdown.
	Formats []report.Format
}

// Output is one rendered report file.
type Output struct {
	Name        string        `json:"name"`
	Format      report.Format `json:"format"`
	ContentType string        `json:"content_type"`
	Location    string        `json:"location,omitempty"`
	Data        []byte        `json:"-"`
}

// Result is everything a run produced.
type Result struct {
	RunID         string                 `json:"run_id"`
	Dataset       string                 `json:"dataset"`
	NarrativeMode narrative.Mode         `json:"narrative_mode"`
	Cleaning      preprocess.CleanReport `json:"cleaning"`
	Summary       metrics.Summary        `json:"summary"`
	Segments      *metrics.SegmentTable  `json:"segments,omitempty"`
	Analysis      string                 `json:"analysis"`
	QuickInsights string                 `json:"quick_insights"`
	Outputs       []Output               `json:"outputs"`
	Charts        []report.ChartRef      `json:"charts,omitempty"`
	ChartFiles    []string               `json:"chart_files,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// Artifacts lists stored locations, reports then charts.
func (r *Result) Artifacts() []string {
	var out []string
	for _, o := range r.Outputs {
		if o.Location != "" {
			out = append(out, o.Location)
		}
	}
	return append(out, r.ChartFiles...)
}

// Run processes raw. Narrative problems never fail a run; storage and
// history failures do.
func (p *Pipeline) Run(ctx context.Context, raw *table.Table, opts Options) (*Result, error) {
	if raw == nil || raw.Len() == 0 {
		return nil, ErrEmptyDataset
	}
	formats, err := p.formats(opts.Formats)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:     p.newID(),
		Dataset:   opts.Dataset,
		CreatedAt: p.now().UTC(),
	}
	start := time.Now()

	cleaned, cleanReport := preprocess.Clean(raw)
	res.Cleaning = cleanReport
	if cleaned.Len() == 0 {
		return nil, fmt.Errorf("%w after cleaning", ErrEmptyDataset)
	}

	engineered, err := preprocess.EngineerFeatures(cleaned)
	if err != nil {
		return nil, fmt.Errorf("engineer features: %w", err)
	}
	res.Summary = metrics.Summarize(engineered)

	segmentBy := opts.SegmentBy
	if segmentBy == "" {
		segmentBy = DefaultSegmentColumn
	}
	if engineered.Has(segmentBy) {
		if res.Segments, err = metrics.Segment(engineered, segmentBy); err != nil {
			return nil, fmt.Errorf("segment by %s: %w", segmentBy, err)
		}
	} else if opts.SegmentBy != "" {
		return nil, fmt.Errorf("segment by %s: %w", segmentBy, metrics.ErrColumnNotFound)
	}

	res.NarrativeMode = p.engine.Mode()
	res.Analysis = p.engine.DetailedAnalysis(ctx, engineered, res.Summary)
	res.QuickInsights = p.engine.QuickInsights(ctx, engineered, res.Summary)

	if p.store != nil && p.report.Charts {
		if res.Charts, res.ChartFiles, err = p.saveCharts(ctx, res.RunID, engineered); err != nil {
			return nil, err
		}
	}

	bundle := report.NewBundle(report.Meta{
		RunID:         res.RunID,
		Dataset:       res.Dataset,
		Company:       p.report.CompanyName,
		Author:        p.report.Author,
		NarrativeMode: string(res.NarrativeMode),
		Records:       engineered.Len(),
		GeneratedAt:   res.CreatedAt,
	}, res.Summary, res.Segments, res.Analysis, res.QuickInsights)
	bundle.Charts = res.Charts

	for _, f := range formats {
		data, ext, contentType, err := report.Render(bundle, f)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", f, err)
		}
		out := Output{Name: "campaign_report" + ext, Format: f, ContentType: contentType, Data: data}
		if p.store != nil {
			if out.Location, err = p.store.Save(ctx, path.Join(res.RunID, out.Name), data, contentType); err != nil {
				return nil, fmt.Errorf("store %s: %w", out.Name, err)
			}
		}
		res.Outputs = append(res.Outputs, out)
	}

	if p.index != nil {
		if err := p.index.SaveSummary(ctx, res.RunID, res.Dataset, res.Summary); err != nil {
			return nil, fmt.Errorf("index summary: %w", err)
		}
	}
	if p.runs != nil {
		err := p.runs.Create(ctx, &postgres.Run{
			ID:            res.RunID,
			Dataset:       res.Dataset,
			RowCount:      engineered.Len(),
			NarrativeMode: string(res.NarrativeMode),
			Summary:       res.Summary,
			Artifacts:     res.Artifacts(),
			CreatedAt:     res.CreatedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
	}

	logger.Info("pipeline run complete",
		"run_id", res.RunID,
		"dataset", res.Dataset,
		"rows", engineered.Len(),
		"narrative", res.NarrativeMode,
		"outputs", len(res.Outputs),
		"duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

// saveCharts stores each chart under <run>/charts/. Locations in the returned
// refs are relative to the run directory so the Markdown links resolve; the
// stored locations are returned alongside.
func (p *Pipeline) saveCharts(ctx context.Context, runID string, t *table.Table) ([]report.ChartRef, []string, error) {
	var (
		refs  []report.ChartRef
		files []string
	)
	for _, c := range report.Charts(t) {
		rel := path.Join("charts", c.Name)
		loc, err := p.store.Save(ctx, path.Join(runID, rel), c.PNG, "image/png")
		if err != nil {
			return nil, nil, fmt.Errorf("store chart %s: %w", c.Name, err)
		}
		refs = append(refs, report.ChartRef{Name: c.Name, Title: c.Title, Location: rel})
		files = append(files, loc)
	}
	return refs, files, nil
}

func (p *Pipeline) formats(requested []report.Format) ([]report.Format, error) {
	if len(requested) > 0 {
		return requested, nil
	}
	return report.ParseFormats(p.report.Formats...)
}
