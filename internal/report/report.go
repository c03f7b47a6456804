// Package report renders a finished analysis as Markdown, a JSON bundle, an
// XLSX workbook and PNG charts.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ignite/insight-engine/internal/metrics"
	"github.com/ignite/insight-engine/internal/narrative"
)

// Meta identifies a report.
type Meta struct {
	RunID         string    `json:"run_id"`
	Dataset       string    `json:"dataset"`
	Company       string    `json:"company"`
	Author        string    `json:"author"`
	NarrativeMode string    `json:"narrative_mode"`
	Records       int       `json:"records"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// ChartRef points at a stored chart image.
type ChartRef struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Location string `json:"location,omitempty"`
}

// Bundle is everything a renderer needs.
type Bundle struct {
	Meta          Meta                  `json:"meta"`
	Summary       metrics.Summary       `json:"summary"`
	Segments      *metrics.SegmentTable `json:"segments,omitempty"`
	Analysis      string                `json:"analysis"`
	Document      narrative.Document    `json:"document"`
	QuickInsights string                `json:"quick_insights"`
	Charts        []ChartRef            `json:"charts,omitempty"`
}

// NewBundle parses the analysis text into sections so structured renderers
// can style headings.
func NewBundle(meta Meta, s metrics.Summary, segments *metrics.SegmentTable, analysis, quick string) Bundle {
	return Bundle{
		Meta:          meta,
		Summary:       s,
		Segments:      segments,
		Analysis:      analysis,
		Document:      narrative.ParseDocument(analysis),
		QuickInsights: quick,
	}
}

// JSON renders the machine-readable bundle.
func JSON(b Bundle) ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}

// Format names an output renderer.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatXLSX     Format = "xlsx"
)

// ParseFormats expands the CLI choice: "both" is markdown plus json.
func ParseFormats(values ...string) ([]Format, error) {
	var out []Format
	seen := map[Format]bool{}
	add := func(f Format) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, v := range values {
		switch v {
		case "markdown", "md":
			add(FormatMarkdown)
		case "json":
			add(FormatJSON)
		case "xlsx":
			add(FormatXLSX)
		case "both":
			add(FormatMarkdown)
			add(FormatJSON)
		default:
			return nil, fmt.Errorf("unknown output format %q", v)
		}
	}
	if len(out) == 0 {
		out = []Format{FormatMarkdown}
	}
	return out, nil
}

// Render produces one output in the given format, with its file extension
// and content type.
func Render(b Bundle, f Format) (data []byte, ext, contentType string, err error) {
	switch f {
	case FormatMarkdown:
		return Markdown(b), ".md", "text/markdown; charset=utf-8", nil
	case FormatJSON:
		data, err = JSON(b)
		return data, ".json", "application/json", err
	case FormatXLSX:
		data, err = XLSX(b)
		return data, ".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", err
	default:
		return nil, "", "", fmt.Errorf("unknown output format %q", f)
	}
}
