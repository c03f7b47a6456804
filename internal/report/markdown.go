package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ignite/insight-engine/internal/metrics"
	"github.com/ignite/insight-engine/internal/narrative"
)

// segmentLimit caps the rows in the Markdown segment table.
const segmentLimit = 10

// Markdown renders the human-readable report.
func Markdown(b Bundle) []byte {
	p := message.NewPrinter(language.English)
	var sb strings.Builder

	sb.WriteString("# Campaign Performance Report\n\n")
	fmt.Fprintf(&sb, "Generated: %s\n\n", b.Meta.GeneratedAt.Format("January 02, 2006"))
	if b.Meta.Company != "" {
		fmt.Fprintf(&sb, "Company: %s\n\n", b.Meta.Company)
	}
	if b.Meta.Author != "" {
		fmt.Fprintf(&sb, "Report By: %s\n\n", b.Meta.Author)
	}
	if b.Meta.Dataset != "" {
		fmt.Fprintf(&sb, "Dataset: %s | Records: %s | Narrative: %s\n\n", b.Meta.Dataset, p.Sprintf("%d", b.Meta.Records), b.Meta.NarrativeMode)
	}

	sb.WriteString("## Executive Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	for _, e := range b.Summary.Ordered() {
		fmt.Fprintf(&sb, "| %s | %s |\n", narrative.Label(e.Key), formatMetric(p, e.Key, e.Value))
	}
	sb.WriteString("\n")

	if b.Segments != nil && len(b.Segments.Rows) > 0 {
		writeSegments(&sb, p, b.Segments)
	}

	sb.WriteString("## AI-Powered Insights & Recommendations\n\n")
	writeDocument(&sb, b.Document, b.Analysis)

	if strings.TrimSpace(b.QuickInsights) != "" {
		sb.WriteString("## Quick Insights\n\n")
		sb.WriteString(strings.TrimSpace(b.QuickInsights))
		sb.WriteString("\n\n")
	}

	if len(b.Charts) > 0 {
		sb.WriteString("## Performance Visualizations\n\n")
		for _, c := range b.Charts {
			loc := c.Location
			if loc == "" {
				loc = c.Name
			}
			fmt.Fprintf(&sb, "![%s](%s)\n\n*%s*\n\n", c.Title, loc, c.Title)
		}
	}
	return []byte(sb.String())
}

func writeSegments(sb *strings.Builder, p *message.Printer, seg *metrics.SegmentTable) {
	fmt.Fprintf(sb, "## Performance by %s\n\n", narrative.Label(seg.Column))

	cols := []string{"total_impressions", "total_clicks", "total_spent", "total_conversions", "avg_CTR", "avg_CPC"}
	var present []string
	for _, c := range cols {
		for _, m := range seg.Metrics {
			if m == c {
				present = append(present, c)
			}
		}
	}

	sb.WriteString("| " + narrative.Label(seg.Column) + " | Records")
	for _, c := range present {
		sb.WriteString(" | " + narrative.Label(c))
	}
	sb.WriteString(" |\n|---|---")
	for range present {
		sb.WriteString("|---")
	}
	sb.WriteString("|\n")

	rows := seg.Rows
	if len(rows) > segmentLimit {
		rows = rows[:segmentLimit]
	}
	for _, r := range rows {
		fmt.Fprintf(sb, "| %s | %d", r.Key, r.Count)
		for _, c := range present {
			sb.WriteString(" | " + formatMetric(p, c, r.Value(c)))
		}
		sb.WriteString(" |\n")
	}
	if len(seg.Rows) > segmentLimit {
		fmt.Fprintf(sb, "\n_Showing %d of %d segments._\n", segmentLimit, len(seg.Rows))
	}
	sb.WriteString("\n")
}

// writeDocument renders parsed sections as Markdown headings, or the raw text
// when no section structure was recognised.
func writeDocument(sb *strings.Builder, doc narrative.Document, raw string) {
	if len(doc.Sections) == 0 {
		sb.WriteString(strings.TrimSpace(raw))
		sb.WriteString("\n\n")
		return
	}
	for _, p := range doc.Preamble {
		sb.WriteString(p + "\n\n")
	}
	for _, s := range doc.Sections {
		sb.WriteString("### " + s.Heading() + "\n\n")
		for _, p := range s.Paragraphs {
			sb.WriteString(p + "\n\n")
		}
	}
	if doc.Footer != "" {
		sb.WriteString("*" + doc.Footer + "*\n\n")
	}
}

// formatMetric renders counts as grouped integers, money with a dollar sign
// and ratios with two decimals.
func formatMetric(p *message.Printer, key string, v float64) string {
	switch {
	case key == "total_records" || key == "total_campaigns" || key == "total_ads" ||
		key == "total_impressions" || key == "total_clicks" || key == "total_conversions":
		return p.Sprintf("%.0f", v)
	case key == "total_spent" || key == "total_revenue" || strings.HasSuffix(key, "CPC") ||
		strings.HasSuffix(key, "CPM") || strings.HasSuffix(key, "cost_per_conversion"):
		return "$" + p.Sprintf("%.2f", v)
	case strings.HasSuffix(key, "CTR") || strings.HasSuffix(key, "conversion_rate"):
		return p.Sprintf("%.2f", v) + "%"
	default:
		return p.Sprintf("%.2f", v)
	}
}
