package narrative

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/osteele/liquid"

	"github.com/ignite/insight-engine/internal/metrics"
	"github.com/ignite/insight-engine/internal/table"
)

const detailedTemplate = `You are a senior marketing analytics strategist preparing a comprehensive executive report. Analyze this campaign data with precision and strategic depth:

DATASET OVERVIEW:
- Total Records: {{ records | number }}
- Data Columns: {{ columns | join: ", " }}

KEY PERFORMANCE METRICS:
{% if m.total_impressions %}- Total Impressions: {{ m.total_impressions | number }}
{% endif %}{% if m.total_clicks %}- Total Clicks: {{ m.total_clicks | number }}
{% endif %}{% if m.total_conversions %}- Total Conversions: {{ m.total_conversions | number }}
{% endif %}{% if m.avg_CTR %}- Average CTR: {{ m.avg_CTR | pct }}
{% endif %}{% if m.avg_CPC %}- Average CPC: {{ m.avg_CPC | currency4 }}
{% endif %}{% if m.avg_CPM %}- Average CPM: {{ m.avg_CPM | currency }}
{% endif %}{% if m.avg_conversion_rate %}- Conversion Rate: {{ m.avg_conversion_rate | pct }}
{% endif %}{% if m.total_spent %}- Total Campaign Spend: {{ m.total_spent | currency }}
{% endif %}{% if m.ROAS %}- ROAS: {{ m.ROAS | decimal }}
{% endif %}{% for b in breakdowns %}
{{ b.title }}:
{{ b.body }}
{% endfor %}
Provide a comprehensive, executive-ready analysis with the following sections:
{% for s in sections %}
**{{ s.heading }}**
{{ s.brief }}
{% endfor %}
Use professional business language. Include specific numbers, percentages, and dollar amounts throughout. Make it actionable and strategic.`

const quickTemplate = `Marketing campaign quick analysis:

Metrics:{% if m.total_impressions %} {{ m.total_impressions | number }} impressions{% endif %}{% if m.total_clicks %} {{ m.total_clicks | number }} clicks{% endif %}{% if m.avg_CTR %} {{ m.avg_CTR | pct }} CTR{% endif %}{% if m.total_conversions %} {{ m.total_conversions | number }} conversions{% endif %}

Top Categories: {% if categories.size > 0 %}{{ categories | join: ", " }}{% else %}N/A{% endif %}

Provide 3-5 key insights and 3 recommendations in concise bullets.`

var sectionBriefs = [...]string{
	"A high-level strategic overview of overall performance, major achievements and critical findings (3-4 paragraphs). Include specific percentages and dollar amounts.",
	"A deep dive into impressions, clicks, conversions, CTR, CPC, CPM and ROAS, with trends, outliers and spend efficiency, compared against the 2-3% CTR industry benchmark (5-6 paragraphs).",
	"Performance across age groups, gender and regions, quantifying differences between segments (3-4 paragraphs).",
	"Performance across platforms, channels and device types and each channel's contribution (3-4 paragraphs).",
	"Day-of-week performance, weekday vs weekend variation and peak engagement periods, and what they mean for scheduling and bidding (2-3 paragraphs).",
	"The top-performing ads, audiences and creative categories and what made them stand out (2-3 paragraphs).",
	"Underperforming campaigns, audiences, platforms or periods, red flags and root causes (2-3 paragraphs).",
	"5-6 actionable recommendations, each with WHAT to change, WHY it matters and the EXPECTED impact, quantified where possible.",
	"4-5 advanced opportunities such as new audience clusters, predictive modeling, cross-platform expansion and creative refinement.",
	"Operational, financial and performance risks with specific mitigation strategies (2-3 paragraphs).",
}

// prompts renders the AI prompts from liquid templates.
type prompts struct {
	detailed *liquid.Template
	quick    *liquid.Template
	err      error
}

func newPrompts() *prompts {
	n := newNumbers()
	engine := liquid.NewEngine()
	engine.RegisterFilter("number", func(v float64) string { return n.count(v) })
	engine.RegisterFilter("currency", func(v float64) string { return n.money(v) })
	engine.RegisterFilter("currency4", func(v float64) string { return n.money4(v) })
	engine.RegisterFilter("pct", func(v float64) string { return n.pct(v) })
	engine.RegisterFilter("decimal", func(v float64) string { return n.p.Sprintf("%.2f", v) })

	p := &prompts{}
	if tpl, err := engine.ParseString(detailedTemplate); err != nil {
		p.err = fmt.Errorf("parsing detailed prompt: %w", err)
	} else {
		p.detailed = tpl
	}
	if tpl, err := engine.ParseString(quickTemplate); err != nil {
		p.err = fmt.Errorf("parsing quick prompt: %w", err)
	} else {
		p.quick = tpl
	}
	return p
}

// Detailed renders the ten-section analysis prompt.
func (p *prompts) Detailed(t *table.Table, s metrics.Summary) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	m := map[string]any{}
	for _, e := range s.Ordered() {
		m[e.Key] = e.Value
	}
	sections := make([]map[string]any, len(detailedSections))
	for i, title := range SectionTitles() {
		sections[i] = map[string]any{"heading": title, "brief": sectionBriefs[i]}
	}
	out, err := p.detailed.RenderString(liquid.Bindings{
		"records":    t.Len(),
		"columns":    t.Columns(),
		"m":          m,
		"breakdowns": breakdowns(t),
		"sections":   sections,
	})
	if err != nil {
		return "", fmt.Errorf("rendering detailed prompt: %w", err)
	}
	return out, nil
}

// Quick renders the short bullet-summary prompt.
func (p *prompts) Quick(t *table.Table, s metrics.Summary) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	n := newNumbers()
	var cats []string
	for _, g := range topByCTR(metrics.GroupStats(t, "ad_category", "CTR"), 3) {
		cats = append(cats, fmt.Sprintf("%s (%s CTR)", g.Label, n.pct(g.Mean)))
	}
	m := map[string]any{}
	for _, e := range s.Ordered() {
		m[e.Key] = e.Value
	}
	out, err := p.quick.RenderString(liquid.Bindings{
		"m":          m,
		"categories": cats,
	})
	if err != nil {
		return "", fmt.Errorf("rendering quick prompt: %w", err)
	}
	return out, nil
}

// breakdowns builds the tabular context blocks, skipping any whose columns
// are absent.
func breakdowns(t *table.Table) []map[string]any {
	var out []map[string]any
	add := func(title, body string, ok bool) {
		if ok {
			out = append(out, map[string]any{"title": title, "body": body})
		}
	}
	body, ok := demographicCounts(t, 10)
	add("DEMOGRAPHIC BREAKDOWN", body, ok)
	body, ok = groupMeans(t, "ad_platform", []string{"impressions", "clicks", "CTR"}, 0)
	add("PLATFORM PERFORMANCE", body, ok)
	body, ok = groupMeans(t, "ad_category", []string{"impressions", "clicks", "CTR"}, 8)
	add("CATEGORY PERFORMANCE", body, ok)
	body, ok = topAdsTable(t, 5)
	add("TOP PERFORMING ADS", body, ok)
	body, ok = groupMeans(t, "device_type", []string{"impressions", "clicks", "engagement_score"}, 0)
	add("DEVICE ANALYSIS", body, ok)
	body, ok = groupMeans(t, "day_of_week", []string{"impressions", "clicks", "CTR"}, 0)
	add("DAY OF WEEK TRENDS", body, ok)
	return out
}

// demographicCounts counts rows per (gender, age) pair in sorted key order.
func demographicCounts(t *table.Table, limit int) (string, bool) {
	if !t.Has("gender") || !t.Has("age") {
		return "", false
	}
	genders, ages := t.Strings("gender"), t.Strings("age")
	counts := map[[2]string]int{}
	for r := range genders {
		counts[[2]string{genders[r], ages[r]}]++
	}
	keys := make([][2]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}
	rows := make([][]string, len(keys))
	for i, k := range keys {
		rows[i] = []string{k[0], k[1], fmt.Sprintf("%d", counts[k])}
	}
	return textTable([]string{"gender", "age", "count"}, rows), true
}

// groupMeans averages the numeric metrics per value of by, in sorted key
// order, keeping the first limit groups (0 keeps all).
func groupMeans(t *table.Table, by string, cols []string, limit int) (string, bool) {
	if !t.Has(by) {
		return "", false
	}
	var present []string
	for _, c := range cols {
		if t.IsNumeric(c) {
			present = append(present, c)
		}
	}
	if len(present) == 0 {
		return "", false
	}
	groups := t.GroupBy(by)
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Label() < groups[j].Label() })
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	rows := make([][]string, len(groups))
	for i, g := range groups {
		label := g.Label()
		if by == "day_of_week" {
			label = dayName(label)
		}
		row := []string{label}
		for _, c := range present {
			row = append(row, fmt.Sprintf("%.2f", metrics.Mean(pick(t.Floats(c), g.Rows))))
		}
		rows[i] = row
	}
	return textTable(append([]string{by}, present...), rows), true
}

func topAdsTable(t *table.Table, n int) (string, bool) {
	if !t.IsNumeric("CTR") || !t.Has("ad_id") {
		return "", false
	}
	f := &facts{t: t, ctrs: t.Floats("CTR")}
	cols := []string{"ad_id"}
	for _, c := range []string{"impressions", "clicks", "CTR"} {
		if t.IsNumeric(c) {
			cols = append(cols, c)
		}
	}
	var rows [][]string
	for _, r := range f.topRows(n) {
		row := []string{t.Cell(r, "ad_id").Text()}
		for _, c := range cols[1:] {
			v, _ := t.Cell(r, c).Float()
			row = append(row, fmt.Sprintf("%.2f", v))
		}
		rows = append(rows, row)
	}
	return textTable(cols, rows), true
}

func textTable(header []string, rows [][]string) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(w, strings.Join(r, "\t"))
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}
