package narrative

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ignite/insight-engine/internal/metrics"
)

// numbers renders figures with English digit grouping.
type numbers struct {
	p *message.Printer
}

func newNumbers() numbers { return numbers{p: message.NewPrinter(language.English)} }

// count renders a whole number: 12345.6 → "12,346".
func (n numbers) count(x float64) string { return n.p.Sprintf("%d", int64(math.Round(x))) }

// money renders dollars with two decimals.
func (n numbers) money(x float64) string { return "$" + n.p.Sprintf("%.2f", x) }

// money4 renders per-click dollars with four decimals.
func (n numbers) money4(x float64) string { return "$" + n.p.Sprintf("%.4f", x) }

// pct renders a percentage with two decimals.
func (n numbers) pct(x float64) string { return n.p.Sprintf("%.2f", x) + "%" }

// pct1 renders a percentage with one decimal.
func (n numbers) pct1(x float64) string { return n.p.Sprintf("%.1f", x) + "%" }

// pct0 renders a whole percentage.
func (n numbers) pct0(x float64) string { return n.p.Sprintf("%.0f", x) + "%" }

// gap renders (hi/lo - 1) * 100 with one decimal, or N/A when lo is ~0.
func (n numbers) gap(hi, lo float64) string {
	g, ok := metrics.Gap(hi, lo)
	if !ok {
		return "N/A"
	}
	return n.pct1(g)
}

// gap0 is gap with no decimals.
func (n numbers) gap0(hi, lo float64) string {
	g, ok := metrics.Gap(hi, lo)
	if !ok {
		return "N/A"
	}
	return n.pct0(g)
}

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// dayName maps a day_of_week label ("0".."6") to a weekday name.
func dayName(label string) string {
	for i := range dayNames {
		if label == string(rune('0'+i)) {
			return dayNames[i]
		}
	}
	return label
}

// Label turns a column name such as "ad_platform" into "Ad Platform".
func Label(col string) string {
	return cases.Title(language.English, cases.NoLower).String(strings.ReplaceAll(col, "_", " "))
}

func pick(xs []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = xs[r]
	}
	return out
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
