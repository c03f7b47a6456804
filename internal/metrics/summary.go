// Package metrics reduces an engineered campaign table to a flat summary
// mapping, per-segment aggregates, time series and top-performer rankings.
package metrics

import (
	"errors"
	"fmt"

	"github.com/ignite/insight-engine/internal/table"
)

// ErrColumnNotFound is returned when an operation is asked to group or rank by
// a column the table does not have.
var ErrColumnNotFound = errors.New("column not found")

// Raw metric columns summed into total_<col>.
var TotalColumns = []string{"impressions", "clicks", "spent", "conversions"}

// Derived ratio columns averaged into avg_<col>.
var RatioColumns = []string{"CTR", "CPC", "CPM", "conversion_rate", "cost_per_conversion"}

// summaryOrder is the canonical key order used when a summary is listed.
var summaryOrder = []string{
	"total_records", "total_campaigns", "total_ads",
	"total_impressions", "total_clicks", "total_spent", "total_conversions", "total_revenue",
	"avg_CTR", "avg_CPC", "avg_CPM", "avg_conversion_rate", "avg_cost_per_conversion",
	"ROAS",
}

// ConversionsColumn returns the column holding conversion counts:
// "conversions", else the singular "conversion", else "".
func ConversionsColumn(t *table.Table) string {
	switch {
	case t.Has("conversions"):
		return "conversions"
	case t.Has("conversion"):
		return "conversion"
	default:
		return ""
	}
}

// Summary maps metric keys to scalars. A key is present only when its source
// column exists in the table it was computed from.
type Summary map[string]float64

// Get returns the value and whether the key is present.
func (s Summary) Get(key string) (float64, bool) {
	v, ok := s[key]
	return v, ok
}

// Value returns the value or 0 when absent.
func (s Summary) Value(key string) float64 { return s[key] }

// Entry is one key/value pair of a Summary.
type Entry struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Ordered lists the present keys in canonical order.
func (s Summary) Ordered() []Entry {
	out := make([]Entry, 0, len(s))
	for _, k := range summaryOrder {
		if v, ok := s[k]; ok {
			out = append(out, Entry{Key: k, Value: v})
		}
	}
	return out
}

// Summarize computes totals, positive-only ratio averages and ROAS. The table
// is not modified.
func Summarize(t *table.Table) Summary {
	s := Summary{"total_records": float64(t.Len())}

	if t.Has("campaign_id") {
		s["total_campaigns"] = float64(t.Distinct("campaign_id"))
	}
	if t.Has("ad_id") {
		s["total_ads"] = float64(t.Distinct("ad_id"))
	}

	for _, col := range TotalColumns {
		src := col
		if col == "conversions" {
			src = ConversionsColumn(t)
		}
		if src == "" || !t.IsNumeric(src) {
			continue
		}
		s["total_"+col] = Sum(t.Floats(src))
	}
	if t.IsNumeric("revenue") {
		s["total_revenue"] = Sum(t.Floats("revenue"))
	}

	for _, col := range RatioColumns {
		if !t.IsNumeric(col) {
			continue
		}
		s["avg_"+col] = PositiveMean(t.Floats(col))
	}

	if t.IsNumeric("revenue") && t.IsNumeric("spent") {
		s["ROAS"] = SafeDiv(Sum(t.Floats("revenue")), Sum(t.Floats("spent")))
	}
	return s
}

func requireColumn(t *table.Table, col string) error {
	if !t.Has(col) {
		return fmt.Errorf("%q: %w", col, ErrColumnNotFound)
	}
	return nil
}
