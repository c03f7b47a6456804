package narrative

import (
	"fmt"
	"strings"

	"github.com/ignite/insight-engine/internal/metrics"
	"github.com/ignite/insight-engine/internal/table"
)

var quickRecommendations = [...]string{
	"Optimize targeting for underperforming segments",
	"Test new creative variations",
	"Reallocate budget to top performers",
}

// RuleBasedQuickInsights is the short bullet summary built without any
// external call.
func RuleBasedQuickInsights(t *table.Table, s metrics.Summary) string {
	n := newNumbers()
	var lines []string
	if ctr, ok := s.Get("avg_CTR"); ok {
		verdict := "below"
		switch {
		case ctr > 3:
			verdict = "exceeds"
		case ctr > 2:
			verdict = "meets"
		}
		lines = append(lines, fmt.Sprintf("• CTR at %s %s benchmarks", n.pct(ctr), verdict))
	}

	conv, hasConv := s.Get("total_conversions")
	cpc, hasCPC := s.Get("avg_CPC")
	switch {
	case hasConv && hasCPC:
		lines = append(lines, fmt.Sprintf("• %s conversions at %s CPC", n.count(conv), n.money4(cpc)))
	case hasConv:
		lines = append(lines, fmt.Sprintf("• %s conversions", n.count(conv)))
	case hasCPC:
		lines = append(lines, fmt.Sprintf("• %s average CPC", n.money4(cpc)))
	}
	if top, ok := metrics.MaxBy(metrics.GroupStats(t, "ad_category", "CTR"), metrics.ByMean); ok {
		lines = append(lines, fmt.Sprintf("• %s category leads performance", top.Label))
	}
	lines = append(lines, "\nRecommendations:")
	for _, r := range quickRecommendations {
		lines = append(lines, "• "+r)
	}
	return strings.Join(lines, "\n")
}
