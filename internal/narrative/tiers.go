package narrative

import "strings"

// Tier is a threshold bucket for a metric, used for consistent wording.
type Tier struct {
	Label string
	Rank  int // 0 is best
}

// Grade is the upper-case form used as the report grade.
func (t Tier) Grade() string { return strings.ToUpper(t.Label) }

// CTRTier buckets click-through rate (percent): >5, >3, >2, else.
func CTRTier(ctr float64) Tier {
	switch {
	case ctr > 5:
		return Tier{"excellent", 0}
	case ctr > 3:
		return Tier{"strong", 1}
	case ctr > 2:
		return Tier{"moderate", 2}
	default:
		return Tier{"needs improvement", 3}
	}
}

// CPCTier buckets cost per click (dollars): <0.50, <1.00, else.
func CPCTier(cpc float64) Tier {
	switch {
	case cpc < 0.50:
		return Tier{"highly competitive", 0}
	case cpc < 1.00:
		return Tier{"acceptable", 1}
	default:
		return Tier{"needs optimization", 2}
	}
}

// ConversionTier buckets conversion rate (percent): >5, >3, >1, else.
func ConversionTier(rate float64) Tier {
	switch {
	case rate > 5:
		return Tier{"exceptional", 0}
	case rate > 3:
		return Tier{"strong", 1}
	case rate > 1:
		return Tier{"moderate", 2}
	default:
		return Tier{"weak", 3}
	}
}

var ctrVerdicts = [...]string{
	"exceptionally strong performance, significantly exceeding industry benchmarks",
	"solid performance, surpassing standard industry CTR benchmarks of 2-3%",
	"moderate performance, aligning with industry standards",
	"below-benchmark performance requiring immediate strategic intervention",
}

var cpcVerdicts = [...]string{
	"highly competitive",
	"within acceptable ranges",
	"in need of optimization",
}

// ctrVerdict is the executive-summary sentence fragment for a CTR tier.
func ctrVerdict(ctr float64) string { return ctrVerdicts[CTRTier(ctr).Rank] }

func cpcVerdict(cpc float64) string { return cpcVerdicts[CPCTier(cpc).Rank] }
