package narrative

import (
	"fmt"
	"strings"

	"github.com/ignite/insight-engine/internal/metrics"
)

// recommendation renders a WHAT/WHY/IMPACT bullet.
func recommendation(title, what, why, impact string) string {
	return fmt.Sprintf("• %s\n  WHAT: %s\n  WHY: %s\n  IMPACT: %s", title, what, why, impact)
}

// 8. Strategic recommendations

func recDemographic(f *facts) (string, bool) {
	top, ok := metrics.MaxBy(f.groupCTR("gender"), metrics.ByMean)
	if !ok || !f.key("avg_CTR") {
		return "", false
	}
	what := fmt.Sprintf("Reallocate 25%% of budget toward %s audiences, currently averaging %s CTR.", top.Label, f.n.pct(top.Mean))
	why := fmt.Sprintf("This segment runs %s ahead of the %s campaign average.", f.n.gap(top.Mean, f.ctr), f.n.pct(f.ctr))
	impact := "Higher click yield on the reallocated budget."
	if f.key("total_clicks") {
		extra := max((top.Mean/max(f.ctr, 0.01)-1)*f.clicks*0.25, 0)
		impact = fmt.Sprintf("Approximately %s additional clicks at current spend levels.", f.n.count(extra))
	}
	return recommendation("DEMOGRAPHIC BUDGET REALLOCATION", what, why, impact), true
}

func recPlatform(f *facts) (string, bool) {
	stats := f.groupCTR("ad_platform")
	if len(stats) < 2 {
		return "", false
	}
	top, _ := metrics.MaxBy(stats, metrics.ByMean)
	low, _ := metrics.MinBy(stats, metrics.ByMean)
	what := fmt.Sprintf("Increase %s budget by 40%% and reduce %s spend by 50%%.", top.Label, low.Label)
	why := fmt.Sprintf("%s delivers %s CTR against %s on %s, a %s performance gap.",
		top.Label, f.n.pct(top.Mean), f.n.pct(low.Mean), low.Label, f.n.gap0(top.Mean, low.Mean))

	var impact []string
	if f.numeric("impressions") && f.key("avg_CPM") {
		savings := f.sumWhere("ad_platform", low.Label, "impressions") * f.cpm / 1000 * 0.5
		impact = append(impact, fmt.Sprintf("Redirecting %s from %s", f.n.money(savings), low.Label))
	}
	if f.numeric("clicks") {
		ratio := metrics.SafeDiv(top.Mean, low.Mean)
		extra := ratio * f.sumWhere("ad_platform", low.Label, "clicks") * 0.5
		impact = append(impact, fmt.Sprintf("could yield about %s additional clicks", f.n.count(extra)))
	}
	text := "Shifts spend toward the stronger channel."
	if len(impact) > 0 {
		text = strings.Join(impact, " ") + "."
	}
	return recommendation("PLATFORM PORTFOLIO OPTIMIZATION", what, why, text), true
}

func recDayparting(f *facts) (string, bool) {
	stats := f.groupCTR("day_of_week")
	top, ok := metrics.MaxBy(stats, metrics.ByMean)
	if !ok || !f.key("avg_CTR") || f.ctr <= 0 {
		return "", false
	}
	low, _ := metrics.MinBy(stats, metrics.ByMean)
	what := fmt.Sprintf("Concentrate 45%% of the weekly budget on %s and adjacent high-performing days.", dayName(top.Label))
	why := fmt.Sprintf("%s shows %s CTR against %s on %s.", dayName(top.Label), f.n.pct(top.Mean), f.n.pct(low.Mean), dayName(low.Label))
	lift := max((top.Mean/f.ctr-1)*35, 0)
	impact := fmt.Sprintf("Estimated %s CTR improvement", f.n.pct1(lift))
	if f.key("total_clicks") {
		incremental := max((top.Mean/max(f.ctr, 0.01)-1)*f.clicks*0.35, 0)
		impact += fmt.Sprintf(" and about %s incremental clicks", f.n.count(incremental))
	}
	return recommendation("DAYPARTING STRATEGY", what, why, impact+"."), true
}

func recCreative(f *facts) (string, bool) {
	if f.ctrs == nil || !f.has["ad_id"] || !f.key("avg_CTR") {
		return "", false
	}
	rows := f.topRows(1)
	if len(rows) == 0 {
		return "", false
	}
	best := f.ctrs[rows[0]]
	ad := f.t.Strings("ad_id")[rows[0]]
	what := fmt.Sprintf("Develop variants that replicate the winning elements of ad %s and shift 60%% of creative budget to them.", ad)
	why := fmt.Sprintf("Ad %s reaches %s CTR, %s above the campaign average.", ad, f.n.pct(best), f.n.p.Sprintf("%.2f points", best-f.ctr))
	impact := "Broader reach for proven creative."
	if f.key("total_clicks") {
		impact = fmt.Sprintf("Projected %s to %s additional clicks from scaled winning creative.",
			f.n.count(f.clicks*0.20), f.n.count(f.clicks*0.35))
	}
	return recommendation("CREATIVE REPLICATION", what, why, impact), true
}

func recControls(f *facts) (string, bool) {
	if f.ctrs == nil || !f.key("avg_CTR", "total_clicks") {
		return "", false
	}
	floor := f.ctr * 0.5
	var below int
	var belowClicks float64
	clicks := f.t.Floats("clicks")
	for r, v := range f.ctrs {
		if v < floor {
			below++
			if clicks != nil {
				belowClicks += clicks[r]
			}
		}
	}
	what := fmt.Sprintf("Automatically pause ads with CTR below %s", f.n.pct(floor))
	if f.key("avg_CPC") {
		what += fmt.Sprintf(" and cap CPC at %s", f.n.money(f.cpc*1.5))
	}
	what += "."
	why := fmt.Sprintf("%s records (%s of total) currently run below half the average CTR.",
		f.n.count(float64(below)), f.n.pct1(metrics.SafeDiv(float64(below), f.rec)*100))
	efficiency := min((1-metrics.SafeDiv(belowClicks, f.clicks))*100, 35)
	impact := fmt.Sprintf("Up to %s efficiency improvement", f.n.pct1(efficiency))
	if f.key("avg_CPM") {
		impact += fmt.Sprintf(", recovering roughly %s of low-quartile spend", f.n.money(f.lowSpend()))
	}
	if f.key("total_spent", "total_conversions") {
		impact += fmt.Sprintf(", with a CPA ceiling of %s", f.n.money(f.spent/max(f.conversions, 1)*1.5))
	}
	return recommendation("AUTOMATED PERFORMANCE CONTROLS", what, why, impact+"."), true
}

func recLandingPage(f *facts) (string, bool) {
	if !f.key("avg_conversion_rate", "total_conversions") || f.convRate >= 3 {
		return "", false
	}
	rate := f.convRate / 100
	extra := (0.035/max(rate, 0.001) - 1) * f.conversions
	reduction := (1 - rate/0.035) * 100
	what := "Run landing page tests covering headline, form length, and load speed, targeting a 3.5% conversion rate."
	why := fmt.Sprintf("The current %s conversion rate trails the 3-5%% benchmark.", f.n.pct(f.convRate))
	impact := fmt.Sprintf("Reaching 3.5%% would add about %s conversions and cut CPA by %s.",
		f.n.count(extra), f.n.pct0(reduction))
	return recommendation("CONVERSION RATE OPTIMIZATION", what, why, impact), true
}

// 9. Future opportunities

func oppPredictive(f *facts) (string, bool) {
	return fmt.Sprintf("Predictive Budget Allocation: The current %s records provide a training base for models that forecast CTR by segment and shift budget before performance decays.",
		f.n.count(f.rec)), true
}

func oppLookalike(f *facts) (string, bool) {
	if f.ctrs == nil {
		return "", false
	}
	q90 := metrics.Quantile(f.ctrs, 0.9)
	var seeds []string
	if g, ok := metrics.MaxBy(f.groupCTR("gender"), metrics.ByMean); ok {
		seeds = append(seeds, g.Label+" audiences")
	}
	if p, ok := metrics.MaxBy(f.groupCTR("ad_platform"), metrics.ByMean); ok {
		seeds = append(seeds, p.Label+" users")
	}
	seed := "the top decile of records"
	if len(seeds) > 0 {
		seed = joinList(seeds)
	}
	threshold := (q90 + f.ctr) / 2
	return fmt.Sprintf("Lookalike Audience Expansion: Records in the top decile exceed %s CTR. Seeding lookalike audiences from %s, "+
		"with a minimum qualifying CTR of %s, extends reach while holding engagement above the %s average.",
		f.n.pct(q90), seed, f.n.pct(threshold), f.n.pct(f.ctr)), true
}

func oppSequential(f *facts) (string, bool) {
	platforms := "multiple"
	if f.has["ad_platform"] {
		platforms = fmt.Sprintf("%d", f.t.Distinct("ad_platform"))
	}
	text := fmt.Sprintf("Cross-Platform Sequencing: With %s platforms in market, sequential messaging can introduce the offer on high-reach channels and convert on the strongest performer.", platforms)
	stats := f.groupCTR("ad_platform")
	if len(stats) >= 2 {
		top, _ := metrics.MaxBy(stats, metrics.ByMean)
		low, _ := metrics.MinBy(stats, metrics.ByMean)
		text += fmt.Sprintf(" The current spread runs from %s on %s to %s on %s.", f.n.pct(low.Mean), low.Label, f.n.pct(top.Mean), top.Label)
	}
	return text, true
}

func oppCreativeTesting(f *facts) (string, bool) {
	if f.ctrs == nil || !f.key("avg_CTR") {
		return "", false
	}
	best := metrics.Max(f.ctrs)
	return fmt.Sprintf("Dynamic Creative Optimization: The best record reaches %s CTR against a %s average. Automated creative rotation can test variants continuously and promote elements that close that gap.",
		f.n.pct(best), f.n.pct(f.ctr)), true
}

func oppRetargeting(f *facts) (string, bool) {
	if !f.key("total_clicks") {
		return "", false
	}
	pool := f.clicks * 0.7
	return fmt.Sprintf("Retargeting Engaged Non-Converters: Roughly %s clicking users did not convert. Retargeting this pool at a 5-10%% conversion rate would add %s to %s conversions.",
		f.n.count(pool), f.n.count(pool*0.05), f.n.count(pool*0.10)), true
}

// 10. Risk assessment

func riskSpend(f *facts) (string, bool) {
	if f.ctrs == nil || !f.numeric("impressions") {
		return "", false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Operational Risk: %s of records sit in the bottom CTR quartile and carry %s of impressions.",
		f.n.pct1(metrics.SafeDiv(float64(f.low.rows), f.rec)*100), f.n.pct1(metrics.SafeDiv(f.low.impressions, f.impressions)*100))
	if f.key("avg_CPM") {
		spend := f.lowSpend()
		fmt.Fprintf(&b, " At-risk spend is %s for the period, projecting to %s per quarter and %s annually if left unaddressed.",
			f.n.money(spend), f.n.money(spend*3), f.n.money(spend*12))
	}
	if f.numeric("CPC") {
		cpcs := f.t.Floats("CPC")
		lo, hi := metrics.Min(cpcs), metrics.Max(cpcs)
		ratio := hi / max(lo, 0.01)
		severity := "manageable"
		if ratio > 3 {
			severity = "severe"
		}
		fmt.Fprintf(&b, " CPC ranges from %s to %s, a %s spread that signals %s bid volatility.",
			f.n.money4(lo), f.n.money4(hi), f.n.p.Sprintf("%.1fx", ratio), severity)
	}
	return b.String(), true
}

func riskPlatform(f *facts) (string, bool) {
	if !f.numeric("impressions") || f.impressions <= 0 {
		return "", false
	}
	top, ok := metrics.MaxBy(metrics.GroupStats(f.t, "ad_platform", "impressions"), metrics.BySum)
	if !ok {
		return "", false
	}
	share := top.Sum / f.impressions * 100
	level := "low"
	switch {
	case share > 60:
		level = "critical"
	case share > 40:
		level = "moderate"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Platform Dependency Risk: %s carries %s of impressions, a %s concentration risk.", top.Label, f.n.pct1(share), level)
	if f.numeric("clicks") {
		lost := f.sumWhere("ad_platform", top.Label, "clicks") * 0.2
		fmt.Fprintf(&b, " A 20%% performance drop on %s would cost about %s clicks.", top.Label, f.n.count(lost))
	}
	b.WriteString(" Capping any single platform at 45% of budget limits exposure to algorithm or policy changes.")
	return b.String(), true
}

func riskDemographic(f *facts) (string, bool) {
	if !f.has["gender"] || !f.has["age"] || f.rec == 0 {
		return "", false
	}
	groups := f.t.GroupBy("gender")
	if len(groups) == 0 {
		return "", false
	}
	top := groups[0]
	for _, g := range groups[1:] {
		if len(g.Rows) > len(top.Rows) {
			top = g
		}
	}
	share := float64(len(top.Rows)) / f.rec * 100
	var b strings.Builder
	fmt.Fprintf(&b, "Audience Concentration Risk: %s audiences account for %s of records, limiting addressable reach to %s the current audience before saturation.",
		top.Label(), f.n.pct1(share), f.n.p.Sprintf("%.1fx", metrics.SafeDiv(100, share)))
	if f.key("avg_CTR") {
		fmt.Fprintf(&b, " Expansion tests into adjacent age groups should hold a minimum CTR of %s.", f.n.pct(f.ctr*0.75))
	}
	return b.String(), true
}
