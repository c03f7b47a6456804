package narrative

import (
	"fmt"
	"math"
	"strings"

	"github.com/ignite/insight-engine/internal/metrics"
	"github.com/ignite/insight-engine/internal/table"
)

// paragraph builds one block of text, or reports false when the columns or
// summary keys it depends on are absent.
type paragraph func(f *facts) (string, bool)

type sectionSpec struct {
	title      string
	paragraphs []paragraph
}

// detailedSections is the fixed order of the detailed analysis.
var detailedSections = []sectionSpec{
	{"EXECUTIVE SUMMARY", []paragraph{execOverview, execAssessment, execStrengths}},
	{"PERFORMANCE ANALYSIS", []paragraph{perfImpressions, perfClicks, perfConversions, perfCost, perfDistribution}},
	{"DEMOGRAPHIC INSIGHTS", []paragraph{demoGender, demoAge, demoLocation}},
	{"PLATFORM & CHANNEL ANALYSIS", []paragraph{channelPlatform, channelDevice, channelCategory}},
	{"TEMPORAL PATTERNS", []paragraph{timeDayOfWeek, timeWeekend}},
	{"TOP PERFORMERS", []paragraph{topAds, topCategories}},
	{"AREAS OF CONCERN", []paragraph{concernLowQuartile, concernPlatform, concernCPC}},
	{"STRATEGIC RECOMMENDATIONS", []paragraph{recDemographic, recPlatform, recDayparting, recCreative, recControls, recLandingPage}},
	{"FUTURE OPPORTUNITIES", []paragraph{oppPredictive, oppLookalike, oppSequential, oppCreativeTesting, oppRetargeting}},
	{"RISK ASSESSMENT", []paragraph{riskSpend, riskPlatform, riskDemographic}},
}

// SectionTitles lists the detailed analysis headings in order.
func SectionTitles() []string {
	out := make([]string, len(detailedSections))
	for i, s := range detailedSections {
		out[i] = fmt.Sprintf("%d. %s", i+1, s.title)
	}
	return out
}

// RuleBasedAnalysis builds the ten-section document from the engineered table
// and its summary without any external call. Every heading is always present;
// paragraphs whose inputs are missing are left out.
func RuleBasedAnalysis(t *table.Table, s metrics.Summary) Document {
	f := newFacts(t, s)
	doc := Document{}
	for i, def := range detailedSections {
		sec := Section{Number: i + 1, Title: def.title}
		for _, build := range def.paragraphs {
			if text, ok := build(f); ok {
				sec.Paragraphs = append(sec.Paragraphs, text)
			}
		}
		doc.Sections = append(doc.Sections, sec)
	}
	doc.Footer = fmt.Sprintf("REPORT GENERATED: %s records analyzed | Performance Grade: %s", f.n.count(f.rec), f.grade())
	return doc
}

// 1. Executive summary

func execOverview(f *facts) (string, bool) {
	if !f.key("total_impressions", "total_clicks") {
		return "", false
	}
	var scope []string
	if f.has["ad_platform"] {
		scope = append(scope, "platforms")
	}
	if f.has["gender"] || f.has["age"] {
		scope = append(scope, "demographics")
	}
	if f.has["ad_category"] {
		scope = append(scope, "creative categories")
	}
	across := "the full dataset"
	if len(scope) > 0 {
		across = "multiple " + joinList(scope)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "This campaign analysis examines %s marketing records, representing %s total impressions and %s clicks across %s.",
		f.n.count(f.rec), f.n.count(f.impressions), f.n.count(f.clicks), across)
	if f.key("avg_CTR") {
		fmt.Fprintf(&b, " The campaign achieved an overall CTR of %s", f.n.pct(f.ctr))
		if f.key("total_conversions") {
			fmt.Fprintf(&b, ", generating %s conversions", f.n.count(f.conversions))
		}
		if f.key("total_spent") {
			fmt.Fprintf(&b, " with a total expenditure of %s", f.n.money(f.spent))
		}
		b.WriteString(".")
	}
	return b.String(), true
}

func execAssessment(f *facts) (string, bool) {
	if !f.key("avg_CTR") {
		return "", false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Performance Assessment: The campaign demonstrates %s.", ctrVerdict(f.ctr))
	if f.key("avg_CPC") {
		fmt.Fprintf(&b, " With an average CPC of %s", f.n.money4(f.cpc))
		if f.key("avg_CPM") {
			fmt.Fprintf(&b, " and CPM of %s", f.n.money(f.cpm))
		}
		fmt.Fprintf(&b, ", cost efficiency is %s.", cpcVerdict(f.cpc))
	}
	if f.key("avg_conversion_rate") {
		fmt.Fprintf(&b, " The conversion rate of %s indicates %s post-click engagement and funnel effectiveness.",
			f.n.pct(f.convRate), ConversionTier(f.convRate).Label)
	}
	return b.String(), true
}

func execStrengths(f *facts) (string, bool) {
	if !f.key("avg_CTR") {
		return "", false
	}
	var strengths []string
	if f.ctr > 3 {
		strengths = append(strengths, fmt.Sprintf("superior click-through performance (%s CTR)", f.n.pct(f.ctr)))
	}
	if f.key("avg_conversion_rate") && f.convRate > 3 {
		strengths = append(strengths, fmt.Sprintf("high conversion efficiency (%s rate)", f.n.pct(f.convRate)))
	}
	if f.key("avg_CPC") && f.cpc < 0.50 {
		strengths = append(strengths, fmt.Sprintf("cost-effective acquisition (%s CPC)", f.n.money4(f.cpc)))
	}
	list := "Baseline performance established across all measured metrics"
	if len(strengths) > 0 {
		list = joinList(strengths)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Key Strengths: %s.", list)
	if f.ctrs != nil && f.ctr > 0 {
		spread := f.q75 - f.q25
		lift := spread * 0.25 / f.ctr * 100
		fmt.Fprintf(&b, " CTR varies by %s points between the top and bottom quartiles; closing a quarter of that spread would lift average CTR by about %s through reallocation and targeting refinement.",
			f.n.p.Sprintf("%.2f", spread), f.n.pct1(lift))
	}
	return b.String(), true
}

// 2. Performance analysis

func perfImpressions(f *facts) (string, bool) {
	if !f.numeric("impressions") {
		return "", false
	}
	reach := "initial"
	switch {
	case f.impressions > 1_000_000:
		reach = "strong"
	case f.impressions > 100_000:
		reach = "moderate"
	}
	cv := metrics.CoefficientOfVariation(f.t.Floats("impressions"))
	pattern, meaning := "highly variable", "audience fragmentation or targeting inconsistencies"
	if cv < 0.5 {
		pattern, meaning = "concentrated", "consistent delivery"
	}
	return fmt.Sprintf("Impression Volume & Reach: The campaign generated %s total impressions, averaging %s impressions per record. "+
		"This reach establishes %s brand visibility across target audiences. Impression distribution (coefficient of variation %s) reveals %s performance across creative units, indicating %s.",
		f.n.count(f.impressions), f.n.count(metrics.SafeDiv(f.impressions, f.rec)), reach,
		f.n.p.Sprintf("%.2f", cv), pattern, meaning), true
}

func perfClicks(f *facts) (string, bool) {
	if !f.numeric("clicks") || !f.key("avg_CTR") {
		return "", false
	}
	vs := "underperforms"
	switch {
	case f.ctr > 4:
		vs = "significantly outperforms"
	case f.ctr > 2:
		vs = "meets"
	}
	spread := "dispersed engagement patterns"
	if metrics.CoefficientOfVariation(f.t.Floats("clicks")) < 1 {
		spread = "concentrated engagement"
	}
	resonance := "opportunities for creative optimization"
	if f.ctr > 3 {
		resonance = "effective creative resonance"
	}
	alignment := "baseline engagement requiring enhancement"
	if f.ctr > 4 {
		alignment = "strong audience-message alignment"
	}
	return fmt.Sprintf("Click Performance & Engagement: With %s total clicks at %s CTR, the campaign %s the industry standard 2-3%% benchmark. "+
		"Click distribution analysis shows %s, suggesting %s. The clicks-to-impressions ratio demonstrates %s.",
		f.n.count(f.clicks), f.n.pct(f.ctr), vs, spread, resonance, alignment), true
}

func perfConversions(f *facts) (string, bool) {
	if f.conv == "" || !f.key("avg_conversion_rate", "total_conversions") {
		return "", false
	}
	level, quality, dropoff := "below expectations", "suboptimal", "significant"
	switch {
	case f.convRate > 5:
		level, quality, dropoff = "exceptional", "highly effective", "minimal"
	case f.convRate > 2:
		level, quality, dropoff = "competitive", "adequate", "moderate"
	}
	return fmt.Sprintf("Conversion Efficiency: The campaign achieved %s conversions at a %s conversion rate from clicks. "+
		"This conversion efficiency is %s, indicating %s landing page experience and offer-audience fit, with %s funnel drop-off after the click.",
		f.n.count(f.conversions), f.n.pct(f.convRate), level, quality, dropoff), true
}

func perfCost(f *facts) (string, bool) {
	if !f.key("avg_CPC", "total_spent") {
		return "", false
	}
	structure := "elevated"
	switch {
	case f.cpc < 0.50:
		structure = "highly efficient"
	case f.cpc < 1.00:
		structure = "competitive"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Cost Metrics & Efficiency: At %s average CPC", f.n.money4(f.cpc))
	if f.key("avg_CPM") {
		fmt.Fprintf(&b, " and %s CPM", f.n.money(f.cpm))
	}
	fmt.Fprintf(&b, ", the campaign's cost structure is %s.", structure)
	if f.key("total_conversions") {
		cpa := f.spent / max(f.conversions, 1)
		verdict := "requiring optimization"
		switch {
		case cpa < 10:
			verdict = "excellent"
		case cpa < 25:
			verdict = "acceptable"
		}
		fmt.Fprintf(&b, " Total spend of %s yielded %s conversions, a cost per acquisition of %s. This CPA is %s for sustainable profitability.",
			f.n.money(f.spent), f.n.count(f.conversions), f.n.money(cpa), verdict)
	}
	return b.String(), true
}

func perfDistribution(f *facts) (string, bool) {
	if f.ctrs == nil {
		return "", false
	}
	top, bottom := 0, 0
	for _, v := range f.ctrs {
		if v > f.q75 {
			top++
		}
		if v < f.q25 {
			bottom++
		}
	}
	spread := f.q75 - f.q25
	potential := "optimization opportunities"
	if spread > 2 {
		potential = "significant untapped potential"
	}
	return fmt.Sprintf("Performance Distribution: Quartile analysis identifies %s high-performing records above %s CTR (top quartile) and %s underperforming records below %s (bottom quartile), "+
		"a spread of %s percentage points. This variance indicates %s through targeted refinement.",
		f.n.count(float64(top)), f.n.pct(f.q75), f.n.count(float64(bottom)), f.n.pct(f.q25),
		f.n.p.Sprintf("%.2f", spread), potential), true
}

// 3. Demographic insights

func demoGender(f *facts) (string, bool) {
	stats := f.groupCTR("gender")
	top, ok := metrics.MaxBy(stats, metrics.ByMean)
	if !ok {
		return "", false
	}
	low, _ := metrics.MinBy(stats, metrics.ByMean)
	gap, gapOK := metrics.Gap(top.Mean, low.Mean)

	var b strings.Builder
	fmt.Fprintf(&b, "Gender Performance Segmentation: %s audiences demonstrate the strongest engagement with %s CTR, a %s advantage over the weakest segment.",
		top.Label, f.n.pct(top.Mean), f.n.gap(top.Mean, low.Mean))
	if f.numeric("clicks") {
		fmt.Fprintf(&b, " This segment produced %s clicks", f.n.count(f.sumWhere("gender", top.Label, "clicks")))
		if f.conv != "" {
			fmt.Fprintf(&b, " and %s conversions", f.n.count(f.sumWhere("gender", top.Label, f.conv)))
		}
		b.WriteString(".")
	}
	opportunity := "moderate potential"
	if gapOK && gap > 20 {
		opportunity = "significant opportunity"
	}
	fmt.Fprintf(&b, " Segment comparison reveals %s for budget reallocation toward this demographic.", opportunity)
	return b.String(), true
}

func demoAge(f *facts) (string, bool) {
	stats := f.groupCTR("age")
	top, ok := metrics.MaxBy(stats, metrics.ByMean)
	if !ok {
		return "", false
	}
	low, _ := metrics.MinBy(stats, metrics.ByMean)
	scaling := "cautious scaling"
	if top.Mean > 5 {
		scaling = "aggressive expansion"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Age Group Performance Analysis: The %s group is the highest-performing segment at %s CTR", top.Label, f.n.pct(top.Mean))
	if f.numeric("clicks") {
		fmt.Fprintf(&b, " with %s total clicks", f.n.count(f.sumWhere("age", top.Label, "clicks")))
	}
	fmt.Fprintf(&b, ". The %s group trails at %s CTR, pointing to creative misalignment or targeting assumptions worth re-testing. "+
		"The data supports %s within the %s group and creative re-testing for %s audiences.",
		low.Label, f.n.pct(low.Mean), scaling, top.Label, low.Label)
	return b.String(), true
}

func demoLocation(f *facts) (string, bool) {
	top := topByCTR(f.groupCTR("location"), 3)
	if len(top) == 0 {
		return "", false
	}
	items := make([]string, len(top))
	for i, g := range top {
		items[i] = fmt.Sprintf("%s (%s CTR)", g.Label, f.n.pct(g.Mean))
	}
	affinity, strategy := "diverse regional performance", "location-specific creative adaptation"
	if metrics.StdDev(metrics.Means(top)) < 1 {
		affinity, strategy = "strong regional affinity", "focused regional strategies"
	}
	return fmt.Sprintf("Geographic Performance: Top-performing locations include %s. Geographic concentration analysis reveals %s, suggesting %s for maximum efficiency.",
		strings.Join(items, ", "), affinity, strategy), true
}

// 4. Platform & channel analysis

func channelPlatform(f *facts) (string, bool) {
	top, ok := metrics.MaxBy(f.groupCTR("ad_platform"), metrics.ByMean)
	if !ok {
		return "", false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Platform Performance Comparison: %s leads all platforms with %s CTR", top.Label, f.n.pct(top.Mean))
	if f.numeric("clicks") {
		share := metrics.SafeDiv(f.sumWhere("ad_platform", top.Label, "clicks"), f.clicks) * 100
		fmt.Fprintf(&b, ", capturing %s of total clicks", f.n.pct1(share))
		if f.numeric("impressions") {
			fmt.Fprintf(&b, " from %s impressions", f.n.count(f.sumWhere("ad_platform", top.Label, "impressions")))
		}
	}
	alignment := "competitive positioning"
	if top.Mean > 5 {
		alignment = "audience-platform alignment"
	}
	targeting := "standard delivery mechanisms"
	if top.Mean > 4 {
		targeting = "advanced targeting capabilities"
	}
	fmt.Fprintf(&b, ". This lead reflects %s and %s.", alignment, targeting)
	if f.conv != "" {
		conv := f.sumWhere("ad_platform", top.Label, f.conv)
		funnel := "baseline conversion efficiency"
		if conv > 100 {
			funnel = "strong end-to-end funnel performance"
		}
		fmt.Fprintf(&b, " The platform delivered %s conversions, demonstrating %s.", f.n.count(conv), funnel)
	}
	return b.String(), true
}

func channelDevice(f *facts) (string, bool) {
	stats := f.groupCTR("device_type")
	top, ok := metrics.MaxBy(stats, metrics.ByMean)
	if !ok {
		return "", false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Device Type Analysis: %s users exhibit the highest engagement at %s CTR", top.Label, f.n.pct(top.Mean))
	if f.numeric("engagement_score") {
		for _, g := range metrics.GroupStats(f.t, "device_type", "engagement_score") {
			if g.Label == top.Label {
				fmt.Fprintf(&b, " with engagement scores averaging %s", f.n.p.Sprintf("%.2f", g.Mean))
			}
		}
	}
	device := strings.ToLower(top.Label)
	implication := "device-agnostic creative effectiveness"
	switch {
	case strings.Contains(device, "mobile"):
		implication = "the critical importance of mobile optimization"
	case strings.Contains(device, "desktop"):
		implication = "validation of a desktop-first strategy"
	}
	variance, creative := "consistent cross-device experience", "unified creative strategies"
	if metrics.StdDev(metrics.Means(stats)) > 1 {
		variance, creative = "significant performance variance", "device-specific creative"
	}
	fmt.Fprintf(&b, ". This indicates %s. Cross-device analysis reveals %s, favouring %s.", implication, variance, creative)
	return b.String(), true
}

func channelCategory(f *facts) (string, bool) {
	top := topByCTR(f.groupCTR("ad_category"), 3)
	if len(top) == 0 {
		return "", false
	}
	clicks := f.groupSum("ad_category", "clicks")
	items := make([]string, len(top))
	for i, g := range top {
		if f.numeric("clicks") {
			items[i] = fmt.Sprintf("%s (%s CTR, %s clicks)", g.Label, f.n.pct(g.Mean), f.n.count(clicks[g.Label]))
		} else {
			items[i] = fmt.Sprintf("%s (%s CTR)", g.Label, f.n.pct(g.Mean))
		}
	}
	fit := "varying message-market fit"
	if metrics.StdDev(metrics.Means(top)) < 1 {
		fit = "strong creative-category alignment"
	}
	scale := "measured expansion"
	if top[0].Mean > 5 {
		scale = "aggressive scaling"
	}
	return fmt.Sprintf("Category Performance: Leading ad categories include %s. Category-level spread demonstrates %s, with top performers warranting %s.",
		strings.Join(items, ", "), fit, scale), true
}

// 5. Temporal patterns

func timeDayOfWeek(f *facts) (string, bool) {
	stats := f.groupCTR("day_of_week")
	top, ok := metrics.MaxBy(stats, metrics.ByMean)
	if !ok {
		return "", false
	}
	low, _ := metrics.MinBy(stats, metrics.ByMean)
	variance, varOK := metrics.Gap(top.Mean, low.Mean)

	var b strings.Builder
	fmt.Fprintf(&b, "Day-of-Week Performance: %s is the peak performance day with %s CTR", dayName(top.Label), f.n.pct(top.Mean))
	if f.numeric("clicks") {
		fmt.Fprintf(&b, " and %s clicks", f.n.count(f.sumWhere("day_of_week", top.Label, "clicks")))
	}
	fmt.Fprintf(&b, ", while %s shows the lowest engagement at %s CTR.", dayName(low.Label), f.n.pct(low.Mean))
	if varOK {
		cycle, tactic := "moderate temporal patterns", "refined scheduling optimization"
		if variance > 30 {
			cycle, tactic = "strong weekly cyclicality", "aggressive dayparting strategies"
		}
		fmt.Fprintf(&b, " The %s variance between peak and low days indicates %s, suggesting %s can improve overall efficiency by an estimated %s.",
			f.n.pct1(variance), cycle, tactic, f.n.pct1(min(variance*0.3, 25)))
	} else {
		b.WriteString(" The low day recorded no measurable CTR, so the peak-to-low variance is N/A.")
	}
	return b.String(), true
}

func timeWeekend(f *facts) (string, bool) {
	stats := f.groupCTR("day_of_week")
	var weekend, weekday []float64
	for _, g := range stats {
		if g.Label == "5" || g.Label == "6" {
			weekend = append(weekend, g.Mean)
		} else {
			weekday = append(weekday, g.Mean)
		}
	}
	if len(weekend) == 0 || len(weekday) == 0 {
		return "", false
	}
	we, wd := metrics.Mean(weekend), metrics.Mean(weekday)
	lead, behaviour, action := "Weekday", "B2B or weekday-oriented engagement", "business-hours optimization strategies"
	if we > wd {
		lead, behaviour, action = "Weekend", "B2C consumer behavior patterns", "increased weekend bidding and budgets"
	}
	weighting := "15-25% budget adjustment"
	if math.Abs(we-wd) > 1 {
		weighting = "30-50% budget weighting"
	}
	return fmt.Sprintf("Weekday vs Weekend Analysis: %s performance leads with %s average CTR versus %s, revealing %s. "+
		"This informs %s, and peak engagement periods should receive a %s.",
		lead, f.n.pct(max(we, wd)), f.n.pct(min(we, wd)), behaviour, action, weighting), true
}

// 6. Top performers

func topAds(f *facts) (string, bool) {
	if f.ctrs == nil || !f.has["ad_id"] {
		return "", false
	}
	rows := f.topRows(5)
	if len(rows) == 0 {
		return "", false
	}
	best := rows[0]
	bestCTR := f.ctrs[best]
	ads := f.t.Strings("ad_id")

	var b strings.Builder
	fmt.Fprintf(&b, "Top-Performing Creative Units: Ad %s leads all creative with %s CTR", ads[best], f.n.pct(bestCTR))
	if f.numeric("clicks") {
		fmt.Fprintf(&b, ", generating %s clicks", f.n.count(f.t.Floats("clicks")[best]))
	}
	if f.numeric("engagement_score") {
		fmt.Fprintf(&b, " with an engagement score of %s", f.n.p.Sprintf("%.2f", f.t.Floats("engagement_score")[best]))
	}
	quality := "strong message-market fit"
	if bestCTR > 10 {
		quality = "superior creative quality"
	}
	targeting := "effective positioning"
	if bestCTR > 8 {
		targeting = "precise audience targeting"
	}
	fmt.Fprintf(&b, ". Success factors include %s and %s.", quality, targeting)

	topCTRs := pick(f.ctrs, rows)
	avg := metrics.Mean(topCTRs)
	fmt.Fprintf(&b, " The top %d ads average %s CTR", len(rows), f.n.pct(avg))
	if f.numeric("clicks") {
		fmt.Fprintf(&b, " across %s clicks", f.n.count(metrics.Sum(pick(f.t.Floats("clicks"), rows))))
	}
	fmt.Fprintf(&b, ", outperforming the campaign average by %s.", f.n.pct1((avg/max(f.ctr, 0.01)-1)*100))
	return b.String(), true
}

func topCategories(f *facts) (string, bool) {
	top := topByCTR(f.groupCTR("ad_category"), 3)
	if len(top) == 0 {
		return "", false
	}
	lead := top[0]
	var b strings.Builder
	fmt.Fprintf(&b, "Category Leaders: The %s category leads with %s CTR", lead.Label, f.n.pct(lead.Mean))
	conv := 0.0
	if f.numeric("clicks") {
		fmt.Fprintf(&b, " and %s clicks", f.n.count(f.sumWhere("ad_category", lead.Label, "clicks")))
	}
	if f.conv != "" {
		conv = f.sumWhere("ad_category", lead.Label, f.conv)
		fmt.Fprintf(&b, ", yielding %s conversions", f.n.count(conv))
	}
	fit := "competitive positioning"
	if lead.Mean > 5 {
		fit = "strong product-market fit"
	}
	messaging := "an adequate value proposition"
	if conv > 50 {
		messaging = "resonant messaging"
	}
	next := "measured expansion"
	if lead.Mean > 6 {
		next = "immediate scaling"
	}
	fmt.Fprintf(&b, ". Its profile shows %s and %s, and it warrants %s with creative replication across similar categories.", fit, messaging, next)
	return b.String(), true
}

// 7. Areas of concern

func concernLowQuartile(f *facts) (string, bool) {
	if f.ctrs == nil || !f.numeric("impressions", "clicks") {
		return "", false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Underperforming Segments: %s records (%s of total) fall into the bottom quartile with CTR below %s. "+
		"They consumed %s impressions (%s of volume) while generating only %s clicks (%s of total).",
		f.n.count(float64(f.low.rows)), f.n.pct1(metrics.SafeDiv(float64(f.low.rows), f.rec)*100), f.n.pct(f.q25),
		f.n.count(f.low.impressions), f.n.pct1(metrics.SafeDiv(f.low.impressions, f.impressions)*100),
		f.n.count(f.low.clicks), f.n.pct1(metrics.SafeDiv(f.low.clicks, f.clicks)*100))
	if f.key("avg_CPM") {
		fmt.Fprintf(&b, " This represents approximately %s in suboptimal spend.", f.n.money(f.lowSpend()))
	}
	return b.String(), true
}

func concernPlatform(f *facts) (string, bool) {
	low, ok := metrics.MinBy(f.groupCTR("ad_platform"), metrics.ByMean)
	if !ok {
		return "", false
	}
	issue := "optimization needs"
	switch {
	case low.Mean < 1:
		issue = "fundamental platform-audience misalignment"
	case low.Mean < 2:
		issue = "creative-format incompatibility"
	}
	cause := "creative format mismatches"
	if low.Mean < 1.5 {
		cause = "incorrect audience targeting parameters"
	}
	bidding := "message positioning errors"
	if low.Mean < 2 {
		bidding = "bidding inefficiencies"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Platform Concerns: %s shows the weakest performance at %s CTR, indicating %s. Likely root causes include %s or %s.",
		low.Label, f.n.pct(low.Mean), issue, cause, bidding)
	if f.numeric("impressions") && f.key("avg_CPM") {
		waste := f.sumWhere("ad_platform", low.Label, "impressions") * f.cpm / 1000
		fmt.Fprintf(&b, " Continued investment without corrective action risks %s in wasted spend.", f.n.money(waste))
	}
	return b.String(), true
}

func concernCPC(f *facts) (string, bool) {
	if !f.numeric("CPC") {
		return "", false
	}
	cpcs := f.t.Floats("CPC")
	q75 := metrics.Quantile(cpcs, 0.75)
	high := 0
	for _, v := range cpcs {
		if v > q75 {
			high++
		}
	}
	if high == 0 {
		return "", false
	}
	peak := metrics.Max(cpcs)
	quality := "competitive pressure"
	if peak > 2 {
		quality = "poor quality scores"
	}
	targeting := "bidding mismanagement"
	if peak > 1.5 {
		targeting = "targeting over-specificity"
	}
	return fmt.Sprintf("Cost Efficiency Red Flags: %s records exhibit CPC above %s (75th percentile), with peak CPC reaching %s. "+
		"These high-cost records point to %s or %s, and need bid caps to keep acquisition costs sustainable.",
		f.n.count(float64(high)), f.n.money4(q75), f.n.money4(peak), quality, targeting), true
}
