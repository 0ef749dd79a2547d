package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/asinsight/asinsight/internal/model"
	"github.com/asinsight/asinsight/internal/risk"
)

// Status buckets a total score into a sourcing verdict.
type Status string

const (
	StatusExcellent Status = "excellent" // 80-100
	StatusGood      Status = "good"      // 60-79
	StatusMarginal  Status = "marginal"  // 40-59
	StatusPoor      Status = "poor"      // 20-39
	StatusNotViable Status = "not_viable"
)

// VetoReason names the deal-breaker that zeroed a score.
type VetoReason string

const (
	VetoNone      VetoReason = "none"
	VetoIPRisk    VetoReason = "ip_risk"
	VetoHazmat    VetoReason = "hazmat"
	VetoLowMargin VetoReason = "low_margin"
)

// PillarScore is one weighted pillar of the opportunity model.
type PillarScore struct {
	Name          string
	Score         float64 // 0-100
	Weight        float64
	WeightedScore float64
	Components    map[string]float64
	Notes         []string
}

// Result is the full scoring breakdown for one product.
type Result struct {
	TotalScore float64
	Status     Status
	Confidence float64 // 0-1, data quality

	Demand      PillarScore
	Competition PillarScore
	Profit      PillarScore

	IsVetoed    bool
	VetoReason  VetoReason
	VetoDetails string

	Strengths       []string
	Weaknesses      []string
	Recommendations []string
}

// History carries demand-trend inputs derived from snapshot data.
type History struct {
	BSRVariance float64 // coefficient of variation over ~30 days
}

// Competitor is the slice of competitor data the scorer cares about.
type Competitor struct {
	Reviews int
}

// Pillar weights, must sum to 1.
const (
	demandWeight      = 0.40
	competitionWeight = 0.35
	profitWeight      = 0.25
)

const (
	minFBASellers = 3
	maxFBASellers = 15

	vulnerableReviewCount    = 400
	minVulnerableCompetitors = 3

	excellentMargin = 40.0
	goodMargin      = 30.0
	minMargin       = 20.0

	excellentBSR = 5000
	goodBSR      = 20000
	okBSR        = 50000
	maxBSR       = 100000
)

// Scorer grades products on the three-pillar model with veto screening.
type Scorer struct {
	brands *risk.BrandChecker
	hazmat *risk.HazmatDetector
}

// New builds a scorer with the built-in risk vocabularies.
func New() *Scorer {
	return &Scorer{
		brands: risk.NewBrandChecker(),
		hazmat: risk.NewHazmatDetector(),
	}
}

// Score grades a product. hist and competitors may be nil; the affected
// components fall back to neutral estimates.
func (s *Scorer) Score(p *model.Product, hist *History, competitors []Competitor) Result {
	if vetoed, reason, details := s.checkVeto(p); vetoed {
		return Result{
			TotalScore:  0,
			Status:      StatusNotViable,
			Confidence:  1.0, // a veto is certain regardless of data quality
			Demand:      PillarScore{Name: "Demand & Trend", Weight: demandWeight},
			Competition: PillarScore{Name: "Competition", Weight: competitionWeight},
			Profit:      PillarScore{Name: "Profit & Risk", Weight: profitWeight},
			IsVetoed:    true,
			VetoReason:  reason,
			VetoDetails: details,
			Weaknesses:  []string{"VETOED: " + details},
			Recommendations: []string{
				"do not source this product",
			},
		}
	}

	demand := s.demandPillar(p, hist)
	competition := s.competitionPillar(p, competitors)
	profit := s.profitPillar(p)

	total := demand.WeightedScore + competition.WeightedScore + profit.WeightedScore

	r := Result{
		TotalScore:  round1(total),
		Status:      statusFor(total),
		Confidence:  round2(s.confidence(p, hist)),
		Demand:      demand,
		Competition: competition,
		Profit:      profit,
		VetoReason:  VetoNone,
	}
	r.Strengths, r.Weaknesses, r.Recommendations = insights(demand, competition, profit, total)
	return r
}

// checkVeto runs the deal-breaker checks in severity order: IP risk, then
// hazmat, then unsustainable margin.
func (s *Scorer) checkVeto(p *model.Product) (bool, VetoReason, string) {
	if br := s.brands.CheckBrand(p.Brand, p.Title); br.IsVeto {
		return true, VetoIPRisk,
			fmt.Sprintf("brand %q is known for IP claims - high account suspension risk", p.Brand)
	}

	if hz := s.hazmat.CheckProduct(p); hz.IsVeto {
		kw := hz.MatchedKeywords
		if len(kw) > 3 {
			kw = kw[:3]
		}
		return true, VetoHazmat,
			"product contains hazmat indicators: " + strings.Join(kw, ", ")
	}

	// Amazon selling the listing is penalized in the competition pillar,
	// not vetoed; some sellers do win the box from Amazon.

	if margin := p.MarginValue(); margin < 10 {
		return true, VetoLowMargin,
			fmt.Sprintf("profit margin of %.1f%% is too low for a sustainable business", margin)
	}

	return false, VetoNone, ""
}

// demandPillar weighs current BSR (40%), BSR stability (30%), and sales
// velocity (30%).
func (s *Scorer) demandPillar(p *model.Product, hist *History) PillarScore {
	components := map[string]float64{}
	var notes []string

	bsr := p.BSRValue()
	var bsrScore float64
	switch {
	case bsr <= 0:
		bsrScore = 0
		notes = append(notes, "no BSR data available")
	case bsr <= excellentBSR:
		bsrScore = 100
		notes = append(notes, fmt.Sprintf("excellent BSR: #%d", bsr))
	case bsr <= goodBSR:
		bsrScore = 80
		notes = append(notes, fmt.Sprintf("good BSR: #%d", bsr))
	case bsr <= okBSR:
		bsrScore = 60
		notes = append(notes, fmt.Sprintf("average BSR: #%d", bsr))
	case bsr <= maxBSR:
		bsrScore = 40
		notes = append(notes, fmt.Sprintf("below-average BSR: #%d", bsr))
	default:
		bsrScore = 20
		notes = append(notes, fmt.Sprintf("poor BSR: #%d", bsr))
	}
	components["bsr_score"] = bsrScore

	var stabilityScore float64
	if hist != nil {
		switch v := hist.BSRVariance; {
		case v < 0.2:
			stabilityScore = 100
			notes = append(notes, "very stable BSR (consistent demand)")
		case v < 0.4:
			stabilityScore = 70
			notes = append(notes, "moderately stable BSR")
		case v < 0.6:
			stabilityScore = 40
			notes = append(notes, "some BSR volatility (possible seasonality)")
		default:
			stabilityScore = 20
			notes = append(notes, "high BSR volatility (seasonal or declining)")
		}
	} else {
		stabilityScore = 50
		notes = append(notes, "no historical data - stability unknown")
	}
	components["stability_score"] = stabilityScore

	sales := p.EstimatedMonthlySales
	var velocityScore float64
	switch {
	case sales >= 500:
		velocityScore = 100
		notes = append(notes, fmt.Sprintf("high sales velocity: ~%d/month", sales))
	case sales >= 300:
		velocityScore = 80
		notes = append(notes, fmt.Sprintf("good sales velocity: ~%d/month", sales))
	case sales >= 100:
		velocityScore = 60
		notes = append(notes, fmt.Sprintf("moderate sales: ~%d/month", sales))
	case sales >= 30:
		velocityScore = 40
		notes = append(notes, fmt.Sprintf("low sales: ~%d/month", sales))
	default:
		velocityScore = 20
		notes = append(notes, "very low or unknown sales velocity")
	}
	components["velocity_score"] = velocityScore

	score := bsrScore*0.40 + stabilityScore*0.30 + velocityScore*0.30
	return pillar("Demand & Trend", score, demandWeight, components, notes)
}

// competitionPillar weighs FBA seller count (40%), review vulnerability
// (35%), and Amazon presence (25%).
func (s *Scorer) competitionPillar(p *model.Product, competitors []Competitor) PillarScore {
	components := map[string]float64{}
	var notes []string

	var fbaCount int
	amazonSells := false
	if p.SellerInfo != nil {
		fbaCount = p.SellerInfo.FBACount
		amazonSells = p.SellerInfo.AmazonSeller
	}

	var fbaScore float64
	switch {
	case fbaCount >= minFBASellers && fbaCount <= maxFBASellers:
		fbaScore = 100
		notes = append(notes, fmt.Sprintf("ideal FBA seller count: %d (sweet spot %d-%d)",
			fbaCount, minFBASellers, maxFBASellers))
	case fbaCount < minFBASellers:
		fbaScore = 40
		notes = append(notes, fmt.Sprintf("low FBA sellers (%d) - may indicate low demand or gating", fbaCount))
	case fbaCount <= 20:
		fbaScore = 60
		notes = append(notes, fmt.Sprintf("slightly high FBA competition: %d sellers", fbaCount))
	default:
		fbaScore = 20
		notes = append(notes, fmt.Sprintf("too many FBA sellers: %d (price war risk)", fbaCount))
	}
	components["fba_count_score"] = fbaScore

	var vulnerabilityScore float64
	if len(competitors) > 0 {
		top := competitors
		if len(top) > 10 {
			top = top[:10]
		}
		vulnerable := 0
		for _, c := range top {
			if c.Reviews < vulnerableReviewCount {
				vulnerable++
			}
		}
		switch {
		case vulnerable >= minVulnerableCompetitors:
			vulnerabilityScore = 100
			notes = append(notes, fmt.Sprintf("%d weak competitors (<%d reviews)", vulnerable, vulnerableReviewCount))
		case vulnerable >= 2:
			vulnerabilityScore = 70
			notes = append(notes, fmt.Sprintf("%d competitors with low reviews", vulnerable))
		case vulnerable >= 1:
			vulnerabilityScore = 50
			notes = append(notes, "only 1 vulnerable competitor")
		default:
			vulnerabilityScore = 20
			notes = append(notes, "all top competitors have established reviews")
		}
	} else {
		// No competitor set; fall back to the product's own review count.
		switch reviews := p.ReviewCount; {
		case reviews < 100:
			vulnerabilityScore = 70
			notes = append(notes, "no competitor data - market appears accessible")
		case reviews < 500:
			vulnerabilityScore = 50
			notes = append(notes, "no competitor data - moderate competition estimated")
		default:
			vulnerabilityScore = 30
			notes = append(notes, "no competitor data - appears competitive")
		}
	}
	components["vulnerability_score"] = vulnerabilityScore

	var amazonScore float64
	if amazonSells {
		amazonScore = 0
		notes = append(notes, "Amazon is a seller - very difficult to compete")
	} else {
		amazonScore = 100
		notes = append(notes, "Amazon is not a direct seller")
	}
	components["amazon_score"] = amazonScore

	score := fbaScore*0.40 + vulnerabilityScore*0.35 + amazonScore*0.25
	return pillar("Competition", score, competitionWeight, components, notes)
}

// profitPillar weighs margin (50%), price point (25%), and non-veto risk
// factors (25%).
func (s *Scorer) profitPillar(p *model.Product) PillarScore {
	components := map[string]float64{}
	var notes []string

	margin := p.MarginValue()
	var marginScore float64
	switch {
	case margin >= excellentMargin:
		marginScore = 100
		notes = append(notes, fmt.Sprintf("excellent margin: %.1f%%", margin))
	case margin >= goodMargin:
		marginScore = 80
		notes = append(notes, fmt.Sprintf("good margin: %.1f%%", margin))
	case margin >= minMargin:
		marginScore = 60
		notes = append(notes, fmt.Sprintf("acceptable margin: %.1f%%", margin))
	case margin >= 10:
		marginScore = 30
		notes = append(notes, fmt.Sprintf("low margin: %.1f%% (barely viable)", margin))
	default:
		marginScore = 0
		notes = append(notes, fmt.Sprintf("margin too low: %.1f%%", margin))
	}
	components["margin_score"] = marginScore

	price := p.PriceValue()
	var priceScore float64
	switch {
	case price >= 20 && price <= 50:
		priceScore = 100
		notes = append(notes, fmt.Sprintf("ideal price point: $%.2f", price))
	case (price >= 15 && price < 20) || (price > 50 && price <= 75):
		priceScore = 80
		notes = append(notes, fmt.Sprintf("good price point: $%.2f", price))
	case (price >= 10 && price < 15) || (price > 75 && price <= 100):
		priceScore = 60
		notes = append(notes, fmt.Sprintf("moderate price point: $%.2f", price))
	case price < 10:
		priceScore = 30
		notes = append(notes, fmt.Sprintf("low price (thin margins after fees): $%.2f", price))
	default:
		priceScore = 50
		notes = append(notes, fmt.Sprintf("higher price point: $%.2f (needs more capital)", price))
	}
	components["price_score"] = priceScore

	riskScore := 100.0
	var riskNotes []string

	switch br := s.brands.CheckBrand(p.Brand, p.Title); br.Level {
	case risk.RiskHigh:
		riskScore -= 40
		riskNotes = append(riskNotes, "high IP risk brand")
	case risk.RiskMedium:
		riskScore -= 20
		riskNotes = append(riskNotes, "moderate IP risk - verify authenticity")
	}

	if hz := s.hazmat.CheckProduct(p); hz.IsHazmat && !hz.IsVeto {
		riskScore -= 30
		riskNotes = append(riskNotes, "potential hazmat: "+string(hz.Category))
	}

	if len(riskNotes) > 0 {
		notes = append(notes, riskNotes...)
	} else {
		notes = append(notes, "no significant risk factors detected")
	}
	riskScore = math.Max(0, riskScore)
	components["risk_score"] = riskScore

	score := marginScore*0.50 + priceScore*0.25 + riskScore*0.25
	return pillar("Profit & Risk", score, profitWeight, components, notes)
}

// confidence estimates score reliability from data availability, 0.5 base
// plus a bump per field present, capped at 1.
func (s *Scorer) confidence(p *model.Product, hist *History) float64 {
	c := 0.5
	if p.BSR != nil {
		c += 0.15
	}
	if p.Price != nil {
		c += 0.10
	}
	if p.ReviewCount > 0 {
		c += 0.10
	}
	if p.SellerInfo != nil {
		c += 0.10
	}
	if hist != nil {
		c += 0.15
	}
	if p.ProfitMargin != nil {
		c += 0.10
	}
	return math.Min(1.0, c)
}

func insights(demand, competition, profit PillarScore, total float64) (strengths, weaknesses, recommendations []string) {
	if demand.Score >= 70 {
		strengths = append(strengths, "strong demand indicators")
	} else if demand.Score < 40 {
		weaknesses = append(weaknesses, "weak demand signals")
		recommendations = append(recommendations, "verify demand with more research before sourcing")
	}

	if competition.Score >= 70 {
		strengths = append(strengths, "favorable competitive landscape")
	} else if competition.Score < 40 {
		weaknesses = append(weaknesses, "highly competitive market")
		recommendations = append(recommendations, "consider finding a less saturated niche")
	}

	if profit.Score >= 70 {
		strengths = append(strengths, "good profit potential")
	} else if profit.Score < 40 {
		weaknesses = append(weaknesses, "margin concerns")
		recommendations = append(recommendations, "source at lower cost or find higher-priced alternatives")
	}

	switch {
	case total >= 70:
		recommendations = append(recommendations, "strong opportunity - proceed with sourcing research")
	case total >= 50:
		recommendations = append(recommendations, "moderate opportunity - do additional research before committing")
	default:
		recommendations = append(recommendations, "consider alternative products with better metrics")
	}
	return strengths, weaknesses, recommendations
}

func statusFor(score float64) Status {
	switch {
	case score >= 80:
		return StatusExcellent
	case score >= 60:
		return StatusGood
	case score >= 40:
		return StatusMarginal
	case score >= 20:
		return StatusPoor
	default:
		return StatusNotViable
	}
}

func pillar(name string, score, weight float64, components map[string]float64, notes []string) PillarScore {
	return PillarScore{
		Name:          name,
		Score:         round1(score),
		Weight:        weight,
		WeightedScore: round1(score * weight),
		Components:    components,
		Notes:         notes,
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
