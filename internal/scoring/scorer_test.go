package scoring

import (
	"math"
	"strings"
	"testing"

	"github.com/asinsight/asinsight/internal/model"
)

func cleanProduct() *model.Product {
	return &model.Product{
		ASIN:                  "B0TEST00001",
		Title:                 "Silicone Baking Mat Set of 3",
		Brand:                 "HomeBake",
		Category:              "Home & Kitchen",
		Price:                 model.Float(24.99),
		Rating:                4.5,
		ReviewCount:           250,
		BSR:                   model.Int(8000),
		EstimatedMonthlySales: 350,
		ProfitMargin:          model.Float(32.0),
		SellerInfo: &model.SellerInfo{
			FBACount:     6,
			FBMCount:     2,
			TotalSellers: 9,
		},
	}
}

func TestVetoIPRisk(t *testing.T) {
	s := New()
	p := cleanProduct()
	p.Brand = "Nike"
	p.Title = "Nike Air Jordan Shoes"

	r := s.Score(p, nil, nil)
	if !r.IsVetoed || r.VetoReason != VetoIPRisk {
		t.Fatalf("got vetoed=%v reason=%v, want IP risk veto", r.IsVetoed, r.VetoReason)
	}
	if r.TotalScore != 0 {
		t.Errorf("vetoed score = %v, want 0", r.TotalScore)
	}
	if r.Status != StatusNotViable {
		t.Errorf("vetoed status = %v, want not_viable", r.Status)
	}
	if r.Confidence != 1.0 {
		t.Errorf("vetoed confidence = %v, want 1.0", r.Confidence)
	}
}

func TestVetoIPRiskBeforeHazmat(t *testing.T) {
	s := New()
	p := cleanProduct()
	// Trips both the brand blacklist and the battery keywords; the brand
	// check runs first.
	p.Brand = "Apple"
	p.Title = "Apple MagSafe Power Bank Lithium Battery"

	r := s.Score(p, nil, nil)
	if r.VetoReason != VetoIPRisk {
		t.Errorf("veto reason = %v, want ip_risk precedence over hazmat", r.VetoReason)
	}
}

func TestVetoHazmat(t *testing.T) {
	s := New()
	p := cleanProduct()
	p.Title = "20000mAh Power Bank Lithium Battery Charger"

	r := s.Score(p, nil, nil)
	if r.VetoReason != VetoHazmat {
		t.Fatalf("veto reason = %v, want hazmat", r.VetoReason)
	}
	if !strings.Contains(r.VetoDetails, "hazmat") {
		t.Errorf("veto details missing context: %q", r.VetoDetails)
	}
}

func TestVetoLowMargin(t *testing.T) {
	s := New()
	p := cleanProduct()
	p.ProfitMargin = model.Float(7.5)

	r := s.Score(p, nil, nil)
	if r.VetoReason != VetoLowMargin {
		t.Errorf("veto reason = %v, want low_margin", r.VetoReason)
	}
}

func TestMissingMarginVetoes(t *testing.T) {
	s := New()
	p := cleanProduct()
	p.ProfitMargin = nil

	r := s.Score(p, nil, nil)
	if r.VetoReason != VetoLowMargin {
		t.Errorf("nil margin should read as 0%% and veto, got %v", r.VetoReason)
	}
}

func TestAmazonSellerIsNotVeto(t *testing.T) {
	s := New()
	p := cleanProduct()
	p.SellerInfo.AmazonSeller = true

	r := s.Score(p, nil, nil)
	if r.IsVetoed {
		t.Fatal("Amazon as seller must penalize, not veto")
	}
	if got := r.Competition.Components["amazon_score"]; got != 0 {
		t.Errorf("amazon_score = %v, want 0", got)
	}
}

func TestScoreCleanProduct(t *testing.T) {
	s := New()
	r := s.Score(cleanProduct(), nil, nil)

	if r.IsVetoed {
		t.Fatalf("unexpected veto: %v %q", r.VetoReason, r.VetoDetails)
	}
	if r.TotalScore <= 0 || r.TotalScore > 100 {
		t.Errorf("total score out of range: %v", r.TotalScore)
	}

	// The total is the sum of the weighted pillar scores.
	want := r.Demand.WeightedScore + r.Competition.WeightedScore + r.Profit.WeightedScore
	if math.Abs(r.TotalScore-round1(want)) > 0.001 {
		t.Errorf("total %v != sum of weighted pillars %v", r.TotalScore, want)
	}

	// BSR 8000 falls in the good band; FBA count 6 is in the sweet spot.
	if got := r.Demand.Components["bsr_score"]; got != 80 {
		t.Errorf("bsr_score = %v, want 80", got)
	}
	if got := r.Competition.Components["fba_count_score"]; got != 100 {
		t.Errorf("fba_count_score = %v, want 100", got)
	}
}

func TestMissingSalesEstimateScoresLowestVelocityBand(t *testing.T) {
	s := New()
	p := cleanProduct()
	p.BSR = model.Int(5000)
	p.EstimatedMonthlySales = 0
	p.ProfitMargin = model.Float(25)
	p.SellerInfo = nil

	r := s.Score(p, nil, nil)
	if got := r.Demand.Components["velocity_score"]; got > 20 {
		t.Errorf("velocity_score = %v, want lowest band (<=20)", got)
	}
	if got := r.Demand.Components["bsr_score"]; got != 100 {
		t.Errorf("bsr_score = %v, want 100 for BSR 5000", got)
	}
	want := r.Demand.WeightedScore + r.Competition.WeightedScore + r.Profit.WeightedScore
	if math.Abs(r.TotalScore-round1(want)) > 0.001 {
		t.Errorf("total %v inconsistent with pillar weights (sum %v)", r.TotalScore, want)
	}
}

func TestStabilityFromHistory(t *testing.T) {
	s := New()
	tests := []struct {
		variance float64
		want     float64
	}{
		{0.1, 100},
		{0.3, 70},
		{0.5, 40},
		{0.9, 20},
	}
	for _, tt := range tests {
		r := s.Score(cleanProduct(), &History{BSRVariance: tt.variance}, nil)
		if got := r.Demand.Components["stability_score"]; got != tt.want {
			t.Errorf("variance %v: stability_score = %v, want %v", tt.variance, got, tt.want)
		}
	}
}

func TestStabilityNeutralWithoutHistory(t *testing.T) {
	s := New()
	r := s.Score(cleanProduct(), nil, nil)
	if got := r.Demand.Components["stability_score"]; got != 50 {
		t.Errorf("stability_score = %v, want neutral 50", got)
	}
}

func TestReviewVulnerability(t *testing.T) {
	s := New()
	weak := []Competitor{{Reviews: 50}, {Reviews: 120}, {Reviews: 380}, {Reviews: 900}}
	r := s.Score(cleanProduct(), nil, weak)
	if got := r.Competition.Components["vulnerability_score"]; got != 100 {
		t.Errorf("vulnerability_score = %v, want 100 with 3 weak competitors", got)
	}

	strong := []Competitor{{Reviews: 1200}, {Reviews: 4000}, {Reviews: 850}}
	r = s.Score(cleanProduct(), nil, strong)
	if got := r.Competition.Components["vulnerability_score"]; got != 20 {
		t.Errorf("vulnerability_score = %v, want 20 with entrenched competitors", got)
	}
}

func TestConfidenceAccumulates(t *testing.T) {
	s := New()

	sparse := &model.Product{
		ASIN:         "B0SPARSE001",
		Title:        "Plain Widget",
		ProfitMargin: model.Float(25),
	}
	r := s.Score(sparse, nil, nil)
	// base 0.5 + margin 0.10
	if r.Confidence != 0.6 {
		t.Errorf("sparse confidence = %v, want 0.6", r.Confidence)
	}

	full := s.Score(cleanProduct(), &History{BSRVariance: 0.1}, nil)
	if full.Confidence != 1.0 {
		t.Errorf("full-data confidence = %v, want capped 1.0", full.Confidence)
	}
}

func TestStatusBands(t *testing.T) {
	tests := []struct {
		score float64
		want  Status
	}{
		{95, StatusExcellent},
		{80, StatusExcellent},
		{79.9, StatusGood},
		{60, StatusGood},
		{59.9, StatusMarginal},
		{40, StatusMarginal},
		{39.9, StatusPoor},
		{20, StatusPoor},
		{19.9, StatusNotViable},
		{0, StatusNotViable},
	}
	for _, tt := range tests {
		if got := statusFor(tt.score); got != tt.want {
			t.Errorf("statusFor(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestInsightsReflectPillars(t *testing.T) {
	s := New()
	r := s.Score(cleanProduct(), &History{BSRVariance: 0.1}, nil)
	if len(r.Recommendations) == 0 {
		t.Fatal("expected at least one recommendation")
	}
	for _, w := range r.Weaknesses {
		if strings.Contains(w, "VETOED") {
			t.Errorf("non-vetoed product carries veto weakness: %q", w)
		}
	}
}
