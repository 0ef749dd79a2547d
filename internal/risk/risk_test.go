package risk

import (
	"strings"
	"testing"
)

func TestCheckBrandCritical(t *testing.T) {
	c := NewBrandChecker()

	r := c.CheckBrand("Nike", "Nike Air Jordan Shoes")
	if r.Level != RiskCritical {
		t.Errorf("risk level = %v, want critical", r.Level)
	}
	if !r.IsVeto {
		t.Error("critical brand must veto")
	}
}

func TestCheckBrandMatchesTitleWhenBrandMissing(t *testing.T) {
	c := NewBrandChecker()
	r := c.CheckBrand("", "Pokemon Trading Card Binder with 900 Pockets")
	if r.Level != RiskCritical || !r.IsVeto {
		t.Errorf("title-only critical match failed: level=%v veto=%v", r.Level, r.IsVeto)
	}
}

func TestCheckBrandLevels(t *testing.T) {
	c := NewBrandChecker()
	tests := []struct {
		brand string
		title string
		want  RiskLevel
		veto  bool
	}{
		{"Anker", "Anker USB-C Charger 65W", RiskHigh, false},
		{"Crocs", "Crocs Classic Clog", RiskMedium, false},
		{"Generic Kitchen Co", "Silicone Spatula Set of 4", RiskSafe, false},
		{"", "", RiskLow, false},
	}
	for _, tt := range tests {
		r := c.CheckBrand(tt.brand, tt.title)
		if r.Level != tt.want || r.IsVeto != tt.veto {
			t.Errorf("CheckBrand(%q, %q) = (%v, %v), want (%v, %v)",
				tt.brand, tt.title, r.Level, r.IsVeto, tt.want, tt.veto)
		}
	}
}

func TestCheckBrandIndicatorWarnings(t *testing.T) {
	c := NewBrandChecker()
	r := c.CheckBrand("Acme Widgets", "Official Licensed Widget Organizer")
	if r.Level != RiskLow {
		t.Errorf("indicator-only title should be low risk, got %v", r.Level)
	}
	if len(r.Warnings) == 0 {
		t.Error("expected warnings for licensing indicators in title")
	}
}

func TestHazmatBatteryVeto(t *testing.T) {
	d := NewHazmatDetector()
	r := d.CheckText("Portable Power Bank 20000mAh Lithium Battery", "", "Electronics", nil)

	if !r.IsHazmat {
		t.Fatal("lithium battery product should flag hazmat")
	}
	if r.Category != HazmatBattery {
		t.Errorf("category = %v, want battery", r.Category)
	}
	if !r.IsVeto {
		t.Error("battery class is veto-level")
	}
	if len(r.MatchedKeywords) == 0 {
		t.Error("expected matched keywords")
	}
}

func TestHazmatExplosivePrecedence(t *testing.T) {
	d := NewHazmatDetector()
	// Matches both explosive and flammable vocabularies; explosive runs first
	// and carries the highest confidence.
	r := d.CheckText("Fireworks Starter Kit with Lighter Fluid", "", "", nil)
	if r.Category != HazmatExplosive {
		t.Errorf("category = %v, want explosive", r.Category)
	}
	if !r.IsVeto {
		t.Error("explosive must veto")
	}
}

func TestHazmatNonVetoClass(t *testing.T) {
	d := NewHazmatDetector()
	r := d.CheckText("Heavy Duty Rust Remover Gel", "", "", nil)
	if !r.IsHazmat || r.Category != HazmatCorrosive {
		t.Fatalf("got hazmat=%v category=%v, want corrosive", r.IsHazmat, r.Category)
	}
	if r.IsVeto {
		t.Error("corrosive alone is not veto-level")
	}
}

func TestHazmatCleanProduct(t *testing.T) {
	d := NewHazmatDetector()
	r := d.CheckText("Bamboo Cutting Board", "Solid bamboo board for the kitchen",
		"Home & Kitchen", []string{"Easy to clean", "Non-slip surface"})
	if r.IsHazmat || r.IsVeto || r.Category != HazmatNone {
		t.Errorf("clean product flagged: %+v", r)
	}
}

func TestHazmatSingleMatchLowersConfidence(t *testing.T) {
	d := NewHazmatDetector()
	r := d.CheckText("Outdoor Fuel Canister Stand", "", "", nil)
	if len(r.MatchedKeywords) != 1 {
		t.Fatalf("expected single keyword match, got %v", r.MatchedKeywords)
	}
	if r.Confidence > 0.8 {
		t.Errorf("single match should lower confidence, got %v", r.Confidence)
	}
}

func TestRestrictedCategoryWarnings(t *testing.T) {
	d := NewHazmatDetector()
	r := d.CheckText("Daily Multivitamin Dietary Supplement", "", "Health", nil)
	found := false
	for _, w := range r.Warnings {
		if strings.Contains(w, "restricted category") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected restricted-category warning, got %v", r.Warnings)
	}
}
