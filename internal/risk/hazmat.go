package risk

import (
	"math"
	"regexp"
	"strings"

	"github.com/asinsight/asinsight/internal/model"
)

// HazmatCategory classifies the kind of hazardous-material signal detected.
type HazmatCategory string

const (
	HazmatNone        HazmatCategory = "none"
	HazmatFlammable   HazmatCategory = "flammable"
	HazmatCorrosive   HazmatCategory = "corrosive"
	HazmatBattery     HazmatCategory = "battery"
	HazmatPressurized HazmatCategory = "pressurized"
	HazmatToxic       HazmatCategory = "toxic"
	HazmatOxidizer    HazmatCategory = "oxidizer"
	HazmatExplosive   HazmatCategory = "explosive"
)

// HazmatResult is the outcome of a hazmat screen. This is keyword screening,
// not an official classification; it errs toward flagging.
type HazmatResult struct {
	IsHazmat        bool
	Category        HazmatCategory
	Confidence      float64
	MatchedKeywords []string
	Warnings        []string
	Restrictions    []string
	IsVeto          bool
}

var batteryKeywords = []string{
	"lithium", "li-ion", "li-po", "lipo", "lithium-ion", "lithium-polymer",
	"lithium battery", "rechargeable battery", "battery pack", "power bank",
	"18650", "21700", "26650", "cr123", "cr2032", "button cell",
	"laptop battery", "phone battery", "replacement battery",
	"e-bike battery", "scooter battery", "drone battery",
	"vape battery", "mod battery", "ecig battery",
}

var flammableKeywords = []string{
	"flammable", "inflammable", "combustible",
	"alcohol", "isopropyl", "ethanol", "methanol", "acetone",
	"nail polish", "nail polish remover", "nail acetone",
	"paint", "paint thinner", "lacquer", "varnish", "stain",
	"gasoline", "petrol", "diesel", "kerosene", "fuel",
	"lighter fluid", "butane", "propane", "charcoal lighter",
	"hand sanitizer", "sanitizer gel", "rubbing alcohol",
	"perfume", "cologne", "fragrance oil", "essential oil",
	"aftershave", "body spray", "hair spray", "hairspray",
	"deodorant spray", "antiperspirant spray",
	"cooking spray", "oil spray", "lubricant spray",
	"starter fluid", "carburetor cleaner", "brake cleaner",
}

var pressurizedKeywords = []string{
	"aerosol", "spray can", "compressed", "pressurized",
	"air duster", "canned air", "compressed air",
	"spray paint", "spray adhesive", "spray lubricant",
	"bug spray", "insecticide spray", "pesticide spray",
	"bear spray", "pepper spray", "mace", "self defense spray",
	"fire extinguisher", "co2 cartridge", "co2 tank",
	"whipped cream charger", "n2o", "nitrous oxide",
	"tire inflator", "fix-a-flat",
}

var corrosiveKeywords = []string{
	"acid", "sulfuric", "hydrochloric", "muriatic", "battery acid",
	"drain cleaner", "drain opener", "clog remover",
	"oven cleaner", "grill cleaner", "rust remover",
	"bleach", "chlorine", "pool chemicals", "pool shock",
	"ammonia", "lye", "caustic soda", "sodium hydroxide",
	"toilet bowl cleaner", "lime remover", "calcium remover",
	"etching", "descaler", "limescale remover",
}

var toxicKeywords = []string{
	"poison", "toxic", "pesticide", "insecticide", "herbicide",
	"rodent killer", "rat poison", "mouse poison", "ant killer",
	"roach killer", "bug killer", "wasp killer", "flea killer",
	"weed killer", "roundup", "glyphosate",
	"antifreeze", "coolant", "motor oil", "transmission fluid",
	"mercury", "lead", "arsenic", "cadmium",
	"formaldehyde", "benzene", "toluene",
}

var oxidizerKeywords = []string{
	"oxidizer", "oxidizing", "peroxide", "hydrogen peroxide",
	"bromine", "iodine",
	"pool chlorine", "calcium hypochlorite",
	"potassium permanganate", "sodium hypochlorite",
	"hair bleach", "hair developer", "hair peroxide",
}

var explosiveKeywords = []string{
	"explosive", "ammunition", "ammo", "gunpowder", "black powder",
	"fireworks", "firecracker", "sparkler", "roman candle",
	"flare", "signal flare", "smoke bomb", "smoke grenade",
	"primer", "detonator", "fuse", "blasting cap",
	"tannerite", "binary explosive",
}

// Categories that are commonly gated or restricted, with advisory notes.
var restrictedCategories = map[string][]string{
	"dietary supplement": {"verify FDA compliance", "may require approval"},
	"supplement":         {"verify FDA compliance", "may require approval"},
	"vitamins":           {"may require category approval"},
	"medical device":     {"requires FDA registration", "category gated"},
	"otc medicine":       {"requires approval", "FDA regulated"},
	"drug":               {"prescription items prohibited", "verify OTC status"},
	"cosmetic":           {"may require safety documentation"},
	"food":               {"may require FDA compliance", "expiration date requirements"},
	"baby food":          {"strict requirements", "expiration tracking"},
	"alcohol":            {"prohibited in many states", "license required"},
	"tobacco":            {"prohibited", "age verification required"},
	"weapon":             {"prohibited", "no firearms"},
	"knife":              {"blade length restrictions", "state laws vary"},
	"cbd":                {"prohibited in many categories", "legal gray area"},
	"hemp":               {"requires documentation", "THC limits"},
}

type hazmatCheck struct {
	pattern    *regexp.Regexp
	category   HazmatCategory
	confidence float64
	veto       bool
}

// HazmatDetector screens listing text against the keyword classes above.
type HazmatDetector struct {
	checks []hazmatCheck
}

// NewHazmatDetector compiles the keyword classes; checks run in descending
// severity so the most dangerous matching class wins.
func NewHazmatDetector() *HazmatDetector {
	return &HazmatDetector{checks: []hazmatCheck{
		{compileKeywords(explosiveKeywords), HazmatExplosive, 1.0, true},
		{compileKeywords(batteryKeywords), HazmatBattery, 0.9, true},
		{compileKeywords(flammableKeywords), HazmatFlammable, 0.85, false},
		{compileKeywords(pressurizedKeywords), HazmatPressurized, 0.9, true},
		{compileKeywords(corrosiveKeywords), HazmatCorrosive, 0.85, false},
		{compileKeywords(toxicKeywords), HazmatToxic, 0.8, false},
		{compileKeywords(oxidizerKeywords), HazmatOxidizer, 0.8, false},
	}}
}

func compileKeywords(keywords []string) *regexp.Regexp {
	escaped := make([]string, len(keywords))
	for i, k := range keywords {
		escaped[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

// CheckText screens the combined listing text fields.
func (d *HazmatDetector) CheckText(title, description, category string, features []string) HazmatResult {
	parts := []string{title, description, category}
	parts = append(parts, features...)
	text := strings.ToLower(strings.Join(parts, " "))

	result := HazmatResult{Category: HazmatNone}
	seen := map[string]bool{}

	for _, check := range d.checks {
		matches := check.pattern.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		for _, m := range matches {
			m = strings.ToLower(m)
			if !seen[m] {
				seen[m] = true
				result.MatchedKeywords = append(result.MatchedKeywords, m)
			}
		}
		if check.confidence > result.Confidence {
			result.Confidence = check.confidence
			result.Category = check.category
			if check.veto {
				result.IsVeto = true
			}
		}
	}

	for restricted, notes := range restrictedCategories {
		if strings.Contains(text, restricted) {
			result.Restrictions = append(result.Restrictions, notes...)
			result.Warnings = append(result.Warnings, "product may be in restricted category: "+restricted)
		}
	}

	if result.Category != HazmatNone {
		result.IsHazmat = true
		result.Warnings = append(result.Warnings,
			"potential "+strings.ToUpper(string(result.Category))+" hazmat product")
		result.Restrictions = append(result.Restrictions, categoryRestrictions(result.Category)...)
		if result.Category == HazmatExplosive {
			result.IsVeto = true
		}
	}

	// More matches, more confidence; a single hit is weak evidence.
	if len(result.MatchedKeywords) > 3 {
		result.Confidence = math.Min(1.0, result.Confidence+0.1)
	} else if len(result.MatchedKeywords) == 1 {
		result.Confidence = math.Max(0.5, result.Confidence-0.2)
	}

	return result
}

// CheckProduct screens a product's text fields.
func (d *HazmatDetector) CheckProduct(p *model.Product) HazmatResult {
	return d.CheckText(p.Title, p.Description, p.Category, p.Features)
}

func categoryRestrictions(cat HazmatCategory) []string {
	switch cat {
	case HazmatBattery:
		return []string{
			"lithium batteries require special shipping",
			"may require UN3481/UN3091 certification",
			"FBA has strict battery requirements",
		}
	case HazmatFlammable:
		return []string{
			"flammable products require hazmat shipping",
			"may not be eligible for FBA",
			"requires Safety Data Sheet (SDS)",
		}
	case HazmatPressurized:
		return []string{
			"aerosols require special handling",
			"limited to ground shipping only",
			"may not be FBA eligible",
		}
	case HazmatExplosive:
		return []string{
			"PROHIBITED: explosive items are not allowed",
			"violates marketplace terms of service",
		}
	case HazmatCorrosive:
		return []string{
			"corrosive products require SDS",
			"special packaging required",
		}
	case HazmatToxic:
		return []string{
			"toxic products heavily regulated",
			"EPA registration may be required",
		}
	default:
		return nil
	}
}
