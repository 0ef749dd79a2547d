package risk

import "strings"

// RiskLevel grades how likely a brand is to file IP claims against resellers.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical" // auto-veto
)

// BrandResult is the outcome of a brand check.
type BrandResult struct {
	BrandName string
	Level     RiskLevel
	Reason    string
	IsVeto    bool
	Warnings  []string
}

// Brand vocabularies are curated from seller-community reports. Matching is
// case-insensitive substring containment over brand and title, critical
// first.

var criticalBrands = []string{
	// Entertainment/media
	"disney", "marvel", "star wars", "lucasfilm", "pixar", "abc",
	"warner bros", "dc comics", "batman", "superman", "harry potter",
	"nintendo", "pokemon", "pikachu", "mario", "zelda", "game freak",
	"sony", "playstation", "xbox", "microsoft", "halo",
	"dreamworks", "universal", "nbcuniversal", "paramount",
	"nickelodeon", "spongebob", "paw patrol", "dora",
	"sesame street", "muppets", "jim henson",

	// Sports leagues and teams
	"nfl", "nba", "mlb", "nhl", "mls", "fifa", "uefa",
	"super bowl", "world cup", "olympics", "olympic",
	"ncaa", "college football", "march madness",
	"patriots", "cowboys", "lakers", "yankees", "red sox",
	"warriors", "chiefs", "eagles", "packers", "bears",

	// Luxury
	"louis vuitton", "lv", "gucci", "prada", "chanel", "hermes",
	"rolex", "cartier", "tiffany", "burberry", "dior", "fendi",
	"versace", "armani", "coach", "michael kors", "kate spade",
	"yves saint laurent", "ysl", "balenciaga", "givenchy",

	// Tech
	"apple", "iphone", "ipad", "macbook", "airpods", "apple watch",
	"samsung", "galaxy", "google", "pixel", "chromecast",
	"amazon", "alexa", "echo", "kindle", "fire tv",
	"meta", "facebook", "instagram", "oculus", "quest",

	// Automotive
	"tesla", "bmw", "mercedes", "audi", "porsche", "ferrari",
	"lamborghini", "ford", "chevrolet", "toyota", "honda",
	"jeep", "harley davidson", "harley-davidson",

	// Apparel
	"nike", "adidas", "under armour", "puma", "new balance",
	"jordan", "air jordan", "yeezy", "supreme", "off-white",
	"north face", "patagonia", "columbia", "lululemon",
	"levis", "levi's", "calvin klein", "tommy hilfiger", "ralph lauren",

	// Toys
	"lego", "mattel", "barbie", "hot wheels", "fisher price",
	"hasbro", "transformers", "my little pony", "nerf",
	"american girl", "build a bear", "build-a-bear",
	"funko", "funko pop",

	// Consumer electronics and appliances
	"bose", "beats", "jbl", "sonos", "bang & olufsen",
	"dyson", "roomba", "irobot", "vitamix", "kitchenaid",
	"cuisinart", "ninja", "instant pot", "keurig", "nespresso",

	// Beauty
	"mac cosmetics", "sephora", "ulta", "estee lauder",
	"clinique", "lancome", "maybelline", "l'oreal", "loreal",
	"revlon", "covergirl", "nyx", "urban decay", "too faced",
	"kylie cosmetics", "fenty", "rare beauty", "glossier",

	// Food and beverage
	"coca cola", "coca-cola", "pepsi", "red bull", "monster energy",
	"starbucks", "dunkin", "mcdonalds", "mcdonald's", "burger king",
	"oreo", "nutella", "hershey", "hershey's", "nestle", "mars",

	// Firearms
	"glock", "smith & wesson", "remington", "colt", "ruger",
	"sig sauer", "beretta", "winchester", "browning",
}

var highRiskBrands = []string{
	"yeti", "hydroflask", "hydro flask", "stanley", "contigo",
	"tervis", "swell", "s'well", "corkcicle",
	"simplehuman", "oxo", "rubbermaid", "tupperware",

	"peloton", "bowflex", "nordictrack", "theragun", "hyperice",
	"fitbit", "garmin", "whoop", "oura",

	"rtic", "coleman", "igloo",
	"callaway", "titleist", "taylormade", "ping",
	"shimano", "daiwa", "penn",

	"anker", "belkin", "logitech", "razer", "corsair",
	"steelseries", "hyperx", "elgato",

	"kong", "petsafe", "furminator", "greenies",

	"graco", "chicco", "uppababy", "bugaboo", "baby bjorn",
	"owlet", "snoo", "ergobaby",

	"therabreath", "crest", "oral-b", "philips sonicare",
	"braun", "conair", "t3",
}

var mediumRiskBrands = []string{
	"crocs", "skechers", "vans", "converse", "asics",
	"osprey", "jansport", "herschel", "fjallraven",
	"otter box", "otterbox", "spigen", "lifeproof",
	"gopro", "dji", "ring", "nest", "wyze",
	"blendtec",
	"lodge", "le creuset", "staub", "all-clad",
	"weber", "traeger", "big green egg", "blackstone",
}

// Indicators in a title that suggest licensing/brand protection.
var brandIndicators = []string{
	"official", "licensed", "authentic", "genuine", "original",
	"authorized", "certified", "trademark", "®", "™", "©",
	"exclusive", "limited edition", "collector",
}

// BrandChecker screens brands against the curated IP-risk vocabularies.
type BrandChecker struct {
	critical []string
	high     []string
	medium   []string
}

// NewBrandChecker builds a checker over the built-in vocabularies.
func NewBrandChecker() *BrandChecker {
	return &BrandChecker{
		critical: criticalBrands,
		high:     highRiskBrands,
		medium:   mediumRiskBrands,
	}
}

// CheckBrand grades a brand/title pair. Critical matches veto; the checks run
// critical, then high, then medium, first hit wins.
func (c *BrandChecker) CheckBrand(brand, title string) BrandResult {
	if strings.TrimSpace(brand) == "" && strings.TrimSpace(title) == "" {
		return BrandResult{
			BrandName: "Unknown",
			Level:     RiskLow,
			Reason:    "no brand information available",
			Warnings:  []string{"could not verify brand - proceed with caution"},
		}
	}

	brandLower := strings.ToLower(strings.TrimSpace(brand))
	titleLower := strings.ToLower(title)

	for _, b := range c.critical {
		if containsBrand(brandLower, titleLower, b) {
			return BrandResult{
				BrandName: brand,
				Level:     RiskCritical,
				Reason:    "'" + b + "' is a high-litigation brand with aggressive IP enforcement",
				IsVeto:    true,
				Warnings: []string{
					"VETO: this brand is known to file IP claims",
					"selling this product risks account suspension",
				},
			}
		}
	}

	for _, b := range c.high {
		if containsBrand(brandLower, titleLower, b) {
			return BrandResult{
				BrandName: brand,
				Level:     RiskHigh,
				Reason:    "'" + b + "' is a protected brand with Brand Registry",
				Warnings: []string{
					"HIGH RISK: this brand has filed IP claims before",
					"verify you have authorization to sell",
				},
			}
		}
	}

	for _, b := range c.medium {
		if containsBrand(brandLower, titleLower, b) {
			return BrandResult{
				BrandName: brand,
				Level:     RiskMedium,
				Reason:    "brand is registered but not known for aggressive enforcement",
				Warnings:  []string{"'" + b + "' is a registered brand - verify authenticity"},
			}
		}
	}

	var warnings []string
	for _, ind := range brandIndicators {
		if strings.Contains(titleLower, ind) {
			warnings = append(warnings, "title contains '"+ind+"' - may be brand-protected")
		}
	}

	if len(warnings) > 0 {
		return BrandResult{
			BrandName: brand,
			Level:     RiskLow,
			Reason:    "brand not in known risk database but has some indicators",
			Warnings:  warnings,
		}
	}
	return BrandResult{
		BrandName: brand,
		Level:     RiskSafe,
		Reason:    "brand not found in IP risk database",
	}
}

func containsBrand(brand, title, needle string) bool {
	return strings.Contains(brand, needle) || strings.Contains(title, needle)
}

// CriticalBrands returns the veto vocabulary, mostly for reporting.
func (c *BrandChecker) CriticalBrands() []string {
	out := make([]string, len(c.critical))
	copy(out, c.critical)
	return out
}
