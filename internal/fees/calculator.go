package fees

import (
	"fmt"
	"math"
	"strings"

	"github.com/asinsight/asinsight/internal/model"
)

// SizeTier is one of the seven fulfillment size classes.
type SizeTier string

const (
	SmallStandard     SizeTier = "Small Standard"
	LargeStandard     SizeTier = "Large Standard"
	LargeBulky        SizeTier = "Large Bulky"
	ExtraLarge0To50   SizeTier = "Extra Large 0-50 lb"
	ExtraLarge50To70  SizeTier = "Extra Large 50-70 lb"
	ExtraLarge70To150 SizeTier = "Extra Large 70-150 lb"
	ExtraLarge150Plus SizeTier = "Extra Large 150+ lb"
)

// Breakdown is the full fee computation for one (price, dims, category,
// season) tuple. Pure function of its inputs, byte-identical on repeat calls.
type Breakdown struct {
	ReferralFee       float64  `json:"referral_fee"`
	ReferralFeePct    float64  `json:"referral_fee_percentage"`
	FulfillmentFee    float64  `json:"fba_fulfillment_fee"`
	MonthlyStorageFee float64  `json:"monthly_storage_fee"`
	TotalFees         float64  `json:"total_amazon_fees"`
	SizeTier          SizeTier `json:"size_tier"`
	BillableWeight    float64  `json:"billable_weight"`
	Notes             []string `json:"notes,omitempty"`
}

// Profit is the sourcing economics for one price/cost pair.
type Profit struct {
	SellingPrice float64  `json:"selling_price"`
	COGS         float64  `json:"cogs"`
	Fees         Breakdown `json:"fees"`
	NetProfit    float64  `json:"net_profit"`
	Margin       float64  `json:"profit_margin"`
	ROI          float64  `json:"roi"`
	IsProfitable bool     `json:"is_profitable"`
}

// The tables below are 2024 US-marketplace fee schedules. They are reference
// data: the numbers are authoritative and must not be recomputed or estimated.

type referralRate struct {
	category string
	rate     float64
}

// Matched by case-insensitive substring, first hit wins; default 15%.
var referralRates = []referralRate{
	{"home & garden", 0.15},
	{"sports & outdoors", 0.15},
	{"toys & games", 0.15},
	{"office products", 0.15},
	{"pet supplies", 0.15},
	{"health & personal care", 0.15},
	{"beauty", 0.15},
	{"baby products", 0.15},
	{"kitchen", 0.15},

	{"video game consoles", 0.08},
	{"video games", 0.15},
	{"electronics", 0.08},
	{"computers", 0.08},
	{"consumer electronics", 0.08},
	{"camera", 0.08},
	{"cell phones", 0.08},

	{"jewelry", 0.20},
	{"watches", 0.16},
	{"clothing", 0.17},
	{"shoes", 0.15},
	{"handbags", 0.15},
	{"luggage", 0.15},

	{"furniture", 0.15},
	{"appliances", 0.15},

	{"grocery", 0.15},
	{"amazon device accessories", 0.45},
	{"gift cards", 0.20},
}

const defaultReferralRate = 0.15

var minReferralFees = []referralRate{
	{"jewelry", 2.00},
	{"watches", 2.00},
	{"clothing", 0.30},
	{"shoes", 0.30},
}

const defaultMinReferralFee = 0.30

type feeBracket struct {
	maxOz float64
	fee   float64
}

var smallStandardFees = []feeBracket{
	{2, 3.06},
	{4, 3.15},
	{6, 3.24},
	{8, 3.33},
	{10, 3.43},
	{12, 3.53},
	{14, 3.60},
	{16, 3.65},
}

var largeStandardFees = []feeBracket{
	{4, 3.68},
	{8, 3.90},
	{12, 4.15},
	{16, 4.55},
	{24, 5.07},
	{32, 5.41},
	{48, 5.77},
}

// Above 48 oz (3 lb) Large Standard switches to base + per-pound.
const (
	largeStandardBase  = 5.77
	largeStandardPerLb = 0.16

	largeBulkyBase  = 9.61
	largeBulkyPerLb = 0.38 // per lb after the first lb
)

var extraLargeFees = map[SizeTier]struct{ base, perLb float64 }{
	ExtraLarge0To50:   {26.33, 0.38},
	ExtraLarge50To70:  {40.12, 0.75},
	ExtraLarge70To150: {54.85, 0.75},
	ExtraLarge150Plus: {194.95, 0.19},
}

// Monthly storage, per cubic foot.
var storageFees = map[bool]struct{ offPeak, peak float64 }{
	false: {0.78, 2.40}, // standard size
	true:  {0.56, 1.40}, // oversize
}

// ClassifySizeTier walks the fixed decision tree over sorted sides and
// declared weight. Thresholds are ordered and non-overlapping.
func ClassifySizeTier(dims model.Dimensions) SizeTier {
	l, m, s := dims.LongestSide(), dims.MedianSide(), dims.ShortestSide()
	w := dims.Weight

	switch {
	case l <= 15 && m <= 12 && s <= 0.75 && w <= 1:
		return SmallStandard
	case l <= 18 && m <= 14 && s <= 8 && w <= 20:
		return LargeStandard
	case l <= 59 && m <= 33 && s <= 33 && w <= 50:
		return LargeBulky
	case w <= 50:
		return ExtraLarge0To50
	case w <= 70:
		return ExtraLarge50To70
	case w <= 150:
		return ExtraLarge70To150
	default:
		return ExtraLarge150Plus
	}
}

// ReferralFee returns the fee amount and the rate applied. The per-category
// minimum floor is applied after the percentage computation.
func ReferralFee(price float64, category string) (float64, float64) {
	if price <= 0 {
		return 0, 0
	}

	cat := strings.ToLower(category)
	rate := defaultReferralRate
	for _, r := range referralRates {
		if strings.Contains(cat, r.category) {
			rate = r.rate
			break
		}
	}

	min := defaultMinReferralFee
	for _, r := range minReferralFees {
		if strings.Contains(cat, r.category) {
			min = r.rate
			break
		}
	}

	fee := price * rate
	if fee < min {
		fee = min
	}
	return round2(fee), rate
}

// FulfillmentFee computes the FBA pick-pack fee from billable weight within
// the classified size tier.
func FulfillmentFee(dims model.Dimensions) (float64, SizeTier) {
	tier := ClassifySizeTier(dims)
	billable := dims.BillableWeight()
	oz := billable * 16

	switch tier {
	case SmallStandard:
		for _, b := range smallStandardFees {
			if oz <= b.maxOz {
				return b.fee, tier
			}
		}
		return smallStandardFees[len(smallStandardFees)-1].fee, tier

	case LargeStandard:
		if oz <= 48 {
			for _, b := range largeStandardFees {
				if oz <= b.maxOz {
					return b.fee, tier
				}
			}
		}
		extra := billable - 3
		if extra < 0 {
			extra = 0
		}
		return round2(largeStandardBase + extra*largeStandardPerLb), tier

	case LargeBulky:
		extra := billable - 1
		if extra < 0 {
			extra = 0
		}
		return round2(largeBulkyBase + extra*largeBulkyPerLb), tier

	default:
		xl := extraLargeFees[tier]
		return round2(xl.base + billable*xl.perLb), tier
	}
}

// StorageFee estimates the monthly per-unit storage cost. Peak season is
// October through December.
func StorageFee(dims model.Dimensions, peakSeason bool) float64 {
	tier := ClassifySizeTier(dims)
	oversize := tier != SmallStandard && tier != LargeStandard

	rates := storageFees[oversize]
	rate := rates.offPeak
	if peakSeason {
		rate = rates.peak
	}
	return round2(dims.CubicFeet() * rate)
}

// Calculate produces the full breakdown. When dims is nil, representative
// dimensions are substituted from the price bucket and the result carries an
// explicit estimation warning so consumers can discount confidence.
func Calculate(price float64, dims *model.Dimensions, category string, peakSeason bool) Breakdown {
	var notes []string

	d := model.Dimensions{}
	if dims == nil {
		d = EstimateDimensions(price)
		notes = append(notes, "dimensions estimated - actual fees may vary")
	} else {
		d = *dims
	}

	referral, pct := ReferralFee(price, category)
	fulfillment, tier := FulfillmentFee(d)
	storage := StorageFee(d, peakSeason)

	if tier == LargeBulky || tier == ExtraLarge0To50 {
		notes = append(notes, "oversize item - higher fees and shipping restrictions")
	}
	if pct > 0.15 {
		notes = append(notes, fmt.Sprintf("category has %.0f%% referral fee (above standard 15%%)", pct*100))
	}
	if peakSeason {
		notes = append(notes, "peak season storage fees applied (Oct-Dec)")
	}

	return Breakdown{
		ReferralFee:       referral,
		ReferralFeePct:    pct,
		FulfillmentFee:    fulfillment,
		MonthlyStorageFee: storage,
		TotalFees:         round2(referral + fulfillment + storage),
		SizeTier:          tier,
		BillableWeight:    round2(d.BillableWeight()),
		Notes:             notes,
	}
}

// EstimateDimensions substitutes representative dimensions by price bucket
// when a listing does not expose them.
func EstimateDimensions(price float64) model.Dimensions {
	switch {
	case price < 15:
		return model.Dimensions{Length: 6, Width: 4, Height: 1, Weight: 0.25}
	case price < 30:
		return model.Dimensions{Length: 10, Width: 6, Height: 3, Weight: 0.75}
	case price < 50:
		return model.Dimensions{Length: 12, Width: 8, Height: 4, Weight: 1.5}
	case price < 100:
		return model.Dimensions{Length: 14, Width: 10, Height: 6, Weight: 3}
	default:
		return model.Dimensions{Length: 18, Width: 14, Height: 8, Weight: 5}
	}
}

// CalculateProfit folds the fee breakdown into net profit, margin and ROI.
// A product is considered profitable only when net profit is positive and
// the margin reaches 20%.
func CalculateProfit(price, cogs float64, dims *model.Dimensions, category string) Profit {
	fees := Calculate(price, dims, category, false)

	net := price - fees.TotalFees - cogs
	margin := 0.0
	if price > 0 {
		margin = net / price * 100
	}
	roi := 0.0
	if cogs > 0 {
		roi = net / cogs * 100
	}

	return Profit{
		SellingPrice: price,
		COGS:         cogs,
		Fees:         fees,
		NetProfit:    round2(net),
		Margin:       round1(margin),
		ROI:          round1(roi),
		IsProfitable: net > 0 && margin >= 20,
	}
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
func round1(f float64) float64 { return math.Round(f*10) / 10 }
