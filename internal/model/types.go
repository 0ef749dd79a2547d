package model

import "sort"

// Fulfillment is how an offer ships: from Amazon's warehouses or from the
// merchant directly.
type Fulfillment string

const (
	FulfillmentFBA Fulfillment = "FBA"
	FulfillmentFBM Fulfillment = "FBM"
)

// OfferSource records which extraction tier produced an offer. The buy-box
// guess tier is a degraded path and should be discounted downstream.
type OfferSource string

const (
	SourceAOD          OfferSource = "aod"
	SourceIframe       OfferSource = "iframe"
	SourceOfferListing OfferSource = "offer-listing"
	SourceProductPage  OfferSource = "product-page"
	SourceBuyBoxGuess  OfferSource = "buybox-guess"
)

// OfferRecord is one seller's listing for a product. Price is nil when no
// numeric price could be recovered. Offers with no FBA signal default to FBM.
type OfferRecord struct {
	Fulfillment Fulfillment
	Price       *float64
	SellerName  string
	Source      OfferSource
}

// PriceBuckets holds only prices that parsed as numbers; failed parses are
// dropped, never stored as placeholders. Amazon is set only when the buy box
// seller is Amazon.
type PriceBuckets struct {
	FBA    []float64 `json:"fba"`
	FBM    []float64 `json:"fbm"`
	Amazon *float64  `json:"amazon"`
}

// SellerInfo is the reconciled seller-market state for one product at scrape
// time. It is rebuilt on every extraction call and never cached.
type SellerInfo struct {
	FBACount int `json:"fba_count"`
	FBMCount int `json:"fbm_count"`
	// TotalSellers is the parsed offer count plus one for the buy box
	// seller. The buy box seller may already appear in the offer list, so
	// this is best-effort, not an exact dedup.
	TotalSellers int          `json:"total_sellers"`
	AmazonSeller bool         `json:"amazon_seller"`
	Prices       PriceBuckets `json:"prices"`
	SellerName   string       `json:"seller_name,omitempty"`
}

// Dimensions in inches and pounds.
type Dimensions struct {
	Length float64
	Width  float64
	Height float64
	Weight float64
}

func (d Dimensions) sorted() [3]float64 {
	s := []float64{d.Length, d.Width, d.Height}
	sort.Float64s(s)
	return [3]float64{s[0], s[1], s[2]}
}

func (d Dimensions) LongestSide() float64  { return d.sorted()[2] }
func (d Dimensions) MedianSide() float64   { return d.sorted()[1] }
func (d Dimensions) ShortestSide() float64 { return d.sorted()[0] }

// DimensionalWeight applies the L*W*H/139 divisor used for parcel billing.
func (d Dimensions) DimensionalWeight() float64 {
	return d.Length * d.Width * d.Height / 139
}

// BillableWeight is the greater of actual and dimensional weight. It never
// falls below the physical weight.
func (d Dimensions) BillableWeight() float64 {
	if dw := d.DimensionalWeight(); dw > d.Weight {
		return dw
	}
	return d.Weight
}

func (d Dimensions) Girth() float64 {
	return (d.ShortestSide() + d.MedianSide()) * 2
}

func (d Dimensions) LengthPlusGirth() float64 {
	return d.LongestSide() + d.Girth()
}

func (d Dimensions) CubicFeet() float64 {
	return d.Length * d.Width * d.Height / 1728
}

// Product is one marketplace listing snapshot. Built once at the extraction
// boundary; the scorer reads it and never mutates it. Nil pointer fields mean
// the value could not be extracted, which consumers must tolerate.
type Product struct {
	ASIN        string   `json:"asin"`
	Title       string   `json:"title"`
	Brand       string   `json:"brand,omitempty"`
	Category    string   `json:"category,omitempty"`
	Price       *float64 `json:"price"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"reviews"`
	BSR         *int     `json:"bsr"`

	EstimatedMonthlySales int      `json:"estimated_monthly_sales"`
	ProfitMargin          *float64 `json:"profit_margin"`

	ImagesCount int      `json:"images_count"`
	Description string   `json:"description,omitempty"`
	Features    []string `json:"features,omitempty"`

	Dimensions *Dimensions `json:"dimensions,omitempty"`
	SellerInfo *SellerInfo `json:"seller_info,omitempty"`
	URL        string      `json:"url,omitempty"`
}

// PriceValue returns the price or 0 when unset.
func (p *Product) PriceValue() float64 {
	if p.Price == nil {
		return 0
	}
	return *p.Price
}

// BSRValue returns the rank or 0 when unset.
func (p *Product) BSRValue() int {
	if p.BSR == nil {
		return 0
	}
	return *p.BSR
}

// MarginValue returns the profit margin percentage or 0 when unset.
func (p *Product) MarginValue() float64 {
	if p.ProfitMargin == nil {
		return 0
	}
	return *p.ProfitMargin
}

// Float and Int build optional fields from literals.
func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }
