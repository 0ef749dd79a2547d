package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	neturl "net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/asinsight/asinsight/internal/model"
)

// FetchProduct fetches and extracts one product page, including its offer
// and seller reconciliation.
func (s *Service) FetchProduct(ctx context.Context, asin string) (*model.Product, error) {
	doc, err := s.fetchDocument(ctx, s.productURL(asin), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching product %s: %w", asin, err)
	}

	p := ExtractProduct(doc, asin)
	p.URL = s.productURL(asin)

	offers, err := s.ExtractOffers(ctx, asin, doc)
	if err != nil {
		// A product with no extractable offers still has page data worth
		// keeping; reconcile from the page alone.
		log.Printf("scraper: offers for %s: %v", asin, err)
	}
	p.SellerInfo = ReconcileSellers(doc, offers)

	if p.BSR != nil {
		p.EstimatedMonthlySales = EstimateSalesFromBSR(*p.BSR, p.Category)
	}
	return p, nil
}

// ExtractProduct pulls the typed product fields out of a product page.
func ExtractProduct(doc *goquery.Document, asin string) *model.Product {
	p := &model.Product{
		ASIN:        asin,
		Title:       strings.TrimSpace(doc.Find("#productTitle").Text()),
		Brand:       extractBrand(doc),
		Category:    extractCategory(doc),
		Price:       extractPagePrice(doc),
		Rating:      extractRating(doc.Find("span.a-icon-alt").First().Text()),
		ReviewCount: extractReviews(doc.Find("#acrCustomerReviewText").First().Text()),
		BSR:         extractBSR(doc),
		Description: strings.TrimSpace(doc.Find("#productDescription").Text()),
		Features:    extractFeatures(doc),
		ImagesCount: doc.Find("#altImages li.item, li.image").Length(),
	}
	return p
}

func extractBrand(doc *goquery.Document) string {
	if brand := strings.TrimSpace(doc.Find("#bylineInfo").Text()); brand != "" {
		brand = strings.TrimPrefix(brand, "Visit the ")
		brand = strings.TrimPrefix(brand, "Brand: ")
		brand = strings.TrimSuffix(brand, " Store")
		return strings.TrimSpace(brand)
	}
	return ""
}

func extractCategory(doc *goquery.Document) string {
	// First breadcrumb is the department.
	return strings.TrimSpace(doc.Find("#wayfinding-breadcrumbs_feature_div li a").First().Text())
}

var dollarPriceRe = regexp.MustCompile(`\$([\d,]+\.\d{2})`)

// extractPagePrice reads the buy-box price. Strategies run in reliability
// order: the screen-reader a-offscreen span, the whole/fraction pair, then
// any dollar figure in the price block. Values outside 0.50-5000 are
// rejected.
func extractPagePrice(doc *goquery.Document) *float64 {
	priceOK := func(p float64) bool { return p >= 0.50 && p <= 5000 }

	for _, sel := range []string{
		"#price_inside_buybox", "#priceblock_ourprice", "#newBuyBoxPrice",
		"span.a-price span.a-offscreen",
	} {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" {
			continue
		}
		if m := dollarPriceRe.FindStringSubmatch(text); m != nil {
			if p, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil && priceOK(p) {
				return &p
			}
		}
	}

	whole := digitsOnly(doc.Find("span.a-price-whole").First().Text())
	if whole != "" {
		frac := digitsOnly(doc.Find("span.a-price-fraction").First().Text())
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		if p, err := strconv.ParseFloat(whole+"."+frac, 64); err == nil && priceOK(p) {
			return &p
		}
	}

	if m := dollarPriceRe.FindStringSubmatch(doc.Find("span.a-price, span.a-color-price").Text()); m != nil {
		if p, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil && priceOK(p) {
			return &p
		}
	}
	return nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var ratingRe = regexp.MustCompile(`(\d+\.?\d*)`)

// extractRating parses "4.6 out of 5 stars" style text. Out-of-range
// values read as 0.
func extractRating(text string) float64 {
	m := ratingRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	r, err := strconv.ParseFloat(m[1], 64)
	if err != nil || r < 1.0 || r > 5.0 {
		return 0
	}
	return r
}

// extractReviews parses a review count like "1,234 ratings".
func extractReviews(text string) int {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}

var (
	bsrHashRe  = regexp.MustCompile(`#([\d,]+)`)
	bsrTextRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)best sellers rank\s*:?\s*#([\d,]+)`),
		regexp.MustCompile(`(?i)sales rank\s*:?\s*#([\d,]+)`),
		regexp.MustCompile(`#([\d,]+)\s+in\s+`),
		regexp.MustCompile(`#([\d,]+)\s*\(`),
	}
)

// extractBSR finds the Best Sellers Rank, trying dedicated elements, the
// product-details sections, then the whole page text. Ranks outside
// 1..10,000,000 are rejected as noise.
func extractBSR(doc *goquery.Document) *int {
	validBSR := func(n int) bool { return n >= 1 && n <= 10000000 }
	parse := func(raw string) (int, bool) {
		n, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
		if err != nil || !validBSR(n) {
			return 0, false
		}
		return n, true
	}

	// Dedicated rank elements.
	for _, sel := range []string{"#salesrank", "#SalesRank", "#productSalesRank"} {
		text := doc.Find(sel).Text()
		if m := bsrHashRe.FindStringSubmatch(text); m != nil {
			if n, ok := parse(m[1]); ok {
				return &n
			}
		}
	}

	// Product details sections.
	detailSelectors := []string{
		"#detailBullets_feature_div", "#productDetails_detailBullets_sections1",
		"table.prodDetTable", "table.a-keyvalue", "#productDetails_feature_div",
	}
	for _, sel := range detailSelectors {
		var found *int
		doc.Find(sel).EachWithBreak(func(_ int, section *goquery.Selection) bool {
			text := section.Text()
			lower := strings.ToLower(text)
			if !strings.Contains(lower, "best sellers rank") && !strings.Contains(lower, "sales rank") {
				return true
			}
			for _, re := range bsrTextRes {
				if m := re.FindStringSubmatch(text); m != nil {
					if n, ok := parse(m[1]); ok {
						found = &n
						return false
					}
				}
			}
			return true
		})
		if found != nil {
			return found
		}
	}

	// Whole-page fallback.
	pageText := doc.Text()
	for _, re := range bsrTextRes {
		for _, m := range re.FindAllStringSubmatch(pageText, -1) {
			if n, ok := parse(m[1]); ok {
				return &n
			}
		}
	}
	return nil
}

func extractFeatures(doc *goquery.Document) []string {
	var features []string
	doc.Find("#feature-bullets span.a-list-item").Each(func(_ int, el *goquery.Selection) {
		if text := strings.TrimSpace(el.Text()); text != "" {
			features = append(features, text)
		}
	})
	return features
}

// SearchProducts runs a keyword search and extracts the result cards across
// up to pages result pages. Results without a price are dropped; results
// without a rank get a heuristic one from their search position.
func (s *Service) SearchProducts(ctx context.Context, keyword string, pages int) ([]*model.Product, error) {
	if pages <= 0 || pages > s.cfg.MaxPages {
		pages = s.cfg.MaxPages
	}

	var products []*model.Product
	for page := 1; page <= pages; page++ {
		url := fmt.Sprintf("%s/s?k=%s&page=%d", s.cfg.BaseURL, neturl.QueryEscape(keyword), page)
		doc, err := s.fetchDocument(ctx, url, nil)
		if err != nil {
			if len(products) > 0 && !errors.Is(err, ErrServiceClosed) && ctx.Err() == nil {
				break // keep what earlier pages produced
			}
			return nil, fmt.Errorf("searching %q page %d: %w", keyword, page, err)
		}

		results := ExtractSearchResults(doc, s.cfg.BaseURL, page)
		products = append(products, results...)
	}
	return products, nil
}

// resultsPerPage is Amazon's nominal search-grid size, used for the
// position-based rank heuristic.
const resultsPerPage = 48

// ExtractSearchResults pulls product cards from one search result page.
func ExtractSearchResults(doc *goquery.Document, baseURL string, page int) []*model.Product {
	var products []*model.Product
	doc.Find("div[data-component-type='s-search-result']").Each(func(i int, item *goquery.Selection) {
		asin, ok := item.Attr("data-asin")
		if !ok || asin == "" {
			return
		}

		p := &model.Product{
			ASIN:        asin,
			Title:       strings.TrimSpace(item.Find("h2").First().Text()),
			Price:       extractCardPrice(item),
			Rating:      extractRating(item.Find("span.a-icon-alt").First().Text()),
			ReviewCount: extractReviews(item.Find("span.a-size-base, span.a-size-small").First().Text()),
			URL:         fmt.Sprintf("%s/dp/%s", baseURL, asin),
		}
		if p.Price == nil {
			return
		}

		// No rank on search pages; approximate from position so sales
		// estimation has something to chew on.
		rank := ((page-1)*resultsPerPage + i + 1) * 200
		p.BSR = model.Int(rank)
		p.EstimatedMonthlySales = EstimateSalesFromBSR(rank, p.Category)

		products = append(products, p)
	})
	return products
}

func extractCardPrice(item *goquery.Selection) *float64 {
	for _, sel := range []string{
		"span.a-price span.a-offscreen",
		"span.a-color-price",
		"span.a-offscreen",
	} {
		text := strings.TrimSpace(item.Find(sel).First().Text())
		if text == "" {
			continue
		}
		if m := dollarPriceRe.FindStringSubmatch(text); m != nil {
			if p, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil && p >= 0.50 && p <= 5000 {
				return &p
			}
		}
	}
	return nil
}

// salesCurve holds the constants of a sales = C * BSR^-k power-law fit.
type salesCurve struct {
	c float64
	k float64
}

var categoryCurves = map[string]salesCurve{
	"Health & Household":     {60000, 0.4},
	"Home & Kitchen":         {50000, 0.4},
	"Beauty & Personal Care": {55000, 0.4},
	"Sports & Outdoors":      {40000, 0.4},
	"Pet Supplies":           {45000, 0.4},
	"Toys & Games":           {45000, 0.45},
	"Electronics":            {35000, 0.35},
}

var defaultCurve = salesCurve{40000, 0.4}

// EstimateSalesFromBSR converts a rank into estimated monthly unit sales
// using per-category power-law curves. The top 100 ranks use a linear
// segment instead; estimates cap at 50,000.
func EstimateSalesFromBSR(bsr int, category string) int {
	if bsr <= 0 {
		return 0
	}
	if bsr < 100 {
		return 3000 + (100-bsr)*50
	}
	curve, ok := categoryCurves[category]
	if !ok {
		curve = defaultCurve
	}
	sales := int(curve.c * math.Pow(float64(bsr), -curve.k))
	if sales > 50000 {
		sales = 50000
	}
	if sales < 0 {
		sales = 0
	}
	return sales
}

var qualityKeywords = []string{
	"best", "premium", "professional", "quality", "new",
	"improved", "authentic", "original", "official", "genuine",
}

// ListingQuality scores listing completeness 0-10 from title length and
// keywords, image count, description length, and review standing.
func ListingQuality(p *model.Product) int {
	score := 0

	titleLen := len(p.Title)
	switch {
	case titleLen >= 50 && titleLen <= 150:
		score += 3
	case titleLen >= 30 && titleLen < 50:
		score += 2
	}
	lower := strings.ToLower(p.Title)
	for _, kw := range qualityKeywords {
		if strings.Contains(lower, kw) {
			score++
		}
	}

	if p.ImagesCount >= 6 {
		score += 2
	}

	switch descLen := len(p.Description); {
	case descLen >= 1000:
		score += 3
	case descLen >= 500:
		score += 2
	}

	if p.Rating >= 4.5 && p.ReviewCount >= 100 {
		score += 2
	}

	if score > 10 {
		score = 10
	}
	return score
}
