package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/asinsight/asinsight/internal/model"
)

// amazonNames are seller-name substrings that identify Amazon itself as
// the merchant, across its retail entities and marketplaces.
var amazonNames = []string{
	"amazon.com services llc", "amazon services llc", "amazon.com services",
	"amazon eu sarl", "amazon marketplace", "amazon fulfillment",
	"amazon logistics", "amazon retail", "sold by amazon",
	"amazon.com.au", "amazon.com.br", "amazon.com.mx", "amazon.com.ca",
	"amazon.co.uk", "amazon.co.jp", "amazon.ca", "amazon.de", "amazon.fr",
	"amazon.it", "amazon.es", "amazon.nl", "amazon.se", "amazon.pl",
	"amazon.in", "amazon.com", "amazon",
}

// amazonBuyBoxPhrases mark the buy box as held by Amazon when present in
// the page's merchant sections.
var amazonBuyBoxPhrases = []string{
	"ships from and sold by amazon.com",
	"ships from and sold by amazon",
	"sold by amazon.com",
	"sold by: amazon.com",
	"sold by amazon",
	"sold by: amazon",
	"ships from amazon",
	"amazon.com services llc",
	"amazon.com services",
	"amazon services llc",
	"amazon eu sarl",
	"amazon marketplace",
	"amazon fulfillment",
	"amazon logistics",
	"amazon retail",
	"amazon.com, inc.",
	"amazon.com inc",
	"amazon digital services llc",
	"amazon digital services",
}

// isAmazonName reports whether a seller name is Amazon itself.
func isAmazonName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return false
	}
	for _, indicator := range amazonNames {
		if strings.Contains(n, indicator) {
			return true
		}
	}
	return false
}

// buyBox is the seller state read from a product page's buy box.
type buyBox struct {
	isAmazon    bool
	price       *float64
	fulfillment model.Fulfillment
}

// analyzeBuyBox reads the buy box seller, fulfillment, and price from a
// product page.
func analyzeBuyBox(doc *goquery.Document) buyBox {
	box := buyBox{fulfillment: model.FulfillmentFBM}

	// Only trust merchant-adjacent sections; matching the whole page text
	// produces false positives from unrelated Amazon mentions.
	sections := doc.Find("#merchant-info, #seller-info, span#merchant-info, span#seller-info, div.a-section.a-spacing-small, div.a-section.a-spacing-mini")
	sectionText := strings.ToLower(sections.Text())
	for _, phrase := range amazonBuyBoxPhrases {
		if strings.Contains(sectionText, phrase) {
			box.isAmazon = true
			break
		}
	}

	if pageLooksFBA(doc) {
		box.fulfillment = model.FulfillmentFBA
	}
	box.price = extractPagePrice(doc)
	return box
}

var (
	soldByRe       = regexp.MustCompile(`(?i)(?:ships from and sold by|sold by)\s+([^\n.]+)`)
	fulfilledTail  = regexp.MustCompile(`(?i)\s+and\s+Fulfilled.*$`)
	trailingClause = regexp.MustCompile(`(?i)\s+and\s+.*$`)
)

// extractSellerName pulls the buy-box seller's display name. Amazon itself
// never counts; callers track Amazon presence separately.
func extractSellerName(doc *goquery.Document) string {
	// merchant-info is the canonical location.
	if text := doc.Find("#merchant-info").Text(); text != "" {
		if m := soldByRe.FindStringSubmatch(text); m != nil {
			name := strings.TrimSpace(fulfilledTail.ReplaceAllString(m[1], ""))
			if name != "" && !isAmazonName(name) {
				return name
			}
		}
	}

	// The seller profile link.
	if name := strings.TrimSpace(doc.Find("a#sellerProfileTriggerId").Text()); name != "" && !isAmazonName(name) {
		return name
	}

	// Any div/span mentioning "Sold by".
	var found string
	doc.Find("div, span").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		text := el.Text()
		if !strings.Contains(text, "Sold by") && !strings.Contains(text, "Ships from and sold by") {
			return true
		}
		m := soldByRe.FindStringSubmatch(text)
		if m == nil {
			return true
		}
		name := strings.TrimSpace(trailingClause.ReplaceAllString(m[1], ""))
		if name != "" && !isAmazonName(name) {
			found = name
			return false
		}
		return true
	})
	return found
}

// ReconcileSellers aggregates extracted offers and the product page's buy
// box into one SellerInfo. The buy-box holder is assumed absent from the
// offer list, so totals count it separately.
func ReconcileSellers(doc *goquery.Document, offers []model.OfferRecord) *model.SellerInfo {
	info := &model.SellerInfo{
		Prices: model.PriceBuckets{FBA: []float64{}, FBM: []float64{}},
	}

	var box buyBox
	if doc != nil {
		box = analyzeBuyBox(doc)
		info.SellerName = extractSellerName(doc)
	}

	amazonInOffers := false
	for _, offer := range offers {
		switch offer.Fulfillment {
		case model.FulfillmentFBA:
			info.FBACount++
			if offer.Price != nil {
				info.Prices.FBA = append(info.Prices.FBA, *offer.Price)
			}
		case model.FulfillmentFBM:
			info.FBMCount++
			if offer.Price != nil {
				info.Prices.FBM = append(info.Prices.FBM, *offer.Price)
			}
		}
		if isAmazonName(offer.SellerName) {
			amazonInOffers = true
		}
	}

	info.TotalSellers = len(offers) + 1 // +1 for the buy-box seller
	info.AmazonSeller = box.isAmazon || amazonInOffers
	if box.isAmazon {
		info.Prices.Amazon = box.price
	}
	return info
}

// MeetsCriteria checks a seller profile against sourcing bounds.
func MeetsCriteria(info *model.SellerInfo, minFBA, maxFBA, minFBM, maxFBM int, allowAmazon bool) bool {
	if info == nil {
		return false
	}
	if info.FBACount < minFBA || info.FBACount > maxFBA {
		return false
	}
	if info.FBMCount < minFBM || info.FBMCount > maxFBM {
		return false
	}
	if !allowAmazon && info.AmazonSeller {
		return false
	}
	return true
}
