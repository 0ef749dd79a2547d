package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/asinsight/asinsight/internal/model"
)

// ErrNoOffers is returned when every extraction tier comes back empty.
var ErrNoOffers = errors.New("scraper: no offers found")

// aodEndpoints are the All Offers Display AJAX variants, tried in order.
// The isPrimeEligible variants surface FBA offers that the plain endpoint
// sometimes hides.
var aodEndpoints = []string{
	"%s/gp/aod/ajax/ref=dp_aod_NEW_mbc?asin=%s",
	"%s/gp/aod/ajax?asin=%s",
	"%s/gp/aod/ajax/ref=dp_aod?asin=%s",
	"%s/gp/aod/ajax/ref=dp_aod_all?asin=%s",
	"%s/gp/aod/ajax/ref=dp_aod_new?asin=%s",
	"%s/gp/aod/ajax?asin=%s&isPrimeEligible=true",
	"%s/gp/aod/ajax/ref=dp_aod?asin=%s&isPrimeEligible=true",
}

// offerIndicators mark an AOD response as actually containing offer markup.
var offerIndicators = []string{"aod-offer", "olpOffer", "offer", "seller", "prime"}

// offerContainerSelectors locate individual offer blocks, across the AOD,
// offer-listing, and more-buying-choices layouts. First selector with hits
// wins.
var offerContainerSelectors = []string{
	"div.aod-offer",
	"div[class*='aod-offer']",
	"div.olpOffer",
	"li.olpOfferRow",
	"div[class*='olpOfferRow']",
	"div.mbc-offer-row",
	"div[class*='mbc-offer']",
}

func endpointCacheKey(asin string) string { return "aod-endpoint:" + asin }

// ExtractOffers walks the offer sources for an ASIN from most to least
// reliable: AOD AJAX variants, the all-offers iframe, the offer-listing
// page, then offer sections embedded in the product page. When everything
// fails it synthesizes a single offer from the buy box, tagged
// SourceBuyBoxGuess. productDoc may be nil if the product page was not
// already fetched.
func (s *Service) ExtractOffers(ctx context.Context, asin string, productDoc *goquery.Document) ([]model.OfferRecord, error) {
	header := s.aodHeaders(asin)

	// Tier 1: AOD AJAX endpoints. Remember which variant worked last time
	// and try it first.
	order := make([]int, 0, len(aodEndpoints))
	var preferred int
	if s.cache != nil && s.cache.Get(endpointCacheKey(asin), &preferred) && preferred < len(aodEndpoints) {
		order = append(order, preferred)
	}
	for i := range aodEndpoints {
		if len(order) > 0 && i == order[0] {
			continue
		}
		order = append(order, i)
	}

	for _, i := range order {
		url := fmt.Sprintf(aodEndpoints[i], s.cfg.BaseURL, asin)
		doc, err := s.fetchDocument(ctx, url, header)
		if err != nil {
			if errors.Is(err, ErrServiceClosed) || ctx.Err() != nil {
				return nil, err
			}
			continue
		}
		if !hasOfferMarkup(doc) {
			continue
		}
		if offers := parseOffers(doc, model.SourceAOD); len(offers) > 0 {
			if s.cache != nil {
				_ = s.cache.Put(endpointCacheKey(asin), i, 24*time.Hour)
			}
			return offers, nil
		}
	}

	// Tier 2: the all-offers iframe referenced from the product page.
	if productDoc != nil {
		if src, ok := productDoc.Find("iframe#all-offers-display-scroller").Attr("src"); ok && src != "" {
			if strings.HasPrefix(src, "/") {
				src = s.cfg.BaseURL + src
			}
			if doc, err := s.fetchDocument(ctx, src, header); err == nil {
				if offers := parseOffers(doc, model.SourceIframe); len(offers) > 0 {
					return offers, nil
				}
			} else if errors.Is(err, ErrServiceClosed) || ctx.Err() != nil {
				return nil, err
			}
		}
	}

	// Tier 3: the standalone offer-listing page.
	listingURL := fmt.Sprintf("%s/gp/offer-listing/%s", s.cfg.BaseURL, asin)
	if doc, err := s.fetchDocument(ctx, listingURL, header); err == nil {
		if offers := parseOffers(doc, model.SourceOfferListing); len(offers) > 0 {
			return offers, nil
		}
	} else if errors.Is(err, ErrServiceClosed) || ctx.Err() != nil {
		return nil, err
	}

	// Tier 4: offer sections embedded in the product page itself.
	if productDoc != nil {
		if offers := parseEmbeddedOffers(productDoc); len(offers) > 0 {
			return offers, nil
		}

		// Tier 5: synthesize one offer from the buy box so downstream
		// reconciliation still has something to work with.
		if offer, ok := buyBoxOffer(productDoc); ok {
			return []model.OfferRecord{offer}, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNoOffers, asin)
}

func (s *Service) aodHeaders(asin string) http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,*/*")
	h.Set("Referer", s.productURL(asin))
	h.Set("X-Requested-With", "XMLHttpRequest")
	return h
}

func hasOfferMarkup(doc *goquery.Document) bool {
	html, err := doc.Html()
	if err != nil {
		return false
	}
	for _, ind := range offerIndicators {
		if strings.Contains(html, ind) {
			return true
		}
	}
	return false
}

// parseOffers extracts one OfferRecord per offer block in an AOD or
// offer-listing document.
func parseOffers(doc *goquery.Document, source model.OfferSource) []model.OfferRecord {
	var blocks *goquery.Selection
	for _, sel := range offerContainerSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			blocks = found
			break
		}
	}
	if blocks == nil {
		return nil
	}

	var offers []model.OfferRecord
	blocks.Each(func(_ int, block *goquery.Selection) {
		offers = append(offers, parseOfferBlock(block, source))
	})
	return offers
}

// parseEmbeddedOffers scans the main product page's offer sections.
func parseEmbeddedOffers(doc *goquery.Document) []model.OfferRecord {
	sections := []string{
		"#aod-offer-list", "#olp_feature_div",
		"#mbc", "#mbc-offers-container",
		"#other-sellers", "#aod-container",
	}
	var offers []model.OfferRecord
	for _, sel := range sections {
		section := doc.Find(sel)
		if section.Length() == 0 {
			continue
		}
		entries := section.Find("div.aod-offer, div.olp-new, div.mbc-offer-row, div.olpOffer, li.olpOfferRow")
		entries.Each(func(_ int, block *goquery.Selection) {
			offers = append(offers, parseOfferBlock(block, model.SourceProductPage))
		})
		if len(offers) > 0 {
			break
		}
	}
	return offers
}

// buyBoxOffer synthesizes a single offer from the product page's buy box.
// The result is a guess: the record is tagged so consumers can discount it.
func buyBoxOffer(doc *goquery.Document) (model.OfferRecord, bool) {
	price := extractPagePrice(doc)
	if price == nil {
		return model.OfferRecord{}, false
	}
	offer := model.OfferRecord{
		Fulfillment: model.FulfillmentFBM,
		Price:       price,
		Source:      model.SourceBuyBoxGuess,
	}
	if pageLooksFBA(doc) {
		offer.Fulfillment = model.FulfillmentFBA
	}
	return offer, true
}

func parseOfferBlock(block *goquery.Selection, source model.OfferSource) model.OfferRecord {
	offer := model.OfferRecord{
		Fulfillment: classifyFulfillment(block),
		Price:       extractOfferPrice(block),
		SellerName:  extractOfferSeller(block),
		Source:      source,
	}
	return offer
}

// offerPriceSelectors are tried in order inside one offer block.
var offerPriceSelectors = []string{
	"span.a-price-whole",
	"span.a-offscreen",
	"span.a-color-price",
	"span.olpOfferPrice",
	"span.a-price",
	"div.a-price-whole",
	"div.a-offscreen",
	"span[class*='price']",
	"div[class*='price']",
}

var priceNumberRe = regexp.MustCompile(`\$?([\d,]+\.?\d*)`)

// extractOfferPrice pulls a numeric price from an offer block, falling back
// to any dollar figure in the block's text. Values outside 0.01-10000 are
// rejected as parse noise.
func extractOfferPrice(block *goquery.Selection) *float64 {
	for _, sel := range offerPriceSelectors {
		elem := block.Find(sel).First()
		if elem.Length() == 0 {
			continue
		}
		if price, ok := parsePriceText(elem.Text()); ok {
			return &price
		}
	}

	// Any dollar amount anywhere in the block.
	matches := priceNumberRe.FindAllStringSubmatch(block.Text(), -1)
	for _, m := range matches {
		price, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err == nil && price >= 0.01 && price <= 10000 {
			return &price
		}
	}
	return nil
}

func parsePriceText(text string) (float64, bool) {
	m := priceNumberRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, false
	}
	price, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || price < 0.01 || price > 10000 {
		return 0, false
	}
	return price, true
}

// fbaTextSignals in an offer's text mark the offer as Amazon-fulfilled.
var fbaTextSignals = []string{
	"fulfilled by amazon", "fba", "amazon fba",
	"prime eligible", "prime delivery", "amazon prime",
	"ships from amazon", "prime shipping", "prime member",
	"amazon.com", "sold by amazon", "amazon seller",
}

// classifyFulfillment decides FBA versus FBM for one offer block. Ambiguous
// offers default to FBM.
func classifyFulfillment(block *goquery.Selection) model.Fulfillment {
	// Prime badge icons.
	if block.Find("i.a-icon-prime, i.a-icon-premium, span.a-icon-prime, span.a-icon-premium").Length() > 0 {
		return model.FulfillmentFBA
	}
	// aria-labels on badges and SVG logos.
	fba := false
	block.Find("span[aria-label], i[aria-label], svg[aria-label]").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		label, _ := el.Attr("aria-label")
		label = strings.ToLower(label)
		if strings.Contains(label, "prime") || strings.Contains(label, "fulfilled by amazon") {
			fba = true
			return false
		}
		return true
	})
	if fba {
		return model.FulfillmentFBA
	}
	// Data attributes present in AOD markup.
	dataAttrSelectors := []string{
		"[data-fulfillment='amazon']",
		"[data-fulfillment-method='amazon']",
		"[data-isprimeoffer='1']",
		"[data-isprimeoffer='true']",
		"[data-prime='true']",
		"[data-fba='true']",
	}
	for _, sel := range dataAttrSelectors {
		if block.Find(sel).Length() > 0 || block.Is(sel) {
			return model.FulfillmentFBA
		}
	}
	// Text signals.
	text := strings.ToLower(block.Text())
	for _, signal := range fbaTextSignals {
		if strings.Contains(text, signal) {
			return model.FulfillmentFBA
		}
	}
	// Class names on the block itself.
	if class, ok := block.Attr("class"); ok {
		lower := strings.ToLower(class)
		for _, kw := range []string{"prime", "fba", "amazon", "fulfilled"} {
			if strings.Contains(lower, kw) {
				return model.FulfillmentFBA
			}
		}
	}
	return model.FulfillmentFBM
}

// extractOfferSeller finds the seller name inside an offer block, if the
// markup exposes one.
func extractOfferSeller(block *goquery.Selection) string {
	selectors := []string{
		".aod-offer-soldBy a", ".aod-offer-soldBy",
		".olpSellerName a", ".olpSellerName",
		".aod-seller-name",
		"[id*='soldBy']", "[id*='soldby']",
	}
	for _, sel := range selectors {
		elem := block.Find(sel).First()
		if elem.Length() == 0 {
			continue
		}
		if name := normalizeSeller(elem.Text()); name != "" {
			return name
		}
	}
	return ""
}

func normalizeSeller(text string) string {
	name := strings.TrimSpace(text)
	name = strings.TrimPrefix(name, "Sold by")
	name = strings.TrimPrefix(name, "Ships from")
	return strings.TrimSpace(name)
}

// pageLooksFBA checks the product page for buy-box-level Prime/FBA markers.
func pageLooksFBA(doc *goquery.Document) bool {
	if doc.Find("i.a-icon-prime, i.a-icon-premium, span.a-icon-prime, span.a-icon-premium").Length() > 0 {
		return true
	}
	return strings.Contains(strings.ToLower(doc.Find("#merchant-info, #seller-info").Text()), "fulfilled by amazon")
}
