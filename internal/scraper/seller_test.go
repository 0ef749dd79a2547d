package scraper

import (
	"fmt"
	"strings"
	"testing"

	"github.com/asinsight/asinsight/internal/model"
)

func TestIsAmazonName(t *testing.T) {
	amazon := []string{
		"Amazon.com", "amazon", "Amazon.com Services LLC",
		"Amazon EU Sarl", "Amazon Fulfillment", "amazon.co.uk",
	}
	for _, name := range amazon {
		if !isAmazonName(name) {
			t.Errorf("isAmazonName(%q) = false, want true", name)
		}
	}

	thirdParty := []string{"", "BestDeals Store", "AMZ Traders", "The River Shop"}
	for _, name := range thirdParty {
		if isAmazonName(name) {
			t.Errorf("isAmazonName(%q) = true, want false", name)
		}
	}
}

func TestExtractSellerName(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			"merchant info",
			`<div id="merchant-info">Sold by Acme Housewares and Fulfilled by Amazon.</div>`,
			"Acme Housewares",
		},
		{
			"profile link",
			`<a id="sellerProfileTriggerId">Garden Goods LLC</a>`,
			"Garden Goods LLC",
		},
		{
			"ships from text",
			`<span>Ships from and sold by Kitchen Craft Co and more</span>`,
			"Kitchen Craft Co",
		},
		{
			"amazon is skipped",
			`<div id="merchant-info">Ships from and sold by Amazon.com.</div>`,
			"",
		},
		{
			"nothing",
			`<p>Currently unavailable.</p>`,
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractSellerName(doc(t, "<html><body>"+tt.html+"</body></html>"))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// Ten offers split evenly, nobody named Amazon, but Amazon holds the buy
// box: eleven sellers total, Amazon flagged, and its buy-box price kept.
func TestReconcileSellersAmazonBuyBox(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 5; i++ {
		b.WriteString(fbaOfferHTML(fmt.Sprintf("$%d.99", 20+i), fmt.Sprintf("FBA Seller %d", i)))
	}
	for i := 0; i < 5; i++ {
		b.WriteString(fbmOfferHTML(fmt.Sprintf("$%d.49", 18+i), fmt.Sprintf("FBM Seller %d", i)))
	}
	offers := parseOffers(doc(t, "<html><body>"+b.String()+"</body></html>"), model.SourceAOD)
	if len(offers) != 10 {
		t.Fatalf("fixture parsed %d offers, want 10", len(offers))
	}

	page := doc(t, `<html><body>
		<div id="merchant-info">Ships from and sold by Amazon.com.</div>
		<span class="a-price"><span class="a-offscreen">$24.99</span></span>
	</body></html>`)

	info := ReconcileSellers(page, offers)
	if info.FBACount != 5 || info.FBMCount != 5 {
		t.Errorf("counts = %d FBA / %d FBM, want 5/5", info.FBACount, info.FBMCount)
	}
	if info.TotalSellers != 11 {
		t.Errorf("total sellers = %d, want 11 (offers + buy box)", info.TotalSellers)
	}
	if !info.AmazonSeller {
		t.Error("Amazon buy box not flagged")
	}
	if info.Prices.Amazon == nil || *info.Prices.Amazon != 24.99 {
		t.Errorf("amazon price = %v, want 24.99", info.Prices.Amazon)
	}
	if len(info.Prices.FBA) != 5 || len(info.Prices.FBM) != 5 {
		t.Errorf("price buckets = %d FBA / %d FBM, want 5/5", len(info.Prices.FBA), len(info.Prices.FBM))
	}
	if info.SellerName != "" {
		t.Errorf("seller name = %q, want empty when Amazon holds the box", info.SellerName)
	}
}

func TestReconcileSellersPricelessOffersStayOutOfBuckets(t *testing.T) {
	offers := []model.OfferRecord{
		{Fulfillment: model.FulfillmentFBA, Price: model.Float(19.99)},
		{Fulfillment: model.FulfillmentFBA}, // no price
		{Fulfillment: model.FulfillmentFBM},
	}
	info := ReconcileSellers(nil, offers)

	if info.FBACount != 2 || info.FBMCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", info.FBACount, info.FBMCount)
	}
	if len(info.Prices.FBA) != 1 || len(info.Prices.FBM) != 0 {
		t.Errorf("buckets hold %d/%d prices, want numeric-only 1/0",
			len(info.Prices.FBA), len(info.Prices.FBM))
	}
	if info.TotalSellers != 4 {
		t.Errorf("total = %d, want 4", info.TotalSellers)
	}
}

func TestReconcileSellersAmazonInOfferList(t *testing.T) {
	offers := []model.OfferRecord{
		{Fulfillment: model.FulfillmentFBA, Price: model.Float(15), SellerName: "Amazon.com"},
	}
	info := ReconcileSellers(nil, offers)
	if !info.AmazonSeller {
		t.Error("Amazon-named offer should set the flag without a buy-box document")
	}
	if info.Prices.Amazon != nil {
		t.Error("amazon price bucket is buy-box only")
	}
}

func TestMeetsCriteria(t *testing.T) {
	info := &model.SellerInfo{FBACount: 4, FBMCount: 2}

	if !MeetsCriteria(info, 3, 5, 2, 3, false) {
		t.Error("in-range profile rejected")
	}
	if MeetsCriteria(info, 5, 8, 2, 3, false) {
		t.Error("low FBA count accepted")
	}

	info.AmazonSeller = true
	if MeetsCriteria(info, 3, 5, 2, 3, false) {
		t.Error("Amazon present but not allowed")
	}
	if !MeetsCriteria(info, 3, 5, 2, 3, true) {
		t.Error("Amazon allowed but rejected")
	}

	if MeetsCriteria(nil, 0, 10, 0, 10, true) {
		t.Error("nil info accepted")
	}
}
