package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/asinsight/asinsight/internal/model"
)

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return d
}

func fbaOfferHTML(price, seller string) string {
	return `<div class="aod-offer">
		<span class="a-price"><span class="a-offscreen">` + price + `</span></span>
		<i class="a-icon-prime"></i>
		<div class="aod-offer-soldBy"><a>` + seller + `</a></div>
	</div>`
}

func fbmOfferHTML(price, seller string) string {
	return `<div class="aod-offer">
		<span class="a-offscreen">` + price + `</span>
		<div class="aod-offer-soldBy"><a>` + seller + `</a></div>
	</div>`
}

func TestParseOffersAOD(t *testing.T) {
	html := "<html><body>" +
		fbaOfferHTML("$21.99", "BestDeals Store") +
		fbmOfferHTML("$19.49", "Garden Goods") +
		"</body></html>"

	offers := parseOffers(doc(t, html), model.SourceAOD)
	if len(offers) != 2 {
		t.Fatalf("got %d offers, want 2", len(offers))
	}

	if offers[0].Fulfillment != model.FulfillmentFBA {
		t.Errorf("prime-badged offer classified %v, want FBA", offers[0].Fulfillment)
	}
	if offers[0].Price == nil || *offers[0].Price != 21.99 {
		t.Errorf("offer price = %v, want 21.99", offers[0].Price)
	}
	if offers[0].SellerName != "BestDeals Store" {
		t.Errorf("seller = %q, want BestDeals Store", offers[0].SellerName)
	}
	if offers[0].Source != model.SourceAOD {
		t.Errorf("source = %v, want aod", offers[0].Source)
	}

	if offers[1].Fulfillment != model.FulfillmentFBM {
		t.Errorf("plain offer classified %v, want FBM default", offers[1].Fulfillment)
	}
}

func TestClassifyFulfillmentSignals(t *testing.T) {
	tests := []struct {
		name string
		html string
		want model.Fulfillment
	}{
		{"prime icon", `<div class="aod-offer"><i class="a-icon-prime"></i></div>`, model.FulfillmentFBA},
		{"aria label", `<div class="aod-offer"><span aria-label="Amazon Prime"></span></div>`, model.FulfillmentFBA},
		{"data attribute", `<div class="aod-offer"><span data-fulfillment="amazon"></span></div>`, model.FulfillmentFBA},
		{"text signal", `<div class="aod-offer"><span>Fulfilled by Amazon</span></div>`, model.FulfillmentFBA},
		{"class name", `<div class="aod-offer prime-offer"></div>`, model.FulfillmentFBA},
		{"no signals", `<div class="aod-offer"><span>Ships in 3 days</span></div>`, model.FulfillmentFBM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := doc(t, tt.html)
			block := d.Find("div.aod-offer").First()
			if got := classifyFulfillment(block); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractOfferPriceRange(t *testing.T) {
	tests := []struct {
		name string
		html string
		want *float64
	}{
		{"normal", `<div class="aod-offer"><span class="a-offscreen">$34.50</span></div>`, model.Float(34.50)},
		{"thousands", `<div class="aod-offer"><span class="a-offscreen">$1,299.00</span></div>`, model.Float(1299)},
		{"text fallback", `<div class="aod-offer"><span>New from $12.75 + shipping</span></div>`, model.Float(12.75)},
		{"too large", `<div class="aod-offer"><span class="a-offscreen">$99,999.00</span></div>`, nil},
		{"no price", `<div class="aod-offer"><span>Currently unavailable</span></div>`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := doc(t, tt.html)
			got := extractOfferPrice(d.Find("div.aod-offer").First())
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("got %v, want nil", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("got %v, want %v", got, *tt.want)
			}
		})
	}
}

func TestBuyBoxOfferSynthesis(t *testing.T) {
	html := `<html><body>
		<div id="merchant-info">Sold by Acme Housewares and Fulfilled by Amazon.</div>
		<span class="a-price"><span class="a-offscreen">$24.99</span></span>
	</body></html>`

	offer, ok := buyBoxOffer(doc(t, html))
	if !ok {
		t.Fatal("expected a synthesized buy-box offer")
	}
	if offer.Source != model.SourceBuyBoxGuess {
		t.Errorf("source = %v, want buy-box guess tag", offer.Source)
	}
	if offer.Price == nil || *offer.Price != 24.99 {
		t.Errorf("price = %v, want 24.99", offer.Price)
	}
	if offer.Fulfillment != model.FulfillmentFBA {
		t.Errorf("fulfillment = %v, want FBA from merchant text", offer.Fulfillment)
	}
}

func TestBuyBoxOfferNeedsPrice(t *testing.T) {
	if _, ok := buyBoxOffer(doc(t, `<html><body><p>out of stock</p></body></html>`)); ok {
		t.Error("no price on page should yield no synthesized offer")
	}
}
