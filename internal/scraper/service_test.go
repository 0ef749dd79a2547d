package scraper

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/asinsight/asinsight/internal/config"
	"github.com/asinsight/asinsight/internal/model"
)

func testService(t *testing.T, baseURL string) *Service {
	t.Helper()
	cfg := config.Config{
		BaseURL:           baseURL,
		RequestTimeout:    5 * time.Second,
		RequestsPerMinute: 100000,
		MinDelay:          0,
		MaxDelay:          0,
		MaxPages:          2,
		EndpointCachePath: filepath.Join(t.TempDir(), "endpoints.json"),
	}
	s := New(cfg)
	t.Cleanup(s.Close)
	return s
}

func TestFetchDocumentGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("request sent without a user agent")
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte(`<html><head><title>ok</title></head><body><p id="x">hello</p></body></html>`))
		gz.Close()
	}))
	defer srv.Close()

	s := testService(t, srv.URL)
	doc, err := s.fetchDocument(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := doc.Find("p#x").Text(); got != "hello" {
		t.Errorf("body text = %q, want hello", got)
	}
}

func TestFetchDocumentRobotCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Robot Check</title></head><body></body></html>`))
	}))
	defer srv.Close()

	s := testService(t, srv.URL)
	_, err := s.fetchDocument(context.Background(), srv.URL, nil)
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("got %v, want ErrBlocked", err)
	}
}

func TestClosedServiceRefusesRequests(t *testing.T) {
	s := testService(t, "http://example.invalid")
	s.Close()

	_, err := s.fetchDocument(context.Background(), "http://example.invalid/dp/X", nil)
	if !errors.Is(err, ErrServiceClosed) {
		t.Fatalf("got %v, want ErrServiceClosed", err)
	}
	_, err = s.FetchProduct(context.Background(), "B000000000")
	if !errors.Is(err, ErrServiceClosed) {
		t.Fatalf("FetchProduct after close: got %v, want ErrServiceClosed", err)
	}
}

// With no AOD, iframe, or offer-listing markup available, the product fetch
// still returns a reconciled product via the buy-box fallback.
func TestFetchProductBuyBoxFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/dp/") {
			w.Write([]byte(productPageHTML))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := testService(t, srv.URL)
	p, err := s.FetchProduct(context.Background(), "B0TESTMAT01")
	if err != nil {
		t.Fatalf("FetchProduct: %v", err)
	}

	if p.Brand != "HomeBake" {
		t.Errorf("brand = %q", p.Brand)
	}
	if p.SellerInfo == nil {
		t.Fatal("seller info missing")
	}
	// One synthesized offer plus the buy-box seller.
	if p.SellerInfo.TotalSellers != 2 {
		t.Errorf("total sellers = %d, want 2", p.SellerInfo.TotalSellers)
	}
	if p.EstimatedMonthlySales <= 0 {
		t.Error("expected sales estimate from extracted rank")
	}
}

func TestExtractOffersPrefersAOD(t *testing.T) {
	aodHTML := "<html><body>" +
		fbaOfferHTML("$21.99", "BestDeals Store") +
		fbmOfferHTML("$19.49", "Garden Goods") +
		"</body></html>"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/gp/aod/ajax") {
			w.Write([]byte(aodHTML))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := testService(t, srv.URL)
	offers, err := s.ExtractOffers(context.Background(), "B0TESTMAT01", nil)
	if err != nil {
		t.Fatalf("ExtractOffers: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("got %d offers, want 2", len(offers))
	}
	for _, o := range offers {
		if o.Source != model.SourceAOD {
			t.Errorf("offer source = %v, want aod", o.Source)
		}
	}
}

func TestExtractOffersNoSources(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	s := testService(t, srv.URL)
	_, err := s.ExtractOffers(context.Background(), "B0TESTMAT01", nil)
	if !errors.Is(err, ErrNoOffers) {
		t.Fatalf("got %v, want ErrNoOffers", err)
	}
}
