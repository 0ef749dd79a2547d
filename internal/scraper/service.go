// Package scraper fetches Amazon listing pages and extracts typed product,
// offer, and seller data from their markup.
package scraper

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"

	"github.com/asinsight/asinsight/internal/cache"
	"github.com/asinsight/asinsight/internal/config"
	"github.com/asinsight/asinsight/internal/ratelimit"
)

// ErrServiceClosed is returned for requests made after Close.
var ErrServiceClosed = errors.New("scraper: service closed")

// ErrBlocked is returned when the marketplace serves a robot check instead
// of a product page.
var ErrBlocked = errors.New("scraper: request blocked")

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// Service owns the HTTP session, pacing, and shared caches for all page
// fetches against one marketplace.
type Service struct {
	cfg     config.Config
	client  *http.Client
	pacer   *rate.Limiter
	backoff *ratelimit.Limiter
	cache   *cache.Cache

	mu     sync.Mutex
	closed bool
}

// New builds a service from config. The endpoint cache is optional; the
// service runs without it if the file cannot be created.
func New(cfg config.Config) *Service {
	perMin := cfg.RequestsPerMinute
	if perMin <= 0 {
		perMin = 20
	}

	c, err := cache.New(cfg.EndpointCachePath)
	if err != nil {
		c = nil
	}

	return &Service{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		pacer:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), 1),
		backoff: ratelimit.New(cfg.MinDelay, cfg.MaxDelay),
		cache:   c,
	}
}

// Close stops the service. In-flight requests finish; later calls return
// ErrServiceClosed.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Service) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fetchDocument gets a URL and parses the response body as HTML. It paces
// requests, backs off after failures, and detects robot-check pages.
func (s *Service) fetchDocument(ctx context.Context, url string, header http.Header) (*goquery.Document, error) {
	if s.isClosed() {
		return nil, ErrServiceClosed
	}
	if err := s.pacer.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limit: %w", err)
	}
	s.backoff.Wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	s.setBrowserHeaders(req)
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Set(k, v)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.backoff.Backoff()
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.backoff.Backoff()
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	reader, err := s.decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		s.backoff.Backoff()
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if isRobotCheck(doc) {
		s.backoff.Backoff()
		return nil, fmt.Errorf("%w: %s", ErrBlocked, url)
	}

	s.backoff.Success()
	return doc, nil
}

func (s *Service) setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	// Locale cookies so prices render in USD and Prime badges appear.
	req.Header.Set("Cookie", "lc-main=en_US; i18n-prefs=USD; ubid-main=130-0000000-0000000")
}

func (s *Service) decodeBody(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

func isRobotCheck(doc *goquery.Document) bool {
	if doc.Find("form[action='/errors/validateCaptcha']").Length() > 0 {
		return true
	}
	title := doc.Find("title").Text()
	return title == "Robot Check" || title == "Sorry! Something went wrong!"
}

func (s *Service) productURL(asin string) string {
	return fmt.Sprintf("%s/dp/%s", s.cfg.BaseURL, asin)
}
