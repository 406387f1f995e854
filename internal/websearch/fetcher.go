package websearch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"

	"github.com/finch0/finch/internal/security"
)

// MaxFetchURLs bounds a single Fetch call.
const MaxFetchURLs = 5

// maxPageContent caps extracted page text in bytes.
const maxPageContent = 4096

// FetcherConfig tunes the page fetcher.
type FetcherConfig struct {
	// Parallelism is max concurrent requests per domain.
	Parallelism int
	// Delay between requests to the same domain.
	Delay time.Duration
	// Timeout per request.
	Timeout time.Duration
}

// Page is readable text extracted from a fetched URL.
type Page struct {
	URL     string
	Title   string
	Content string
}

// FailedURL records a URL that could not be fetched and why.
type FailedURL struct {
	URL    string
	Reason string
}

// Fetcher retrieves pages named by search results and extracts their
// readable text. All targets are attacker-influencable, so every request
// goes through SSRF validation, including redirects and DNS resolution.
type Fetcher struct {
	cfg       FetcherConfig
	validator *security.URL
	logger    *slog.Logger

	// skipSSRFCheck disables URL validation and the safe transport so
	// tests can target httptest servers on loopback. Never set outside
	// newFetcherForTesting.
	skipSSRFCheck bool
}

// NewFetcher creates a page fetcher. Zero-value config fields get defaults.
func NewFetcher(cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 2
	}
	if cfg.Delay <= 0 {
		cfg.Delay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		cfg:       cfg,
		validator: security.NewURL(),
		logger:    logger,
	}
}

// Fetch retrieves the given URLs concurrently and returns extracted pages
// alongside per-URL failures. Unsafe URLs are reported as failed, never
// requested.
func (f *Fetcher) Fetch(ctx context.Context, urls []string) ([]Page, []FailedURL, error) {
	if len(urls) == 0 {
		return nil, nil, fmt.Errorf("no URLs to fetch")
	}
	if len(urls) > MaxFetchURLs {
		return nil, nil, fmt.Errorf("too many URLs: %d (max %d)", len(urls), MaxFetchURLs)
	}

	var (
		mu     sync.Mutex
		pages  []Page
		failed []FailedURL
	)

	c := colly.NewCollector(colly.Async(true), colly.StdlibContext(ctx))
	c.SetRequestTimeout(f.cfg.Timeout)
	if !f.skipSSRFCheck {
		c.WithTransport(f.validator.SafeTransport())
		c.SetRedirectHandler(f.validator.ValidateRedirect)
	}
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: f.cfg.Parallelism,
		Delay:       f.cfg.Delay,
	}); err != nil {
		return nil, nil, fmt.Errorf("configuring fetch limits: %w", err)
	}

	c.OnResponse(func(r *colly.Response) {
		article, err := readability.FromReader(bytes.NewReader(r.Body), r.Request.URL)
		if err != nil {
			mu.Lock()
			failed = append(failed, FailedURL{
				URL:    r.Request.URL.String(),
				Reason: fmt.Sprintf("content extraction failed: %v", err),
			})
			mu.Unlock()
			return
		}

		content := strings.TrimSpace(article.TextContent)
		if len(content) > maxPageContent {
			content = content[:maxPageContent]
		}

		mu.Lock()
		pages = append(pages, Page{
			URL:     r.Request.URL.String(),
			Title:   article.Title,
			Content: content,
		})
		mu.Unlock()
	})

	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		failed = append(failed, FailedURL{
			URL:    r.Request.URL.String(),
			Reason: err.Error(),
		})
		mu.Unlock()
	})

	for _, u := range urls {
		if err := f.validateURL(u); err != nil {
			f.logger.Warn("fetch URL blocked", "url", u, "error", err)
			mu.Lock()
			failed = append(failed, FailedURL{URL: u, Reason: fmt.Sprintf("blocked: %v", err)})
			mu.Unlock()
			continue
		}
		if err := c.Visit(u); err != nil {
			mu.Lock()
			failed = append(failed, FailedURL{URL: u, Reason: err.Error()})
			mu.Unlock()
		}
	}
	c.Wait()

	return pages, failed, nil
}

func (f *Fetcher) validateURL(u string) error {
	if f.skipSSRFCheck {
		return nil
	}
	return f.validator.Validate(u)
}
