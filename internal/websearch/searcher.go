package websearch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/Veraticus/mtr-normalizer/internal/common"
)

// DefaultSearchURL is the DuckDuckGo HTML endpoint.
const DefaultSearchURL = "https://html.duckduckgo.com/html/"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Result is one organic search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Config configures a Searcher.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit time.Duration
	Logger    *slog.Logger
}

// Searcher queries the DuckDuckGo HTML interface.
type Searcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	baseURL    string
}

// NewSearcher creates a searcher. Requests are spaced by cfg.RateLimit.
func NewSearcher(cfg Config) *Searcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultSearchURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 500 * time.Millisecond
	}
	return &Searcher{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Every(cfg.RateLimit), 1),
		logger:     common.LoggerOrDefault(cfg.Logger),
	}
}

// Search returns up to limit results for query.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	body, err := fetch(ctx, s.httpClient, s.limiter, s.baseURL, url.Values{"q": {query}})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer body.Close()

	results, err := parseResults(body, limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	s.logger.Debug("web search finished", "query", query, "results", len(results))
	return results, nil
}

func parseResults(r io.Reader, limit int) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var results []Result
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := sel.Find("a.result__a").First()
		if title.Length() == 0 {
			return true
		}
		href, _ := title.Attr("href")
		results = append(results, Result{
			Title:   strings.TrimSpace(title.Text()),
			URL:     href,
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
		})
		return limit <= 0 || len(results) < limit
	})
	return results, nil
}

// fetch waits for the limiter and performs a GET, returning the body on 200.
func fetch(ctx context.Context, client *http.Client, limiter *rate.Limiter, base string, params url.Values) (io.ReadCloser, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("request failed: %w", err), Retryable: true}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		resp.Body.Close()
		return nil, common.ErrRateLimit
	case resp.StatusCode >= 500:
		resp.Body.Close()
		return nil, &common.RetryableError{Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode), Retryable: true}
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, common.Permanent(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}
	return resp.Body, nil
}
