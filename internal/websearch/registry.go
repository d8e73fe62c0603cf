package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/Veraticus/mtr-normalizer/internal/model"
	"github.com/Veraticus/mtr-normalizer/internal/okpd2"
)

// DefaultRegistryURL is the OKPD2 search page of classifikators.ru.
const DefaultRegistryURL = "https://classifikators.ru/okpd"

const maxRegistryItems = 10

// Registry scrapes OKPD2 codes from classifikators.ru.
type Registry struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// NewRegistry creates a registry scraper.
func NewRegistry(cfg Config) *Registry {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultRegistryURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 500 * time.Millisecond
	}
	return &Registry{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Every(cfg.RateLimit), 1),
	}
}

// FindCandidates implements service.CandidateSource.
func (r *Registry) FindCandidates(ctx context.Context, term string) ([]model.Candidate, error) {
	body, err := fetch(ctx, r.httpClient, r.limiter, r.baseURL, url.Values{"q": {term}})
	if err != nil {
		return nil, fmt.Errorf("okpd2 registry %q: %w", term, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var candidates []model.Candidate
	doc.Find("div.okpd-item").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		code := strings.TrimSpace(sel.Find("span.code").First().Text())
		name := strings.TrimSpace(sel.Find("span.name").First().Text())
		if code != "" && name != "" {
			candidates = append(candidates, model.Candidate{
				Code:  code,
				Name:  name,
				Level: okpd2.CodeLevel(code),
			})
		}
		return len(candidates) < maxRegistryItems
	})
	return candidates, nil
}
