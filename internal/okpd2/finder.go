package okpd2

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kljensen/snowball"

	"github.com/Veraticus/mtr-normalizer/internal/cache"
	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/model"
	"github.com/Veraticus/mtr-normalizer/internal/service"
)

// FinderOptions configures candidate discovery.
type FinderOptions struct {
	// Sources are queried once per search term and their results cached.
	Sources []service.CandidateSource
	// Advisors receive all terms joined in one call; failures are logged and ignored.
	Advisors   []service.CandidateSource
	Logger     *slog.Logger
	CacheTTL   time.Duration
	CacheLimit int
}

// Finder fans search terms out to candidate sources and merges the results.
type Finder struct {
	cache    *cache.TTL[[]model.Candidate]
	logger   *slog.Logger
	sources  []service.CandidateSource
	advisors []service.CandidateSource
}

// NewFinder creates a finder. Call Close to release the cache.
func NewFinder(opts FinderOptions) *Finder {
	return &Finder{
		cache:    cache.New[[]model.Candidate](opts.CacheTTL, opts.CacheLimit),
		logger:   common.LoggerOrDefault(opts.Logger),
		sources:  opts.Sources,
		advisors: opts.Advisors,
	}
}

// Find returns candidates for the terms, deduplicated by code in first-seen order.
func (f *Finder) Find(ctx context.Context, terms []string) ([]model.Candidate, error) {
	var all []model.Candidate

	for _, term := range terms {
		key := CacheKey(term)
		if cached, ok := f.cache.Get(key); ok {
			all = append(all, cached...)
			continue
		}

		var found []model.Candidate
		for _, src := range f.sources {
			candidates, err := src.FindCandidates(ctx, term)
			if err != nil {
				return nil, fmt.Errorf("candidate search for %q: %w", term, err)
			}
			found = append(found, candidates...)
		}
		f.cache.Set(key, found)
		all = append(all, found...)
	}

	if len(f.advisors) > 0 && len(terms) > 0 {
		joined := strings.Join(terms, ", ")
		for _, adv := range f.advisors {
			candidates, err := adv.FindCandidates(ctx, joined)
			if err != nil {
				f.logger.Warn("candidate advisor failed", "terms", joined, "error", err)
				continue
			}
			all = append(all, candidates...)
		}
	}

	return dedupe(all), nil
}

// Close stops the cache cleanup goroutine.
func (f *Finder) Close() {
	f.cache.Close()
}

// CacheKey reduces a search term to lowercase Russian stems so inflected
// forms of the same phrase share a cache entry.
func CacheKey(term string) string {
	words := strings.Fields(strings.ToLower(term))
	for i, w := range words {
		if stemmed, err := snowball.Stem(w, "russian", true); err == nil && stemmed != "" {
			words[i] = stemmed
		}
	}
	return strings.Join(words, " ")
}

func dedupe(candidates []model.Candidate) []model.Candidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Code == "" || seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		out = append(out, c)
	}
	return out
}
