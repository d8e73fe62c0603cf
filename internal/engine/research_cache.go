package engine

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/mtr-normalizer/internal/cache"
	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/model"
	"github.com/Veraticus/mtr-normalizer/internal/service"
)

// ResearchStore is the persistent half of the research cache.
type ResearchStore interface {
	GetResearch(ctx context.Context, originalName string) (*model.ResearchOutcome, error)
	SaveResearch(ctx context.Context, originalName string, category model.Category, research *model.ResearchOutcome) error
}

// CachedResearch memoizes a research oracle in memory and, when a store is
// given, across runs. Store failures are logged and never fail research.
type CachedResearch struct {
	oracle service.ResearchOracle
	store  ResearchStore
	memory *cache.TTL[*model.ResearchOutcome]
	logger *slog.Logger
}

// NewCachedResearch wraps oracle. store may be nil.
func NewCachedResearch(oracle service.ResearchOracle, store ResearchStore, ttl time.Duration, maxEntries int, logger *slog.Logger) *CachedResearch {
	return &CachedResearch{
		oracle: oracle,
		store:  store,
		memory: cache.New[*model.ResearchOutcome](ttl, maxEntries),
		logger: common.LoggerOrDefault(logger),
	}
}

// Research implements service.ResearchOracle.
func (c *CachedResearch) Research(ctx context.Context, product *model.Product, category model.Category) (*model.ResearchOutcome, error) {
	key := researchKey(product.OriginalName, category)
	if cached, ok := c.memory.Get(key); ok {
		return cloneResearch(cached), nil
	}

	if c.store != nil {
		stored, err := c.store.GetResearch(ctx, product.OriginalName)
		switch {
		case err == nil && stored != nil:
			c.memory.Set(key, stored)
			return cloneResearch(stored), nil
		case err != nil && !errors.Is(err, common.ErrNotFound):
			c.logger.Warn("research cache lookup failed", "product", product.OriginalName, "error", err)
		}
	}

	outcome, err := c.oracle.Research(ctx, product, category)
	if err != nil || outcome == nil {
		return outcome, err
	}

	c.memory.Set(key, cloneResearch(outcome))
	if c.store != nil {
		if err := c.store.SaveResearch(ctx, product.OriginalName, category, outcome); err != nil {
			c.logger.Warn("failed to persist research", "product", product.OriginalName, "error", err)
		}
	}
	return outcome, nil
}

// Close stops the in-memory cache.
func (c *CachedResearch) Close() {
	c.memory.Close()
}

func researchKey(name string, category model.Category) string {
	return string(category) + "|" + strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func cloneResearch(r *model.ResearchOutcome) *model.ResearchOutcome {
	out := *r
	out.Specifications = maps.Clone(r.Specifications)
	out.Sources = slices.Clone(r.Sources)
	return &out
}
