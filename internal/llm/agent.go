package llm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/model"
	"github.com/Veraticus/mtr-normalizer/internal/websearch"
)

const (
	// FallbackConfidence is reported when research falls back to what the
	// product name alone reveals.
	FallbackConfidence = 0.3
	defaultConfidence  = 0.7
)

// ProductSearcher gathers web evidence about a product.
type ProductSearcher interface {
	SearchProduct(ctx context.Context, name string, category model.Category) *websearch.Digest
}

// ResearchAgent implements service.ResearchOracle: it reads what it can
// from the name, searches the web and asks the model to structure it.
type ResearchAgent struct {
	client   Client
	searcher ProductSearcher
	logger   *slog.Logger
}

// NewResearchAgent creates an agent. searcher may be nil to skip web search.
func NewResearchAgent(client Client, searcher ProductSearcher, logger *slog.Logger) *ResearchAgent {
	return &ResearchAgent{
		client:   client,
		searcher: searcher,
		logger:   common.LoggerOrDefault(logger),
	}
}

// Research implements service.ResearchOracle. Transport failures are
// returned so the caller can retry; unusable answers degrade to name-derived
// facts at FallbackConfidence.
func (a *ResearchAgent) Research(ctx context.Context, product *model.Product, category model.Category) (*model.ResearchOutcome, error) {
	fromName := researchFromName(product.OriginalName)

	var digest *websearch.Digest
	if a.searcher != nil {
		digest = a.searcher.SearchProduct(ctx, product.OriginalName, category)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := a.client.Complete(ctx, Request{
		System: researchSystem,
		Prompt: buildResearchPrompt(product, category, digest),
	})
	if err != nil {
		if !isPermanent(err) {
			return nil, err
		}
		a.logger.Warn("research analysis failed, using name only",
			"product", product.OriginalName, "error", err)
		return withDigest(fromName, digest), nil
	}

	parsed, err := parseResearch(content)
	if err != nil {
		a.logger.Warn("research response unusable, using name only",
			"product", product.OriginalName, "error", err)
		return withDigest(fromName, digest), nil
	}

	outcome := &model.ResearchOutcome{
		Manufacturer:   firstNonEmpty(parsed.Manufacturer, fromName.Manufacturer),
		Model:          firstNonEmpty(parsed.Model, fromName.Model),
		ProductType:    parsed.ProductType,
		Specifications: stringifySpecs(parsed.Specifications),
		Confidence:     defaultConfidence,
	}
	if parsed.Confidence > 0 {
		outcome.Confidence = min(parsed.Confidence, 1.0)
	}
	if digest != nil {
		for k, v := range digest.Specifications {
			if _, ok := outcome.Specifications[k]; !ok {
				outcome.Specifications[k] = v
			}
		}
		outcome.Sources = sourceURLs(digest)
	}
	return outcome, nil
}

func researchFromName(name string) *model.ResearchOutcome {
	outcome := &model.ResearchOutcome{
		Specifications: make(map[string]string),
		Model:          websearch.ExtractModel(name),
		Confidence:     FallbackConfidence,
	}
	if brands := websearch.ExtractManufacturers(name); len(brands) > 0 {
		outcome.Manufacturer = brands[0]
	}
	return outcome
}

func withDigest(outcome *model.ResearchOutcome, digest *websearch.Digest) *model.ResearchOutcome {
	if digest == nil {
		return outcome
	}
	for k, v := range digest.Specifications {
		outcome.Specifications[k] = v
	}
	outcome.Sources = sourceURLs(digest)
	return outcome
}

func sourceURLs(digest *websearch.Digest) []string {
	urls := make([]string, 0, len(digest.Sources))
	for _, s := range digest.Sources {
		urls = append(urls, s.URL)
	}
	return urls
}

func isPermanent(err error) bool {
	var retryable *common.RetryableError
	return errors.As(err, &retryable) && !retryable.Retryable
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
