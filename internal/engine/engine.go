// Package engine orchestrates research, classification and validation of products.
package engine

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/model"
	"github.com/Veraticus/mtr-normalizer/internal/service"
)

// Config holds configuration options for the pipeline.
type Config struct {
	BatchSize     int
	Workers       int
	MaxRetries    int
	CallTimeout   time.Duration
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:     10,
		Workers:       4,
		MaxRetries:    3,
		CallTimeout:   30 * time.Second,
		RetryDelay:    time.Second,
		MaxRetryDelay: 10 * time.Second,
	}
}

// Dependencies are the collaborators of a pipeline. Progress, Probe and
// Logger are optional.
type Dependencies struct {
	Detector   CategoryDetector
	Research   service.ResearchOracle
	Classifier Classifier
	Validator  Validator
	Progress   Progress
	Probe      Probe
	Logger     *slog.Logger
}

// Pipeline runs every product through research, classification and
// validation under a bounded number of concurrent items.
type Pipeline struct {
	deps   Dependencies
	logger *slog.Logger
	retry  service.RetryOptions
	config Config
}

// New creates a pipeline. Zero config values fall back to DefaultConfig.
func New(deps Dependencies, config Config) *Pipeline {
	defaults := DefaultConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = defaults.CallTimeout
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = defaults.RetryDelay
	}
	if config.MaxRetryDelay <= 0 {
		config.MaxRetryDelay = defaults.MaxRetryDelay
	}

	return &Pipeline{
		deps:   deps,
		config: config,
		logger: common.LoggerOrDefault(deps.Logger),
		retry: service.RetryOptions{
			MaxAttempts:  config.MaxRetries,
			InitialDelay: config.RetryDelay,
			MaxDelay:     config.MaxRetryDelay,
			Multiplier:   2.0,
		},
	}
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Process runs all products to a terminal state and returns them in input
// order. Products are updated in place. Batches run one after another;
// items inside a batch run concurrently.
func (p *Pipeline) Process(ctx context.Context, products []*model.Product) ([]*model.Product, RunStats) {
	start := time.Now()

	p.detectCategories(products)
	batches := p.makeBatches(products)

	p.logger.Info("starting processing",
		"total_products", len(products),
		"batches", len(batches),
		"workers", p.config.Workers)

	for _, batch := range batches {
		p.runBatch(ctx, batch)
	}

	stats := newRunStats(products, batches, time.Since(start))
	p.logger.Info("processing finished",
		"total", stats.Total,
		"successful", stats.Successful,
		"rejected", stats.Rejected,
		"failed", stats.Failed,
		"elapsed", stats.Elapsed.Round(time.Millisecond))

	return slices.Clone(products), stats
}

// detectCategories fills in categories that were not set by the caller.
func (p *Pipeline) detectCategories(products []*model.Product) {
	if p.deps.Detector == nil {
		return
	}
	for _, product := range products {
		if product.Category != model.CategoryUnknown || product.DetectionConfidence > 0 {
			continue
		}
		product.Category, product.DetectionConfidence = p.deps.Detector.Detect(product.OriginalName)
	}
}

// makeBatches groups products by category in order of first appearance and
// splits each group into batches of at most BatchSize.
func (p *Pipeline) makeBatches(products []*model.Product) []*model.ProcessingBatch {
	var order []model.Category
	groups := make(map[model.Category][]*model.Product)
	for _, product := range products {
		if _, ok := groups[product.Category]; !ok {
			order = append(order, product.Category)
		}
		groups[product.Category] = append(groups[product.Category], product)
	}

	var batches []*model.ProcessingBatch
	for _, category := range order {
		for i, chunk := range slices.Collect(slices.Chunk(groups[category], p.config.BatchSize)) {
			batches = append(batches, model.NewProcessingBatch(category, i, chunk))
		}
	}
	return batches
}

func (p *Pipeline) runBatch(ctx context.Context, batch *model.ProcessingBatch) {
	batch.StartedAt = time.Now()
	p.logger.Debug("processing batch",
		"batch_id", batch.ID,
		"category", batch.Category,
		"size", batch.TotalCount)

	var g errgroup.Group
	g.SetLimit(p.config.Workers)
	for _, product := range batch.Products {
		g.Go(func() error {
			p.processItem(ctx, product, batch.Category)
			return nil
		})
	}
	_ = g.Wait() // item failures are recorded on the products

	batch.FinishedAt = time.Now()
	batch.ProcessedCount = len(batch.Products)
	batch.FailedCount = 0
	for _, product := range batch.Products {
		if product.Status == model.StatusFailed {
			batch.FailedCount++
		}
	}

	p.logger.Info("batch finished",
		"batch_id", batch.ID,
		"processed", batch.ProcessedCount,
		"failed", batch.FailedCount,
		"success_rate", batch.SuccessRate(),
		"duration", batch.FinishedAt.Sub(batch.StartedAt).Round(time.Millisecond))
}
