package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/model"
)

var (
	errNoResearch       = errors.New("research oracle returned no outcome")
	errNoClassification = errors.New("classifier returned no outcome")
)

// processItem drives one product to a terminal state. Errors and panics
// never escape; they mark the product FAILED.
func (p *Pipeline) processItem(ctx context.Context, product *model.Product, category model.Category) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("item pipeline panicked",
				"product_code", product.InternalCode,
				"panic", r,
				"stack", string(debug.Stack()))
			product.Fail(fmt.Errorf("internal error: %v", r))
		}
		product.ProcessedAt = time.Now()
		if p.deps.Progress != nil {
			p.deps.Progress.Advance(product)
		}
	}()

	if err := product.Transition(model.StatusProcessing); err != nil {
		product.Fail(err)
		return
	}

	if err := p.runItem(ctx, product, category); err != nil {
		common.LogError(err, "product processing failed", common.Fields{
			"product_code": product.InternalCode,
			"product_name": product.OriginalName,
			"category":     category,
		})
		product.Fail(err)
	}
}

func (p *Pipeline) runItem(ctx context.Context, product *model.Product, category model.Category) error {
	var research *model.ResearchOutcome
	err := p.call(ctx, StageResearch, func(ctx context.Context) error {
		var err error
		research, err = p.deps.Research.Research(ctx, product, category)
		if err == nil && research == nil {
			return common.Permanent(errNoResearch)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("research: %w", err)
	}
	mergeSpecifications(product, research)

	var classification *model.ClassificationOutcome
	err = p.call(ctx, StageClassification, func(ctx context.Context) error {
		var err error
		classification, err = p.deps.Classifier.Classify(ctx, product, category, research)
		if err == nil && classification == nil {
			return common.Permanent(errNoClassification)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("classification: %w", err)
	}
	product.ConfidenceScore = classification.Confidence

	outcome := p.deps.Validator.Validate(ctx, product, category, research, classification)
	unit := NormalizedUnit(product.OriginalUnit, category)

	if outcome.Valid {
		return product.Complete(classification.Code, unit)
	}

	product.NormalizedUnit = unit
	if err := product.Reject(outcome.RejectionReason, outcome.Issues); err != nil {
		return err
	}
	p.logger.Debug("product rejected",
		"product_code", product.InternalCode,
		"reason", outcome.RejectionReason,
		"issues", len(outcome.Issues),
		"suggestions", outcome.Suggestions)
	return nil
}

// call runs one external operation with a per-attempt timeout and retries.
func (p *Pipeline) call(ctx context.Context, stage Stage, op func(context.Context) error) error {
	return common.WithRetry(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, p.config.CallTimeout)
		defer cancel()

		if p.deps.Probe != nil {
			p.deps.Probe.Enter(stage)
			defer p.deps.Probe.Exit(stage)
		}
		return op(callCtx)
	}, p.retry)
}

// NormalizedUnit returns the category's standard unit when the original unit
// belongs to its canonical set, and the original unit otherwise.
func NormalizedUnit(original string, category model.Category) string {
	if category.AcceptsUnit(original) {
		return category.StandardUnit()
	}
	return original
}

func mergeSpecifications(product *model.Product, research *model.ResearchOutcome) {
	for k, v := range research.Specifications {
		product.SetSpecification(k, v)
	}
	product.SetSpecification("manufacturer", research.Manufacturer)
	product.SetSpecification("model", research.Model)
}
