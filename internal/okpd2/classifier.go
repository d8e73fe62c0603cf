package okpd2

import (
	"context"

	"github.com/Veraticus/mtr-normalizer/internal/model"
)

// Classifier discovers candidates for a product and selects the best code.
type Classifier struct {
	finder   *Finder
	selector *Selector
}

// NewClassifier creates a classifier.
func NewClassifier(finder *Finder, selector *Selector) *Classifier {
	if selector == nil {
		selector = NewSelector()
	}
	return &Classifier{finder: finder, selector: selector}
}

// Classify runs candidate discovery followed by selection.
// Only discovery can fail; selection always yields an outcome.
func (c *Classifier) Classify(ctx context.Context, product *model.Product, category model.Category, research *model.ResearchOutcome) (*model.ClassificationOutcome, error) {
	terms := SearchTerms(product, research, category)
	candidates, err := c.finder.Find(ctx, terms)
	if err != nil {
		return nil, err
	}
	outcome := c.selector.Select(candidates, product, category, research)
	return &outcome, nil
}
