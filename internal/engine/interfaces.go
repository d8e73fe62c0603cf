package engine

import (
	"context"

	"github.com/Veraticus/mtr-normalizer/internal/model"
)

// CategoryDetector assigns a category to a product name.
type CategoryDetector interface {
	Detect(name string) (model.Category, float64)
}

// Classifier produces an OKPD2 classification for a researched product.
type Classifier interface {
	Classify(ctx context.Context, product *model.Product, category model.Category, research *model.ResearchOutcome) (*model.ClassificationOutcome, error)
}

// Validator decides whether a product is accepted. It must not fail.
type Validator interface {
	Validate(ctx context.Context, product *model.Product, category model.Category, research *model.ResearchOutcome, classification *model.ClassificationOutcome) model.ValidationOutcome
}

// Progress is notified each time a product reaches a terminal state.
type Progress interface {
	Advance(product *model.Product)
}

// Stage names an external call made by the item pipeline.
type Stage string

// Pipeline stages that suspend on external calls.
const (
	StageResearch       Stage = "research"
	StageClassification Stage = "classification"
)

// Probe observes external calls as they start and finish.
type Probe interface {
	Enter(stage Stage)
	Exit(stage Stage)
}
