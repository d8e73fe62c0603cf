// Package service defines the capability interfaces used by the normalization pipeline.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/mtr-normalizer/internal/model"
)

// ResearchOracle gathers a structured specification draft for a product.
type ResearchOracle interface {
	Research(ctx context.Context, product *model.Product, category model.Category) (*model.ResearchOutcome, error)
}

// CandidateSource returns OKPD2 code candidates for a search term.
type CandidateSource interface {
	FindCandidates(ctx context.Context, term string) ([]model.Candidate, error)
}

// SuggestionOracle proposes remediation steps for a rejected product.
type SuggestionOracle interface {
	Suggest(ctx context.Context, product *model.Product, issues []string) ([]string, error)
}

// ResearchOracleFunc adapts a function to ResearchOracle.
type ResearchOracleFunc func(ctx context.Context, product *model.Product, category model.Category) (*model.ResearchOutcome, error)

// Research implements ResearchOracle.
func (f ResearchOracleFunc) Research(ctx context.Context, product *model.Product, category model.Category) (*model.ResearchOutcome, error) {
	return f(ctx, product, category)
}

// CandidateSourceFunc adapts a function to CandidateSource.
type CandidateSourceFunc func(ctx context.Context, term string) ([]model.Candidate, error)

// FindCandidates implements CandidateSource.
func (f CandidateSourceFunc) FindCandidates(ctx context.Context, term string) ([]model.Candidate, error) {
	return f(ctx, term)
}

// Run is a persisted summary of one processing run.
type Run struct {
	StartedAt  time.Time
	FinishedAt time.Time
	ID         string
	SourceFile string
	Total      int
	Successful int
	Rejected   int
	Failed     int
}

// Storage persists run history and the research cache.
type Storage interface {
	// Run history
	SaveRun(ctx context.Context, run *Run, products []*model.Product) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	GetRunProducts(ctx context.Context, runID string) ([]*model.Product, error)

	// Research cache
	GetResearch(ctx context.Context, originalName string) (*model.ResearchOutcome, error)
	SaveResearch(ctx context.Context, originalName string, category model.Category, research *model.ResearchOutcome) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
