package validation

import (
	"context"
	"log/slog"
	"time"

	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/model"
	"github.com/Veraticus/mtr-normalizer/internal/service"
)

const maxSuggestions = 3

// FallbackSuggestions are used whenever the suggestion oracle cannot help.
var FallbackSuggestions = []string{
	"Уточнить информацию у поставщика",
	"Проверить каталог производителя",
}

// Validator combines the rule engine with advisory suggestions.
type Validator struct {
	rules   *RuleEngine
	oracle  service.SuggestionOracle
	logger  *slog.Logger
	timeout time.Duration
}

// NewValidator creates a validator. The oracle may be nil, in which case
// rejected products always get the fallback suggestions.
func NewValidator(rules *RuleEngine, oracle service.SuggestionOracle, timeout time.Duration, logger *slog.Logger) *Validator {
	if rules == nil {
		rules = NewRuleEngine(nil)
	}
	return &Validator{
		rules:   rules,
		oracle:  oracle,
		timeout: timeout,
		logger:  common.LoggerOrDefault(logger),
	}
}

// Validate never fails: suggestion errors degrade to the fallback list.
func (v *Validator) Validate(ctx context.Context, product *model.Product, category model.Category, research *model.ResearchOutcome, classification *model.ClassificationOutcome) model.ValidationOutcome {
	outcome := v.rules.Validate(product, category, research, classification)
	if outcome.Valid {
		return outcome
	}
	outcome.Suggestions = v.suggest(ctx, product, outcome.Issues)
	return outcome
}

func (v *Validator) suggest(ctx context.Context, product *model.Product, issues []string) []string {
	if v.oracle == nil {
		return fallback()
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	suggestions, err := v.oracle.Suggest(ctx, product, issues)
	if err != nil {
		v.logger.Warn("suggestion generation failed",
			"product_code", product.InternalCode,
			"error", err)
		return fallback()
	}
	if len(suggestions) == 0 {
		return fallback()
	}
	return suggestions[:min(len(suggestions), maxSuggestions)]
}

func fallback() []string {
	out := make([]string, len(FallbackSuggestions))
	copy(out, FallbackSuggestions)
	return out
}
