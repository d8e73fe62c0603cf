package llm

import (
	"context"
	"fmt"

	"github.com/Veraticus/mtr-normalizer/internal/model"
)

// Suggester implements service.SuggestionOracle.
type Suggester struct {
	client Client
}

// NewSuggester creates a suggestion oracle.
func NewSuggester(client Client) *Suggester {
	return &Suggester{client: client}
}

// Suggest asks the model how to fix the given validation issues.
func (s *Suggester) Suggest(ctx context.Context, product *model.Product, issues []string) ([]string, error) {
	content, err := s.client.Complete(ctx, Request{
		System:    suggestSystem,
		Prompt:    buildSuggestPrompt(product, issues),
		MaxTokens: 300,
	})
	if err != nil {
		return nil, fmt.Errorf("suggestions: %w", err)
	}
	return parseSuggestions(content), nil
}
