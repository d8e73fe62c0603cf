package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/mtr-normalizer/internal/model"
)

type suggestionFunc func(ctx context.Context, product *model.Product, issues []string) ([]string, error)

func (f suggestionFunc) Suggest(ctx context.Context, product *model.Product, issues []string) ([]string, error) {
	return f(ctx, product, issues)
}

func TestValidator_Validate(t *testing.T) {
	rejected := func(v *Validator) model.ValidationOutcome {
		return v.Validate(context.Background(), hammerProduct(), model.CategoryHammer, hammerResearch(), nil)
	}

	t.Run("valid products skip the oracle", func(t *testing.T) {
		called := false
		v := NewValidator(nil, suggestionFunc(func(context.Context, *model.Product, []string) ([]string, error) {
			called = true
			return nil, nil
		}), time.Second, nil)

		got := v.Validate(context.Background(), hammerProduct(), model.CategoryHammer, hammerResearch(), hammerClassification())
		assert.True(t, got.Valid)
		assert.Nil(t, got.Suggestions)
		assert.False(t, called)
	})

	t.Run("oracle suggestions are truncated", func(t *testing.T) {
		var seen []string
		v := NewValidator(nil, suggestionFunc(func(_ context.Context, _ *model.Product, issues []string) ([]string, error) {
			seen = issues
			return []string{"a", "b", "c", "d"}, nil
		}), time.Second, nil)

		got := rejected(v)
		assert.False(t, got.Valid)
		assert.Equal(t, []string{"a", "b", "c"}, got.Suggestions)
		assert.Equal(t, got.Issues, seen)
		assert.Equal(t, ReasonNoOKPD2, got.RejectionReason)
	})

	t.Run("oracle failure uses fallback", func(t *testing.T) {
		v := NewValidator(nil, suggestionFunc(func(context.Context, *model.Product, []string) ([]string, error) {
			return nil, errors.New("llm unavailable")
		}), time.Second, nil)

		got := rejected(v)
		assert.Equal(t, FallbackSuggestions, got.Suggestions)
		assert.Equal(t, ReasonNoOKPD2, got.RejectionReason)
	})

	t.Run("empty answer uses fallback", func(t *testing.T) {
		v := NewValidator(nil, suggestionFunc(func(context.Context, *model.Product, []string) ([]string, error) {
			return nil, nil
		}), time.Second, nil)

		assert.Equal(t, FallbackSuggestions, rejected(v).Suggestions)
	})

	t.Run("slow oracle times out", func(t *testing.T) {
		v := NewValidator(nil, suggestionFunc(func(ctx context.Context, _ *model.Product, _ []string) ([]string, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}), 10*time.Millisecond, nil)

		start := time.Now()
		got := rejected(v)
		assert.Equal(t, FallbackSuggestions, got.Suggestions)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("nil oracle uses fallback", func(t *testing.T) {
		got := rejected(NewValidator(nil, nil, 0, nil))
		assert.Equal(t, FallbackSuggestions, got.Suggestions)

		got.Suggestions[0] = "mutated"
		assert.Equal(t, "Уточнить информацию у поставщика", FallbackSuggestions[0])
	})
}
