package okpd2

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/mtr-normalizer/internal/model"
)

// Scoring weights for candidate ranking.
const (
	levelWeight       = 0.2
	prefixBonus       = 0.3
	nameWordWeight    = 0.1
	nameWordCap       = 0.3
	productTypeBonus  = 0.2
	minNameWordLength = 3
	maxAlternatives   = 3

	// UnknownCode is used when nothing is known about the product.
	UnknownCode = "00.00.00"
)

// Selector ranks OKPD2 candidates for a product. It never performs I/O.
type Selector struct{}

// NewSelector creates a selector.
func NewSelector() *Selector {
	return &Selector{}
}

type scored struct {
	candidate model.Candidate
	score     float64
}

// Select picks the best candidate. Candidates that score equally keep their
// input order. Research may be nil.
func (s *Selector) Select(candidates []model.Candidate, product *model.Product, category model.Category, research *model.ResearchOutcome) model.ClassificationOutcome {
	if len(candidates) == 0 {
		return fallback(category)
	}

	nameWords := significantWords(product.OriginalName)
	productType := ""
	if research != nil {
		productType = strings.ToLower(strings.TrimSpace(research.ProductType))
	}
	prefix := category.OKPD2Prefix()

	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, scored{
			candidate: c,
			score:     score(c, prefix, nameWords, productType),
		})
	}

	slices.SortStableFunc(ranked, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})

	top := ranked[0]
	alternatives := make([]model.AlternativeCode, 0, maxAlternatives)
	for _, r := range ranked[1:min(len(ranked), 1+maxAlternatives)] {
		alternatives = append(alternatives, model.AlternativeCode{
			Code:  r.candidate.Code,
			Name:  r.candidate.Name,
			Score: r.score,
		})
	}

	return model.ClassificationOutcome{
		Code:         top.candidate.Code,
		Name:         top.candidate.Name,
		Level:        levelOf(top.candidate),
		ParentCode:   ParentCode(top.candidate.Code),
		Confidence:   min(top.score, 1.0),
		Alternatives: alternatives,
	}
}

func score(c model.Candidate, prefix string, nameWords []string, productType string) float64 {
	total := float64(levelOf(c)) * levelWeight

	if prefix != "" && strings.HasPrefix(c.Code, prefix) {
		total += prefixBonus
	}

	candidateName := strings.ToLower(c.Name)
	matches := 0
	for _, w := range nameWords {
		if strings.Contains(candidateName, w) {
			matches++
		}
	}
	total += min(nameWordCap, float64(matches)*nameWordWeight)

	if productType != "" && strings.Contains(candidateName, productType) {
		total += productTypeBonus
	}
	return total
}

func levelOf(c model.Candidate) int {
	if c.Level > 0 {
		return c.Level
	}
	return CodeLevel(c.Code)
}

func significantWords(name string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(name)) {
		if utf8.RuneCountInString(w) > minNameWordLength {
			words = append(words, w)
		}
	}
	return words
}

func fallback(category model.Category) model.ClassificationOutcome {
	prefix := category.OKPD2Prefix()
	if prefix == "" {
		return model.ClassificationOutcome{
			Code:       UnknownCode,
			Name:       "Категория не определена",
			Level:      1,
			ParentCode: ParentCode(UnknownCode),
			Confidence: 0.1,
		}
	}
	return model.ClassificationOutcome{
		Code:       prefix,
		Name:       fmt.Sprintf("Код по умолчанию для категории %s", category),
		Level:      2,
		ParentCode: ParentCode(prefix),
		Confidence: 0.3,
	}
}
