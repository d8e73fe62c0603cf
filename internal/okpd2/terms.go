package okpd2

import (
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/mtr-normalizer/internal/model"
)

const (
	maxSearchTerms = 5
	maxNameTerms   = 3
)

var stopWords = map[string]bool{
	"для":  true,
	"with": true,
	"and":  true,
	"или":  true,
	"the":  true,
	"гост": true,
	"din":  true,
}

// SearchTerms builds up to five unique lookup terms for a product: category
// keywords, significant name words, research hints, then category phrases.
func SearchTerms(product *model.Product, research *model.ResearchOutcome, category model.Category) []string {
	info, _ := category.Info()

	terms := make([]string, 0, len(info.Keywords)+maxNameTerms+2+len(info.SearchTerms))
	terms = append(terms, info.Keywords...)
	terms = append(terms, nameTerms(product.OriginalName)...)
	if research != nil {
		if research.Manufacturer != "" {
			terms = append(terms, research.Manufacturer)
		}
		if research.ProductType != "" {
			terms = append(terms, research.ProductType)
		}
	}
	terms = append(terms, info.SearchTerms...)

	seen := make(map[string]bool, len(terms))
	unique := make([]string, 0, maxSearchTerms)
	for _, t := range terms {
		if seen[t] {
			continue
		}
		seen[t] = true
		unique = append(unique, t)
		if len(unique) == maxSearchTerms {
			break
		}
	}
	return unique
}

func nameTerms(name string) []string {
	var out []string
	for _, part := range strings.Fields(name) {
		if utf8.RuneCountInString(part) <= 3 || isDigits(part) || stopWords[strings.ToLower(part)] {
			continue
		}
		out = append(out, part)
		if len(out) == maxNameTerms {
			break
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
