// Package websearch researches products on the open web and scrapes OKPD2 registries.
package websearch

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/Veraticus/mtr-normalizer/internal/model"
)

const maxQueries = 5

var (
	modelPattern   = regexp.MustCompile(`[A-Z0-9]{3,}[-A-Z0-9]*`)
	queryStopWords = map[string]bool{"для": true, "with": true, "and": true, "или": true, "the": true}
	knownBrands    = []string{
		"Endress+Hauser", "ОВЕН", "Danfoss", "Siemens", "ABB",
		"Schneider", "Honeywell", "Yokogawa", "Emerson", "Rosemount",
		"SKF", "FAG", "Timken", "NSK", "NTN",
		"Stanley", "Bosch", "Makita", "DeWalt", "Gross",
		"Michelin", "Bridgestone", "Continental", "Nokian", "Goodyear",
	}
	categoryQueries = map[model.Category][]string{
		model.CategoryPressureSensor: {"%s измерительный диапазон точность", "%s pressure range accuracy output"},
		model.CategorySteelCircle:    {"%s ГОСТ марка стали диаметр", "%s steel grade diameter standard"},
		model.CategoryHammer:         {"%s вес длина рукоятка", "%s weight length handle material"},
		model.CategoryTire:           {"%s размер индекс скорости нагрузки", "%s size speed load index"},
	}
)

// CleanName strips punctuation and stop words from a product name.
func CleanName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			return r
		case strings.ContainsRune("-+/.,_", r):
			return r
		default:
			return ' '
		}
	}, name)

	words := strings.Fields(cleaned)
	kept := words[:0]
	for _, w := range words {
		if !queryStopWords[strings.ToLower(w)] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// ExtractModel returns the first model-like token (upper-case Latin letters
// and digits, at least three long), or "".
func ExtractModel(name string) string {
	return modelPattern.FindString(name)
}

// ExtractManufacturers returns known brands found in the name, followed by
// the first word when it is written in capitals.
func ExtractManufacturers(name string) []string {
	var found []string
	upper := strings.ToUpper(name)
	for _, brand := range knownBrands {
		if strings.Contains(upper, strings.ToUpper(brand)) {
			found = append(found, brand)
		}
	}

	words := strings.Fields(name)
	if len(words) > 0 && isUpperWord(words[0]) && len([]rune(words[0])) > 2 {
		first := words[0]
		duplicate := false
		for _, f := range found {
			if f == first {
				duplicate = true
				break
			}
		}
		if !duplicate {
			found = append(found, first)
		}
	}
	return found
}

func isUpperWord(w string) bool {
	hasLetter := false
	for _, r := range w {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

// BuildQueries returns up to five unique search queries for a product.
func BuildQueries(name string, category model.Category) []string {
	cleaned := CleanName(name)
	var queries []string
	queries = append(queries, cleaned)

	if m := ExtractModel(name); m != "" {
		queries = append(queries,
			m+" технические характеристики",
			m+" specifications datasheet")
	}

	for _, brand := range ExtractManufacturers(name) {
		queries = append(queries,
			brand+" "+cleaned,
			fmt.Sprintf("site:%s.com %s", strings.ToLower(brand), cleaned))
	}

	for _, tmpl := range categoryQueries[category] {
		queries = append(queries, fmt.Sprintf(tmpl, cleaned))
	}

	queries = append(queries,
		fmt.Sprintf("%q filetype:pdf", cleaned),
		cleaned+" каталог продукции")

	seen := make(map[string]bool, len(queries))
	unique := make([]string, 0, maxQueries)
	for _, q := range queries {
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		unique = append(unique, q)
		if len(unique) == maxQueries {
			break
		}
	}
	return unique
}
