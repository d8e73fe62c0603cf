package websearch

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/mtr-normalizer/internal/model"
)

const (
	resultsPerQuery = 3
	maxSources      = 5
	snippetsToScan  = 3
)

var (
	measurementPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(мм|mm|кг|kg|МПа|MPa|bar|бар|°C|В|V|mA|мА)`)
	standardPattern    = regexp.MustCompile(`(?i)(ГОСТ|GOST|DIN|ISO)\s*[\d\-\.]+`)
)

// Digest is the condensed outcome of several searches for one product.
type Digest struct {
	Specifications map[string]string
	Sources        []Result
	Standards      []string
	Confidence     float64
}

// ProductSearcher runs the query plan for a product and digests the results.
type ProductSearcher struct {
	searcher *Searcher
}

// NewProductSearcher wraps a searcher.
func NewProductSearcher(s *Searcher) *ProductSearcher {
	return &ProductSearcher{searcher: s}
}

// SearchProduct searches every planned query. Individual query failures are
// skipped; the digest reflects whatever was found.
func (p *ProductSearcher) SearchProduct(ctx context.Context, name string, category model.Category) *Digest {
	var all []Result
	for _, q := range BuildQueries(name, category) {
		results, err := p.searcher.Search(ctx, q, resultsPerQuery)
		if err != nil {
			p.searcher.logger.Warn("search query failed", "query", q, "error", err)
			continue
		}
		all = append(all, results...)
	}
	return Summarize(all, name)
}

type scoredResult struct {
	Result
	score int
}

// Summarize deduplicates results by URL, ranks them by how many name words
// they mention and extracts measurements and standards from top snippets.
func Summarize(results []Result, name string) *Digest {
	digest := &Digest{Specifications: make(map[string]string)}
	words := strings.Fields(strings.ToLower(name))

	seen := make(map[string]bool)
	var unique []scoredResult
	for _, r := range results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true

		score := 0
		if containsAny(strings.ToLower(r.Title), words) {
			score += 2
		}
		if containsAny(strings.ToLower(r.Snippet), words) {
			score++
		}
		unique = append(unique, scoredResult{Result: r, score: score})
	}

	sort.SliceStable(unique, func(i, j int) bool { return unique[i].score > unique[j].score })

	for i, r := range unique {
		if i < maxSources {
			digest.Sources = append(digest.Sources, r.Result)
		}
		if i < snippetsToScan {
			ExtractSpecs(r.Snippet, digest)
		}
	}

	if len(unique) > 0 {
		total := 0
		for _, r := range unique[:min(len(unique), snippetsToScan)] {
			total += r.score
		}
		digest.Confidence = min(float64(total)/float64(snippetsToScan)/3, 1.0)
	}
	return digest
}

// ExtractSpecs pulls measurements and standard references out of text.
func ExtractSpecs(text string, digest *Digest) {
	for _, m := range measurementPattern.FindAllStringSubmatch(text, -1) {
		value, unit := m[1], m[2]
		switch strings.ToLower(unit) {
		case "мм", "mm":
			digest.Specifications["dimension_mm"] = value
		case "кг", "kg":
			digest.Specifications["weight_kg"] = value
		case "мпа", "mpa", "bar", "бар":
			digest.Specifications["pressure"] = value + " " + unit
		}
	}
	digest.Standards = append(digest.Standards, standardPattern.FindAllString(text, -1)...)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
