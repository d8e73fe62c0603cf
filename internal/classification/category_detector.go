// Package classification detects product categories from free-text names.
package classification

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/model"
)

// Scoring weights.
const (
	PatternWeight = 0.3
	KeywordWeight = 0.2
	LearnedWeight = 0.1

	// MinConfidence is the score below which a product is UNKNOWN.
	MinConfidence = 0.3

	minLearnedLength = 3
	maxNGram         = 3
)

// Detection is the result of detecting a single name.
type Detection struct {
	Category   model.Category
	Confidence float64
}

// Correction records a detection that a user corrected.
type Correction struct {
	Name      string
	Predicted model.Category
	Correct   model.Category
}

type compiledRule struct {
	category model.Category
	keywords []string
	patterns []*regexp.Regexp
}

// Detector scores product names against per-category keywords and patterns.
// Learned phrases are optional and guarded by mu; everything else is immutable.
type Detector struct {
	learned     map[model.Category][]string
	rules       []compiledRule
	corrections []Correction
	mu          sync.RWMutex
}

// NewDetector compiles rules into a detector. Rule order is the tie-break order.
func NewDetector(rules []Rule) (*Detector, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		patterns, err := common.CompileInsensitive(r.Patterns)
		if err != nil {
			return nil, fmt.Errorf("failed to compile patterns for %s: %w", r.Category, err)
		}
		keywords := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			keywords = append(keywords, strings.ToLower(k))
		}
		compiled = append(compiled, compiledRule{
			category: r.Category,
			keywords: keywords,
			patterns: patterns,
		})
	}

	return &Detector{
		rules:   compiled,
		learned: make(map[model.Category][]string),
	}, nil
}

// NewDefaultDetector returns a detector for the built-in category table.
func NewDefaultDetector() *Detector {
	d, err := NewDetector(DefaultRules())
	if err != nil {
		panic(err)
	}
	return d
}

// Normalize prepares a product name for matching.
func Normalize(name string) string {
	name = norm.NFC.String(name)
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			return r
		case strings.ContainsRune("-+/.,", r):
			return r
		default:
			return ' '
		}
	}, name)
	return strings.Join(strings.Fields(cleaned), " ")
}

// Detect returns the best-scoring category and its confidence.
func (d *Detector) Detect(name string) (model.Category, float64) {
	if strings.TrimSpace(name) == "" {
		return model.CategoryUnknown, 0
	}

	text := Normalize(name)
	lower := strings.ToLower(text)

	d.mu.RLock()
	defer d.mu.RUnlock()

	best := model.CategoryUnknown
	bestScore := 0.0
	for _, r := range d.rules {
		score := d.score(r, text, lower)
		// Strict comparison keeps the earlier rule on ties.
		if score > bestScore {
			best, bestScore = r.category, score
		}
	}

	if bestScore < MinConfidence {
		return model.CategoryUnknown, bestScore
	}
	return best, bestScore
}

func (d *Detector) score(r compiledRule, text, lower string) float64 {
	score := 0.0
	for _, re := range r.patterns {
		if re.MatchString(text) {
			score += PatternWeight
		}
	}
	for _, k := range r.keywords {
		if strings.Contains(lower, k) {
			score += KeywordWeight
		}
	}
	for _, phrase := range d.learned[r.category] {
		if strings.Contains(lower, phrase) {
			score += LearnedWeight
		}
	}
	return min(score, 1.0)
}

// DetectBatch detects each name independently and preserves order.
func (d *Detector) DetectBatch(names []string) []Detection {
	out := make([]Detection, len(names))
	for i, name := range names {
		c, conf := d.Detect(name)
		out[i] = Detection{Category: c, Confidence: conf}
	}
	return out
}

// Distribution counts detected categories across names.
func (d *Detector) Distribution(names []string) map[model.Category]int {
	dist := make(map[model.Category]int)
	for _, det := range d.DetectBatch(names) {
		dist[det.Category]++
	}
	return dist
}

// Learn records a corrected detection and, for a known category, remembers
// the 1-3 word phrases of the name as extra evidence for that category.
func (d *Detector) Learn(name string, predicted, correct model.Category) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.corrections = append(d.corrections, Correction{
		Name:      name,
		Predicted: predicted,
		Correct:   correct,
	})

	if correct == model.CategoryUnknown {
		return
	}

	seen := make(map[string]bool, len(d.learned[correct]))
	for _, p := range d.learned[correct] {
		seen[p] = true
	}

	words := strings.Fields(strings.ToLower(Normalize(name)))
	for i := range words {
		for j := i + 1; j <= min(i+maxNGram, len(words)); j++ {
			phrase := strings.Join(words[i:j], " ")
			if len([]rune(phrase)) <= minLearnedLength || seen[phrase] {
				continue
			}
			seen[phrase] = true
			d.learned[correct] = append(d.learned[correct], phrase)
		}
	}
}

// Corrections returns the recorded corrections in insertion order.
func (d *Detector) Corrections() []Correction {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Correction, len(d.corrections))
	copy(out, d.corrections)
	return out
}

// SuggestKeywords explains which known keywords appear in a name that was
// detected as UNKNOWN. It returns nil for any other category.
func (d *Detector) SuggestKeywords(name string, detected model.Category) []string {
	if detected != model.CategoryUnknown {
		return nil
	}
	lower := strings.ToLower(name)
	var suggestions []string
	for _, r := range d.rules {
		for _, k := range r.keywords {
			if strings.Contains(lower, k) {
				suggestions = append(suggestions, fmt.Sprintf("Contains '%s' - might be %s", k, r.category))
			}
		}
	}
	return suggestions
}

// UnknownHints runs SuggestKeywords over a batch. The result is aligned with
// names and holds nil for names that were detected as a known category.
func (d *Detector) UnknownHints(names []string) [][]string {
	hints := make([][]string, len(names))
	for i, det := range d.DetectBatch(names) {
		hints[i] = d.SuggestKeywords(names[i], det.Category)
	}
	return hints
}
