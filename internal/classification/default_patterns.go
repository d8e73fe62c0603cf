package classification

import "github.com/Veraticus/mtr-normalizer/internal/model"

// Rule holds the detection inputs for one category.
type Rule struct {
	Category model.Category
	Keywords []string
	Patterns []string
}

// DefaultRules returns rules for every scored category in declaration order.
func DefaultRules() []Rule {
	cats := model.Categories()
	rules := make([]Rule, 0, len(cats))
	for _, c := range cats {
		info, _ := c.Info()
		rules = append(rules, Rule{
			Category: c,
			Keywords: info.Keywords,
			Patterns: info.Patterns,
		})
	}
	return rules
}
