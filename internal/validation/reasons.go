package validation

import "strings"

// RejectionPrefix starts every rejection reason.
const RejectionPrefix = "Не подлежит нормализации: "

// Canonical rejection reasons.
const (
	ReasonNoOKPD2          = RejectionPrefix + "отсутствует код ОКПД2"
	ReasonNoManufacturer   = RejectionPrefix + "невозможно определить производителя"
	ReasonColorVariability = RejectionPrefix + "артикул не соответствует цвету"
	ReasonSizeVariability  = RejectionPrefix + "вариативность по размеру"
	ReasonSpecVariability  = RejectionPrefix + "вариативность характеристик"
	ReasonIncompleteSpecs  = RejectionPrefix + "неполные технические характеристики"
)

type reasonRule struct {
	matches func(issues []string) bool
	reason  func(issues []string) string
}

// reasonTable is evaluated top to bottom; the first matching rule wins.
var reasonTable = []reasonRule{
	{matches: anyIssue(func(s string) bool { return strings.Contains(s, "ОКПД2") }), reason: fixed(ReasonNoOKPD2)},
	{matches: anyIssue(func(s string) bool { return strings.Contains(strings.ToLower(s), "производител") }), reason: fixed(ReasonNoManufacturer)},
	{matches: anyIssue(func(s string) bool { return strings.Contains(s, "вариативност") }), reason: variabilityReason},
	{matches: anyIssue(func(s string) bool { return strings.Contains(s, "характеристик") }), reason: fixed(ReasonIncompleteSpecs)},
	{matches: func(issues []string) bool { return len(issues) > 0 }, reason: func(issues []string) string { return RejectionPrefix + issues[0] }},
}

// RejectionReason picks the single most actionable reason for a set of issues.
// It returns "" when there are no issues.
func RejectionReason(issues []string) string {
	for _, rule := range reasonTable {
		if rule.matches(issues) {
			return rule.reason(issues)
		}
	}
	return ""
}

var sizeTokens = []string{"диаметр", "размер", "diameter", "size"}

func variabilityReason(issues []string) string {
	joined := strings.ToLower(strings.Join(issues, " "))
	if strings.Contains(joined, "цвет") {
		return ReasonColorVariability
	}
	for _, tok := range sizeTokens {
		if strings.Contains(joined, tok) {
			return ReasonSizeVariability
		}
	}
	return ReasonSpecVariability
}

func anyIssue(pred func(string) bool) func([]string) bool {
	return func(issues []string) bool {
		for _, s := range issues {
			if pred(s) {
				return true
			}
		}
		return false
	}
}

func fixed(reason string) func([]string) string {
	return func([]string) string { return reason }
}

// IsCanonicalReason reports whether reason is one of the fixed reasons or
// carries the generic rejection prefix.
func IsCanonicalReason(reason string) bool {
	switch reason {
	case ReasonNoOKPD2, ReasonNoManufacturer, ReasonColorVariability,
		ReasonSizeVariability, ReasonSpecVariability, ReasonIncompleteSpecs:
		return true
	}
	return strings.HasPrefix(reason, RejectionPrefix) && len(reason) > len(RejectionPrefix)
}
