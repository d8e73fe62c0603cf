// Package validation decides whether a processed product can be normalized.
package validation

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/model"
	"github.com/Veraticus/mtr-normalizer/internal/okpd2"
)

// Thresholds applied to a classification outcome.
const (
	MinClassificationLevel      = 3
	MinClassificationConfidence = 0.5
	minModelLength              = 3
)

var (
	colorPatterns = common.MustCompileInsensitive([]string{
		`артикул.*цвет`,
		`article.*color`,
		`код.*цвет`,
		`различ.*цвет`,
	})
	sizeFields        = []string{"diameter", "width", "length", "size"}
	rangeTokens       = []string{"-", "до", "от"}
	genericTerms      = []string{"прочие", "другие", "разные", "various", "other", "misc"}
	placeholderValues = map[string]bool{"н/д": true, "n/a": true, "неизвестно": true, "unknown": true, "-": true, "": true}
	unknownMakers     = map[string]bool{"unknown": true, "неизвестно": true}
)

// RuleEngine runs the ordered validation checks. It is pure and safe for
// concurrent use.
type RuleEngine struct {
	criteria map[model.Category]Criteria
}

// NewRuleEngine creates a rule engine; nil criteria means DefaultCriteria.
func NewRuleEngine(criteria map[model.Category]Criteria) *RuleEngine {
	if criteria == nil {
		criteria = DefaultCriteria()
	}
	return &RuleEngine{criteria: criteria}
}

// Validate runs every check in order and derives the rejection reason.
// Research and classification may be nil.
func (e *RuleEngine) Validate(product *model.Product, category model.Category, research *model.ResearchOutcome, classification *model.ClassificationOutcome) model.ValidationOutcome {
	var issues []string

	if category == model.CategoryUnknown {
		issues = append(issues, "Не удалось определить категорию продукта")
	}
	issues = append(issues, checkClassification(classification, category)...)
	issues = append(issues, e.checkSpecifications(research, category)...)
	if issue := checkUnit(product, category); issue != "" {
		issues = append(issues, issue)
	}
	issues = append(issues, checkVariability(product, research)...)
	issues = append(issues, checkBusinessRules(product, research)...)

	if len(issues) == 0 {
		return model.ValidationOutcome{Valid: true}
	}
	return model.ValidationOutcome{
		Valid:           false,
		Issues:          issues,
		RejectionReason: RejectionReason(issues),
	}
}

func checkClassification(c *model.ClassificationOutcome, category model.Category) []string {
	if c == nil {
		return []string{"Отсутствует код ОКПД2"}
	}

	var issues []string
	if !okpd2.ValidCode(c.Code) {
		issues = append(issues, fmt.Sprintf("Неверный формат кода ОКПД2: %s", c.Code))
	}
	if c.Level < MinClassificationLevel {
		issues = append(issues, fmt.Sprintf("Недостаточный уровень детализации ОКПД2 (уровень %d)", c.Level))
	}
	if c.Confidence < MinClassificationConfidence {
		issues = append(issues, fmt.Sprintf("Низкая уверенность в коде ОКПД2 (%.2f)", c.Confidence))
	}
	if prefix := category.OKPD2Prefix(); prefix != "" && !strings.HasPrefix(c.Code, prefix) {
		issues = append(issues, fmt.Sprintf("Код ОКПД2 %s не соответствует категории %s", c.Code, category))
	}
	return issues
}

func (e *RuleEngine) checkSpecifications(research *model.ResearchOutcome, category model.Category) []string {
	if research == nil {
		return []string{"Отсутствуют технические характеристики"}
	}

	criteria, ok := e.criteria[category]
	if !ok {
		return []string{"Нет критериев валидации для данной категории"}
	}

	specs := research.Specifications
	var issues []string

	var missing []string
	for _, field := range criteria.RequiredSpecs {
		if specs[field] == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		issues = append(issues, "Отсутствуют обязательные характеристики: "+strings.Join(missing, ", "))
	}

	populated := 0
	for _, v := range specs {
		if v != "" {
			populated++
		}
	}
	if populated < criteria.MinSpecs {
		issues = append(issues, fmt.Sprintf("Недостаточно характеристик (%d из минимум %d)", populated, criteria.MinSpecs))
	}

	var placeholders []string
	for _, field := range sortedKeys(specs) {
		if placeholderValues[strings.ToLower(strings.TrimSpace(specs[field]))] {
			placeholders = append(placeholders, field)
		}
	}
	if len(placeholders) > 0 {
		issues = append(issues, "Найдены незаполненные характеристики: "+strings.Join(placeholders, ", "))
	}

	return issues
}

func checkUnit(product *model.Product, category model.Category) string {
	units := category.Units()
	if len(units) == 0 || category.AcceptsUnit(product.OriginalUnit) {
		return ""
	}
	return fmt.Sprintf("Единица измерения '%s' не соответствует категории %s. Ожидается: %s",
		product.OriginalUnit, category, strings.Join(units, ", "))
}

func checkVariability(product *model.Product, research *model.ResearchOutcome) []string {
	var issues []string

	for _, re := range colorPatterns {
		if re.MatchString(product.OriginalName) {
			issues = append(issues, "Обнаружена вариативность по цвету")
			break
		}
	}

	if research != nil {
		for _, field := range sizeFields {
			value := research.Specifications[field]
			for _, tok := range rangeTokens {
				if strings.Contains(value, tok) {
					issues = append(issues, "Обнаружена вариативность по параметру: "+field)
					break
				}
			}
		}
	}

	return issues
}

func checkBusinessRules(product *model.Product, research *model.ResearchOutcome) []string {
	var issues []string

	if research != nil {
		maker := strings.TrimSpace(research.Manufacturer)
		if maker == "" || unknownMakers[strings.ToLower(maker)] {
			issues = append(issues, "Невозможно определить производителя")
		}
		if research.Model != "" && utf8.RuneCountInString(research.Model) < minModelLength {
			issues = append(issues, "Модель/артикул слишком короткий")
		}
	}

	name := strings.ToLower(product.OriginalName)
	for _, term := range genericTerms {
		if strings.Contains(name, term) {
			issues = append(issues, "Слишком общее описание продукта")
			break
		}
	}

	return issues
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
