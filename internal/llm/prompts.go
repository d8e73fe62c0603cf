package llm

import (
	"fmt"
	"strings"

	"github.com/Veraticus/mtr-normalizer/internal/model"
	"github.com/Veraticus/mtr-normalizer/internal/websearch"
)

const (
	researchSystem = "Ты эксперт по материально-техническим ресурсам. Отвечай только валидным JSON объектом без пояснений и markdown."
	codesSystem    = "Ты эксперт по классификатору ОКПД2. Отвечай только валидным JSON массивом без пояснений и markdown."
	suggestSystem  = "Ты помогаешь нормализовать номенклатуру МТР. Отвечай только JSON массивом строк."

	maxSnippets = 5
)

func buildResearchPrompt(product *model.Product, category model.Category, digest *websearch.Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Наименование: %s\n", product.OriginalName)
	fmt.Fprintf(&b, "Категория: %s\n", category)
	if product.OriginalUnit != "" {
		fmt.Fprintf(&b, "Единица измерения: %s\n", product.OriginalUnit)
	}

	if info, ok := category.Info(); ok {
		fmt.Fprintf(&b, "Требуемые характеристики: %s\n", strings.Join(info.Schema, ", "))
	}

	if digest != nil && len(digest.Sources) > 0 {
		b.WriteString("\nРезультаты поиска:\n")
		for i, src := range digest.Sources {
			if i == maxSnippets {
				break
			}
			fmt.Fprintf(&b, "- %s (%s): %s\n", src.Title, src.URL, src.Snippet)
		}
		if len(digest.Standards) > 0 {
			fmt.Fprintf(&b, "Найденные стандарты: %s\n", strings.Join(digest.Standards, ", "))
		}
	}

	b.WriteString(`
Определи производителя, модель и технические характеристики. Если значение неизвестно, не включай поле.
Ответ в формате:
{"manufacturer": "...", "model": "...", "product_type": "...", "specifications": {"поле": "значение"}, "confidence": 0.0}`)
	return b.String()
}

func buildCodesPrompt(terms string) string {
	return fmt.Sprintf(`Подбери до 5 кодов ОКПД2 для продукции: %s
Используй коды уровня не ниже XX.XX.XX.
Ответ в формате: [{"code": "XX.XX.XX.XXX", "name": "..."}]`, terms)
}

func buildSuggestPrompt(product *model.Product, issues []string) string {
	return fmt.Sprintf(`Наименование: %s
Проблемы валидации:
- %s

Предложи до 3 конкретных действий для исправления. Ответ: ["...", "..."]`,
		product.OriginalName, strings.Join(issues, "\n- "))
}
