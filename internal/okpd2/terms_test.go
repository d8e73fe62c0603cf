package okpd2

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/mtr-normalizer/internal/model"
)

func TestSearchTerms(t *testing.T) {
	tests := []struct {
		research *model.ResearchOutcome
		name     string
		product  string
		category model.Category
		want     []string
	}{
		{
			name:     "category keywords fill the list",
			product:  "Датчик давления ОВЕН ПД100И",
			category: model.CategoryPressureSensor,
			want:     []string{"датчик", "давлен", "sensor", "pressure", "преобразователь"},
		},
		{
			name:     "name terms follow keywords",
			product:  "Молоток слесарный 0.5КГ 320ММ",
			category: model.CategoryHammer,
			research: &model.ResearchOutcome{Manufacturer: "Зубр", ProductType: "молоток"},
			want:     []string{"молот", "hammer", "Молоток", "слесарный", "0.5КГ"},
		},
		{
			name:     "stop words and research hints",
			product:  "Молоток для гвоздей",
			category: model.CategoryHammer,
			research: &model.ResearchOutcome{Manufacturer: "Stanley"},
			want:     []string{"молот", "hammer", "Молоток", "гвоздей", "Stanley"},
		},
		{
			name:     "unknown category uses name only",
			product:  "Болт 12 для ГОСТ 7798",
			category: model.CategoryUnknown,
			want:     []string{"Болт"},
		},
		{
			name:     "duplicates are removed",
			product:  "шина шина",
			category: model.CategoryTire,
			want:     []string{"шина", "tire", "резина", "покрышка", "покрышка автомобильная"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SearchTerms(&model.Product{OriginalName: tt.product}, tt.research, tt.category)
			assert.Equal(t, tt.want, got)
		})
	}
}
