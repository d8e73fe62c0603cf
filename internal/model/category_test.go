package model

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategories_DeclarationOrder(t *testing.T) {
	assert.Equal(t, []Category{
		CategoryPressureSensor,
		CategorySteelCircle,
		CategoryHammer,
		CategoryTire,
	}, Categories())

	// Callers must not be able to reorder the shared slice.
	cats := Categories()
	cats[0] = CategoryTire
	assert.Equal(t, CategoryPressureSensor, Categories()[0])
}

func TestCategoryInfo_Table(t *testing.T) {
	for _, c := range Categories() {
		t.Run(c.String(), func(t *testing.T) {
			info, ok := c.Info()
			require.True(t, ok)
			assert.NotEmpty(t, info.Keywords)
			assert.NotEmpty(t, info.Patterns)
			assert.Regexp(t, `^\d{2}\.\d{2}\.\d{2}$`, info.OKPD2Prefix)
			assert.NotEmpty(t, info.Units)
			assert.NotEmpty(t, info.Schema)
			assert.NotEmpty(t, info.SearchTerms)
			for _, p := range info.Patterns {
				_, err := regexp.Compile("(?i)" + p)
				assert.NoError(t, err, p)
			}
		})
	}

	_, ok := CategoryUnknown.Info()
	assert.False(t, ok)
	assert.Empty(t, CategoryUnknown.OKPD2Prefix())
	assert.Empty(t, CategoryUnknown.StandardUnit())
}

func TestCategory_AcceptsUnit(t *testing.T) {
	tests := []struct {
		category Category
		unit     string
		want     bool
	}{
		{CategoryHammer, "шт", true},
		{CategoryHammer, "ШТ.", true},
		{CategoryHammer, " штука ", true},
		{CategoryHammer, "кг", false},
		{CategorySteelCircle, "т", true},
		{CategorySteelCircle, "Тонна", true},
		{CategorySteelCircle, "шт", false},
		{CategoryUnknown, "шт", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.category)+"/"+tt.unit, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.category.AcceptsUnit(tt.unit))
		})
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input   string
		want    Category
		wantErr bool
	}{
		{input: "PRESSURE_SENSOR", want: CategoryPressureSensor},
		{input: "sensor", want: CategoryPressureSensor},
		{input: "steel", want: CategorySteelCircle},
		{input: "Hammer", want: CategoryHammer},
		{input: " tire ", want: CategoryTire},
		{input: "unknown", want: CategoryUnknown},
		{input: "bolt", want: CategoryUnknown, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProcessingBatch_SuccessRate(t *testing.T) {
	b := NewProcessingBatch(CategoryTire, 0, []*Product{{}, {}, {}, {}})
	assert.Equal(t, "TIRE_0", b.ID)
	assert.Equal(t, 4, b.TotalCount)
	assert.Zero(t, b.SuccessRate())

	b.ProcessedCount = 4
	b.FailedCount = 1
	assert.InDelta(t, 0.75, b.SuccessRate(), 1e-9)
}
