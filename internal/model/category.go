package model

import (
	"fmt"
	"strings"
)

// Category is the closed set of supported product families.
type Category string

// Category constants in declaration order. The order is significant: when two
// categories score equally during detection, the one declared first wins.
const (
	CategoryPressureSensor Category = "PRESSURE_SENSOR"
	CategorySteelCircle    Category = "STEEL_CIRCLE"
	CategoryHammer         Category = "HAMMER"
	CategoryTire           Category = "TIRE"
	CategoryUnknown        Category = "UNKNOWN"
)

// CategoryInfo is the static metadata attached to a category.
type CategoryInfo struct {
	// Keywords are matched as case-insensitive substrings.
	Keywords []string
	// Patterns are regular expressions, compiled case-insensitive by the detector.
	Patterns []string
	// OKPD2Prefix is the expected code prefix for products in this category.
	OKPD2Prefix string
	// Units is the canonical unit set; the first entry is the standard form.
	Units []string
	// Schema is the ordered list of expected specification fields.
	Schema []string
	// SearchTerms are extra phrases used for OKPD2 candidate lookup.
	SearchTerms []string
}

var scoredCategories = []Category{
	CategoryPressureSensor,
	CategorySteelCircle,
	CategoryHammer,
	CategoryTire,
}

var categoryTable = map[Category]CategoryInfo{
	CategoryPressureSensor: {
		Keywords: []string{"датчик", "давлен", "sensor", "pressure", "преобразователь"},
		Patterns: []string{
			`датчик.*давлен`,
			`pressure\s*sensor`,
			`преобразователь.*давлен`,
			`ПД\d+`,
			`(Endress\+Hauser|ОВЕН|Danfoss|Siemens).*давлен`,
			`(PMP|PMC|PTP|CeraBar|Deltabar)`,
			`\d+\s*(МПа|MPa|кПа|kPa|бар|bar)`,
		},
		OKPD2Prefix: "26.51.52",
		Units:       []string{"штука", "шт", "шт."},
		Schema: []string{
			"product", "type", "measured_quantity", "trademark_producer",
			"model_article", "identification", "measurement_range",
			"ambient_temperature", "accuracy_class", "output_signal",
			"climate_category", "explosion_protection", "electrical_connector",
			"additional_characteristics", "sensor_mount", "protection_degree",
			"material", "size_mm", "standard", "weight_kg",
		},
		SearchTerms: []string{"датчик давления", "преобразователь давления"},
	},
	CategorySteelCircle: {
		Keywords: []string{"круг", "сталь", "steel", "circle", "прокат"},
		Patterns: []string{
			`круг.*сталь`,
			`steel.*circle`,
			`прокат.*круг`,
			`горячекатан.*круг`,
			`ГОСТ\s*2590`,
			`\d+\s*мм.*сталь`,
			`сталь.*\d+`,
		},
		OKPD2Prefix: "24.10.75",
		Units:       []string{"тонна", "т", "тн"},
		Schema: []string{
			"product", "hardness", "rolling_accuracy", "curvature_class",
			"diameter_mm", "length", "length_dimension", "standard_assortment",
			"surface_quality", "steel_grade", "standard_material", "weight_ton",
		},
		SearchTerms: []string{"круг стальной", "прокат круглый"},
	},
	CategoryHammer: {
		Keywords: []string{"молот", "hammer"},
		Patterns: []string{
			`молот`,
			`hammer`,
			`слесарн.*молот`,
			`электромонтаж.*молот`,
			`\d+\s*(кг|kg).*молот`,
			`рукоят.*молот`,
			`(Stanley|Gross|Matrix|Sparta)`,
		},
		OKPD2Prefix: "25.73.30",
		Units:       []string{"штука", "шт", "шт."},
		Schema: []string{
			"product", "type", "striker_type", "trademark", "model_designation",
			"article", "striker_weight_kg", "length_mm", "handle_material",
			"handle_type", "standard", "additional_characteristics", "weight_kg",
		},
		SearchTerms: []string{"молоток", "инструмент ударный"},
	},
	CategoryTire: {
		Keywords: []string{"шина", "tire", "резина", "покрышка"},
		Patterns: []string{
			`шин[аы]`,
			`tire`,
			`резин.*колес`,
			`покрыш`,
			`\d{3}/\d{2}\s*R\d{2}`,
			`(зимн|летн|всесезон)`,
			`(Nokian|Michelin|Bridgestone|Continental|Кама|BFGoodrich)`,
			`(Hakkapeliitta|Pilot|Turanza)`,
		},
		OKPD2Prefix: "22.11.11",
		Units:       []string{"штука", "шт", "шт."},
		Schema: []string{
			"product", "season", "spikes_on_tires", "trademark_manufacturer",
			"model", "article", "width", "profile", "diameter", "speed_index",
			"load_index", "extra_load", "construction", "weight_kg",
		},
		SearchTerms: []string{"шина", "покрышка автомобильная"},
	},
}

// Categories returns the detectable categories in declaration order.
// CategoryUnknown is not included.
func Categories() []Category {
	out := make([]Category, len(scoredCategories))
	copy(out, scoredCategories)
	return out
}

// Info returns the static metadata for the category.
// The second result is false for CategoryUnknown and unrecognized values.
func (c Category) Info() (CategoryInfo, bool) {
	info, ok := categoryTable[c]
	return info, ok
}

// OKPD2Prefix returns the expected code prefix, or "" for CategoryUnknown.
func (c Category) OKPD2Prefix() string {
	return categoryTable[c].OKPD2Prefix
}

// Units returns the canonical unit set, or nil for CategoryUnknown.
func (c Category) Units() []string {
	return categoryTable[c].Units
}

// StandardUnit returns the standard unit form, or "" for CategoryUnknown.
func (c Category) StandardUnit() string {
	units := c.Units()
	if len(units) == 0 {
		return ""
	}
	return units[0]
}

// AcceptsUnit reports whether unit belongs to the canonical set, ignoring case.
func (c Category) AcceptsUnit(unit string) bool {
	unit = strings.ToLower(strings.TrimSpace(unit))
	for _, u := range c.Units() {
		if strings.ToLower(u) == unit {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// ParseCategory converts a category name to a Category.
// Short aliases used on the command line are accepted as well.
func ParseCategory(name string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case string(CategoryPressureSensor), "SENSOR":
		return CategoryPressureSensor, nil
	case string(CategorySteelCircle), "STEEL":
		return CategorySteelCircle, nil
	case string(CategoryHammer):
		return CategoryHammer, nil
	case string(CategoryTire):
		return CategoryTire, nil
	case string(CategoryUnknown):
		return CategoryUnknown, nil
	default:
		return CategoryUnknown, fmt.Errorf("unknown category: %q", name)
	}
}
