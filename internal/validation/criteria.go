package validation

import "github.com/Veraticus/mtr-normalizer/internal/model"

// Criteria is the specification completeness contract for a category.
type Criteria struct {
	RequiredSpecs []string
	OptionalSpecs []string
	MinSpecs      int
}

// DefaultCriteria returns completeness criteria for the supported categories.
func DefaultCriteria() map[model.Category]Criteria {
	return map[model.Category]Criteria{
		model.CategoryPressureSensor: {
			RequiredSpecs: []string{"measurement_range", "accuracy_class", "output_signal"},
			OptionalSpecs: []string{"protection_degree", "temperature_range", "material"},
			MinSpecs:      5,
		},
		model.CategorySteelCircle: {
			RequiredSpecs: []string{"diameter_mm", "steel_grade", "standard"},
			OptionalSpecs: []string{"length", "hardness", "surface_quality"},
			MinSpecs:      4,
		},
		model.CategoryHammer: {
			RequiredSpecs: []string{"striker_weight_kg", "length_mm", "type"},
			OptionalSpecs: []string{"handle_material", "standard", "brand"},
			MinSpecs:      4,
		},
		model.CategoryTire: {
			RequiredSpecs: []string{"width", "profile", "diameter", "season"},
			OptionalSpecs: []string{"speed_index", "load_index", "brand", "model"},
			MinSpecs:      5,
		},
	}
}
