// Package sheets reads procurement workbooks and writes normalized copies.
package sheets

import "strings"

// Canonical column fields.
const (
	FieldCategoryName   = "category_name"
	FieldInternalCode   = "internal_code"
	FieldOriginalName   = "original_name"
	FieldOriginalUnit   = "original_unit"
	FieldNormalizedUnit = "normalized_unit"
	FieldOKPD2Code      = "okpd2_code"
	FieldComment        = "comment"
)

var headerFields = map[string]string{
	"Наименование категории":     FieldCategoryName,
	"Внутренний код организации": FieldInternalCode,
	"Наименование исходное":      FieldOriginalName,
	"Единица измерения исходная": FieldOriginalUnit,
	"Единица измерения":          FieldNormalizedUnit,
	"ОКПД2":                      FieldOKPD2Code,
	"Комментарий":                FieldComment,

	"Category name":               FieldCategoryName,
	"Internal organization code":  FieldInternalCode,
	"Initial name":                FieldOriginalName,
	"Initial unit of measurement": FieldOriginalUnit,
	"Unit of measurement":         FieldNormalizedUnit,
	"OKPD2":                       FieldOKPD2Code,
	"Comment":                     FieldComment,
}

// Russian headers used when an output column has to be added.
var outputHeaders = map[string]string{
	FieldNormalizedUnit: "Единица измерения",
	FieldOKPD2Code:      "ОКПД2",
	FieldComment:        "Комментарий",
}

var mainSheetPatterns = []string{"отчет", "недостающие", "данные", "data", "main", "products"}

var requiredFields = []string{FieldOriginalName, FieldInternalCode, FieldOriginalUnit}

// isKnownHeader reports whether a cell is one of the bilingual headers.
func isKnownHeader(cell string) bool {
	_, ok := headerFields[strings.TrimSpace(cell)]
	return ok
}

// fieldFor maps a header to its canonical field. Unknown headers become
// lower-case snake-case specification keys.
func fieldFor(header string) string {
	header = strings.TrimSpace(header)
	if field, ok := headerFields[header]; ok {
		return field
	}
	return strings.ReplaceAll(strings.ToLower(header), " ", "_")
}

func isCoreField(field string) bool {
	switch field {
	case FieldCategoryName, FieldInternalCode, FieldOriginalName, FieldOriginalUnit,
		FieldNormalizedUnit, FieldOKPD2Code, FieldComment:
		return true
	}
	return false
}
