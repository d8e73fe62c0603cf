package testutil

import "github.com/Veraticus/mtr-normalizer/internal/model"

// Fixture is a sample product with the outcome a complete pipeline run
// produces for it.
type Fixture struct {
	InternalCode string
	Name         string
	Unit         string
	Category     model.Category
	OKPD2Code    string
	NormalUnit   string
}

// Fixtures covers each supported category plus one product outside all of them.
var Fixtures = []Fixture{
	{InternalCode: "MTR-001", Name: "Датчик давления ОВЕН ПД100И-ДГ0.25-111-0.5", Unit: "шт", Category: model.CategoryPressureSensor, OKPD2Code: "26.51.52.110", NormalUnit: "штука"},
	{InternalCode: "MTR-002", Name: "Круг стальной горячекатаный В1-II 10ММ ГОСТ 2590-2006 СТ3СП", Unit: "т", Category: model.CategorySteelCircle, OKPD2Code: "24.10.75.111", NormalUnit: "тонна"},
	{InternalCode: "MTR-003", Name: "Молоток-гвоздодер Gross 10605 450г фиберглас", Unit: "шт", Category: model.CategoryHammer, OKPD2Code: "25.73.30.123", NormalUnit: "штука"},
	{InternalCode: "MTR-004", Name: "Шина зимняя Nokian Tyres Hakkapeliitta R5 SUV 265/65 R17", Unit: "шт", Category: model.CategoryTire, OKPD2Code: "22.11.11.000", NormalUnit: "штука"},
	{InternalCode: "MTR-005", Name: "Болт М12х50 оцинкованный", Unit: "шт", Category: model.CategoryUnknown, NormalUnit: "шт"},
}

// Products returns fresh pending products for the fixtures.
func Products() []*model.Product {
	out := make([]*model.Product, len(Fixtures))
	for i, f := range Fixtures {
		out[i] = model.NewProduct(f.InternalCode, f.Name, f.Unit, "")
	}
	return out
}
