package okpd2

import (
	"context"
	"strings"

	"github.com/Veraticus/mtr-normalizer/internal/model"
)

// CatalogEntry maps a lookup stem to the codes it yields.
type CatalogEntry struct {
	Stem  string
	Codes []model.Candidate
}

// Catalog is an offline CandidateSource backed by a small built-in table.
// A term matches the first entry whose stem it contains, case-insensitive.
type Catalog struct {
	entries []CatalogEntry
}

// NewCatalog creates a catalog from entries; nil means DefaultCatalog.
func NewCatalog(entries []CatalogEntry) *Catalog {
	if entries == nil {
		entries = DefaultCatalog()
	}
	return &Catalog{entries: entries}
}

// DefaultCatalog returns codes for the four supported product families.
func DefaultCatalog() []CatalogEntry {
	return []CatalogEntry{
		{Stem: "датчик", Codes: []model.Candidate{
			{Code: "26.51.52.110", Name: "Датчики давления", Level: 4},
			{Code: "26.51.52", Name: "Приборы для измерения давления", Level: 3},
		}},
		{Stem: "круг", Codes: []model.Candidate{
			{Code: "24.10.75.111", Name: "Прокат круглый", Level: 4},
			{Code: "24.10.75", Name: "Прокат стальной", Level: 3},
		}},
		{Stem: "молоток", Codes: []model.Candidate{
			{Code: "25.73.30.123", Name: "Молотки слесарные", Level: 4},
			{Code: "25.73.30", Name: "Инструмент ручной", Level: 3},
		}},
		{Stem: "шина", Codes: []model.Candidate{
			{Code: "22.11.11.000", Name: "Шины для легковых автомобилей", Level: 4},
			{Code: "22.11.11", Name: "Шины и покрышки", Level: 3},
		}},
	}
}

// FindCandidates implements service.CandidateSource.
func (c *Catalog) FindCandidates(_ context.Context, term string) ([]model.Candidate, error) {
	lower := strings.ToLower(term)
	for _, e := range c.entries {
		if strings.Contains(lower, e.Stem) {
			out := make([]model.Candidate, len(e.Codes))
			copy(out, e.Codes)
			return out, nil
		}
	}
	return nil, nil
}
