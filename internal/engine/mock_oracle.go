package engine

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/Veraticus/mtr-normalizer/internal/model"
	"github.com/Veraticus/mtr-normalizer/internal/websearch"
)

// MockOracle is an offline research and suggestion oracle. It returns
// deterministic, complete specifications per category and supports failure
// injection for tests and the self-test command.
type MockOracle struct {
	failures map[string]error
	panics   map[string]bool
	calls    []MockOracleCall
	delay    time.Duration
	mu       sync.Mutex
}

// MockOracleCall records one research request.
type MockOracleCall struct {
	Name     string
	Category model.Category
}

// NewMockOracle creates a mock oracle.
func NewMockOracle() *MockOracle {
	return &MockOracle{
		failures: make(map[string]error),
		panics:   make(map[string]bool),
	}
}

// FailOn makes research for the named product return err.
func (m *MockOracle) FailOn(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[name] = err
}

// PanicOn makes research for the named product panic.
func (m *MockOracle) PanicOn(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panics[name] = true
}

// SetDelay makes every research call wait d, honoring cancellation.
func (m *MockOracle) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

var mockSpecs = map[model.Category]map[string]string{
	model.CategoryPressureSensor: {
		"measurement_range": "0...1 МПа",
		"accuracy_class":    "0.5",
		"output_signal":     "4...20 мА",
		"protection_degree": "IP65",
		"temperature_range": "-40...+80 °C",
	},
	model.CategorySteelCircle: {
		"diameter_mm":     "10",
		"steel_grade":     "Ст3сп",
		"standard":        "ГОСТ 2590-2006",
		"surface_quality": "горячекатаный",
	},
	model.CategoryHammer: {
		"striker_weight_kg": "0.5",
		"length_mm":         "320",
		"type":              "слесарный",
		"handle_material":   "фибергласс",
	},
	model.CategoryTire: {
		"width":       "265",
		"profile":     "65",
		"diameter":    "17",
		"season":      "зимняя",
		"speed_index": "T",
	},
}

var mockManufacturers = map[model.Category]string{
	model.CategoryPressureSensor: "ОВЕН",
	model.CategorySteelCircle:    "ММК",
	model.CategoryHammer:         "Зубр",
	model.CategoryTire:           "Nokian",
}

// Research implements service.ResearchOracle.
func (m *MockOracle) Research(ctx context.Context, product *model.Product, category model.Category) (*model.ResearchOutcome, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockOracleCall{Name: product.OriginalName, Category: category})
	err := m.failures[product.OriginalName]
	shouldPanic := m.panics[product.OriginalName]
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if shouldPanic {
		panic(fmt.Sprintf("mock research panic for %q", product.OriginalName))
	}
	if err != nil {
		return nil, err
	}

	manufacturer := "unknown"
	if brands := websearch.ExtractManufacturers(product.OriginalName); len(brands) > 0 {
		manufacturer = brands[0]
	} else if fallback, ok := mockManufacturers[category]; ok {
		manufacturer = fallback
	}

	info, _ := category.Info()
	productType := ""
	if len(info.SearchTerms) > 0 {
		productType = info.SearchTerms[0]
	}

	specs := make(map[string]string)
	maps.Copy(specs, mockSpecs[category])

	return &model.ResearchOutcome{
		Manufacturer:   manufacturer,
		Model:          websearch.ExtractModel(product.OriginalName),
		ProductType:    productType,
		Specifications: specs,
		Sources:        []string{"mock://catalog"},
		Confidence:     0.9,
	}, nil
}

// Suggest implements service.SuggestionOracle.
func (m *MockOracle) Suggest(_ context.Context, product *model.Product, issues []string) ([]string, error) {
	suggestions := make([]string, 0, len(issues))
	for _, issue := range issues {
		suggestions = append(suggestions, fmt.Sprintf("%s: %s", product.InternalCode, issue))
	}
	return suggestions, nil
}

// GetCalls returns all recorded research calls.
func (m *MockOracle) GetCalls() []MockOracleCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]MockOracleCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}
