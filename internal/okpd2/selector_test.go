package okpd2

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mtr-normalizer/internal/model"
)

func TestCodeLevel(t *testing.T) {
	tests := map[string]int{
		"26.51.52.110": 4,
		"26.51.52":     3,
		"26.51.00":     2,
		"26.51":        2,
		"26.00":        1,
		"26":           1,
		"00.00.00":     1,
	}
	for code, want := range tests {
		t.Run(code, func(t *testing.T) {
			assert.Equal(t, want, CodeLevel(code))
		})
	}
}

func TestParentCode(t *testing.T) {
	assert.Equal(t, "26.51.52", ParentCode("26.51.52.110"))
	assert.Equal(t, "26.51", ParentCode("26.51.52"))
	assert.Equal(t, "26", ParentCode("26.51"))
	assert.Empty(t, ParentCode("26"))
}

func TestValidCode(t *testing.T) {
	assert.True(t, ValidCode("26.51.52"))
	assert.True(t, ValidCode("26.51.52.110"))
	assert.False(t, ValidCode("26.51"))
	assert.False(t, ValidCode("26.51.52.11"))
	assert.False(t, ValidCode("2651.52.110"))
	assert.False(t, ValidCode(""))
}

func TestSelector_Select(t *testing.T) {
	s := NewSelector()

	t.Run("prefers specific code with category prefix", func(t *testing.T) {
		product := &model.Product{OriginalName: "Молоток слесарный 0.5КГ 320ММ"}
		candidates := []model.Candidate{
			{Code: "25.73.30", Name: "Инструмент ручной", Level: 3},
			{Code: "25.73.30.123", Name: "Молотки слесарные", Level: 4},
		}

		got := s.Select(candidates, product, model.CategoryHammer, nil)
		assert.Equal(t, "25.73.30.123", got.Code)
		assert.Equal(t, "Молотки слесарные", got.Name)
		assert.Equal(t, 4, got.Level)
		assert.Equal(t, "25.73.30", got.ParentCode)
		assert.InDelta(t, 1.0, got.Confidence, 1e-9)
		require.Len(t, got.Alternatives, 1)
		assert.Equal(t, "25.73.30", got.Alternatives[0].Code)
		assert.InDelta(t, 0.9, got.Alternatives[0].Score, 1e-9)
	})

	t.Run("ties keep input order", func(t *testing.T) {
		product := &model.Product{OriginalName: "Изделие"}
		a := model.Candidate{Code: "11.11.11", Name: "A"}
		b := model.Candidate{Code: "22.22.22", Name: "B"}

		got := s.Select([]model.Candidate{a, b}, product, model.CategoryUnknown, nil)
		assert.Equal(t, "11.11.11", got.Code)

		got = s.Select([]model.Candidate{b, a}, product, model.CategoryUnknown, nil)
		assert.Equal(t, "22.22.22", got.Code)
	})

	t.Run("name word bonus is capped", func(t *testing.T) {
		product := &model.Product{OriginalName: "alpha beta gamma delta epsilon"}
		candidates := []model.Candidate{{Code: "99.99", Name: "Alpha Beta Gamma Delta Epsilon", Level: 1}}

		got := s.Select(candidates, product, model.CategoryUnknown, nil)
		assert.InDelta(t, 0.5, got.Confidence, 1e-9)
	})

	t.Run("short name words are ignored", func(t *testing.T) {
		product := &model.Product{OriginalName: "кран шар"}
		candidates := []model.Candidate{{Code: "99.99", Name: "шар", Level: 1}}

		got := s.Select(candidates, product, model.CategoryUnknown, nil)
		assert.InDelta(t, 0.2, got.Confidence, 1e-9)
	})

	t.Run("research product type adds a bonus", func(t *testing.T) {
		product := &model.Product{OriginalName: "abc"}
		candidates := []model.Candidate{{Code: "26.51.52.110", Name: "Датчики давления"}}
		research := &model.ResearchOutcome{ProductType: "Датчик"}

		got := s.Select(candidates, product, model.CategoryUnknown, research)
		assert.Equal(t, 4, got.Level, "level is inferred from the code")
		assert.InDelta(t, 1.0, got.Confidence, 1e-9)
	})

	t.Run("at most three alternatives", func(t *testing.T) {
		product := &model.Product{OriginalName: "x"}
		var candidates []model.Candidate
		for i := 1; i <= 6; i++ {
			candidates = append(candidates, model.Candidate{Code: fmt.Sprintf("%02d.11.11", i), Name: "n"})
		}

		got := s.Select(candidates, product, model.CategoryUnknown, nil)
		assert.Equal(t, "01.11.11", got.Code)
		require.Len(t, got.Alternatives, 3)
		assert.Equal(t, "02.11.11", got.Alternatives[0].Code)
		assert.Equal(t, "04.11.11", got.Alternatives[2].Code)
	})

	t.Run("well-formed candidates give a well-formed code", func(t *testing.T) {
		product := &model.Product{OriginalName: "Шина летняя"}
		for _, entry := range DefaultCatalog() {
			got := s.Select(entry.Codes, product, model.CategoryTire, nil)
			assert.True(t, ValidCode(got.Code), got.Code)
		}
	})
}

func TestSelector_Fallback(t *testing.T) {
	s := NewSelector()
	product := &model.Product{OriginalName: "anything"}

	for _, c := range model.Categories() {
		t.Run(string(c), func(t *testing.T) {
			got := s.Select(nil, product, c, nil)
			assert.Equal(t, c.OKPD2Prefix(), got.Code)
			assert.Equal(t, 2, got.Level)
			assert.InDelta(t, 0.3, got.Confidence, 1e-9)
			assert.Empty(t, got.Alternatives)
		})
	}

	t.Run("unknown category", func(t *testing.T) {
		got := s.Select([]model.Candidate{}, product, model.CategoryUnknown, nil)
		assert.Equal(t, UnknownCode, got.Code)
		assert.Equal(t, 1, got.Level)
		assert.InDelta(t, 0.1, got.Confidence, 1e-9)
	})
}
