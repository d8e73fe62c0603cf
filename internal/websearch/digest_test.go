package websearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	results := []Result{
		{Title: "unrelated", URL: "https://a", Snippet: "nothing"},
		{Title: "Молоток Gross 10605", URL: "https://b", Snippet: "молоток 450 г, длина 330 мм"},
		{Title: "Молоток Gross 10605", URL: "https://b", Snippet: "duplicate"},
		{Title: "catalog", URL: "https://c", Snippet: "gross hammer 0.45 kg"},
		{Title: "no url", URL: ""},
	}

	digest := Summarize(results, "Молоток Gross")
	require.Len(t, digest.Sources, 3)
	assert.Equal(t, "https://b", digest.Sources[0].URL)
	assert.Equal(t, "https://c", digest.Sources[1].URL)
	assert.Equal(t, "https://a", digest.Sources[2].URL)
	assert.Equal(t, "330", digest.Specifications["dimension_mm"])
	assert.Equal(t, "0.45", digest.Specifications["weight_kg"])
	// scores 3 + 1 + 0 over three results.
	assert.InDelta(t, 4.0/9.0, digest.Confidence, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	digest := Summarize(nil, "x")
	assert.Empty(t, digest.Sources)
	assert.Empty(t, digest.Specifications)
	assert.Zero(t, digest.Confidence)
}

func TestExtractSpecs(t *testing.T) {
	digest := &Digest{Specifications: map[string]string{}}
	ExtractSpecs("Давление 10 bar, диаметр 12.5mm, DIN 1013 и ISO 9001", digest)
	assert.Equal(t, "10 bar", digest.Specifications["pressure"])
	assert.Equal(t, "12.5", digest.Specifications["dimension_mm"])
	assert.Equal(t, []string{"DIN 1013", "ISO 9001"}, digest.Standards)
}
