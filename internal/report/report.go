// Package report builds the JSON summary written next to every output workbook.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Veraticus/mtr-normalizer/internal/model"
)

// FailedItem identifies a product that could not be processed.
type FailedItem struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Summary is the processing report for one input file.
type Summary struct {
	ProcessingDate       time.Time                      `json:"processing_date"`
	Categories           map[model.Category]int         `json:"categories"`
	Rejections           map[string]int                 `json:"rejections"`
	Statuses             map[model.ProcessingStatus]int `json:"statuses"`
	Source               string                         `json:"source,omitempty"`
	Failed               []FailedItem                   `json:"failed"`
	Total                int                            `json:"total"`
	Completed            int                            `json:"completed"`
	Rejected             int                            `json:"rejected"`
	FailedCount          int                            `json:"failed_count"`
	SuccessRatePercent   float64                        `json:"success_rate_percent"`
	AverageConfidence    float64                        `json:"average_confidence"`
	ProcessingTimeMillis int64                          `json:"processing_time_ms,omitempty"`
}

// Build derives a summary from products alone.
func Build(products []*model.Product, now time.Time) *Summary {
	s := &Summary{
		ProcessingDate: now,
		Categories:     make(map[model.Category]int),
		Rejections:     make(map[string]int),
		Statuses:       make(map[model.ProcessingStatus]int),
		Failed:         []FailedItem{},
		Total:          len(products),
	}

	confidenceSum, confidenceCount := 0.0, 0
	for _, p := range products {
		s.Statuses[p.Status]++
		s.Categories[p.Category]++

		switch p.Status {
		case model.StatusCompleted:
			s.Completed++
			confidenceSum += p.ConfidenceScore
			confidenceCount++
		case model.StatusRejected:
			s.Rejected++
			s.Rejections[p.Comment]++
		case model.StatusFailed:
			s.FailedCount++
			s.Failed = append(s.Failed, FailedItem{
				Code:  p.InternalCode,
				Name:  p.OriginalName,
				Error: p.ErrorMessage,
			})
		}
	}

	if s.Total > 0 {
		s.SuccessRatePercent = float64(s.Completed) / float64(s.Total) * 100
	}
	if confidenceCount > 0 {
		s.AverageConfidence = confidenceSum / float64(confidenceCount)
	}
	return s
}

// WithElapsed records how long processing took.
func (s *Summary) WithElapsed(d time.Duration) *Summary {
	s.ProcessingTimeMillis = d.Milliseconds()
	return s
}

// ReasonCount is one row of the rejection histogram.
type ReasonCount struct {
	Reason string
	Count  int
}

// TopRejections returns rejection reasons by descending count, ties by reason.
func (s *Summary) TopRejections() []ReasonCount {
	out := make([]ReasonCount, 0, len(s.Rejections))
	for reason, count := range s.Rejections {
		out = append(out, ReasonCount{Reason: reason, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

// Save writes the summary as indented JSON, creating parent directories.
func (s *Summary) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Load reads a summary written by Save.
func Load(path string) (*Summary, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the caller
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &s, nil
}

// PathFor returns the report path used for an output workbook.
func PathFor(outputPath string) string {
	ext := filepath.Ext(outputPath)
	return outputPath[:len(outputPath)-len(ext)] + "_report.json"
}
