package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/mtr-normalizer/internal/model"
)

// RunStats summarizes a Process call.
type RunStats struct {
	Batches    []*model.ProcessingBatch
	Total      int
	Successful int
	Rejected   int
	Failed     int
	Elapsed    time.Duration
}

func newRunStats(products []*model.Product, batches []*model.ProcessingBatch, elapsed time.Duration) RunStats {
	stats := RunStats{
		Total:   len(products),
		Batches: batches,
		Elapsed: elapsed,
	}
	for _, product := range products {
		switch product.Status {
		case model.StatusCompleted:
			stats.Successful++
		case model.StatusRejected:
			stats.Rejected++
		case model.StatusFailed:
			stats.Failed++
		}
	}
	return stats
}

// SuccessRate returns the share of products that completed.
func (s RunStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Successful) / float64(s.Total)
}

// GetDisplay returns a JSON representation of the stats.
func (s RunStats) GetDisplay() string {
	if s.Total == 0 {
		return `{"message":"No products to process"}`
	}

	type statsJSON struct {
		Elapsed        string  `json:"elapsed"`
		Total          int     `json:"total"`
		Successful     int     `json:"successful"`
		Rejected       int     `json:"rejected"`
		Failed         int     `json:"failed"`
		Batches        int     `json:"batches"`
		SuccessPercent float64 `json:"success_percent"`
	}

	data := statsJSON{
		Total:          s.Total,
		Successful:     s.Successful,
		Rejected:       s.Rejected,
		Failed:         s.Failed,
		Batches:        len(s.Batches),
		SuccessPercent: s.SuccessRate() * 100,
		Elapsed:        s.Elapsed.Round(time.Millisecond).String(),
	}

	bytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf(`{"error":"Failed to marshal stats: %v"}`, err)
	}
	return string(bytes)
}
