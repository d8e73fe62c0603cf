package model

import (
	"fmt"
	"time"
)

// ProcessingBatch groups products of one category that run together.
type ProcessingBatch struct {
	StartedAt      time.Time
	FinishedAt     time.Time
	ID             string
	Category       Category
	Products       []*Product
	TotalCount     int
	ProcessedCount int
	FailedCount    int
}

// NewProcessingBatch creates a batch with a deterministic identifier.
func NewProcessingBatch(category Category, index int, products []*Product) *ProcessingBatch {
	return &ProcessingBatch{
		ID:         fmt.Sprintf("%s_%d", category, index),
		Category:   category,
		Products:   products,
		TotalCount: len(products),
	}
}

// SuccessRate returns (processed - failed) / processed, or 0 when nothing ran.
func (b *ProcessingBatch) SuccessRate() float64 {
	if b.ProcessedCount == 0 {
		return 0
	}
	return float64(b.ProcessedCount-b.FailedCount) / float64(b.ProcessedCount)
}
