package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/mtr-normalizer/internal/model"
)

// ProgressReporter draws a progress bar as products reach a terminal state.
// It is safe for concurrent use by pipeline workers.
type ProgressReporter struct {
	writer    io.Writer
	bar       *progressbar.ProgressBar
	counts    map[model.ProcessingStatus]int
	mu        sync.Mutex
	processed int
}

// NewProgressReporter creates a reporter for total products.
func NewProgressReporter(writer io.Writer, total int, description string) *ProgressReporter {
	if writer == nil {
		writer = os.Stderr
	}
	r := &ProgressReporter{
		writer: writer,
		counts: make(map[model.ProcessingStatus]int),
	}
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(writer); err != nil {
				slog.Warn("failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return r
}

// Advance records one finished product.
func (r *ProgressReporter) Advance(product *model.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.processed++
	r.counts[product.Status]++
	if err := r.bar.Add(1); err != nil {
		slog.Warn("failed to update progress bar", "error", err)
	}
}

// Processed returns how many products have finished.
func (r *ProgressReporter) Processed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processed
}

// Count returns how many finished products ended in status.
func (r *ProgressReporter) Count(status model.ProcessingStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[status]
}

// Finish completes the bar even when fewer products were reported.
func (r *ProgressReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.bar.Finish(); err != nil {
		slog.Warn("failed to finish progress bar", "error", err)
	}
}
