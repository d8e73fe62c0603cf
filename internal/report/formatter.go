package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/mtr-normalizer/internal/cli"
	"github.com/Veraticus/mtr-normalizer/internal/model"
)

const maxFailedShown = 10

// CLIFormatter renders summaries for terminal display.
type CLIFormatter struct {
	label lipgloss.Style
	value lipgloss.Style
}

// NewCLIFormatter creates a formatter with the shared CLI styles.
func NewCLIFormatter() *CLIFormatter {
	return &CLIFormatter{
		label: cli.TableCellStyle.Width(28),
		value: cli.BoldStyle,
	}
}

// FormatSummary renders the headline numbers, category distribution,
// rejection histogram and failed items.
func (f *CLIFormatter) FormatSummary(s *Summary) string {
	if s == nil {
		return cli.FormatError("No report available")
	}

	var sections []string
	sections = append(sections, cli.RenderBox(cli.ChartIcon+" Processing summary", f.formatTotals(s)))

	if len(s.Categories) > 0 {
		sections = append(sections, f.formatCategories(s))
	}
	if len(s.Rejections) > 0 {
		sections = append(sections, f.formatRejections(s))
	}
	if len(s.Failed) > 0 {
		sections = append(sections, f.formatFailed(s))
	}
	return strings.Join(sections, "\n\n")
}

func (f *CLIFormatter) row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, f.label.Render(label), f.value.Render(value))
}

func (f *CLIFormatter) formatTotals(s *Summary) string {
	rows := []string{
		f.row("Total products", fmt.Sprintf("%d", s.Total)),
		f.row("Completed", cli.StyleSuccess(fmt.Sprintf("%d", s.Completed))),
		f.row("Rejected", cli.StyleWarning(fmt.Sprintf("%d", s.Rejected))),
		f.row("Failed", cli.StyleError(fmt.Sprintf("%d", s.FailedCount))),
		f.row("Success rate", fmt.Sprintf("%.1f%%", s.SuccessRatePercent)),
	}
	if s.AverageConfidence > 0 {
		rows = append(rows, f.row("Average confidence", fmt.Sprintf("%.2f", s.AverageConfidence)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (f *CLIFormatter) formatCategories(s *Summary) string {
	lines := []string{cli.TableHeaderStyle.Render("Categories")}
	order := append(model.Categories(), model.CategoryUnknown)
	for _, c := range order {
		if n := s.Categories[c]; n > 0 {
			lines = append(lines, f.row(c.String(), fmt.Sprintf("%d", n)))
		}
	}
	return strings.Join(lines, "\n")
}

func (f *CLIFormatter) formatRejections(s *Summary) string {
	lines := []string{cli.TableHeaderStyle.Render("Rejections")}
	for _, rc := range s.TopRejections() {
		lines = append(lines, fmt.Sprintf("%s %s", cli.StyleWarning(fmt.Sprintf("%4d", rc.Count)), rc.Reason))
	}
	return strings.Join(lines, "\n")
}

func (f *CLIFormatter) formatFailed(s *Summary) string {
	lines := []string{cli.TableHeaderStyle.Render("Failed")}
	for i, item := range s.Failed {
		if i == maxFailedShown {
			lines = append(lines, cli.SubtleStyle.Render(fmt.Sprintf("... and %d more", len(s.Failed)-maxFailedShown)))
			break
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			cli.StyleError(cli.ErrorIcon),
			cli.BoldStyle.Render(item.Code),
			cli.SubtleStyle.Render(item.Name+": "+item.Error)))
	}
	return strings.Join(lines, "\n")
}
