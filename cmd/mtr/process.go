package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Veraticus/mtr-normalizer/internal/classification"
	"github.com/Veraticus/mtr-normalizer/internal/cli"
	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/model"
	"github.com/Veraticus/mtr-normalizer/internal/report"
	"github.com/Veraticus/mtr-normalizer/internal/service"
	"github.com/Veraticus/mtr-normalizer/internal/sheets"
)

const normalizedSuffix = "_normalized"

func processCmd() *cobra.Command {
	var outDir string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Normalize one procurement workbook",
		Long: `Normalize every product row of an .xlsx workbook. The normalized copy and a
JSON report are written to the output directory.

With --dry-run the workbook is only parsed and categorized.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				return runDryRun(args[0])
			}

			p := &processor{outDir: resolveOutDir(outDir)}
			return p.runFiles(cmd.Context(), args)
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (default: output.dir from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and categorize without calling any oracle")
	return cmd
}

func batchCmd() *cobra.Command {
	var outDir string
	var pattern string

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Normalize every matching workbook in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := filepath.Glob(filepath.Join(args[0], pattern))
			if err != nil {
				return common.NewUserError("Invalid file pattern", err)
			}
			files = withoutOutputs(files)
			if len(files) == 0 {
				return common.NewUserError(fmt.Sprintf("No files matching %q in %s", pattern, args[0]), nil)
			}

			p := &processor{outDir: resolveOutDir(outDir)}
			return p.runFiles(cmd.Context(), files)
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (default: output.dir from config)")
	cmd.Flags().StringVar(&pattern, "pattern", "*.xlsx", "glob pattern for input files")
	return cmd
}

func resolveOutDir(flag string) string {
	if flag != "" {
		return flag
	}
	return settings.Output.Dir
}

// withoutOutputs drops files this tool produced and Excel lock files.
func withoutOutputs(files []string) []string {
	kept := files[:0]
	for _, f := range files {
		base := filepath.Base(f)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if strings.HasPrefix(base, "~$") || strings.HasSuffix(stem, normalizedSuffix) {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// outputPathFor places the normalized copy of input in outDir.
func outputPathFor(outDir, input string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	return filepath.Join(outDir, strings.TrimSuffix(base, ext)+normalizedSuffix+ext)
}

type processor struct {
	comps    *components
	progress progressSwitch
	outDir   string
}

func (p *processor) runFiles(ctx context.Context, files []string) error {
	interrupts := cli.NewInterruptHandler(os.Stderr)
	ctx, stop := interrupts.HandleInterrupts(ctx)
	defer stop()

	var failed []string
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		if err := p.runFile(ctx, file); err != nil {
			if len(files) == 1 {
				return err
			}
			common.LogError(err, "failed to process file", common.Fields{"file": file})
			failed = append(failed, file)
		}
	}

	if p.comps != nil {
		p.comps.Close()
	}

	if len(failed) > 0 {
		return common.NewUserError(fmt.Sprintf("%d of %d files failed: %s", len(failed), len(files), strings.Join(failed, ", ")), nil)
	}
	if interrupts.WasInterrupted() {
		return common.NewUserError("Processing interrupted", context.Canceled)
	}
	return nil
}

func (p *processor) runFile(ctx context.Context, path string) error {
	doc, err := sheets.NewReader(slog.Default()).ReadFile(path)
	if err != nil {
		return common.NewUserError("Failed to read "+path, err)
	}
	if len(doc.Products) == 0 {
		return common.NewUserError("Nothing to process in "+path, common.ErrNoProducts)
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("%s: %d products", filepath.Base(path), len(doc.Products))))

	progress := cli.NewProgressReporter(os.Stderr, len(doc.Products), "Normalizing products...")
	if p.comps == nil {
		comps, err := buildComponents(ctx, settings, &p.progress)
		if err != nil {
			return err
		}
		p.comps = comps
		if comps.offline {
			fmt.Println(cli.FormatWarning("Offline mode: results come from the built-in mock oracle"))
		}
	}
	p.progress.set(progress)

	started := time.Now()
	products, stats := p.comps.pipeline.Process(ctx, doc.Products)
	progress.Finish()

	outPath := outputPathFor(p.outDir, path)
	if err := sheets.NewWriter().Write(doc, products, outPath); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	summary := report.Build(products, time.Now()).WithElapsed(stats.Elapsed)
	summary.Source = path
	reportPath := report.PathFor(outPath)
	if err := summary.Save(reportPath); err != nil {
		return err
	}

	// A canceled run is still recorded.
	run := &service.Run{
		ID:         uuid.NewString(),
		SourceFile: path,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Total:      stats.Total,
		Successful: stats.Successful,
		Rejected:   stats.Rejected,
		Failed:     stats.Failed,
	}
	if err := p.comps.store.SaveRun(context.WithoutCancel(ctx), run, products); err != nil {
		slog.Warn("failed to record run", "error", err)
	}

	fmt.Println(report.NewCLIFormatter().FormatSummary(summary))
	fmt.Println(cli.FormatSuccess("Saved " + outPath))
	fmt.Println(cli.FormatInfo("Report " + reportPath))
	return nil
}

// runDryRun parses a workbook and shows the detected category distribution.
func runDryRun(path string) error {
	doc, err := sheets.NewReader(slog.Default()).ReadFile(path)
	if err != nil {
		return common.NewUserError("Failed to read "+path, err)
	}

	names := make([]string, len(doc.Products))
	for i, product := range doc.Products {
		names[i] = product.OriginalName
	}

	detector := classification.NewDefaultDetector()
	distribution := detector.Distribution(names)

	rows := make([][]string, 0, len(distribution))
	for _, c := range append(model.Categories(), model.CategoryUnknown) {
		if n := distribution[c]; n > 0 {
			rows = append(rows, []string{c.String(), fmt.Sprintf("%d", n)})
		}
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Dry run: %s", filepath.Base(path))))
	fmt.Println(cli.FormatInfo(fmt.Sprintf("Sheet %q, header row %d, %d products", doc.Sheet, doc.HeaderRow, len(doc.Products))))
	fmt.Println(cli.RenderTable([]string{"Category", "Products"}, rows))

	var hintRows [][]string
	for i, hints := range detector.UnknownHints(names) {
		if len(hints) == 0 {
			continue
		}
		product := doc.Products[i]
		hintRows = append(hintRows, []string{fmt.Sprintf("%d", product.Row), product.OriginalName, strings.Join(hints, "; ")})
	}
	if len(hintRows) > 0 {
		fmt.Println(cli.FormatInfo("Unknown products with keyword hints:"))
		fmt.Println(cli.RenderTable([]string{"Row", "Product", "Hints"}, hintRows))
	}
	return nil
}

// progressSwitch lets one pipeline report into a fresh bar per file.
type progressSwitch struct {
	current *cli.ProgressReporter
}

func (s *progressSwitch) set(r *cli.ProgressReporter) { s.current = r }

func (s *progressSwitch) Advance(product *model.Product) {
	if s.current != nil {
		s.current.Advance(product)
	}
}
