package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mtr-normalizer/internal/classification"
	"github.com/Veraticus/mtr-normalizer/internal/cli"
	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/model"
)

var sampleProducts = map[model.Category][]string{
	model.CategoryPressureSensor: {
		"Датчик давления ОВЕН ПД100И-ДГ0.25-111-0.5",
		"Преобразователь давления Endress+Hauser PMC51",
	},
	model.CategorySteelCircle: {
		"Круг стальной горячекатаный В1-II 10ММ ГОСТ 2590-2006 СТ3СП",
		"Круг калиброванный 20 мм сталь 45",
	},
	model.CategoryHammer: {
		"Молоток-гвоздодер Gross 10605 450г фиберглас",
		"Молоток слесарный 500 г с фиберглассовой рукояткой",
	},
	model.CategoryTire: {
		"Шина зимняя Nokian Tyres Hakkapeliitta R5 SUV 265/65 R17",
		"Шина летняя Michelin Primacy 4 205/55 R16",
	},
}

func testCmd() *cobra.Command {
	var pipeline bool

	cmd := &cobra.Command{
		Use:       "test <sensor|steel|hammer|tire|all>",
		Short:     "Check category detection on built-in sample products",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"sensor", "steel", "hammer", "tire", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			categories, err := testCategories(args[0])
			if err != nil {
				return err
			}
			if err := runDetectionTest(categories); err != nil {
				return err
			}
			if pipeline {
				return runPipelineTest(cmd.Context(), categories)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pipeline, "pipeline", false, "also run the samples through the full pipeline")
	return cmd
}

func testCategories(arg string) ([]model.Category, error) {
	if arg == "all" {
		return model.Categories(), nil
	}
	category, err := model.ParseCategory(arg)
	if err != nil || category == model.CategoryUnknown {
		return nil, common.NewUserError(fmt.Sprintf("Unknown category %q", arg), err)
	}
	return []model.Category{category}, nil
}

func runDetectionTest(categories []model.Category) error {
	detector := classification.NewDefaultDetector()

	var rows [][]string
	mismatches := 0
	for _, want := range categories {
		for _, name := range sampleProducts[want] {
			got, confidence := detector.Detect(name)
			mark := cli.StyleSuccess(cli.SuccessIcon)
			if got != want {
				mark = cli.StyleError(cli.ErrorIcon)
				mismatches++
			}
			rows = append(rows, []string{mark, name, got.String(), fmt.Sprintf("%.2f", confidence)})
		}
	}

	fmt.Println(cli.FormatTitle("Category detection"))
	fmt.Println(cli.RenderTable([]string{"", "Product", "Detected", "Confidence"}, rows))

	if mismatches > 0 {
		return common.NewUserError(fmt.Sprintf("%d of %d samples detected incorrectly", mismatches, len(rows)), nil)
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("All %d samples detected correctly", len(rows))))
	return nil
}

func runPipelineTest(ctx context.Context, categories []model.Category) error {
	var products []*model.Product
	for _, category := range categories {
		unit := "шт"
		if category == model.CategorySteelCircle {
			unit = "т"
		}
		for i, name := range sampleProducts[category] {
			products = append(products, model.NewProduct(fmt.Sprintf("TEST-%s-%d", category, i+1), name, unit, ""))
		}
	}

	progress := cli.NewProgressReporter(nil, len(products), "Running pipeline...")
	comps, err := buildComponents(ctx, settings, progress)
	if err != nil {
		return err
	}
	defer comps.Close()

	results, stats := comps.pipeline.Process(ctx, products)
	progress.Finish()

	rows := make([][]string, 0, len(results))
	for _, p := range results {
		detail := p.Comment
		if p.Status == model.StatusFailed {
			detail = p.ErrorMessage
		}
		rows = append(rows, []string{string(p.Status), p.OriginalName, p.OKPD2Code, p.NormalizedUnit, detail})
	}

	fmt.Println(cli.FormatTitle("Pipeline"))
	fmt.Println(cli.RenderTable([]string{"Status", "Product", "OKPD2", "Unit", "Comment"}, rows))
	fmt.Println(cli.FormatInfo(stats.GetDisplay()))
	return nil
}
