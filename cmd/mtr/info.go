package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/mtr-normalizer/internal/cli"
	"github.com/Veraticus/mtr-normalizer/internal/config"
	"github.com/Veraticus/mtr-normalizer/internal/model"
)

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show configuration and supported categories",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(cli.FormatTitle("mtr " + version))

			cfgUsed := viper.ConfigFileUsed()
			if cfgUsed == "" {
				cfgUsed = "(defaults)"
			}
			key := cli.StyleError("missing (" + config.ProviderKeyEnv(settings.LLM.Provider) + ")")
			if settings.HasAPIKey() {
				key = cli.StyleSuccess("configured")
			}

			fmt.Println(cli.RenderTable([]string{"Setting", "Value"}, [][]string{
				{"Config file", cfgUsed},
				{"LLM provider", settings.LLM.Provider},
				{"LLM model", settings.LLM.Model},
				{"API key", key},
				{"Workers", fmt.Sprintf("%d", settings.Processing.Workers)},
				{"Batch size", fmt.Sprintf("%d", settings.Processing.BatchSize)},
				{"Max retries", fmt.Sprintf("%d", settings.Processing.MaxRetries)},
				{"Call timeout", settings.Processing.CallTimeout.String()},
				{"Database", settings.Database.Path},
				{"Output directory", settings.Output.Dir},
			}))
			fmt.Println()

			rows := make([][]string, 0, len(model.Categories()))
			for _, c := range model.Categories() {
				info, _ := c.Info()
				rows = append(rows, []string{
					c.String(),
					info.OKPD2Prefix,
					strings.Join(info.Units, ", "),
					strings.Join(info.Keywords[:min(4, len(info.Keywords))], ", "),
				})
			}
			fmt.Println(cli.RenderTable([]string{"Category", "OKPD2", "Units", "Keywords"}, rows))
		},
	}
}
