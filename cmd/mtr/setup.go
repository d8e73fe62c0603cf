package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mtr-normalizer/internal/cli"
	"github.com/Veraticus/mtr-normalizer/internal/config"
)

func setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create working directories and check credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}

			dirs := []string{cfgDir, settings.Output.Dir, filepath.Dir(settings.Database.Path)}
			for _, dir := range dirs {
				if err := os.MkdirAll(dir, 0750); err != nil {
					return fmt.Errorf("failed to create %s: %w", dir, err)
				}
				fmt.Println(cli.FormatSuccess("Directory " + dir))
			}

			store, err := initStorage(cmd.Context(), settings)
			if err != nil {
				return err
			}
			_ = store.Close()
			fmt.Println(cli.FormatSuccess("Database " + settings.Database.Path))

			if settings.HasAPIKey() {
				fmt.Println(cli.FormatSuccess("API key for " + settings.LLM.Provider))
			} else {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("No API key for %s: set %s or llm.api_key in %s",
					settings.LLM.Provider, config.ProviderKeyEnv(settings.LLM.Provider), filepath.Join(cfgDir, "config.yaml"))))
				fmt.Println(cli.FormatInfo("Until then commands run with the offline oracle"))
			}
			return nil
		},
	}
}
