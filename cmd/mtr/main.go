// Command mtr normalizes MTR procurement spreadsheets: it detects product
// categories, researches specifications, assigns OKPD2 codes and writes a
// normalized workbook with a JSON summary.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/mtr-normalizer/internal/cli"
	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/config"
)

var (
	cfgFile  string
	offline  bool
	version  = "dev"
	settings *config.Settings
	rootCmd  = &cobra.Command{
		Use:   "mtr",
		Short: "📦 MTR procurement data normalizer",
		Long: `mtr reads procurement spreadsheets, detects the product category of every
row, researches its specifications, assigns an OKPD2 code and writes the
normalized workbook together with a JSON processing report.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/mtr/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "use the built-in mock oracle and OKPD2 catalog instead of the LLM and web")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(testCmd())
	rootCmd.AddCommand(runsCmd())
	rootCmd.AddCommand(infoCmd())
	rootCmd.AddCommand(setupCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, cli.FormatError(userErr.Error()))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	v := viper.GetViper()
	if err := config.Init(v, cfgFile); err != nil {
		return err
	}

	level, err := common.ParseLevel(v.GetString("logging.level"))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if err := common.SetupLogger(level, v.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	s, err := config.Load(v)
	if err != nil {
		return err
	}
	settings = s
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			slog.Info("mtr version", "version", version)
		},
	}
}
