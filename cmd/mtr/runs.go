package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mtr-normalizer/internal/cli"
	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/model"
)

func runsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show processing history",
		Long: `Without arguments, list recent runs. With a run ID, show the products of
that run that were not normalized.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx, settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(args) == 1 {
				run, err := store.GetRun(ctx, args[0])
				if err != nil {
					return common.NewUserError("Run "+args[0]+" not found", err)
				}
				products, err := store.GetRunProducts(ctx, run.ID)
				if err != nil {
					return err
				}

				var rows [][]string
				for _, p := range products {
					if p.Status == model.StatusCompleted {
						continue
					}
					detail := p.Comment
					if detail == "" {
						detail = p.ErrorMessage
					}
					rows = append(rows, []string{fmt.Sprintf("%d", p.Row), p.InternalCode, p.OriginalName, string(p.Status), detail})
				}
				fmt.Println(cli.FormatTitle(fmt.Sprintf("%s (%d/%d normalized)", run.SourceFile, run.Successful, run.Total)))
				fmt.Println(cli.RenderTable([]string{"Row", "Code", "Name", "Status", "Reason"}, rows))
				return nil
			}

			runs, err := store.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println(cli.FormatInfo("No runs recorded yet"))
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.ID,
					r.StartedAt.Local().Format(time.DateTime),
					r.SourceFile,
					fmt.Sprintf("%d", r.Total),
					cli.StyleSuccess(fmt.Sprintf("%d", r.Successful)),
					cli.StyleWarning(fmt.Sprintf("%d", r.Rejected)),
					cli.StyleError(fmt.Sprintf("%d", r.Failed)),
				})
			}
			fmt.Println(cli.RenderTable([]string{"ID", "Started", "File", "Total", "OK", "Rejected", "Failed"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list")
	return cmd
}
