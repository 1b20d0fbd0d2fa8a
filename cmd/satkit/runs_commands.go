package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"satkit/internal/runstore"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List past scenario runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := runstore.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					run.Scenario,
					run.StartedAt.Local().Format(time.RFC3339),
					strconv.Itoa(run.Reused),
					strconv.Itoa(run.Generated),
					strconv.Itoa(run.Failed),
					run.WorkingDir,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Run", "Scenario", "Started", "Reused", "Generated", "Failed", "Working dir"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	runsCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")

	runsCmd.AddCommand(newRunsShowCommand(ctx))
	return runsCmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the per-item outcomes of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := runstore.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.Items(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return fmt.Errorf("no run with id %s", args[0])
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				detail := item.Location
				if item.Error != "" {
					detail = item.Error
				}
				outcome := item.Outcome
				if item.StaleRecovered {
					outcome += " (stale recovered)"
				}
				rows = append(rows, []string{
					strconv.Itoa(item.Index + 1),
					item.Kind,
					item.SourcePath,
					outcome,
					detail,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Kind", "Source", "Outcome", "Detail"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
