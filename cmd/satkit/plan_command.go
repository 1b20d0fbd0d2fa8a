package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"satkit/internal/generation"
	"satkit/internal/scenario"
	"satkit/internal/storage"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var datasetPath string

	cmd := &cobra.Command{
		Use:   "plan <scenario.yaml>",
		Short: "Show the reuse-versus-generate plan for a scenario without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			spec, err := scenario.LoadSpec(args[0])
			if err != nil {
				return err
			}
			dataset, err := ctx.loadDataset(datasetPath)
			if err != nil {
				return err
			}

			resolver := scenario.New(cfg, generation.NewRegistry(), &storage.Local{}, logger)
			defer resolver.Close()
			plan := resolver.Resolve(dataset, spec)

			rows := make([][]string, 0, len(plan.Reuse)+len(plan.Generate)+len(plan.Failed))
			for _, item := range plan.Items() {
				detail := ""
				switch {
				case item.Action == scenario.ActionReuse:
					detail = item.ReuseFrom.Location
				case item.Stale:
					detail = "stale entry, regenerating"
				}
				rows = append(rows, []string{
					strconv.Itoa(item.Index + 1),
					item.Kind,
					item.SourcePath,
					string(item.Action),
					detail,
				})
			}
			for _, failed := range plan.Failed {
				rows = append(rows, []string{
					strconv.Itoa(failed.Index + 1),
					failed.Kind,
					failed.SourcePath,
					"error",
					failed.Err.Error(),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Kind", "Source", "Action", "Detail"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d to reuse, %d to generate, %d failed planning\n",
				len(plan.Reuse), len(plan.Generate), len(plan.Failed))
			return nil
		},
	}

	cmd.Flags().StringVarP(&datasetPath, "dataset", "d", "satkit.yaml", "Dataset description file")
	return cmd
}
