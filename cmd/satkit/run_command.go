package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"satkit/internal/generation"
	"satkit/internal/logging"
	"satkit/internal/preflight"
	"satkit/internal/runstore"
	"satkit/internal/scenario"
	"satkit/internal/storage"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var datasetPath string
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Resolve and execute a scenario",
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

			if !skipPreflight {
				results := preflight.RunAll(cfg)
				if !preflight.AllPassed(results) {
					printPreflight(cmd, results)
					return errors.New("preflight checks failed")
				}
			}

			resolver := scenario.New(cfg, generation.NewRegistry(),
				&storage.Local{Verified: cfg.Scenario.VerifiedCopies}, logger)
			report, runErr := resolver.Run(cmd.Context(), dataset, spec)
			if report == nil {
				return runErr
			}

			if store, err := runstore.Open(cfg); err != nil {
				logger.Warn("run history unavailable", logging.Error(err))
			} else {
				if err := store.RecordRun(cmd.Context(), report); err != nil {
					logger.Warn("record run history", logging.Error(err))
				}
				_ = store.Close()
			}

			printReport(cmd, report)
			return runErr
		},
	}

	cmd.Flags().StringVarP(&datasetPath, "dataset", "d", "satkit.yaml", "Dataset description file")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip environment checks before the run")
	return cmd
}

func printReport(cmd *cobra.Command, report *scenario.Report) {
	rows := make([][]string, 0, len(report.Items))
	for _, item := range report.Items {
		detail := item.Location
		if item.Err != nil {
			detail = item.Err.Error()
		}
		outcome := string(item.Outcome)
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

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Kind", "Source", "Outcome", "Detail"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	))
	reused, generated, failed := report.Counts()
	fmt.Fprintf(out, "Run %s: %d reused, %d generated, %d failed\n",
		report.RunID, reused, generated, failed)
	fmt.Fprintf(out, "Artifacts in %s\n", report.WorkingDir)
}
