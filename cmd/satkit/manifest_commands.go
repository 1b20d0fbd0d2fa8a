package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"satkit/internal/manifest"
)

func newManifestCommand(ctx *commandContext) *cobra.Command {
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect per-directory manifests",
	}
	manifestCmd.AddCommand(newManifestListCommand(ctx))
	manifestCmd.AddCommand(newManifestVerifyCommand(ctx))
	return manifestCmd
}

func (c *commandContext) openManifest(dir string) (*manifest.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	store := manifest.NewStore(dir, cfg.Manifest.FileName, cfg.Manifest.LockFileName, logger)
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

func newManifestListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <directory>",
		Short: "List the manifest entries of a recorded-data directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openManifest(args[0])
			if err != nil {
				return err
			}

			entries := store.Entries()
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.SourceID,
					entry.Kind,
					entry.Fingerprint,
					entry.GeneratedAt.Format(time.RFC3339),
					entry.Location,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Source", "Kind", "Fingerprint", "Generated", "Location"},
				rows,
				nil,
			))
			fmt.Fprintf(out, "%d entries in %s\n", len(entries), store.Path())
			return nil
		},
	}
}

func newManifestVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <directory>",
		Short: "Check that every manifest entry's artifact still exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openManifest(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			stale := 0
			for _, entry := range store.Entries() {
				if _, err := os.Stat(entry.Location); err == nil {
					continue
				}
				stale++
				fmt.Fprintf(out, "stale: %s/%s/%s -> %s\n",
					entry.SourceID, entry.Kind, entry.Fingerprint, entry.Location)
			}
			if stale > 0 {
				return fmt.Errorf("%d stale entries in %s", stale, store.Path())
			}
			fmt.Fprintf(out, "All entries in %s verified\n", store.Path())
			return nil
		},
	}
}
