package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the vector index",
		Long:  "Chunks and embeds every eligible knowledge file. Unchanged chunks are overwritten in place and records of edited or deleted files are removed.",
		Args:  cobra.NoArgs,
		RunE:  runIndex,
	}

	cmd.Flags().Bool("rebuild", false, "Drop the collection before indexing")
	cmd.Flags().Bool("json", false, "Output stats as JSON")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	rebuild, _ := cmd.Flags().GetBool("rebuild")
	run := app.Indexer.Index
	if rebuild {
		run = app.Indexer.Rebuild
	}

	stats, err := run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	fmt.Fprintf(out, "Indexed %d files (%d skipped) into %d chunks in %d batches, %d stale removed.\n",
		stats.Files, stats.SkippedFiles, stats.Chunks, stats.Batches, stats.Removed)
	return nil
}
