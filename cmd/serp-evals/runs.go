package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/serp-evals/internal/convert"
	"github.com/pdiddy/serp-evals/internal/table"
)

var runsCmd = &cobra.Command{
	Use:   "runs <store.db>",
	Short: "List the runs kept in a SQLite result store",
	Long: `Runs prints one line per run in a SQLite store: run id, creation time,
row count, and columns, oldest first. Every write to a .db or .sqlite table
appends a run; reading the table returns the latest one.

With --run and --out, the rows of that run are written to another table
instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().String("run", "", "run id to export")
	runsCmd.Flags().String("out", "", "output table for --run")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	path := args[0]
	runID, _ := cmd.Flags().GetString("run")
	out, _ := cmd.Flags().GetString("out")
	if (runID == "") != (out == "") {
		return fmt.Errorf("--run and --out must be given together")
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("opening store %s: %w", path, err)
	}
	store, err := table.OpenStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if runID != "" {
		records, err := store.LoadRun(ctx, runID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("run %s not found in %s", runID, path)
		}
		if err := table.Write(out, records, convert.ColumnsFor(records), log); err != nil {
			return err
		}
		convert.PrintSummary(cmd.OutOrStdout(), "exported", out, convert.BatchResult{Tables: 1, Rows: len(records)})
		return nil
	}

	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.ID, r.CreatedAt.Format(time.RFC3339), r.Rows, strings.Join(r.Columns, ","))
	}
	return nil
}
