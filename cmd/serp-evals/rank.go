package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/serp-evals/internal/rank"
	"github.com/pdiddy/serp-evals/internal/table"
	"github.com/pdiddy/serp-evals/pkg/types"
)

var rankCmd = &cobra.Command{
	Use:   "rank --out <table> <tables...>",
	Short: "Merge result tables, keep recent documents, and rank per query",
	Long: `Rank concatenates the input tables, keeps rows whose creation date
contains one of the allowed years (or has no date), sorts newest first with
undated rows last, and assigns a dense 1-based rank within each query. The
output is ordered by query, then rank.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRank,
}

func init() {
	rankCmd.Flags().String("out", "", "output table")
	rankCmd.Flags().StringSlice("years", nil, "allowed creation years (default 2023,2024)")
	rankCmd.Flags().Bool("json", false, "print the ranked rows as JSON instead of a summary")
	rankCmd.MarkFlagRequired("out")

	viper.BindPFlag("rank.allowed_years", rankCmd.Flags().Lookup("years"))

	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	tables, err := table.ReadAll(args, log)
	if err != nil {
		return err
	}

	ranked, summary := rank.MergeAndRank(tables, cfg.Rank.AllowedYears, log)

	if err := table.Write(out, ranked, types.RankedColumns, log); err != nil {
		return err
	}

	if jsonOutput {
		return rank.FormatJSON(os.Stdout, ranked)
	}
	rank.FormatSummary(os.Stdout, out, summary)
	return nil
}
