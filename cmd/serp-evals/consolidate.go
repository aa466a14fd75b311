package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/serp-evals/internal/convert"
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate --out <table> <tables...>",
	Short: "Concatenate result tables into one",
	Long: `Consolidate reads each table in order and writes all rows to --out.
Rows are kept as-is; duplicates across batches are not removed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		res, err := convert.Consolidate(args, out, log)
		if err != nil {
			return err
		}
		convert.PrintSummary(os.Stdout, "consolidated", out, res)
		return nil
	},
}

func init() {
	consolidateCmd.Flags().String("out", "", "output table")
	consolidateCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(consolidateCmd)
}
