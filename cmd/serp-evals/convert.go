package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/serp-evals/internal/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert a result table to another format",
	Long: `Convert reads a result table and writes it in the fixed column order
query, title, url, snippet, creation_date, modified_date (plus rank when
present). Formats follow the file extensions, so converting results.jsonl to
results.csv flattens an evaluation run into a spreadsheet. A link column is
read as url.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := convert.Table(args[0], args[1], log)
		if err != nil {
			return err
		}
		convert.PrintSummary(os.Stdout, "converted", args[1], res)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
