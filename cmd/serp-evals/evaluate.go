package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/serp-evals/internal/evaluate"
	"github.com/pdiddy/serp-evals/internal/search"
	"github.com/pdiddy/serp-evals/internal/table"
	"github.com/pdiddy/serp-evals/pkg/types"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Search every company in a list and record the results",
	Long: `Evaluate reads a CSV of companies (company_name, url), builds one query
per company from the query template, and fetches the organic results from the
configured backend. Each hit becomes one row with normalized creation and
modification dates. Failed searches are logged and skipped.

The output format follows the --out extension (.jsonl, .csv, .gz, .db).`,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().String("backend", "", "search backend: serphouse or discovery")
	evaluateCmd.Flags().String("input", "data/companies.csv", "company list CSV with company_name and url columns")
	evaluateCmd.Flags().String("out", "data/results/results.jsonl", "output table")
	evaluateCmd.Flags().String("template", "", "query template receiving company name and site")
	evaluateCmd.Flags().Float64("rate", 0, "maximum searches per second (0 = unlimited)")

	viper.BindPFlag("search.backend", evaluateCmd.Flags().Lookup("backend"))
	viper.BindPFlag("evaluate.query_template", evaluateCmd.Flags().Lookup("template"))
	viper.BindPFlag("search.rate_per_second", evaluateCmd.Flags().Lookup("rate"))

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	out, _ := cmd.Flags().GetString("out")
	ctx := cmd.Context()

	companies, err := evaluate.ReadCompanies(input, log)
	if err != nil {
		return err
	}
	if len(companies) == 0 {
		return fmt.Errorf("no companies in %s", input)
	}

	fetcher, err := search.New(ctx, cfg.Search, loadedSecrets, log)
	if err != nil {
		return err
	}

	records, sum, err := evaluate.Run(ctx, fetcher, companies, evaluate.Options{
		QueryTemplate: cfg.Evaluate.QueryTemplate,
		Log:           log,
	})
	if err != nil {
		return err
	}

	if err := table.Write(out, records, types.Columns, log); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%d companies, %d failed, %d results (%d undated) -> %s\n",
		sum.Companies, sum.Failed, sum.Hits, sum.Undated, out)
	return nil
}
