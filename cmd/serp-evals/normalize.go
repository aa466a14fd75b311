package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/serp-evals/internal/dates"
)

var normalizeDateCmd = &cobra.Command{
	Use:   "normalize-date <raw...>",
	Short: "Print the canonical YYYY-MM-DD form of document dates",
	Long: `Normalize-date converts each argument with the same rules evaluate
applies to document metadata: PDF dates such as D:20230415083000+05'00' and
timestamps such as "Tue Jan 02 15:04:05 2024". Unrecognized input prints an
empty date and a warning.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		for _, raw := range args {
			d, err := dates.Parse(raw)
			if err != nil && !errors.Is(err, dates.ErrEmpty) {
				log.WithError(err).Warn("could not normalize date")
			}
			fmt.Fprintf(w, "%s\t%s\n", raw, d)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(normalizeDateCmd)
}
