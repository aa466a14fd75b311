// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert reshapes result tables between formats and concatenates
// batches of results into one table.
package convert

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/serp-evals/internal/rank"
	"github.com/pdiddy/serp-evals/internal/table"
	"github.com/pdiddy/serp-evals/pkg/types"
)

// BatchResult holds the outcome of a conversion or consolidation run.
type BatchResult struct {
	Tables int
	Rows   int
	Ranked bool
}

// ColumnsFor returns the output column order for records: the rank column
// is included only when at least one record carries a rank.
func ColumnsFor(records []types.Record) []string {
	for _, r := range records {
		if r.Rank > 0 {
			return types.RankedColumns
		}
	}
	return types.Columns
}

// Table reads the table at in and writes it to out in the fixed column
// order. Formats follow the file extensions, so a JSONL evaluation output
// becomes a CSV by naming out "*.csv". The link column is read as url.
func Table(in, out string, log logrus.FieldLogger) (BatchResult, error) {
	records, err := table.Read(in, log)
	if err != nil {
		return BatchResult{}, err
	}

	cols := ColumnsFor(records)
	if err := table.Write(out, records, cols, log); err != nil {
		return BatchResult{}, err
	}
	return BatchResult{Tables: 1, Rows: len(records), Ranked: len(cols) == len(types.RankedColumns)}, nil
}

// Consolidate concatenates the tables at inputs, in order, into out.
// Rows are not deduplicated.
func Consolidate(inputs []string, out string, log logrus.FieldLogger) (BatchResult, error) {
	if len(inputs) == 0 {
		return BatchResult{}, fmt.Errorf("no input tables")
	}

	tables, err := table.ReadAll(inputs, log)
	if err != nil {
		return BatchResult{}, err
	}

	merged := rank.Merge(tables...)
	cols := ColumnsFor(merged)
	if err := table.Write(out, merged, cols, log); err != nil {
		return BatchResult{}, err
	}
	return BatchResult{Tables: len(tables), Rows: len(merged), Ranked: len(cols) == len(types.RankedColumns)}, nil
}

// PrintSummary writes a one-line summary of r to w.
func PrintSummary(w io.Writer, verb, out string, r BatchResult) {
	fmt.Fprintf(w, "%s %d table(s), %d row(s) -> %s\n", verb, r.Tables, r.Rows, out)
}
