//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Pipeline inputs and outputs. Each can be overridden from the environment,
// e.g. SERP_EVALS_INPUT=data/batch-2.csv mage evaluate.
var (
	inputCSV     = envOr("SERP_EVALS_INPUT", "data/companies.csv")
	resultsJSONL = envOr("SERP_EVALS_RESULTS", "data/results/results.jsonl")
	resultsCSV   = envOr("SERP_EVALS_RESULTS_CSV", "data/results/results.csv")
	rankedCSV    = envOr("SERP_EVALS_RANKED", "data/ranked.csv")
	backend      = envOr("SERP_EVALS_BACKEND", "serphouse")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Evaluate searches every company in the input list and writes JSONL results.
func Evaluate() error {
	mg.Deps(Build)
	fmt.Printf("[evaluate] %s -> %s (%s)\n", inputCSV, resultsJSONL, backend)
	return sh.RunV(binPath, "evaluate", "--backend", backend, "--input", inputCSV, "--out", resultsJSONL)
}

// Convert turns the JSONL evaluation output into a CSV table.
func Convert() error {
	mg.Deps(Build)
	fmt.Printf("[convert] %s -> %s\n", resultsJSONL, resultsCSV)
	return sh.RunV(binPath, "convert", resultsJSONL, resultsCSV)
}

// Consolidate concatenates every CSV under data/results into one table.
func Consolidate() error {
	mg.Deps(Build)
	tables, err := resultTables()
	if err != nil {
		return err
	}
	out := filepath.Join("data", "consolidated.csv")
	fmt.Printf("[consolidate] %s -> %s\n", strings.Join(tables, ", "), out)
	return sh.RunV(binPath, append([]string{"consolidate", "--out", out}, tables...)...)
}

// Rank merges every result table, filters by year, and ranks per query.
func Rank() error {
	mg.Deps(Build)
	tables, err := resultTables()
	if err != nil {
		return err
	}
	fmt.Printf("[rank] %d table(s) -> %s\n", len(tables), rankedCSV)
	return sh.RunV(binPath, append([]string{"rank", "--out", rankedCSV}, tables...)...)
}

func resultTables() ([]string, error) {
	tables, err := filepath.Glob(filepath.Join("data", "results", "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no result tables in data/results; run mage evaluate convert first")
	}
	return tables, nil
}
