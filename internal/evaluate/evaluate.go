// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evaluate runs the search evaluation: one templated query per
// company, fetched from a search backend and flattened into result records
// with normalized dates.
package evaluate

import (
	"cmp"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/serp-evals/internal/dates"
	"github.com/pdiddy/serp-evals/internal/logging"
	"github.com/pdiddy/serp-evals/internal/search"
	"github.com/pdiddy/serp-evals/internal/table"
	"github.com/pdiddy/serp-evals/pkg/types"
)

// DefaultQueryTemplate receives the company name and its site.
const DefaultQueryTemplate = "%s Sustainability Report 2023 filetype:pdf site:%s"

// Input columns of the company list.
const (
	colCompanyName = "company_name"
	colCompanyURL  = "url"
)

// Options controls a Run.
type Options struct {
	// QueryTemplate overrides DefaultQueryTemplate.
	QueryTemplate string

	Log logrus.FieldLogger
}

// Summary counts what a Run did.
type Summary struct {
	Companies int
	Failed    int
	Hits      int
	Undated   int
}

// ReadCompanies loads the company list from a CSV file with company_name
// and url columns. Values are trimmed; rows without a company name are
// skipped.
func ReadCompanies(path string, log logrus.FieldLogger) ([]types.Company, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening company list %s: %w", path, err)
	}
	defer f.Close()

	companies, err := readCompanies(f, log)
	if err != nil {
		return nil, fmt.Errorf("reading company list %s: %w", path, err)
	}
	return companies, nil
}

func readCompanies(r io.Reader, log logrus.FieldLogger) ([]types.Company, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s, %s", table.ErrMissingColumn, colCompanyName, colCompanyURL)
	}
	if err != nil {
		return nil, err
	}

	nameIdx, urlIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case colCompanyName:
			nameIdx = i
		case colCompanyURL:
			urlIdx = i
		}
	}
	var missing []string
	if nameIdx < 0 {
		missing = append(missing, colCompanyName)
	}
	if urlIdx < 0 {
		missing = append(missing, colCompanyURL)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", table.ErrMissingColumn, strings.Join(missing, ", "))
	}

	var companies []types.Company
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		c := types.Company{Name: cell(row, nameIdx), URL: cell(row, urlIdx)}
		if c.Name == "" {
			if log != nil {
				log.WithField("line", line).Warn("skipping row without company name")
			}
			continue
		}
		companies = append(companies, c)
	}
	return companies, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// BuildQuery fills template with the company name and site. An empty
// template uses DefaultQueryTemplate.
func BuildQuery(template string, c types.Company) string {
	if template == "" {
		template = DefaultQueryTemplate
	}
	return fmt.Sprintf(template, c.Name, c.URL)
}

// Run fetches results for every company and returns them as records in
// company order, hits in backend order. A failed fetch is logged and the
// company skipped; only cancellation of ctx stops the run early.
func Run(ctx context.Context, fetcher search.Fetcher, companies []types.Company, opts Options) ([]types.Record, Summary, error) {
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	log = log.WithField("backend", fetcher.Name())

	var (
		records []types.Record
		sum     = Summary{Companies: len(companies)}
	)

	for _, c := range companies {
		if err := ctx.Err(); err != nil {
			return records, sum, err
		}

		query := BuildQuery(opts.QueryTemplate, c)
		qlog := log.WithField("query", query)
		qlog.Info("searching")

		hits, err := fetcher.Fetch(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return records, sum, ctx.Err()
			}
			sum.Failed++
			elog := qlog.WithError(err)
			var status interface{ StatusCode() int }
			if errors.As(err, &status) {
				elog = elog.WithField("status", status.StatusCode())
			}
			elog.Error("search failed, skipping company")
			continue
		}

		for _, h := range byPosition(hits) {
			r := ToRecord(query, h, qlog.WithField("position", h.Position))
			if r.CreationDate == "" {
				sum.Undated++
			}
			records = append(records, r)
		}
		sum.Hits += len(hits)
		qlog.WithField("hits", len(hits)).Debug("search complete")
	}

	log.WithFields(logrus.Fields{
		"companies": sum.Companies,
		"failed":    sum.Failed,
		"hits":      sum.Hits,
	}).Info("evaluation complete")
	return records, sum, nil
}

// byPosition returns hits ordered by results-page position. Hits without a
// position keep their relative order after the positioned ones.
func byPosition(hits []types.Hit) []types.Hit {
	key := func(h types.Hit) int {
		if h.Position <= 0 {
			return math.MaxInt
		}
		return h.Position
	}
	sorted := slices.Clone(hits)
	slices.SortStableFunc(sorted, func(a, b types.Hit) int { return cmp.Compare(key(a), key(b)) })
	return sorted
}

// ToRecord converts a backend hit into a result record for query.
func ToRecord(query string, h types.Hit, log logrus.FieldLogger) types.Record {
	return types.Record{
		Query:        query,
		Title:        h.Title,
		URL:          h.Link,
		Snippet:      h.Snippet,
		CreationDate: dates.Normalize(h.RawCreationDate, log),
		ModifiedDate: dates.Normalize(h.RawModifiedDate, log),
	}
}
