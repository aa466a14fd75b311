// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank merges result tables, filters them to the years under
// evaluation, and assigns a dense recency rank within each query.
package rank

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/serp-evals/pkg/types"
)

// DefaultAllowedYears are the creation-date substrings kept by FilterAndSort
// when the caller supplies none.
var DefaultAllowedYears = []string{"2023", "2024"}

// missingDateKey stands in for an empty creation date while ranking. It
// compares below every real date so undated rows rank last in descending order.
const missingDateKey = ""

// Summary counts what happened to the rows of a MergeAndRank run.
type Summary struct {
	Merged       int
	EmptyQuery   int
	OutOfRange   int
	Kept         int
	Undated      int
	Groups       int
	AllowedYears []string
}

// Merge concatenates tables in order. Rows keep their order within each
// table and duplicates are not removed.
func Merge(tables ...[]types.Record) []types.Record {
	n := 0
	for _, t := range tables {
		n += len(t)
	}
	merged := make([]types.Record, 0, n)
	for _, t := range tables {
		merged = append(merged, t...)
	}
	return merged
}

// FilterAndSort keeps rows whose creation date contains one of allowedYears
// (a substring match) or is empty, then stable-sorts them by creation date
// descending with empty dates last. Only row membership and order change.
func FilterAndSort(records []types.Record, allowedYears []string) []types.Record {
	if len(allowedYears) == 0 {
		allowedYears = DefaultAllowedYears
	}

	kept := make([]types.Record, 0, len(records))
	for _, r := range records {
		if isMissing(r.CreationDate) || containsAny(r.CreationDate, allowedYears) {
			kept = append(kept, r)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return newerFirst(dateKey(kept[i]), dateKey(kept[j]))
	})
	return kept
}

// RankPerQuery assigns Rank 1..n within each Query group by creation date
// descending. Undated rows rank after dated ones and ties keep their input
// order. The returned slice has the same order as records.
func RankPerQuery(records []types.Record) []types.Record {
	out := make([]types.Record, len(records))
	copy(out, records)

	groups := make(map[string][]int)
	for i, r := range out {
		groups[r.Query] = append(groups[r.Query], i)
	}

	for _, idx := range groups {
		sort.SliceStable(idx, func(a, b int) bool {
			return newerFirst(dateKey(out[idx[a]]), dateKey(out[idx[b]]))
		})
		for pos, i := range idx {
			out[i].Rank = pos + 1
		}
	}
	return out
}

// SortByQueryRank orders records by Query ascending, then Rank ascending.
func SortByQueryRank(records []types.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Query != records[j].Query {
			return records[i].Query < records[j].Query
		}
		return records[i].Rank < records[j].Rank
	})
}

// MergeAndRank runs the full core: merge tables, drop rows without a query,
// filter and sort by recency, rank per query, and order the result by query
// then rank.
func MergeAndRank(tables [][]types.Record, allowedYears []string, log logrus.FieldLogger) ([]types.Record, Summary) {
	if len(allowedYears) == 0 {
		allowedYears = DefaultAllowedYears
	}

	merged := Merge(tables...)
	summary := Summary{Merged: len(merged), AllowedYears: allowedYears}

	withQuery := make([]types.Record, 0, len(merged))
	for _, r := range merged {
		if strings.TrimSpace(r.Query) == "" {
			summary.EmptyQuery++
			if log != nil {
				log.WithField("title", r.Title).Warn("dropping row without a query")
			}
			continue
		}
		withQuery = append(withQuery, r)
	}

	filtered := FilterAndSort(withQuery, allowedYears)
	summary.OutOfRange = len(withQuery) - len(filtered)

	ranked := RankPerQuery(filtered)
	SortByQueryRank(ranked)

	groups := make(map[string]struct{})
	for _, r := range ranked {
		groups[r.Query] = struct{}{}
		if isMissing(r.CreationDate) {
			summary.Undated++
		}
	}
	summary.Kept = len(ranked)
	summary.Groups = len(groups)

	if log != nil {
		log.WithFields(logrus.Fields{
			"merged":       summary.Merged,
			"kept":         summary.Kept,
			"out_of_range": summary.OutOfRange,
			"groups":       summary.Groups,
		}).Info("ranked results")
	}
	return ranked, summary
}

func isMissing(date string) bool {
	return strings.TrimSpace(date) == ""
}

func dateKey(r types.Record) string {
	if isMissing(r.CreationDate) {
		return missingDateKey
	}
	return r.CreationDate
}

// newerFirst orders date keys descending; the missing key sorts last.
func newerFirst(a, b string) bool {
	if a == missingDateKey || b == missingDateKey {
		return a != missingDateKey && b == missingDateKey
	}
	return a > b
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
