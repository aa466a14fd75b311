// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the serp-evals pipeline:
// raw search hits, evaluation inputs, and the result records that flow
// through merge, filter, and rank.
package types

import "strconv"

// Column names of the persisted result table.
const (
	ColQuery        = "query"
	ColTitle        = "title"
	ColURL          = "url"
	ColLink         = "link"
	ColSnippet      = "snippet"
	ColCreationDate = "creation_date"
	ColModifiedDate = "modified_date"
	ColRank         = "rank"
)

// Columns is the fixed column order of an unranked result table.
var Columns = []string{ColQuery, ColTitle, ColURL, ColSnippet, ColCreationDate, ColModifiedDate}

// RankedColumns is Columns with the rank column appended by the ranking stage.
var RankedColumns = append(append([]string{}, Columns...), ColRank)

// RequiredColumns must be present in any table read back from disk.
var RequiredColumns = []string{ColQuery, ColCreationDate}

// Record is one row of the working result table.
type Record struct {
	// Query is the constructed search query. It is the grouping key for ranking.
	Query string `json:"query" yaml:"query"`

	// Title is the result title as returned by the backend.
	Title string `json:"title" yaml:"title"`

	// URL is the result link.
	URL string `json:"url" yaml:"url"`

	// Snippet is the cleaned result snippet.
	Snippet string `json:"snippet" yaml:"snippet"`

	// CreationDate is "" or a canonical YYYY-MM-DD date.
	CreationDate string `json:"creation_date" yaml:"creation_date"`

	// ModifiedDate is "" or a canonical YYYY-MM-DD date.
	ModifiedDate string `json:"modified_date" yaml:"modified_date"`

	// Rank is the dense 1-based rank within the query group. Zero means unranked.
	Rank int `json:"rank,omitempty" yaml:"rank,omitempty"`
}

// Field returns the string value of the named column.
func (r Record) Field(col string) string {
	switch col {
	case ColQuery:
		return r.Query
	case ColTitle:
		return r.Title
	case ColURL, ColLink:
		return r.URL
	case ColSnippet:
		return r.Snippet
	case ColCreationDate:
		return r.CreationDate
	case ColModifiedDate:
		return r.ModifiedDate
	case ColRank:
		if r.Rank == 0 {
			return ""
		}
		return strconv.Itoa(r.Rank)
	}
	return ""
}

// Hit is a single organic result returned by a search backend, before date
// normalization.
type Hit struct {
	Title           string `json:"title"`
	Link            string `json:"link"`
	Snippet         string `json:"snippet"`
	Position        int    `json:"position,omitempty"` // 1-based place on the results page
	RawCreationDate string `json:"raw_creation_date,omitempty"`
	RawModifiedDate string `json:"raw_modified_date,omitempty"`
}

// Company is one row of the evaluation input: a company and the site its
// reports are searched on.
type Company struct {
	Name string `json:"company_name" yaml:"company_name"`
	URL  string `json:"url" yaml:"url"`
}
