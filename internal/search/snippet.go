// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// CleanText strips HTML markup such as <b> highlight tags and entities from
// s, applies NFKC normalization, and collapses runs of whitespace.
// Backends return snippets with search-term highlighting and non-breaking
// spaces; titles occasionally carry entities.
func CleanText(s string) string {
	if s == "" {
		return ""
	}

	text := s
	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			text = doc.Text()
		}
	}

	text = norm.NFKC.String(text)
	return strings.Join(strings.Fields(text), " ")
}
