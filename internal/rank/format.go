// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/serp-evals/pkg/types"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	labelStyle = lipgloss.NewStyle().
			Width(14).
			Foreground(lipgloss.Color("8"))

	valueStyle = lipgloss.NewStyle().
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))
)

// FormatSummary writes a short human-readable report of a MergeAndRank run.
func FormatSummary(w io.Writer, out string, s Summary) {
	fmt.Fprintln(w, titleStyle.Render("Ranked "+out))

	line := func(label string, value any) {
		fmt.Fprintln(w, labelStyle.Render(label)+valueStyle.Render(fmt.Sprint(value)))
	}
	line("merged rows", s.Merged)
	line("kept rows", s.Kept)
	line("queries", s.Groups)
	line("undated", s.Undated)
	line("years", strings.Join(s.AllowedYears, ", "))

	if s.OutOfRange > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d row(s) outside the allowed years dropped", s.OutOfRange)))
	}
	if s.EmptyQuery > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d row(s) without a query dropped", s.EmptyQuery)))
	}
}

// FormatJSON writes records as indented JSON to w.
func FormatJSON(w io.Writer, records []types.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
