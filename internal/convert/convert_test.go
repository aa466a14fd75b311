// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/serp-evals/internal/table"
	"github.com/pdiddy/serp-evals/pkg/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTableJSONLToCSV(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "results.jsonl",
		`{"title":"Acme 2023","snippet":"s","link":"https://acme.com/a.pdf","query":"acme q","creation_date":"2023-04-01","modified_date":""}`+"\n"+
			`{"title":"Acme old","snippet":"","link":"https://acme.com/b.pdf","query":"acme q","creation_date":""}`+"\n")
	out := filepath.Join(dir, "results.csv")

	res, err := Table(in, out, nil)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Tables: 1, Rows: 2}, res)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "query,title,url,snippet,creation_date,modified_date", lines[0])
	assert.Equal(t, "acme q,Acme 2023,https://acme.com/a.pdf,s,2023-04-01,", lines[1])
	assert.Equal(t, "acme q,Acme old,https://acme.com/b.pdf,,,", lines[2])
}

func TestTableKeepsRank(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "ranked.csv", "query,creation_date,rank\nq,2024-01-01,1\nq,,2\n")
	out := filepath.Join(dir, "ranked.jsonl")

	res, err := Table(in, out, nil)
	require.NoError(t, err)
	assert.True(t, res.Ranked)

	got, err := table.Read(out, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, 2, got[1].Rank)
}

func TestTableMissingColumn(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "bad.jsonl", `{"title":"t"}`+"\n")
	out := filepath.Join(dir, "bad.csv")

	_, err := Table(in, out, nil)
	assert.ErrorIs(t, err, table.ErrMissingColumn)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no partial output on failure")
}

func TestConsolidate(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "batch-1.csv", "query,title,url,snippet,creation_date,modified_date\nq1,a,u1,,2023-01-01,\nq2,b,u2,,,\n")
	b := writeFile(t, dir, "batch-2.jsonl", `{"query":"q1","title":"a","link":"u1","creation_date":"2023-01-01"}`+"\n")
	out := filepath.Join(dir, "merged", "all.csv")

	res, err := Consolidate([]string{a, b}, out, nil)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Tables: 2, Rows: 3}, res)

	got, err := table.Read(out, nil)
	require.NoError(t, err)
	assert.Equal(t, []types.Record{
		{Query: "q1", Title: "a", URL: "u1", CreationDate: "2023-01-01"},
		{Query: "q2", Title: "b", URL: "u2"},
		{Query: "q1", Title: "a", URL: "u1", CreationDate: "2023-01-01"},
	}, got, "rows concatenated in order without dedup")
}

func TestConsolidateErrors(t *testing.T) {
	_, err := Consolidate(nil, filepath.Join(t.TempDir(), "out.csv"), nil)
	assert.Error(t, err)

	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", "query,creation_date\nq,\n")
	_, err = Consolidate([]string{a, filepath.Join(dir, "missing.csv")}, filepath.Join(dir, "out.csv"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestColumnsFor(t *testing.T) {
	assert.Equal(t, types.Columns, ColumnsFor(nil))
	assert.Equal(t, types.Columns, ColumnsFor([]types.Record{{Query: "q"}}))
	assert.Equal(t, types.RankedColumns, ColumnsFor([]types.Record{{Query: "q"}, {Query: "q", Rank: 1}}))
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, "consolidated", "out.csv", BatchResult{Tables: 3, Rows: 42})
	assert.Equal(t, "consolidated 3 table(s), 42 row(s) -> out.csv\n", buf.String())
}
