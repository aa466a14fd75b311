// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package table reads and writes result tables.
//
// The on-disk format follows the file extension: .csv, .jsonl (or .ndjson),
// either optionally gzip-compressed with a trailing .gz, and .db / .sqlite
// for a SQLite store that keeps every written run. Tables read from disk
// must carry the query and creation_date columns; other columns are
// optional and unknown columns are ignored.
package table

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/serp-evals/internal/logging"
	"github.com/pdiddy/serp-evals/pkg/types"
)

// Format identifies a table encoding.
type Format int

const (
	FormatCSV Format = iota
	FormatJSONL
	FormatSQLite
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSONL:
		return "jsonl"
	case FormatSQLite:
		return "sqlite"
	}
	return "unknown"
}

var (
	// ErrMissingColumn is returned when a table lacks a required column.
	ErrMissingColumn = errors.New("missing required column")

	// ErrUnsupportedFormat is returned for paths whose extension is not a known table format.
	ErrUnsupportedFormat = errors.New("unsupported table format")
)

// DetectFormat reports the format of path and whether it is gzip-compressed.
func DetectFormat(path string) (Format, bool, error) {
	lower := strings.ToLower(path)
	gz := strings.HasSuffix(lower, ".gz")
	lower = strings.TrimSuffix(lower, ".gz")

	switch filepath.Ext(lower) {
	case ".csv":
		return FormatCSV, gz, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, gz, nil
	case ".db", ".sqlite", ".sqlite3":
		if gz {
			return 0, false, fmt.Errorf("%w: %s (sqlite stores cannot be compressed)", ErrUnsupportedFormat, path)
		}
		return FormatSQLite, false, nil
	}
	return 0, false, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Read loads every record from the table at path.
func Read(path string, log logrus.FieldLogger) ([]types.Record, error) {
	log = orDiscard(log).WithField("path", path)

	format, gz, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	if format == FormatSQLite {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("opening table %s: %w", path, err)
		}
		store, err := OpenStore(path)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.LoadLatest(context.Background())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening table %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if gz {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("reading gzip table %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	var records []types.Record
	switch format {
	case FormatCSV:
		records, err = readCSV(r, log)
	case FormatJSONL:
		records, err = readJSONL(r, log)
	}
	if err != nil {
		return nil, fmt.Errorf("reading table %s: %w", path, err)
	}

	log.WithField("rows", len(records)).Debug("table loaded")
	return records, nil
}

// ReadAll reads each table in order and returns them as separate slices.
// The first failure aborts the whole read.
func ReadAll(paths []string, log logrus.FieldLogger) ([][]types.Record, error) {
	tables := make([][]types.Record, 0, len(paths))
	for _, p := range paths {
		records, err := Read(p, log)
		if err != nil {
			return nil, err
		}
		tables = append(tables, records)
	}
	return tables, nil
}

// Write stores records at path using the given column order. Parent
// directories are created as needed. File formats are written to a
// temporary file and renamed into place, so a failed write leaves any
// previous file untouched.
func Write(path string, records []types.Record, columns []string, log logrus.FieldLogger) error {
	log = orDiscard(log).WithField("path", path)

	format, gz, err := DetectFormat(path)
	if err != nil {
		return err
	}
	if err := ensureDir(path, log); err != nil {
		return err
	}

	if format == FormatSQLite {
		store, err := OpenStore(path)
		if err != nil {
			return err
		}
		defer store.Close()
		runID, err := store.SaveRun(context.Background(), records, columns)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"run": runID, "rows": len(records)}).Info("table written")
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := encode(tmp, format, gz, records, columns); err != nil {
		tmp.Close()
		return fmt.Errorf("writing table %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}

	log.WithField("rows", len(records)).Info("table written")
	return nil
}

func encode(w io.Writer, format Format, gz bool, records []types.Record, columns []string) error {
	var zw *gzip.Writer
	if gz {
		zw = gzip.NewWriter(w)
		w = zw
	}

	var err error
	switch format {
	case FormatCSV:
		err = writeCSV(w, records, columns)
	case FormatJSONL:
		err = writeJSONL(w, records, columns)
	}
	if err != nil {
		return err
	}

	if zw != nil {
		return zw.Close()
	}
	return nil
}

func ensureDir(path string, log logrus.FieldLogger) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	log.WithField("dir", dir).Info("directory created")
	return nil
}

// rowDecoder turns one row of named string values into a Record.
type rowDecoder struct {
	log logrus.FieldLogger
}

func (d rowDecoder) decode(get func(col string) (string, bool), line int) types.Record {
	field := func(cols ...string) string {
		for _, c := range cols {
			if v, ok := get(c); ok {
				return v
			}
		}
		return ""
	}

	r := types.Record{
		Query:        field(types.ColQuery),
		Title:        field(types.ColTitle),
		URL:          field(types.ColURL, types.ColLink),
		Snippet:      field(types.ColSnippet),
		CreationDate: field(types.ColCreationDate),
		ModifiedDate: field(types.ColModifiedDate),
	}

	if raw := strings.TrimSpace(field(types.ColRank)); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 1 {
			d.log.WithFields(logrus.Fields{"line": line, "rank": raw}).Warn("ignoring invalid rank")
		} else {
			r.Rank = int(f)
		}
	}
	return r
}

func missingColumns(has func(col string) bool) error {
	var missing []string
	for _, col := range types.RequiredColumns {
		if !has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

func orDiscard(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return logging.Discard()
	}
	return log
}
