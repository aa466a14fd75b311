// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package table

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/serp-evals/pkg/types"
)

// maxLineSize bounds a single JSONL row. Snippets are short but some
// backends return long titles and URLs.
const maxLineSize = 8 * 1024 * 1024

func readJSONL(r io.Reader, log logrus.FieldLogger) ([]types.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	seen := make(map[string]bool)
	dec := rowDecoder{log: log}
	var records []types.Record

	for line := 1; scanner.Scan(); line++ {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		for k := range obj {
			seen[k] = true
		}

		records = append(records, dec.decode(func(col string) (string, bool) {
			v, ok := obj[col]
			if !ok {
				return "", false
			}
			return stringify(v), true
		}, line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(records) > 0 {
		if err := missingColumns(func(col string) bool { return seen[col] }); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// writeJSONL writes one object per record with keys in column order.
func writeJSONL(w io.Writer, records []types.Record, columns []string) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		bw.WriteByte('{')
		for i, col := range columns {
			if i > 0 {
				bw.WriteByte(',')
			}
			key, _ := json.Marshal(col)
			bw.Write(key)
			bw.WriteByte(':')

			var val []byte
			var err error
			if col == types.ColRank {
				val, err = json.Marshal(r.Rank)
			} else {
				val, err = json.Marshal(r.Field(col))
			}
			if err != nil {
				return err
			}
			bw.Write(val)
		}
		bw.WriteString("}\n")
	}
	return bw.Flush()
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
