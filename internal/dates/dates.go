// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dates converts document-metadata date strings into canonical
// YYYY-MM-DD dates.
//
// Two shapes are recognized, detected structurally:
//
//   - PDF metadata dates: "D:" followed by a 14-digit YYYYMMDDHHMMSS stamp and
//     an optional timezone designator ("", "Z...", or "+HH..."/"-HH...").
//     Only the whole-hour part of the offset is applied.
//   - Log-style timestamps longer than 20 characters, shaped like
//     "Tue Jan 02 15:04:05 2024".
//
// Anything else is unparseable and normalizes to the empty string.
package dates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Layout is the canonical output format.
const Layout = "2006-01-02"

const (
	pdfPrefix   = "D:"
	pdfStampLen = 14
	pdfLayout   = "20060102150405"

	// Strings longer than this that are not PDF dates are parsed as log timestamps.
	logMinLen = 20
	logLayout = time.ANSIC
)

// Parse errors. Callers distinguish a missing date (ErrEmpty) from a date
// that was present but could not be read.
var (
	ErrEmpty        = errors.New("empty date")
	ErrUnrecognized = errors.New("unrecognized date format")
	ErrMalformed    = errors.New("malformed date")
)

// Parse returns the canonical date for raw or an error wrapping one of
// ErrEmpty, ErrUnrecognized, or ErrMalformed.
func Parse(raw string) (string, error) {
	if raw == "" {
		return "", ErrEmpty
	}
	if strings.HasPrefix(raw, pdfPrefix) {
		return parsePDF(raw)
	}
	if len(raw) > logMinLen {
		t, err := time.Parse(logLayout, raw)
		if err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrMalformed, raw, err)
		}
		return t.Format(Layout), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnrecognized, raw)
}

// Normalize is Parse for pipeline use: it never fails. Missing dates return
// "" silently; unreadable ones return "" and log a warning.
func Normalize(raw string, log logrus.FieldLogger) string {
	out, err := Parse(raw)
	if err != nil {
		if !errors.Is(err, ErrEmpty) && log != nil {
			log.WithField("raw_date", raw).WithError(err).Warn("could not normalize date")
		}
		return ""
	}
	return out
}

func parsePDF(raw string) (string, error) {
	body := raw[len(pdfPrefix):]
	if len(body) < pdfStampLen {
		return "", fmt.Errorf("%w: %q: timestamp shorter than %d digits", ErrMalformed, raw, pdfStampLen)
	}
	stamp, tz := body[:pdfStampLen], body[pdfStampLen:]

	t, err := time.Parse(pdfLayout, stamp)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrMalformed, raw, err)
	}

	hours, err := offsetHours(tz)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrMalformed, raw, err)
	}

	return t.Add(-time.Duration(hours) * time.Hour).Format(Layout), nil
}

// offsetHours reads the whole-hour component of a PDF timezone designator.
// "" and "Z..." are UTC; "+HH..." and "-HH..." yield the signed hour count
// from the first three characters.
func offsetHours(tz string) (int, error) {
	if tz == "" || tz[0] == 'Z' {
		return 0, nil
	}
	if tz[0] != '+' && tz[0] != '-' {
		return 0, fmt.Errorf("invalid timezone designator %q", tz)
	}
	h := tz
	if len(h) > 3 {
		h = h[:3]
	}
	n, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("invalid timezone offset %q", tz)
	}
	return n, nil
}
