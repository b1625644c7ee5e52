// Package normalize cleans spreadsheet headers and coerces loosely formatted
// cell text into dates and numbers.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// dateSuffixLen is the number of trailing characters inspected by ParseDate.
const dateSuffixLen = 10

// dateLayouts are tried in order. Day-first layouts come before year-first ones.
var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2006-1-2",
	"2006/1/2",
	"2/1/06",
	"2-1-06",
}

// Header lowercases, trims, replaces spaces with underscores and strips
// diacritics from a column name. Applying it twice yields the same result.
func Header(name string) string {
	h := strings.ToLower(strings.TrimSpace(name))
	h = strings.ReplaceAll(h, " ", "_")
	return foldAccents(h)
}

// Headers applies Header to every column name and returns a new slice.
func Headers(names []string) []string {
	result := make([]string, len(names))
	for i, name := range names {
		result[i] = Header(name)
	}
	return result
}

// foldAccents removes combining marks (á→a, é→e, í→i, ó→o, ú→u).
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// ParseDate parses the trailing ten characters of value as a day-first
// calendar date. Exports often prefix the date with a note or a timestamp, so
// only the suffix is considered. A bare spreadsheet serial day number is also
// accepted, with any time-of-day fraction dropped. The boolean is false when
// the value is not a valid date; ParseDate never fails otherwise.
func ParseDate(value string) (time.Time, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, false
	}

	// Typed date cells arrive as serials, possibly with a time fraction longer
	// than the suffix window.
	if t, ok := parseSerialDate(s); ok {
		return t, true
	}

	if r := []rune(s); len(r) > dateSuffixLen {
		s = strings.TrimSpace(string(r[len(r)-dateSuffixLen:]))
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), true
		}
	}

	return time.Time{}, false
}

// parseSerialDate handles cells that store dates as serial day numbers. The
// fractional part is a time of day and is truncated.
func parseSerialDate(s string) (time.Time, bool) {
	if strings.ContainsAny(s, "-/eE+ ") || strings.Count(s, ".") > 1 {
		return time.Time{}, false
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(serial) || serial < 1 || serial > 2958465 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(math.Floor(serial), false)
	if err != nil {
		return time.Time{}, false
	}
	return Day(t), true
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseNumber coerces a cell to a finite float. The boolean is false for
// empty or non-numeric text.
func ParseNumber(value string) (float64, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Text trims surrounding whitespace from a cell value.
func Text(value string) string {
	return strings.TrimSpace(value)
}
