// Package normalize converts the free-form numeric and date text found in
// platform CSV exports into canonical Go values.
//
// These functions handle the messy reality of multi-locale exports:
//   - magnitude suffixes ("1.5M", "2K")
//   - European vs US separators ("1.234,56" vs "1,234.56")
//   - Italian textual dates ("15 novembre 2024") next to ISO timestamps
//
// All parsers are pure and side-effect free; callers decide whether a
// failed parse means zero (aggregation) or a display placeholder.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// nullLike are inputs that mean "no value" rather than "unparseable".
var nullLike = map[string]bool{
	"":     true,
	"nan":  true,
	"none": true,
	"n/a":  true,
	"--":   true,
}

var (
	thousandsDot = regexp.MustCompile(`\.\d{3}$`)
	nonNumeric   = regexp.MustCompile(`[^\d.]`)
)

// ParseNumber parses a count or currency amount. The boolean result is
// false for null-like or unparseable input.
//
// Currency mode resolves "1.234,56" and "1,234.56" by treating the
// later-occurring separator as the decimal point. Count mode treats a dot
// followed by exactly three trailing digits as a thousands separator
// ("1.234" → 1234) and truncates the result to an integer value.
func ParseNumber(raw string, currency bool) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if nullLike[s] {
		return 0, false
	}

	multiplier := 1.0
	if strings.Contains(s, "k") {
		multiplier = 1e3
		s = strings.ReplaceAll(s, "k", "")
	} else if strings.Contains(s, "m") {
		multiplier = 1e6
		s = strings.ReplaceAll(s, "m", "")
	}
	s = strings.TrimSpace(s)

	if currency {
		hasComma := strings.Contains(s, ",")
		hasDot := strings.Contains(s, ".")
		switch {
		case hasComma && hasDot:
			if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
				// European: 1.234,56
				s = strings.ReplaceAll(s, ".", "")
				s = strings.ReplaceAll(s, ",", ".")
			} else {
				// US: 1,234.56
				s = strings.ReplaceAll(s, ",", "")
			}
		case hasComma:
			// Lone comma is a decimal point in the locales we ingest.
			s = strings.ReplaceAll(s, ",", ".")
		}
	} else {
		if thousandsDot.MatchString(s) {
			s = strings.ReplaceAll(s, ".", "")
		}
		s = strings.ReplaceAll(s, ",", ".")
	}

	s = nonNumeric.ReplaceAllString(s, "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}

	v *= multiplier
	if !currency {
		v = math.Trunc(v)
	}
	return v, true
}

// ParseCount parses a non-currency value, mapping a failed parse to zero.
// This is the aggregation-context shorthand used by the row mappers.
func ParseCount(raw string) float64 {
	v, _ := ParseNumber(raw, false)
	return v
}
