// Package dates decodes the date encodings found in genealogy exports: bare
// years, spreadsheet day counts and free text.
package dates

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// serialThreshold separates bare years from spreadsheet day counts.
	serialThreshold = 10000

	// fictitiousLeapDay is the day count spreadsheets assign to 1900-02-29,
	// a date that never existed.
	fictitiousLeapDay = 60

	rangeDash = "–"
	birthMark = "*"
	deathMark = "†"
)

// serialEpoch is day zero of the spreadsheet calendar.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var (
	leadingYear = regexp.MustCompile(`^\d{4}`)
	anyYear     = regexp.MustCompile(`\d{4}`)
)

// NormalizeDate converts a raw date cell into its canonical string form.
// Numbers below 10000 are years; larger numbers are spreadsheet day counts
// rendered as YYYY-MM-DD. Zero, negative and non-finite numbers yield "".
// Strings pass through unchanged. Use FromSerial for day counts below 10000.
func NormalizeDate(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return v.String()
		}
		return normalizeNumber(f)
	case float64:
		return normalizeNumber(v)
	case float32:
		return normalizeNumber(float64(v))
	case int:
		return normalizeNumber(float64(v))
	case int64:
		return normalizeNumber(float64(v))
	default:
		return ""
	}
}

func normalizeNumber(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return ""
	}
	whole := int(math.Floor(n))
	if whole < serialThreshold {
		return strconv.Itoa(whole)
	}
	return FromSerial(whole)
}

// FromSerial renders a spreadsheet day count as YYYY-MM-DD. Day 60 is the
// fictitious 1900-02-29; day counts below it are shifted by one so that day 1
// is 1900-01-01, matching the spreadsheet calendar. Non-positive input yields "".
func FromSerial(n int) string {
	if n <= 0 {
		return ""
	}
	if n == fictitiousLeapDay {
		return "1900-02-29"
	}
	days := n
	if n < fictitiousLeapDay {
		days = n + 1
	}
	return serialEpoch.AddDate(0, 0, days).Format("2006-01-02")
}

// ExtractYear returns the leading 4-digit run of s, else the first embedded
// 4-digit run, else s unchanged.
func ExtractYear(s string) string {
	if m := leadingYear.FindString(s); m != "" {
		return m
	}
	if m := anyYear.FindString(s); m != "" {
		return m
	}
	return s
}

// Year extracts a numeric year from a normalized date string.
func Year(s string) (int, bool) {
	y := ExtractYear(strings.TrimSpace(s))
	if len(y) != 4 {
		return 0, false
	}
	n, err := strconv.Atoi(y)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatPartnerSpan condenses a free-text partner annotation such as
// "geb. 12.3.1887, gef. 1918" into "1887–1918", "*1887" or "†1918".
// Text without any 4-digit year is returned unchanged.
func FormatPartnerSpan(raw string) string {
	years := anyYear.FindAllString(raw, -1)
	if len(years) == 0 {
		return raw
	}
	first := years[0]
	switch {
	case len(years) >= 2 && (strings.Contains(raw, rangeDash) || strings.Contains(raw, "-")):
		return first + rangeDash + years[len(years)-1]
	case strings.Contains(raw, birthMark):
		return birthMark + first
	case strings.Contains(raw, deathMark):
		return deathMark + first
	default:
		return first
	}
}
