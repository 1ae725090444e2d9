// Package dateutils provides the date handling shared by import and matching.
package dateutils

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// Common date format constants used throughout the application
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutEuropean = "02.01.2006"
	DateLayoutUS       = "01/02/2006"
	DateLayoutFull     = "2006-01-02 15:04:05"
)

// Day is the length of a calendar day used by date tolerances.
const Day = 24 * time.Hour

// CommonFormats is the list of layouts tried, in order, by ParseDate.
var CommonFormats = []string{
	time.RFC3339,
	DateLayoutISO,
	DateLayoutFull,
	DateLayoutEuropean,
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

var multiSpace = regexp.MustCompile(`\s+`)

// CleanDateString trims and collapses whitespace in a date string
func CleanDateString(dateStr string) string {
	return multiSpace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// ParseDate parses a date string with the first matching layout of CommonFormats.
// It returns the parsed time and the layout that matched.
func ParseDate(dateStr string) (time.Time, string, error) {
	dateStr = CleanDateString(dateStr)
	if dateStr == "" {
		return time.Time{}, "", fmt.Errorf("empty date")
	}
	for _, format := range CommonFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, format, nil
		}
	}
	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format(DateLayoutISO)
}

// DaysApart returns the absolute distance between two instants in (fractional) days.
func DaysApart(a, b time.Time) float64 {
	return math.Abs(a.Sub(b).Hours()) / 24
}

// WithinDays reports whether a and b are at most days apart.
func WithinDays(a, b time.Time, days int) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Duration(days)*Day
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
