package textutils

import (
	"strings"
	"unicode/utf8"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// editOptions is classic Levenshtein: unit cost for insert, delete and substitute.
var editOptions = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// Normalize lower-cases and trims a string before comparison.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EditDistance returns the Levenshtein distance between a and b, counted in runes.
func EditDistance(a, b string) int {
	return levenshtein.DistanceForStrings([]rune(a), []rune(b), editOptions)
}

// Similarity scores two strings in [0,1] as (maxLen - editDistance) / maxLen after
// normalization. Two empty strings are identical (1); one empty string against a
// non-empty one shares nothing (0).
func Similarity(a, b string) float64 {
	s1, s2 := Normalize(a), Normalize(b)
	if s1 == s2 {
		return 1
	}
	if s1 == "" || s2 == "" {
		return 0
	}

	maxLen := utf8.RuneCountInString(s1)
	if n := utf8.RuneCountInString(s2); n > maxLen {
		maxLen = n
	}
	distance := EditDistance(s1, s2)
	return float64(maxLen-distance) / float64(maxLen)
}
