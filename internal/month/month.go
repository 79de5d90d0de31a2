// Package month implements the canonical MM/YYYY month key used to index
// historical capacity entries, plus normalization of the date shapes found
// in source CSVs, chronological comparison, and month arithmetic.
package month

import (
	"fmt"
	"regexp"
	"strconv"
)

// Key is a canonical month key in MM/YYYY form, month zero-padded.
type Key string

// Accepted input shapes, tried in order. Day components are discarded.
var (
	reMonthYear    = regexp.MustCompile(`^(\d{1,2})/(\d{4})$`)
	reDayMonthYear = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	reDashed       = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
)

// Normalize converts a date-like string into a canonical Key.
// Supported shapes: M/YYYY, MM/YYYY, D/M/YYYY, DD/MM/YYYY, DD-MM-YYYY.
// Returns ok=false for anything else; callers skip such rows silently.
func Normalize(s string) (Key, bool) {
	if m := reMonthYear.FindStringSubmatch(s); m != nil {
		return makeKey(m[1], m[2]), true
	}
	if m := reDayMonthYear.FindStringSubmatch(s); m != nil {
		return makeKey(m[2], m[3]), true
	}
	if m := reDashed.FindStringSubmatch(s); m != nil {
		return makeKey(m[2], m[3]), true
	}
	return "", false
}

func makeKey(monthStr, yearStr string) Key {
	mo, _ := strconv.Atoi(monthStr)
	return Key(fmt.Sprintf("%02d/%s", mo, yearStr))
}

// parts splits a key into integer month and year. Malformed keys
// decompose to zeros, which sort before every valid key.
func (k Key) parts() (mo, yr int) {
	m := reMonthYear.FindStringSubmatch(string(k))
	if m == nil {
		return 0, 0
	}
	mo, _ = strconv.Atoi(m[1])
	yr, _ = strconv.Atoi(m[2])
	return mo, yr
}

// Valid reports whether k is in canonical MM/YYYY form.
func (k Key) Valid() bool {
	return reMonthYear.MatchString(string(k))
}

// Compare orders keys chronologically: first by year, then by month.
// Returns a negative value when a precedes b, zero when equal, positive otherwise.
func Compare(a, b Key) int {
	amo, ayr := a.parts()
	bmo, byr := b.parts()
	if ayr != byr {
		return ayr - byr
	}
	return amo - bmo
}

// Minus subtracts n months from k, borrowing from the year whenever the
// month counter drops below 1. n must be non-negative; results may have
// arbitrarily small years but the operation never fails.
func (k Key) Minus(n int) Key {
	mo, yr := k.parts()
	for i := 0; i < n; i++ {
		mo--
		if mo < 1 {
			mo = 12
			yr--
		}
	}
	return Key(fmt.Sprintf("%02d/%04d", mo, yr))
}
