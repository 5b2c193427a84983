// Package normalize turns the human-readable counts and text fragments found
// on listing pages into values the rest of the pipeline can work with.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var countRegex = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*([km])?`)

var spaceRegex = regexp.MustCompile(`\s+`)

// ParseCount extracts the first number in s, honouring comma separators and a
// trailing k/m suffix, and rounds it to an integer. It returns 0 when s holds
// no number.
//
//	ParseCount("1.2k")              // 1200
//	ParseCount("3,400")             // 3400
//	ParseCount("1,234 stars today") // 1234
func ParseCount(s string) int {
	m := countRegex.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(m[2]) {
	case "k":
		v *= 1e3
	case "m":
		v *= 1e6
	}
	if v >= math.MaxInt {
		return math.MaxInt
	}
	return int(math.Round(v))
}

// CollapseSpace replaces every run of whitespace with a single space and trims
// the ends.
func CollapseSpace(s string) string {
	return strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
}

// TruncateRunes cuts s to at most n runes and appends suffix when anything
// was removed. The suffix is not counted against n.
func TruncateRunes(s string, n int, suffix string) string {
	if n < 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + suffix
}

// FormatCount renders large counts compactly (1.2K, 3.4M) for display.
func FormatCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1e6)
	case n >= 1000:
		return fmt.Sprintf("%.1fK", float64(n)/1e3)
	default:
		return strconv.Itoa(n)
	}
}
