// Package normalize coerces extracted text into numbers.
//
// Extraction is heuristic, so partially matched text is expected. Every
// function here reports failure with ok=false instead of an error.
package normalize

import (
	"strconv"
	"strings"
	"unicode"
)

// groupingSeparators are stripped from numerals before parsing.
var groupingSeparators = strings.NewReplacer(
	",", "",
	"\u00a0", "", // no-break space
	"\u2009", "", // thin space
	"\u202f", "", // narrow no-break space
	" ", "",
)

// Int parses a thousands-separated base-10 integer such as "1,234".
func Int(raw string) (int, bool) {
	s := groupingSeparators.Replace(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Weeks parses a week count written as "2주", "2 weeks" or "2".
func Weeks(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "주")
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsSpace(r)
	})
	return Int(s)
}
