// Package slottext canonicalizes time slot labels scraped from booking
// calendars so that visually identical labels compare equal. Sites render
// the same slot as "20:00 - 21:30", "20:00 – 21:30" or "20:00&nbsp;-
// 21:30" depending on template version, so comparisons run on a
// normalized form with every separator removed.
package slottext

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// runs of digits and punctuation left over once separators are deleted,
// e.g. "20:0021:30"
var timeRangeRegex = regexp.MustCompile(`^\d{1,2}[:.]\d{2}\d{1,2}[:.]\d{2}$`)

// dropped by Normalize but not covered by unicode.IsSpace or the dash
// punctuation category
var invisible = map[rune]bool{
	'​':      true, // zero width space
	'‌':      true, // zero width non-joiner
	'‍':      true, // zero width joiner
	'\uFEFF': true, // byte order mark
	'−':      true, // minus sign (math symbol, not a dash)
}

// Normalize returns the canonical form of a slot label: NFKC folded,
// lowercased, with all whitespace (including no-break variants), dashes
// and zero-width runes deleted. Idempotent.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.Is(unicode.Pd, r) || invisible[r] {
			return -1
		}
		return r
	}, s)
}

// IsTimeRange reports whether a label, once normalized, reads as a
// "HH:MM to HH:MM" clock range. Placeholder rows ("Loading...", "-")
// fail this check.
func IsTimeRange(s string) bool {
	return timeRangeRegex.MatchString(Normalize(s))
}
