// Package normalize holds the string scrubbing rules shared by match key
// segments: punctuation and leading-article removal, diacritic stripping and
// fixed-width underscore padding.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxFieldLength caps variable-width key segments.
const MaxFieldLength = 32000

var (
	encodedQuote   = regexp.MustCompile(`&quot;`)
	leadingArticle = regexp.MustCompile(`(?i)^(a|an|the)\s+`)
	apostrophes    = regexp.MustCompile(`['{}]`)
	// General Punctuation, Supplemental Punctuation and the ASCII punctuation set
	punctuation = regexp.MustCompile(`[\x{2000}-\x{206F}\x{2E00}-\x{2E7F}\\!"#$%&()*+,\-./:;<=>?@\[\]^_{|}~` + "`" + `]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// StripPunctuation removes a leading article and punctuation from s,
// substituting replacement for each punctuation character. The article is
// removed first so that dropping punctuation cannot expose a new one.
func StripPunctuation(s, replacement string) string {
	s = encodedQuote.ReplaceAllString(s, "")
	s = leadingArticle.ReplaceAllString(s, "")
	s = apostrophes.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&", "and")
	return punctuation.ReplaceAllLiteralString(s, replacement)
}

// StripAccents decomposes s (NFD) and drops the combining marks.
func StripAccents(s string) string {
	// a Chain carries buffers, so it is built per call to stay goroutine safe
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// Key is the common segment normalization: punctuation to spaces, accents
// stripped, lower case.
func Key(s string) string {
	return strings.ToLower(StripAccents(StripPunctuation(s, " ")))
}

// Underscore collapses whitespace runs, trims, and replaces the remaining
// spaces with underscores.
func Underscore(s string) string {
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	return strings.ReplaceAll(s, " ", "_")
}

// PadWithUnderscores returns s underscored and truncated or right-padded with
// "_" to exactly width runes. An empty string yields width underscores.
func PadWithUnderscores(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = Underscore(s)
	n := utf8.RuneCountInString(s)
	if n >= width {
		return truncateRunes(s, width)
	}
	return s + strings.Repeat("_", width-n)
}

// TrimMaxFieldLength caps s at MaxFieldLength runes without padding.
func TrimMaxFieldLength(s string) string {
	return truncateRunes(s, MaxFieldLength)
}

// Truncate caps s at n runes without padding.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return truncateRunes(s, n)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
