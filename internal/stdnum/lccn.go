package stdnum

import (
	"regexp"
	"strings"
)

// an optional alphabetic prefix, then a two or four digit year and a six
// digit serial
var lccnShape = regexp.MustCompile(`^[A-Za-z]{0,3}(\d{8}|\d{10})$`)

// LCCN applies the Library of Congress normalization: blanks removed,
// anything from the first "/" dropped, and a hyphenated serial left padded
// with zeros to six digits. Results that are not a prefix of up to three
// letters followed by eight or ten digits are rejected.
func LCCN(raw string) (string, bool) {
	s := strings.Join(strings.Fields(raw), "")
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "-"); i >= 0 {
		prefix, serial := s[:i], s[i+1:]
		if allDigits(serial) && len(serial) < 6 {
			serial = strings.Repeat("0", 6-len(serial)) + serial
		}
		s = prefix + serial
	}
	if !lccnShape.MatchString(s) {
		return "", false
	}
	return s, true
}
