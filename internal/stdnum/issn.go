package stdnum

import (
	"regexp"
	"strconv"
	"strings"
)

var issnGroups = regexp.MustCompile(`^(\d{4})\s+(\d{3}[\dXx])`)

// ISSN returns raw in canonical NNNN-NNNC form. Seven digits get a computed
// check character; an eighth that does not match rejects the value.
func ISSN(raw string) (string, bool) {
	s := strings.ReplaceAll(raw, "-", "")
	s = leadingNonDigits.ReplaceAllString(s, "")
	s = issnGroups.ReplaceAllString(s, "$1$2")
	s = leadingNumber.FindString(s)
	if len(s) != 7 && len(s) != 8 {
		return "", false
	}

	stem := s[:7]
	if !allDigits(stem) {
		return "", false
	}
	check := issnCheckDigit(stem)
	if len(s) == 8 && !strings.EqualFold(s[7:], check) {
		return "", false
	}
	return stem[:4] + "-" + stem[4:] + check, true
}

// weights 8 down to 2, mod 11
func issnCheckDigit(stem string) string {
	sum := 0
	for i, c := range stem {
		sum += int(c-'0') * (8 - i)
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return "X"
	}
	return strconv.Itoa(check)
}
