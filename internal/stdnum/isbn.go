package stdnum

import (
	"regexp"
	"strconv"
	"strings"
)

const isbnPrefix = "978"

var (
	isbnSeparators   = regexp.MustCompile(`[-\\]`)
	parenthetical    = regexp.MustCompile(`\(.*?\)`)
	priceMarker      = regexp.MustCompile(`[:$£€].*$`)
	leadingNonDigits = regexp.MustCompile(`^\D+`)
	isbn13Start      = regexp.MustCompile(`^97[89]`)
	isbnGroups       = regexp.MustCompile(`^(\d+)\s(\d+)\s(\d+)\s([\dXx])`)
	leadingNumber    = regexp.MustCompile(`^\d+[Xx]?`)
)

// ISBN cleans a raw 020 $a style value and returns it as a validated
// ISBN-13. ISBN-10 input is converted. A supplied check digit that does not
// match rejects the value; a missing one is computed.
func ISBN(raw string) (string, bool) {
	s := cleanISBN(raw)

	switch len(s) {
	case 9, 10:
		stem := s[:9]
		check := ISBN10CheckDigit(stem)
		if check == "" {
			return "", false
		}
		if len(s) == 10 && !strings.EqualFold(s[9:], check) {
			return "", false
		}
		return ISBN10To13(stem), true
	case 12, 13:
		stem := s[:12]
		check := ISBN13CheckDigit(stem)
		if check == "" {
			return "", false
		}
		if len(s) == 13 && s[12:] != check {
			return "", false
		}
		return stem + check, true
	}
	return "", false
}

func cleanISBN(raw string) string {
	s := isbnSeparators.ReplaceAllString(raw, "")
	s = parenthetical.ReplaceAllString(s, "")
	s = priceMarker.ReplaceAllString(s, "")
	s = leadingNonDigits.ReplaceAllString(s, "")
	if isbn13Start.MatchString(s) {
		s = strings.Join(strings.Fields(s), "")
	} else {
		s = isbnGroups.ReplaceAllString(s, "$1$2$3$4")
	}
	s = leadingNumber.FindString(s)
	if n := len(s); n == 7 || n == 8 {
		s += strings.Repeat("0", 9-n)
	}
	return s
}

// ISBN10CheckDigit computes the check character for a nine digit stem:
// weights 10 down to 2, mod 11, with 10 written as "X". It returns "" when
// stem is not nine digits.
func ISBN10CheckDigit(stem string) string {
	if len(stem) != 9 || !allDigits(stem) {
		return ""
	}
	sum := 0
	for i, c := range stem {
		sum += int(c-'0') * (10 - i)
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return "X"
	}
	return strconv.Itoa(check)
}

// ISBN13CheckDigit computes the check digit for a twelve digit stem using
// alternating 1 and 3 weights. It returns "" when stem is not twelve digits.
func ISBN13CheckDigit(stem string) string {
	if len(stem) != 12 || !allDigits(stem) {
		return ""
	}
	sum := 0
	for i, c := range stem {
		weight := 1
		if i%2 == 1 {
			weight = 3
		}
		sum += int(c-'0') * weight
	}
	return strconv.Itoa((10 - sum%10) % 10)
}

// ISBN10To13 converts an ISBN-10, or its nine digit stem, to ISBN-13. Any
// ISBN-10 check character is ignored. It returns "" for a malformed stem.
func ISBN10To13(isbn10 string) string {
	if len(isbn10) < 9 {
		return ""
	}
	stem := isbnPrefix + isbn10[:9]
	check := ISBN13CheckDigit(stem)
	if check == "" {
		return ""
	}
	return stem + check
}

// ValidISBN13 reports whether s is thirteen digits with a correct check digit.
func ValidISBN13(s string) bool {
	if len(s) != 13 {
		return false
	}
	check := ISBN13CheckDigit(s[:12])
	return check != "" && s[12:] == check
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
