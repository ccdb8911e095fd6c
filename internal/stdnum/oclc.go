package stdnum

import (
	"regexp"
	"strings"
)

// OCLCMarker is the MARC organization code that prefixes OCLC numbers.
const OCLCMarker = "OCoLC"

var (
	parentheticalPrefix = regexp.MustCompile(`\(([^)]*)\)`)
	oclcInputPrefix     = regexp.MustCompile(`^\(OCoLC\)|^(ocm|ocn|on)\d`)
	nonDigits           = regexp.MustCompile(`\D`)
)

// OCLCOptions controls prefix handling for OCLC numbers.
type OCLCOptions struct {
	// RequireInputPrefix rejects values that lack "(OCoLC)" or a legacy
	// ocm/ocn/on prefix.
	RequireInputPrefix bool `yaml:"require_input_prefix"`
	// PrefixOutput writes results as (OCoLC)ocm, ocn or on numbers.
	PrefixOutput bool `yaml:"prefix_output"`
}

// DefaultOCLCOptions requires a prefix on input and returns bare digits.
var DefaultOCLCOptions = OCLCOptions{RequireInputPrefix: true}

// OCLC normalizes an OCLC control number. Values tagged with another
// organization's parenthetical code are rejected, as is zero.
func OCLC(raw string, opts OCLCOptions) (string, bool) {
	s := strings.TrimSpace(raw)
	if m := parentheticalPrefix.FindStringSubmatch(s); m != nil && m[1] != OCLCMarker {
		return "", false
	}
	if opts.RequireInputPrefix && !oclcInputPrefix.MatchString(s) {
		return "", false
	}

	digits := strings.TrimLeft(nonDigits.ReplaceAllString(s, ""), "0")
	if digits == "" {
		return "", false
	}
	if !opts.PrefixOutput {
		return digits, true
	}
	return prefixOCLC(digits), true
}

// prefixOCLC picks the legacy prefix from the digit count.
func prefixOCLC(digits string) string {
	switch {
	case len(digits) <= 8:
		return "(" + OCLCMarker + ")ocm" + strings.Repeat("0", 8-len(digits)) + digits
	case len(digits) == 9:
		return "(" + OCLCMarker + ")ocn" + digits
	default:
		return "(" + OCLCMarker + ")on" + digits
	}
}
