// Package callnumber splits Library of Congress call numbers into class,
// sub-class, classification and Cutter parts.
package callnumber

import (
	"strings"

	"github.com/lehigh-university-libraries/bibmatch/internal/marc"
)

// maxSubClass is the longest LC sub-class letter run.
const maxSubClass = 3

// Parsed is a call number split into its parts. Class and SubClass are empty
// when the call number is not read as LC.
type Parsed struct {
	Classification string   `json:"classification" yaml:"classification"`
	Cutters        []string `json:"cutters" yaml:"cutters"`
	Class          string   `json:"class,omitempty" yaml:"class,omitempty"`
	SubClass       string   `json:"sub_class,omitempty" yaml:"subclass,omitempty"`
}

// IsLC reports whether the call number was interpreted as LC.
func (p Parsed) IsLC() bool {
	return p.Class != ""
}

// String rejoins the classification and Cutters with spaces.
func (p Parsed) String() string {
	parts := append([]string{p.Classification}, p.Cutters...)
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Parse splits classification into an LC class (its first letter) and
// sub-class (the leading one to three upper case letters) when assumeLC is
// set and the value starts with an upper case ASCII letter. Classification
// and cutters are always kept verbatim.
func Parse(classification string, cutters []string, assumeLC bool) Parsed {
	p := Parsed{
		Classification: classification,
		Cutters:        append([]string(nil), cutters...),
	}
	if !assumeLC || classification == "" || !isUpper(classification[0]) {
		return p
	}

	n := 0
	for n < len(classification) && n < maxSubClass && isUpper(classification[n]) {
		n++
	}
	p.Class = classification[:1]
	p.SubClass = classification[:n]
	return p
}

// FromRecord parses the first 050, or failing that 090, call number of rec.
// $a is the classification and every $b a Cutter. Records with neither field
// yield an empty, non-LC result.
func FromRecord(rec marc.Bibliographic) Parsed {
	for _, tag := range []string{"050", "090"} {
		for _, f := range rec.Fields(tag) {
			classification, ok := f.Subfield("a")
			if !ok {
				continue
			}
			return Parse(strings.TrimSpace(classification), trimAll(f.SubfieldValues("b")), true)
		}
	}
	return Parse("", nil, false)
}

func isUpper(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
