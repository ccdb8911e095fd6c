// Package stdnum normalizes the standard numbers carried by bibliographic
// records (ISBN, ISSN, LCCN and OCLC control numbers) and gathers them per
// record. Malformed values are dropped rather than reported.
package stdnum

import (
	"strings"

	"github.com/lehigh-university-libraries/bibmatch/internal/marc"
)

// Identifier schemes.
const (
	SchemeLCCN = "lccn"
	SchemeISBN = "isbn"
	SchemeISSN = "issn"
	SchemeOCLC = "oclc"
)

// Set holds the normalized identifiers of one record. Each list is free of
// duplicates and keeps first-appearance order.
type Set struct {
	LCCN []string `json:"lccn" yaml:"lccn,omitempty"`
	ISBN []string `json:"isbn" yaml:"isbn,omitempty"`
	ISSN []string `json:"issn" yaml:"issn,omitempty"`
	OCLC []string `json:"oclc" yaml:"oclc,omitempty"`
}

// Identifier is a single scheme/value pair from a Set.
type Identifier struct {
	Scheme string `json:"scheme" yaml:"scheme"`
	Value  string `json:"value" yaml:"value"`
}

func (id Identifier) String() string {
	return id.Scheme + ":" + id.Value
}

// FromRecord collects the standard numbers of rec: 010 $a, 020 $a, 022 $a
// and 035 $a, plus the 001 control number when 003 names OCLC. The 001 is
// trusted without an input prefix.
func FromRecord(rec marc.Bibliographic, opts OCLCOptions) Set {
	var s Set

	for _, v := range subfieldValues(rec, "010", "a") {
		if n, ok := LCCN(v); ok {
			s.LCCN = appendUnique(s.LCCN, n)
		}
	}
	for _, v := range subfieldValues(rec, "020", "a") {
		if n, ok := ISBN(v); ok {
			s.ISBN = appendUnique(s.ISBN, n)
		}
	}
	for _, v := range subfieldValues(rec, "022", "a") {
		if n, ok := ISSN(v); ok {
			s.ISSN = appendUnique(s.ISSN, n)
		}
	}

	if id, ok := rec.ControlField("001"); ok {
		if source, _ := rec.ControlField("003"); strings.TrimSpace(source) == OCLCMarker {
			controlOpts := OCLCOptions{PrefixOutput: opts.PrefixOutput}
			if n, ok := OCLC(id, controlOpts); ok {
				s.OCLC = appendUnique(s.OCLC, n)
			}
		}
	}
	for _, v := range subfieldValues(rec, "035", "a") {
		if n, ok := OCLC(v, opts); ok {
			s.OCLC = appendUnique(s.OCLC, n)
		}
	}
	return s
}

// Empty reports whether no identifier survived normalization.
func (s Set) Empty() bool {
	return len(s.LCCN) == 0 && len(s.ISBN) == 0 && len(s.ISSN) == 0 && len(s.OCLC) == 0
}

// Identifiers flattens s into scheme/value pairs in LCCN, ISBN, ISSN, OCLC
// order.
func (s Set) Identifiers() []Identifier {
	var ids []Identifier
	add := func(scheme string, values []string) {
		for _, v := range values {
			ids = append(ids, Identifier{Scheme: scheme, Value: v})
		}
	}
	add(SchemeLCCN, s.LCCN)
	add(SchemeISBN, s.ISBN)
	add(SchemeISSN, s.ISSN)
	add(SchemeOCLC, s.OCLC)
	return ids
}

// Normalize dispatches a single value to the normalizer for scheme.
func Normalize(scheme, raw string, opts OCLCOptions) (string, bool) {
	switch strings.ToLower(scheme) {
	case SchemeLCCN:
		return LCCN(raw)
	case SchemeISBN:
		return ISBN(raw)
	case SchemeISSN:
		return ISSN(raw)
	case SchemeOCLC:
		return OCLC(raw, opts)
	}
	return "", false
}

func subfieldValues(rec marc.Bibliographic, tag, code string) []string {
	var values []string
	for _, f := range rec.Fields(tag) {
		values = append(values, f.SubfieldValues(code)...)
	}
	return values
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
