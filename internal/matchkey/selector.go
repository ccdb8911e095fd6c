package matchkey

import "github.com/lehigh-university-libraries/bibmatch/internal/marc"

// Preference describes how to choose among alternate occurrences of a
// repeatable field: fields of Tag are ranked by their second indicator in
// Indicators order, and Legacy fields follow every ranked Tag field.
type Preference struct {
	Tag        string
	Indicators []string
	Legacy     string
}

// Publication prefers 264 publication statements over copyright,
// distribution, manufacture and production ones, then falls back to 260.
var Publication = Preference{
	Tag:        "264",
	Indicators: []string{"1", "4", "2", "3", "0"},
	Legacy:     "260",
}

// Ordered returns the fields carrying subfield code in preference order.
// Tag fields whose second indicator is not ranked are left out.
func Ordered(rec marc.Bibliographic, pref Preference, code string) []marc.Field {
	candidates := withSubfield(rec.Fields(pref.Tag), code)

	var out []marc.Field
	for _, ind := range pref.Indicators {
		for _, f := range candidates {
			if f.Indicator2 == ind {
				out = append(out, f)
			}
		}
	}
	if pref.Legacy != "" {
		out = append(out, withSubfield(rec.Fields(pref.Legacy), code)...)
	}
	return out
}

// SelectField returns the preferred field that carries subfield code.
func SelectField(rec marc.Bibliographic, pref Preference, code string) (marc.Field, bool) {
	ordered := Ordered(rec, pref, code)
	if len(ordered) == 0 {
		return marc.Field{}, false
	}
	return ordered[0], true
}

// SelectSubfield returns the first value of code in the preferred field.
func SelectSubfield(rec marc.Bibliographic, pref Preference, code string) (string, bool) {
	f, ok := SelectField(rec, pref, code)
	if !ok {
		return "", false
	}
	return f.Subfield(code)
}

// FirstMatch walks the fields in preference order and returns the first
// non-empty result of extract applied to a subfield code value.
func FirstMatch(rec marc.Bibliographic, pref Preference, code string, extract func(string) string) (string, bool) {
	for _, f := range Ordered(rec, pref, code) {
		for _, v := range f.SubfieldValues(code) {
			if got := extract(v); got != "" {
				return got, true
			}
		}
	}
	return "", false
}

func withSubfield(fields []marc.Field, code string) []marc.Field {
	var out []marc.Field
	for _, f := range fields {
		if f.HasSubfield(code) {
			out = append(out, f)
		}
	}
	return out
}
