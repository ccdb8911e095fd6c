package marc

import "strings"

// Bibliographic is the read-only view of a MARC record that key and
// identifier derivation needs. Any parsed record type can satisfy it.
type Bibliographic interface {
	Leader() string
	ControlField(tag string) (string, bool)
	ControlFields(tag string) []string
	Fields(tags ...string) []Field
}

// Subfield is a single coded value inside a data field
type Subfield struct {
	Code  string `json:"code"`
	Value string `json:"value"`
}

// Field represents a MARC data field (tag 010-999)
type Field struct {
	Tag        string     `json:"tag"`
	Indicator1 string     `json:"ind1"`
	Indicator2 string     `json:"ind2"`
	Subfields  []Subfield `json:"subfields"`
}

// NewField builds a data field from a two character indicator string and
// alternating code/value pairs, e.g. NewField("245", "10", "a", "Title").
// A trailing code without a value is ignored.
func NewField(tag, indicators string, codeValues ...string) Field {
	indicators = (indicators + "  ")[:2]
	f := Field{
		Tag:        tag,
		Indicator1: indicators[:1],
		Indicator2: indicators[1:2],
	}
	for i := 0; i+1 < len(codeValues); i += 2 {
		f.Subfields = append(f.Subfields, Subfield{Code: codeValues[i], Value: codeValues[i+1]})
	}
	return f
}

// Subfield returns the first value for code
func (f Field) Subfield(code string) (string, bool) {
	for _, sf := range f.Subfields {
		if sf.Code == code {
			return sf.Value, true
		}
	}
	return "", false
}

// SubfieldValues returns every value for the given codes in field order.
func (f Field) SubfieldValues(codes ...string) []string {
	var values []string
	for _, sf := range f.Subfields {
		for _, code := range codes {
			if sf.Code == code {
				values = append(values, sf.Value)
				break
			}
		}
	}
	return values
}

// HasSubfield reports whether the field carries at least one subfield code.
func (f Field) HasSubfield(code string) bool {
	_, ok := f.Subfield(code)
	return ok
}

// String renders the field in MARC mnemonic form without the leading "=".
func (f Field) String() string {
	var sb strings.Builder
	sb.WriteString(f.Tag)
	sb.WriteString("  ")
	sb.WriteString(blankToBackslash(f.Indicator1 + f.Indicator2))
	for _, sf := range f.Subfields {
		sb.WriteString("$")
		sb.WriteString(sf.Code)
		sb.WriteString(strings.ReplaceAll(sf.Value, "$", "{dollar}"))
	}
	return sb.String()
}

type controlField struct {
	tag   string
	value string
}

// Record is an in-memory MARC bibliographic record. Control fields and data
// fields keep the order in which they were added.
type Record struct {
	leader   string
	controls []controlField
	fields   []Field
}

// NewRecord creates an empty record with the given leader
func NewRecord(leader string) *Record {
	return &Record{leader: leader}
}

// Leader returns the raw leader string.
func (r *Record) Leader() string {
	return r.leader
}

// ControlField returns the first control field (001-009) with tag.
func (r *Record) ControlField(tag string) (string, bool) {
	for _, cf := range r.controls {
		if cf.tag == tag {
			return cf.value, true
		}
	}
	return "", false
}

// ControlFields returns every value of a repeatable control field such as
// 006 or 007, in record order.
func (r *Record) ControlFields(tag string) []string {
	var values []string
	for _, cf := range r.controls {
		if cf.tag == tag {
			values = append(values, cf.value)
		}
	}
	return values
}

// Fields returns the data fields matching any of tags, in record order. A tag
// may use X as a wildcard digit ("1XX", "6X0"). With no tags every data field
// is returned.
func (r *Record) Fields(tags ...string) []Field {
	if len(tags) == 0 {
		out := make([]Field, len(r.fields))
		copy(out, r.fields)
		return out
	}
	var out []Field
	for _, f := range r.fields {
		for _, t := range tags {
			if tagMatches(t, f.Tag) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// AddControlField appends a control field and returns the record for chaining.
func (r *Record) AddControlField(tag, value string) *Record {
	r.controls = append(r.controls, controlField{tag: tag, value: value})
	return r
}

// AddField appends a data field and returns the record for chaining.
func (r *Record) AddField(f Field) *Record {
	r.fields = append(r.fields, f)
	return r
}

// ID returns the trimmed 001 control number, or "" when absent.
func (r *Record) ID() string {
	v, _ := r.ControlField("001")
	return strings.TrimSpace(v)
}

// String renders the record in MARC mnemonic form.
func (r *Record) String() string {
	var sb strings.Builder
	sb.WriteString("=LDR  ")
	sb.WriteString(blankToBackslash(r.leader))
	sb.WriteString("\n")
	for _, cf := range r.controls {
		sb.WriteString("=" + cf.tag + "  " + blankToBackslash(cf.value) + "\n")
	}
	for _, f := range r.fields {
		sb.WriteString("=" + f.String() + "\n")
	}
	return sb.String()
}

// IsControlTag reports whether tag is in the 00X control range.
func IsControlTag(tag string) bool {
	return len(tag) == 3 && tag[0] == '0' && tag[1] == '0'
}

func tagMatches(pattern, tag string) bool {
	if len(pattern) != len(tag) {
		return false
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != 'X' && pattern[i] != 'x' && pattern[i] != tag[i] {
			return false
		}
	}
	return true
}

func blankToBackslash(s string) string {
	return strings.ReplaceAll(s, " ", `\`)
}
