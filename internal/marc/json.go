package marc

import (
	"encoding/json"
	"fmt"
	"sort"
)

// jsonRecord is the MARC-in-JSON layout:
//
//	{"leader": "...", "fields": [{"001": "..."}, {"245": {"ind1": "1", "ind2": "0", "subfields": [{"a": "..."}]}}]}
type jsonRecord struct {
	Leader string                       `json:"leader"`
	Fields []map[string]json.RawMessage `json:"fields"`
}

type jsonDataField struct {
	Ind1      string              `json:"ind1"`
	Ind2      string              `json:"ind2"`
	Subfields []map[string]string `json:"subfields"`
}

// UnmarshalJSONRecord decodes one MARC-in-JSON object.
func UnmarshalJSONRecord(data []byte) (*Record, error) {
	var raw jsonRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse MARC-in-JSON: %w", err)
	}

	rec := NewRecord(raw.Leader)
	for _, entry := range raw.Fields {
		for tag, value := range entry {
			if IsControlTag(tag) {
				var s string
				if err := json.Unmarshal(value, &s); err != nil {
					return nil, fmt.Errorf("control field %s: %w", tag, err)
				}
				rec.AddControlField(tag, s)
				continue
			}

			var df jsonDataField
			if err := json.Unmarshal(value, &df); err != nil {
				return nil, fmt.Errorf("data field %s: %w", tag, err)
			}
			field := NewField(tag, (df.Ind1+" ")[:1]+(df.Ind2+" ")[:1])
			for _, sf := range df.Subfields {
				codes := make([]string, 0, len(sf))
				for code := range sf {
					codes = append(codes, code)
				}
				// one code per object in practice; sort for stable output otherwise
				sort.Strings(codes)
				for _, code := range codes {
					field.Subfields = append(field.Subfields, Subfield{Code: code, Value: sf[code]})
				}
			}
			rec.AddField(field)
		}
	}
	return rec, nil
}

// MarshalJSON encodes the record as MARC-in-JSON.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := jsonRecord{Leader: r.leader}
	for _, cf := range r.controls {
		value, err := json.Marshal(cf.value)
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, map[string]json.RawMessage{cf.tag: value})
	}
	for _, f := range r.fields {
		df := jsonDataField{Ind1: f.Indicator1, Ind2: f.Indicator2}
		for _, sf := range f.Subfields {
			df.Subfields = append(df.Subfields, map[string]string{sf.Code: sf.Value})
		}
		value, err := json.Marshal(df)
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, map[string]json.RawMessage{f.Tag: value})
	}
	return json.Marshal(out)
}
