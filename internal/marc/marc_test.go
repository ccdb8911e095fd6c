package marc

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleMnemonic = `=LDR  00000nam\\2200000\a\4500
=001  ocm12345678
=008  850101s1985\\\\nyu\\\\\\\\\\\000\0\eng\d
=020  \\$a0-306-40615-2 (pbk.)
=100  1\$aFitzgerald, F. Scott
=245  14$aThe great Gatsby /$cF. Scott Fitzgerald.
=260  \\$aNew York :$bScribner,$c1925.
=300  \\$a218 p. ;$c21 cm.

=LDR  00000cam\\2200000\a\4500
=001  second
=245  00$aPrice list$bcosts in {dollar}US
`

func TestParseMnemonic(t *testing.T) {
	records, err := ParseMnemonic(bytes.NewBufferString(sampleMnemonic))
	if err != nil {
		t.Fatalf("ParseMnemonic: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	rec := records[0]
	if rec.Leader() != "00000nam  2200000 a 4500" {
		t.Errorf("Unexpected leader %q", rec.Leader())
	}
	if rec.ID() != "ocm12345678" {
		t.Errorf("Unexpected ID %q", rec.ID())
	}
	f008, ok := rec.ControlField("008")
	if !ok || f008[6] != 's' || f008[7:11] != "1985" {
		t.Errorf("Unexpected 008 %q", f008)
	}

	titles := rec.Fields("245")
	if len(titles) != 1 {
		t.Fatalf("Expected one 245, got %d", len(titles))
	}
	title := titles[0]
	if title.Indicator1 != "1" || title.Indicator2 != "4" {
		t.Errorf("Unexpected indicators %q %q", title.Indicator1, title.Indicator2)
	}
	if a, _ := title.Subfield("a"); a != "The great Gatsby /" {
		t.Errorf("Unexpected 245 $a %q", a)
	}

	isbn := rec.Fields("020")[0]
	if isbn.Indicator1 != " " || isbn.Indicator2 != " " {
		t.Errorf("Expected blank indicators, got %q %q", isbn.Indicator1, isbn.Indicator2)
	}

	second := records[1]
	if b, _ := second.Fields("245")[0].Subfield("b"); b != "costs in $US" {
		t.Errorf("Expected escaped dollar to be restored, got %q", b)
	}
}

func TestParseMnemonic_LooseForm(t *testing.T) {
	rec, err := ParseMnemonicRecord("LDR 00000nam  2200000 a 4500\n245 00 $a The Great Gatsby / $c F. Scott Fitzgerald\n020    $a 978-0-7432-7356-5\n")
	if err != nil {
		t.Fatalf("ParseMnemonicRecord: %v", err)
	}
	title := rec.Fields("245")[0]
	if a, _ := title.Subfield("a"); a != "The Great Gatsby /" {
		t.Errorf("Unexpected 245 $a %q", a)
	}
	if title.Indicator1 != "0" || title.Indicator2 != "0" {
		t.Errorf("Unexpected indicators %q%q", title.Indicator1, title.Indicator2)
	}
	if a, _ := rec.Fields("020")[0].Subfield("a"); a != "978-0-7432-7356-5" {
		t.Errorf("Unexpected 020 $a %q", a)
	}
}

func TestParseMnemonic_BadLine(t *testing.T) {
	if _, err := ParseMnemonicRecord("=LDR  00000nam\nnot a field\n"); err == nil {
		t.Error("Expected error for malformed line")
	}
}

func TestFieldsWildcard(t *testing.T) {
	rec := NewRecord("00000nam  2200000 a 4500").
		AddField(NewField("100", "1 ", "a", "Author")).
		AddField(NewField("245", "10", "a", "Title")).
		AddField(NewField("110", "2 ", "a", "Corp")).
		AddField(NewField("700", "1 ", "a", "Added"))

	got := rec.Fields("1XX")
	if len(got) != 2 || got[0].Tag != "100" || got[1].Tag != "110" {
		t.Errorf("Unexpected 1XX fields: %+v", got)
	}
	if n := len(rec.Fields()); n != 4 {
		t.Errorf("Expected all 4 fields, got %d", n)
	}
	if n := len(rec.Fields("650")); n != 0 {
		t.Errorf("Expected no 650 fields, got %d", n)
	}
}

func TestSubfieldValues(t *testing.T) {
	f := NewField("245", "10", "a", "Main", "p", "One", "b", "Sub", "p", "Two")
	got := f.SubfieldValues("a", "p")
	want := []string{"Main", "One", "Two"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	if f.HasSubfield("n") {
		t.Error("Did not expect subfield n")
	}
}

func TestEncodeAndReadAll(t *testing.T) {
	records, err := ParseMnemonic(bytes.NewBufferString(sampleMnemonic))
	if err != nil {
		t.Fatalf("ParseMnemonic: %v", err)
	}

	var buf bytes.Buffer
	for _, rec := range records {
		buf.Write(Encode(rec))
	}

	decoded, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(decoded) != len(records) {
		t.Fatalf("Expected %d records, got %d", len(records), len(decoded))
	}
	for i := range records {
		if withoutLeader(decoded[i].String()) != withoutLeader(records[i].String()) {
			t.Errorf("Record %d differs after binary round trip:\n%s\nvs\n%s", i, decoded[i], records[i])
		}
	}
}

// withoutLeader drops the LDR line, whose length and base address are
// recomputed by Encode.
func withoutLeader(s string) string {
	if i := strings.Index(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}

func TestReadAll_Truncated(t *testing.T) {
	rec := NewRecord("00000nam  2200000 a 4500").AddField(NewField("245", "00", "a", "Title"))

	tests := []struct {
		name    string
		corrupt func(data []byte) []byte
	}{
		{
			name: "field data cut short",
			corrupt: func(data []byte) []byte {
				// keep the record terminator
				return append(data[:len(data)-8:len(data)-8], recordTerminator)
			},
		},
		{
			name: "negative start position",
			corrupt: func(data []byte) []byte {
				// the first directory entry's start position
				copy(data[leaderLength+7:leaderLength+12], "-0001")
				return data
			},
		},
		{
			name: "negative field length",
			corrupt: func(data []byte) []byte {
				copy(data[leaderLength+3:leaderLength+7], "-001")
				return data
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broken := tt.corrupt(Encode(rec))
			_, err := ReadAll(bytes.NewReader(broken))
			if err == nil {
				t.Fatal("Expected error for malformed record")
			}
			if !strings.Contains(err.Error(), "record 1:") {
				t.Errorf("Expected the record number in %q", err)
			}
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	rec := NewRecord("00000nam  2200000 a 4500").
		AddControlField("001", "abc").
		AddField(NewField("245", "10", "a", "Title", "b", "subtitle"))

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	decoded, err := UnmarshalJSONRecord(data)
	if err != nil {
		t.Fatalf("UnmarshalJSONRecord: %v", err)
	}
	if decoded.String() != rec.String() {
		t.Errorf("JSON round trip mismatch:\n%s\nvs\n%s", decoded, rec)
	}
}

func TestLoader(t *testing.T) {
	dir := t.TempDir()

	mrk := filepath.Join(dir, "records.mrk")
	if err := os.WriteFile(mrk, []byte(sampleMnemonic), 0644); err != nil {
		t.Fatal(err)
	}

	records, err := NewLoader(mrk).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	sample, err := NewLoader(mrk).LoadSample(1)
	if err != nil {
		t.Fatalf("LoadSample: %v", err)
	}
	if len(sample) != 1 {
		t.Errorf("Expected 1 record, got %d", len(sample))
	}

	filtered, err := NewLoader(mrk).LoadWithFilter(func(r *Record) bool { return r.ID() == "second" })
	if err != nil {
		t.Fatalf("LoadWithFilter: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID() != "second" {
		t.Errorf("Unexpected filter result: %v", filtered)
	}

	mrc := filepath.Join(dir, "records.mrc")
	var buf bytes.Buffer
	for _, rec := range records {
		buf.Write(Encode(rec))
	}
	if err := os.WriteFile(mrc, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	binary, err := NewLoader(mrc).Load()
	if err != nil {
		t.Fatalf("Load binary: %v", err)
	}
	if len(binary) != 2 {
		t.Errorf("Expected 2 binary records, got %d", len(binary))
	}

	jsonl := filepath.Join(dir, "records.jsonl")
	var lines bytes.Buffer
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			t.Fatal(err)
		}
		lines.Write(data)
		lines.WriteByte('\n')
	}
	if err := os.WriteFile(jsonl, lines.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	fromJSON, err := NewLoader(jsonl).Load()
	if err != nil {
		t.Fatalf("Load JSONL: %v", err)
	}
	if len(fromJSON) != 2 || fromJSON[1].ID() != "second" {
		t.Errorf("Unexpected JSONL records: %v", fromJSON)
	}

	if _, err := NewLoader(filepath.Join(dir, "records.xml")).Load(); err == nil {
		t.Error("Expected error for unsupported extension")
	}
}

func TestControlFields(t *testing.T) {
	rec := NewRecord("00000nam  2200000 a 4500").
		AddControlField("001", "abc").
		AddControlField("007", "ta").
		AddControlField("007", "cr |||||||||||")

	got := rec.ControlFields("007")
	if len(got) != 2 || got[0] != "ta" || got[1] != "cr |||||||||||" {
		t.Errorf("Unexpected 007 values %q", got)
	}
	if first, _ := rec.ControlField("007"); first != "ta" {
		t.Errorf("Expected ControlField to return the first 007, got %q", first)
	}
	if got := rec.ControlFields("006"); got != nil {
		t.Errorf("Expected no 006 values, got %q", got)
	}
}
