package cmd

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/bibmatch/internal/dedup"
	"github.com/lehigh-university-libraries/bibmatch/internal/matchkey"
	"gopkg.in/yaml.v3"
)

const gatsbyRecords = `=LDR  00000nam  2200000 a 4500
=001  a1
=008  850101s1925\\\\nyu\\\\\\\\\\\000\0\eng\d
=020  \\$a0-306-40615-2
=100  1\$aFitzgerald, F. Scott,
=245  14$aThe great Gatsby /
=264  \1$bScribner,$c1925.

=LDR  00000nam  2200000 a 4500
=001  a2
=008  850101s1925\\\\nyu\\\\\\\\\\\000\0\eng\d
=020  \\$a9780306406157 (pbk.)
=100  1\$aFitzgerald, F. Scott,
=245  14$aThe great Gatsby /
=264  \1$bScribner,$c1925.
`

const laterGatsby = `=LDR  00000nam  2200000 a 4500
=001  a4
=008  850101s1925\\\\nyu\\\\\\\\\\\000\0\eng\d
=100  1\$aFitzgerald, F. Scott,
=245  14$aThe great Gatsby.
=264  \1$bScribner,$c1925.
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMatchKeyCmd(t *testing.T) {
	path := writeFile(t, t.TempDir(), "gatsby.mrk", gatsbyRecords)

	out, err := execute(t, "matchkey", path)
	if err != nil {
		t.Fatalf("matchkey: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %q", len(lines), out)
	}
	id, key, ok := strings.Cut(lines[0], "\t")
	if !ok || id != "a1" {
		t.Fatalf("Unexpected line %q", lines[0])
	}
	if k := matchkey.Key(key); k.Len() != matchkey.FixedWidth || k.Format() != "p" {
		t.Errorf("Unexpected key %q", key)
	}
	if !strings.HasPrefix(key, "great_gatsby_") {
		t.Errorf("Expected title segment first, got %q", key)
	}

	out, err = execute(t, "matchkey", "--segments", path)
	if err != nil {
		t.Fatalf("matchkey --segments: %v", err)
	}
	var line struct {
		ID       string            `json:"id"`
		Segments matchkey.Segments `json:"segments"`
	}
	if err := json.Unmarshal([]byte(strings.Split(out, "\n")[0]), &line); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if line.Segments.PublicationDate != "1925" || line.Segments.Publisher != "scrib" {
		t.Errorf("Unexpected segments %+v", line.Segments)
	}
}

func TestMatchKeyCmd_MissingFile(t *testing.T) {
	if _, err := execute(t, "matchkey", filepath.Join(t.TempDir(), "missing.mrk")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestStdnumCmd(t *testing.T) {
	path := writeFile(t, t.TempDir(), "gatsby.mrk", gatsbyRecords)

	out, err := execute(t, "stdnum", path)
	if err != nil {
		t.Fatalf("stdnum: %v", err)
	}
	var line struct {
		ID   string   `json:"id"`
		ISBN []string `json:"isbn"`
	}
	if err := json.Unmarshal([]byte(strings.Split(out, "\n")[1]), &line); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if line.ID != "a2" || len(line.ISBN) != 1 || line.ISBN[0] != "9780306406157" {
		t.Errorf("Unexpected identifiers %+v", line)
	}
}

func TestNormalizeCmd(t *testing.T) {
	out, err := execute(t, "normalize", "isbn", "0-306-40615-2", "bad")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if want := "0-306-40615-2\t9780306406157\nbad\tinvalid\n"; out != want {
		t.Errorf("Expected %q, got %q", want, out)
	}

	out, err = execute(t, "normalize", "oclc", "--no-input-prefix", "--prefix-output", "9913504")
	if err != nil {
		t.Fatalf("normalize oclc: %v", err)
	}
	if want := "9913504\t(OCoLC)ocm09913504\n"; out != want {
		t.Errorf("Expected %q, got %q", want, out)
	}

	if _, err := execute(t, "normalize", "doi", "10.1000/182"); err == nil {
		t.Error("Expected error for unknown scheme")
	}
}

func TestCallNumberCmd(t *testing.T) {
	out, err := execute(t, "callnumber", "--lc", "PS3556.I8", ".S32")
	if err != nil {
		t.Fatalf("callnumber: %v", err)
	}
	for _, want := range []string{"classification: PS3556.I8", "subclass: PS", "lc: true", "S32"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "callnumber", "--lc", "1PS3556.S32")
	if err != nil {
		t.Fatalf("callnumber: %v", err)
	}
	if !strings.Contains(out, "lc: false") || strings.Contains(out, "subclass:") {
		t.Errorf("Expected non-LC output:\n%s", out)
	}
}

func TestCompareCmd(t *testing.T) {
	key := strings.Repeat("_", matchkey.FixedWidth-1) + "p"
	out, err := execute(t, "compare", key, key)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	var c matchkey.Comparison
	if err := yaml.Unmarshal([]byte(out), &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if math.Abs(c.OverallScore-1.0) > 1e-9 || len(c.Segments) != 12 {
		t.Errorf("Expected a perfect score over 12 segments:\n%s", out)
	}

	if _, err := execute(t, "compare", "short", key); err == nil {
		t.Error("Expected error for short key")
	}
}

func TestDedupCmd(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "first.mrk", gatsbyRecords)
	second := writeFile(t, dir, "second.mrk", laterGatsby)
	reportPath := filepath.Join(dir, "out", "duplicates.yaml")
	parquetPath := filepath.Join(dir, "keys.parquet")
	dbPath := filepath.Join(dir, "index.db")

	out, err := execute(t, "dedup", first, "--report", reportPath, "--parquet", parquetPath, "--db", dbPath)
	if err != nil {
		t.Fatalf("dedup: %v", err)
	}
	if want := "\t2\t" + first + ":a1\t" + first + ":a2\n"; !strings.Contains(out, want) {
		t.Errorf("Expected a1 and a2 grouped, got %q", out)
	}

	report, err := dedup.LoadReport(reportPath)
	if err != nil {
		t.Fatalf("LoadReport: %v", err)
	}
	if report.Summary.KeyGroups != 1 || report.Config.Records != 2 {
		t.Errorf("Unexpected report summary %+v / %+v", report.Summary, report.Config)
	}

	rows, err := dedup.ReadParquet(parquetPath)
	if err != nil {
		t.Fatalf("ReadParquet: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Expected 2 parquet rows, got %d", len(rows))
	}

	// the second run only loads a4, but the index still holds a1 and a2
	out, err = execute(t, "dedup", second, "--db", dbPath)
	if err != nil {
		t.Fatalf("dedup second run: %v", err)
	}
	if want := "\t3\t" + first + ":a1\t" + first + ":a2\t" + second + ":a4\n"; !strings.Contains(out, want) {
		t.Errorf("Expected accumulated group of three, got %q", out)
	}

	out, err = execute(t, "report", reportPath)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	for _, want := range []string{"Records:   2", "Key groups:        1 (2 records)", "Near misses:       0"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected report output to contain %q:\n%s", want, out)
		}
	}
	if _, err := execute(t, "report", "--format", "csv", reportPath); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestDedupCmd_SameIDAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	libraryA := writeFile(t, dir, "library-a.mrk", laterGatsby)
	libraryB := writeFile(t, dir, "library-b.mrk", laterGatsby)

	out, err := execute(t, "dedup", libraryA, libraryB)
	if err != nil {
		t.Fatalf("dedup: %v", err)
	}
	if want := "\t2\t" + libraryA + ":a4\t" + libraryB + ":a4\n"; !strings.Contains(out, want) {
		t.Errorf("Expected both a4 records grouped, got %q", out)
	}
}

func TestMatchKeyCmd_Limit(t *testing.T) {
	path := writeFile(t, t.TempDir(), "gatsby.mrk", gatsbyRecords)

	out, err := execute(t, "matchkey", "--limit", "1", path)
	if err != nil {
		t.Fatalf("matchkey --limit: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 1 || !strings.HasPrefix(lines[0], "a1\t") {
		t.Errorf("Expected only a1, got %q", out)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv(envConcurrency, "12")
	if got := envInt(envConcurrency, 4); got != 12 {
		t.Errorf("Expected 12, got %d", got)
	}
	t.Setenv(envConcurrency, "many")
	if got := envInt(envConcurrency, 4); got != 4 {
		t.Errorf("Expected fallback 4, got %d", got)
	}
}
