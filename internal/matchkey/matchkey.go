// Package matchkey derives the fixed-layout fuzzy match key used to find the
// same work described by independently cataloged MARC records.
//
// A key is ten fixed-width segments (162 characters), a variable-width
// government document segment, and a trailing format character ("p" for
// print, "e" for electronic). Every segment has a default, so building a key
// never fails.
package matchkey

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/bibmatch/internal/marc"
	"github.com/lehigh-university-libraries/bibmatch/internal/normalize"
)

// Segment widths, in key order.
const (
	TitleWidth         = 70
	DateWidth          = 4
	PaginationWidth    = 4
	EditionWidth       = 3
	PublisherWidth     = 5
	TypeWidth          = 1
	TitlePartWidth     = 30
	TitleNumberWidth   = 10
	AuthorWidth        = 20
	InclusiveDateWidth = 15
	FormatWidth        = 1

	// FixedWidth is the key length without the government document segment.
	FixedWidth = TitleWidth + DateWidth + PaginationWidth + EditionWidth + PublisherWidth +
		TypeWidth + TitlePartWidth + TitleNumberWidth + AuthorWidth + InclusiveDateWidth + FormatWidth
)

const (
	titlePartEach = 10
	unknownDate   = "0000"
	firstEdition  = "1"
	formatPrint   = "p"
	formatOnline  = "e"
)

var authorTags = []string{"100", "110", "111", "130"}

var (
	fourDigits = regexp.MustCompile(`\d{4}`)
	digitRun   = regexp.MustCompile(`\d+`)
	letterRun  = regexp.MustCompile(`\pL+`)
	linkage    = regexp.MustCompile(`^880-(\d+)`)
)

// ordinal word stems, replaced in this order
var ordinalStems = []struct{ stem, digits string }{
	{"fir", "1"}, {"sec", "2"}, {"thi", "3"}, {"fou", "4"}, {"fif", "5"},
	{"six", "6"}, {"sev", "7"}, {"eig", "8"}, {"nin", "9"}, {"ten", "10"},
}

// Key is a derived match key.
type Key string

// Segments holds the individual parts of a key.
type Segments struct {
	Title           string `json:"title" yaml:"title"`
	PublicationDate string `json:"publication_date" yaml:"publicationdate"`
	Pagination      string `json:"pagination" yaml:"pagination"`
	Edition         string `json:"edition" yaml:"edition"`
	Publisher       string `json:"publisher" yaml:"publisher"`
	Type            string `json:"type" yaml:"type"`
	TitlePart       string `json:"title_part" yaml:"titlepart"`
	TitleNumber     string `json:"title_number" yaml:"titlenumber"`
	Author          string `json:"author" yaml:"author"`
	InclusiveDate   string `json:"inclusive_date" yaml:"inclusivedate"`
	GovDoc          string `json:"gov_doc" yaml:"govdoc"`
	Format          string `json:"format" yaml:"format"`
}

// Build derives the match key for rec.
func Build(rec marc.Bibliographic) Key {
	return Derive(rec).Key()
}

// Derive computes every segment of the match key for rec.
func Derive(rec marc.Bibliographic) Segments {
	return Segments{
		Title:           titleKey(rec),
		PublicationDate: publicationDateKey(rec),
		Pagination:      paginationKey(rec),
		Edition:         editionKey(rec),
		Publisher:       publisherKey(rec),
		Type:            typeKey(rec),
		TitlePart:       titlePartKey(rec),
		TitleNumber:     titleNumberKey(rec),
		Author:          authorKey(rec),
		InclusiveDate:   inclusiveDateKey(rec),
		GovDoc:          govDocKey(rec),
		Format:          formatKey(rec),
	}
}

// Key concatenates the segments in key order.
func (s Segments) Key() Key {
	return Key(s.Title + s.PublicationDate + s.Pagination + s.Edition + s.Publisher + s.Type +
		s.TitlePart + s.TitleNumber + s.Author + s.InclusiveDate + s.GovDoc + s.Format)
}

// Segments splits k back into its parts. Keys shorter than FixedWidth yield
// the zero Segments.
func (k Key) Segments() Segments {
	r := []rune(string(k))
	var s Segments
	if len(r) < FixedWidth {
		return s
	}

	take := func(width int) string {
		part := string(r[:width])
		r = r[width:]
		return part
	}
	s.Title = take(TitleWidth)
	s.PublicationDate = take(DateWidth)
	s.Pagination = take(PaginationWidth)
	s.Edition = take(EditionWidth)
	s.Publisher = take(PublisherWidth)
	s.Type = take(TypeWidth)
	s.TitlePart = take(TitlePartWidth)
	s.TitleNumber = take(TitleNumberWidth)
	s.Author = take(AuthorWidth)
	s.InclusiveDate = take(InclusiveDateWidth)
	s.GovDoc = string(r[:len(r)-FormatWidth])
	s.Format = string(r[len(r)-FormatWidth:])
	return s
}

// Format returns the trailing format character, "p" or "e".
func (k Key) Format() string {
	if k == "" {
		return ""
	}
	r, _ := utf8.DecodeLastRuneInString(string(k))
	return string(r)
}

// Len returns the key length in characters.
func (k Key) Len() int {
	return utf8.RuneCountInString(string(k))
}

func (k Key) String() string {
	return string(k)
}

func pad(s string, width int) string {
	return normalize.PadWithUnderscores(s, width)
}

func firstSubfield(rec marc.Bibliographic, tag, code string) (string, bool) {
	for _, f := range rec.Fields(tag) {
		if v, ok := f.Subfield(code); ok {
			return v, true
		}
	}
	return "", false
}

// titleField returns the first 245, or the 880 it links to when the 245
// carries a $6 linkage to an alternate script rendering.
func titleField(rec marc.Bibliographic) (marc.Field, bool) {
	titles := rec.Fields("245")
	if len(titles) == 0 {
		return marc.Field{}, false
	}
	title := titles[0]

	link, ok := title.Subfield("6")
	if !ok {
		return title, true
	}
	m := linkage.FindStringSubmatch(link)
	if m == nil {
		return title, true
	}
	prefix := "245-" + m[1]
	for _, alt := range rec.Fields("880") {
		v, _ := alt.Subfield("6")
		if !strings.HasPrefix(v, prefix) {
			continue
		}
		if rest := v[len(prefix):]; rest == "" || rest[0] < '0' || rest[0] > '9' {
			return alt, true
		}
	}
	return title, true
}

func titleKey(rec marc.Bibliographic) string {
	f, ok := titleField(rec)
	if !ok {
		return pad("", TitleWidth)
	}
	var parts []string
	for _, v := range f.SubfieldValues("a", "b", "p") {
		parts = append(parts, normalize.Key(v))
	}
	return pad(strings.Join(parts, " "), TitleWidth)
}

func publicationDateKey(rec marc.Bibliographic) string {
	if f008, ok := rec.ControlField("008"); ok {
		if date := fixedFieldDate(f008); isYear(date) {
			return date
		}
	}
	if year, ok := FirstMatch(rec, Publication, "c", fourDigits.FindString); ok {
		return year
	}
	return unknownDate
}

// fixedFieldDate reads Date 1 (008/07-10), or Date 2 (008/11-14) for
// reprints where Date 2 holds the original publication date.
func fixedFieldDate(f008 string) string {
	if len(f008) < 7 {
		return ""
	}
	start := 7
	if f008[6] == 'r' {
		start = 11
	}
	if len(f008) < start+DateWidth {
		return ""
	}
	return f008[start : start+DateWidth]
}

func isYear(s string) bool {
	return len(s) == DateWidth && fourDigits.MatchString(s)
}

func paginationKey(rec marc.Bibliographic) string {
	extent, _ := firstSubfield(rec, "300", "a")
	return pad(fourDigits.FindString(extent), PaginationWidth)
}

func editionKey(rec marc.Bibliographic) string {
	statement, ok := firstSubfield(rec, "250", "a")
	if !ok {
		return pad(firstEdition, EditionWidth)
	}

	s := strings.ToLower(normalize.StripAccents(statement))
	for _, o := range ordinalStems {
		s = strings.ReplaceAll(s, o.stem, o.digits)
	}
	if digits := digitRun.FindString(s); digits != "" {
		return pad(digits, EditionWidth)
	}
	return pad(letterRun.FindString(s), EditionWidth)
}

func publisherKey(rec marc.Bibliographic) string {
	name, ok := SelectSubfield(rec, Publication, "b")
	if !ok {
		return pad("", PublisherWidth)
	}
	return pad(normalize.Key(name), PublisherWidth)
}

func typeKey(rec marc.Bibliographic) string {
	leader := rec.Leader()
	if len(leader) < 10 {
		return pad("", TypeWidth)
	}
	r, size := utf8.DecodeRuneInString(leader[6:])
	if r == utf8.RuneError && size <= 1 {
		return pad("", TypeWidth)
	}
	return pad(normalize.StripAccents(string(r)), TypeWidth)
}

func titlePartKey(rec marc.Bibliographic) string {
	titles := rec.Fields("245")
	if len(titles) == 0 {
		return pad("", TitlePartWidth)
	}
	// first titlePartEach characters of each part, unpadded
	var sb strings.Builder
	for _, part := range titles[0].SubfieldValues("p") {
		sb.WriteString(normalize.Truncate(normalize.Underscore(normalize.Key(part)), titlePartEach))
	}
	return pad(sb.String(), TitlePartWidth)
}

func titleNumberKey(rec marc.Bibliographic) string {
	titles := rec.Fields("245")
	if len(titles) == 0 {
		return pad("", TitleNumberWidth)
	}
	number, _ := titles[0].Subfield("n")
	return pad(normalize.Key(number), TitleNumberWidth)
}

func authorKey(rec marc.Bibliographic) string {
	var names []string
	for _, f := range rec.Fields(authorTags...) {
		if name, ok := f.Subfield("a"); ok {
			names = append(names, normalize.Key(name))
		}
	}
	return pad(strings.Join(names, " "), AuthorWidth)
}

func inclusiveDateKey(rec marc.Bibliographic) string {
	titles := rec.Fields("245")
	if len(titles) == 0 {
		return pad("", InclusiveDateWidth)
	}
	dates, _ := titles[0].Subfield("f")
	return pad(normalize.Key(dates), InclusiveDateWidth)
}

func govDocKey(rec marc.Bibliographic) string {
	number, ok := firstSubfield(rec, "086", "a")
	if !ok {
		return ""
	}
	return normalize.TrimMaxFieldLength(normalize.Underscore(normalize.Key(number)))
}

func formatKey(rec marc.Bibliographic) string {
	if isElectronic(rec) {
		return formatOnline
	}
	return formatPrint
}

func isElectronic(rec marc.Bibliographic) bool {
	if subfieldContains(rec, "245", "h", "electronic resource") ||
		subfieldContains(rec, "533", "a", "electronic reproduction") ||
		subfieldContains(rec, "300", "a", "online resource") {
		return true
	}
	// 007 repeats, one per physical form
	for _, f007 := range rec.ControlFields("007") {
		if strings.HasPrefix(f007, "c") {
			return true
		}
	}
	// carrier type code; c* are computer carriers
	for _, f := range rec.Fields("338") {
		for _, code := range f.SubfieldValues("b") {
			if strings.HasPrefix(strings.TrimSpace(code), "c") {
				return true
			}
		}
	}
	return len(rec.Fields("086")) > 0 && len(rec.Fields("856")) > 0
}

func subfieldContains(rec marc.Bibliographic, tag, code, phrase string) bool {
	for _, f := range rec.Fields(tag) {
		for _, v := range f.SubfieldValues(code) {
			if strings.Contains(strings.ToLower(v), phrase) {
				return true
			}
		}
	}
	return false
}
