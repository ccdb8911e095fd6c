package matchkey

import (
	"fmt"
	"strings"
)

// SegmentMatch is the comparison result for one key segment.
type SegmentMatch struct {
	Segment string  `yaml:"segment" json:"segment"`
	Left    string  `yaml:"left" json:"left"`
	Right   string  `yaml:"right" json:"right"`
	Score   float64 `yaml:"score" json:"score"`
	Method  string  `yaml:"method" json:"method"` // "exact", "fuzzy_high", "fuzzy_medium", "no_match", "missing", "both_missing"
	Notes   string  `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// Comparison is a segment-by-segment comparison of two keys.
type Comparison struct {
	Segments         []SegmentMatch `yaml:"segments" json:"segments"`
	OverallScore     float64        `yaml:"overall_score" json:"overall_score"`
	SegmentsMatched  int            `yaml:"segments_matched" json:"segments_matched"`
	LevenshteinTotal int            `yaml:"levenshtein_total" json:"levenshtein_total"`
}

// segment weights; title and author carry most of the identity of a work
var segmentWeights = []struct {
	name   string
	weight float64
	value  func(Segments) string
}{
	{"title", 0.35, func(s Segments) string { return s.Title }},
	{"publication_date", 0.10, func(s Segments) string { return s.PublicationDate }},
	{"pagination", 0.05, func(s Segments) string { return s.Pagination }},
	{"edition", 0.05, func(s Segments) string { return s.Edition }},
	{"publisher", 0.10, func(s Segments) string { return s.Publisher }},
	{"type", 0.05, func(s Segments) string { return s.Type }},
	{"title_part", 0.05, func(s Segments) string { return s.TitlePart }},
	{"title_number", 0.05, func(s Segments) string { return s.TitleNumber }},
	{"author", 0.15, func(s Segments) string { return s.Author }},
	{"inclusive_date", 0.02, func(s Segments) string { return s.InclusiveDate }},
	{"gov_doc", 0.01, func(s Segments) string { return s.GovDoc }},
	{"format", 0.02, func(s Segments) string { return s.Format }},
}

// Compare scores how close two keys are, segment by segment. It is meant for
// explaining near misses: records whose standard numbers agree but whose
// keys do not.
func Compare(a, b Key) Comparison {
	left, right := a.Segments(), b.Segments()

	var c Comparison
	for _, sw := range segmentWeights {
		m := compareSegment(sw.name, sw.value(left), sw.value(right))
		if m.Method == "exact" || m.Method == "fuzzy_high" || m.Method == "both_missing" {
			c.SegmentsMatched++
		}
		if m.Method != "missing" && m.Method != "both_missing" {
			c.LevenshteinTotal += levenshteinDistance(trimPadding(m.Left), trimPadding(m.Right))
		}
		c.OverallScore += m.Score * sw.weight
		c.Segments = append(c.Segments, m)
	}
	return c
}

func compareSegment(name, left, right string) SegmentMatch {
	match := SegmentMatch{Segment: name, Left: left, Right: right}

	l, r := trimPadding(left), trimPadding(right)
	switch {
	case l == "" && r == "":
		match.Score = 1.0
		match.Method = "both_missing"
		return match
	case l == "" || r == "":
		match.Method = "missing"
		return match
	case l == r:
		match.Score = 1.0
		match.Method = "exact"
		return match
	}

	similarity := calculateSimilarity(l, r)
	match.Score = similarity
	if similarity > 0.8 {
		match.Method = "fuzzy_high"
	} else if similarity > 0.5 {
		match.Method = "fuzzy_medium"
	} else {
		match.Method = "no_match"
	}
	match.Notes = fmt.Sprintf("similarity %.2f", similarity)
	return match
}

// trimPadding drops the underscore fill so that padding does not count
// toward similarity.
func trimPadding(s string) string {
	return strings.TrimRight(s, "_")
}

// calculateSimilarity converts Levenshtein distance into a 0.0 to 1.0 ratio.
func calculateSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 || len(r2) == 0 {
		return 0.0
	}
	maxLen := max(len(r1), len(r2))
	return 1.0 - float64(levenshteinDistance(s1, s2))/float64(maxLen)
}

// levenshteinDistance counts rune edits, keeping only two rows of the table.
func levenshteinDistance(s1, s2 string) int {
	a, b := []rune(s1), []rune(s2)
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
