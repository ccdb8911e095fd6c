package dedup

import "github.com/lehigh-university-libraries/bibmatch/internal/matchkey"

// SegmentStats summarizes how one key segment compared across near misses.
// A segment that keeps scoring low is the one splitting records that should
// group together.
type SegmentStats struct {
	Segment       string  `yaml:"segment"`
	ExactMatches  int     `yaml:"exactmatches"`
	FuzzyMatches  int     `yaml:"fuzzymatches"`
	NoMatches     int     `yaml:"nomatches"`
	MissingFields int     `yaml:"missingfields"`
	AverageScore  float64 `yaml:"averagescore"`
}

// aggregateSegments folds the comparisons of misses into per-segment stats,
// in key order.
func aggregateSegments(misses []NearMiss) []SegmentStats {
	if len(misses) == 0 {
		return nil
	}

	var stats []SegmentStats
	position := make(map[string]int)
	totals := make(map[string]float64)

	for _, miss := range misses {
		for _, match := range miss.Comparison.Segments {
			i, ok := position[match.Segment]
			if !ok {
				i = len(stats)
				position[match.Segment] = i
				stats = append(stats, SegmentStats{Segment: match.Segment})
			}
			aggregateSegmentStats(&stats[i], match)
			totals[match.Segment] += match.Score
		}
	}

	for i := range stats {
		stats[i].AverageScore = totals[stats[i].Segment] / float64(len(misses))
	}
	return stats
}

func aggregateSegmentStats(stats *SegmentStats, match matchkey.SegmentMatch) {
	switch match.Method {
	case "exact":
		stats.ExactMatches++
	case "fuzzy_high", "fuzzy_medium":
		stats.FuzzyMatches++
	case "no_match":
		stats.NoMatches++
	case "missing", "both_missing":
		stats.MissingFields++
	}
}
