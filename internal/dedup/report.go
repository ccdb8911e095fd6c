package dedup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/bibmatch/internal/matchkey"
	"github.com/lehigh-university-libraries/bibmatch/internal/stdnum"
	"gopkg.in/yaml.v3"
)

// ReportConfig describes the run that produced a report.
type ReportConfig struct {
	Sources      []string           `yaml:"sources"`
	Records      int                `yaml:"records"`
	MinGroupSize int                `yaml:"mingroupsize"`
	OCLC         stdnum.OCLCOptions `yaml:"oclc"`
	Timestamp    string             `yaml:"timestamp"`
}

// Summary counts what a report found.
type Summary struct {
	KeyGroups        int `yaml:"keygroups"`
	IdentifierGroups int `yaml:"identifiergroups"`
	DuplicateRecords int `yaml:"duplicaterecords"`
	NearMisses       int `yaml:"nearmisses"`
	Unidentified     int `yaml:"unidentified"`
}

// NearMiss is a pair of records that share a standard number but not a
// match key, with the segment comparison that explains the difference. Left
// and Right are record refs.
type NearMiss struct {
	Identifier stdnum.Identifier   `yaml:"identifier"`
	Left       string              `yaml:"left"`
	Right      string              `yaml:"right"`
	LeftKey    matchkey.Key        `yaml:"leftkey"`
	RightKey   matchkey.Key        `yaml:"rightkey"`
	Comparison matchkey.Comparison `yaml:"comparison"`
}

// Report is the duplicate report written after a dedup run.
type Report struct {
	Config           ReportConfig      `yaml:"config"`
	Summary          Summary           `yaml:"summary"`
	KeyGroups        []Group           `yaml:"keygroups"`
	IdentifierGroups []IdentifierGroup `yaml:"identifiergroups"`
	NearMisses       []NearMiss        `yaml:"nearmisses,omitempty"`
	SegmentStats     []SegmentStats    `yaml:"segmentstats,omitempty"`
}

// BuildReport collects the key and identifier groups of index. Within each
// identifier group, every record whose key differs from the first record's
// is reported as a near miss against it.
func BuildReport(index *Index, config ReportConfig) Report {
	minSize := config.MinGroupSize
	if minSize < 2 {
		minSize = 2
	}
	config.MinGroupSize = minSize
	config.Records = index.Len()
	if config.Timestamp == "" {
		config.Timestamp = time.Now().Format("2006-01-02_15-04-05")
	}

	report := Report{
		Config:           config,
		KeyGroups:        index.Groups(minSize),
		IdentifierGroups: index.IdentifierGroups(minSize),
	}

	duplicates := make(map[string]bool)
	for _, g := range report.KeyGroups {
		for _, id := range g.Records {
			duplicates[id] = true
		}
	}

	for _, g := range report.IdentifierGroups {
		first := g.Records[0]
		firstKey, _ := index.KeyOf(first)
		for _, other := range g.Records[1:] {
			otherKey, _ := index.KeyOf(other)
			if otherKey == firstKey {
				continue
			}
			report.NearMisses = append(report.NearMisses, NearMiss{
				Identifier: g.Identifier,
				Left:       first,
				Right:      other,
				LeftKey:    firstKey,
				RightKey:   otherKey,
				Comparison: matchkey.Compare(firstKey, otherKey),
			})
		}
	}

	report.SegmentStats = aggregateSegments(report.NearMisses)

	report.Summary = Summary{
		KeyGroups:        len(report.KeyGroups),
		IdentifierGroups: len(report.IdentifierGroups),
		DuplicateRecords: len(duplicates),
		NearMisses:       len(report.NearMisses),
		Unidentified:     index.Unidentified(),
	}
	return report
}

// SaveReport writes report as YAML to path, creating parent directories.
func SaveReport(path string, report Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	data, err := yaml.Marshal(&report)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

// LoadReport reads a report written by SaveReport.
func LoadReport(path string) (Report, error) {
	var report Report
	data, err := os.ReadFile(path)
	if err != nil {
		return report, fmt.Errorf("failed to read report: %w", err)
	}
	if err := yaml.Unmarshal(data, &report); err != nil {
		return report, fmt.Errorf("failed to parse report: %w", err)
	}
	return report, nil
}
