package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/lehigh-university-libraries/bibmatch/internal/dedup"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report FILE",
		Short: "Summarize a duplicate report written by dedup --report",
		Example: `  bibmatch report duplicates.yaml
  bibmatch report --format json duplicates.yaml | jq .Summary`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := dedup.LoadReport(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "text":
				printTextReport(out, report)
				return nil
			case "json":
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(report)
			default:
				return fmt.Errorf("unsupported format: %s", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json)")

	return cmd
}

func printTextReport(out io.Writer, report dedup.Report) {
	fmt.Fprintln(out, "Duplicate Report")
	fmt.Fprintf(out, "Sources:   %v\n", report.Config.Sources)
	fmt.Fprintf(out, "Records:   %d\n", report.Config.Records)
	fmt.Fprintf(out, "Generated: %s\n", report.Config.Timestamp)
	fmt.Fprintln(out)

	s := report.Summary
	fmt.Fprintf(out, "Key groups:        %d (%d records)\n", s.KeyGroups, s.DuplicateRecords)
	fmt.Fprintf(out, "Identifier groups: %d\n", s.IdentifierGroups)
	fmt.Fprintf(out, "Near misses:       %d\n", s.NearMisses)
	fmt.Fprintf(out, "Without numbers:   %d\n", s.Unidentified)

	if len(report.NearMisses) > 0 {
		fmt.Fprintln(out, "\nNear Misses:")
		for _, miss := range report.NearMisses {
			fmt.Fprintf(out, "  %s  %s / %s  %.2f%%\n",
				miss.Identifier, miss.Left, miss.Right, miss.Comparison.OverallScore*100)
		}
	}

	// segments that most often split records sharing a standard number
	if len(report.SegmentStats) > 0 {
		fmt.Fprintln(out, "\nSegment Scores:")
		for _, stats := range report.SegmentStats {
			fmt.Fprintf(out, "  %-16s %6.2f%%  exact=%d fuzzy=%d none=%d missing=%d\n",
				stats.Segment, stats.AverageScore*100,
				stats.ExactMatches, stats.FuzzyMatches, stats.NoMatches, stats.MissingFields)
		}
	}
}
