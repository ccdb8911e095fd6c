package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/lehigh-university-libraries/bibmatch/internal/dedup"
	"github.com/lehigh-university-libraries/bibmatch/internal/matchkey"
	"github.com/spf13/cobra"
)

func newMatchKeyCmd() *cobra.Command {
	var segments bool
	var limit int

	cmd := &cobra.Command{
		Use:   "matchkey FILE...",
		Short: "Print the match key of every record",
		Long: `Print one line per record: the record ID (001, or its position when
there is none), a tab, and the match key.

With --segments each line is instead a JSON object carrying the key split
into its segments.`,
		Example: `  bibmatch matchkey records.mrc
  bibmatch matchkey --segments records.mrk | jq .segments.title`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadRecords(args, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			for i, rec := range records {
				id := dedup.RecordID(rec, i)
				if !segments {
					fmt.Fprintf(out, "%s\t%s\n", id, matchkey.Build(rec))
					continue
				}
				s := matchkey.Derive(rec)
				line := struct {
					ID       string            `json:"id"`
					Key      matchkey.Key      `json:"key"`
					Segments matchkey.Segments `json:"segments"`
				}{id, s.Key(), s}
				if err := enc.Encode(line); err != nil {
					return fmt.Errorf("failed to write segments: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&segments, "segments", false, "Print JSON lines with the key split into segments")
	cmd.Flags().IntVar(&limit, "limit", 0, "Read at most this many records from each file (0 = all)")

	return cmd
}
