package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/lehigh-university-libraries/bibmatch/internal/dedup"
	"github.com/lehigh-university-libraries/bibmatch/internal/stdnum"
	"github.com/spf13/cobra"
)

// oclcFlags registers the OCLC prefix flags shared by several commands.
func oclcFlags(cmd *cobra.Command, noInputPrefix, prefixOutput *bool) {
	cmd.Flags().BoolVar(noInputPrefix, "no-input-prefix", false, "Accept OCLC numbers without an (OCoLC), ocm, ocn or on prefix")
	cmd.Flags().BoolVar(prefixOutput, "prefix-output", false, "Write OCLC numbers as (OCoLC)ocm/ocn/on numbers")
}

func oclcOptions(noInputPrefix, prefixOutput bool) stdnum.OCLCOptions {
	return stdnum.OCLCOptions{RequireInputPrefix: !noInputPrefix, PrefixOutput: prefixOutput}
}

func newStdnumCmd() *cobra.Command {
	var noInputPrefix, prefixOutput bool

	cmd := &cobra.Command{
		Use:   "stdnum FILE...",
		Short: "Print the normalized standard numbers of every record",
		Long: `Print one JSON object per record with its normalized LCCNs, ISBNs
(as ISBN-13), ISSNs and OCLC numbers. Values that fail validation are left out.`,
		Example: `  bibmatch stdnum records.mrc
  bibmatch stdnum --prefix-output records.mrk`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadRecords(args, 0)
			if err != nil {
				return err
			}

			opts := oclcOptions(noInputPrefix, prefixOutput)
			enc := json.NewEncoder(cmd.OutOrStdout())
			for i, rec := range records {
				line := struct {
					ID string `json:"id"`
					stdnum.Set
				}{dedup.RecordID(rec, i), stdnum.FromRecord(rec, opts)}
				if err := enc.Encode(line); err != nil {
					return fmt.Errorf("failed to write identifiers: %w", err)
				}
			}
			return nil
		},
	}

	oclcFlags(cmd, &noInputPrefix, &prefixOutput)

	return cmd
}

func newNormalizeCmd() *cobra.Command {
	var noInputPrefix, prefixOutput bool

	cmd := &cobra.Command{
		Use:       "normalize isbn|issn|lccn|oclc VALUE...",
		Short:     "Normalize individual standard numbers",
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: []string{stdnum.SchemeISBN, stdnum.SchemeISSN, stdnum.SchemeLCCN, stdnum.SchemeOCLC},
		Long: `Print each value, a tab, and its normalized form, or "invalid" when it
does not validate.`,
		Example: `  bibmatch normalize isbn "0-306-40615-2 (pbk.)"
  bibmatch normalize oclc --no-input-prefix --prefix-output 9913504`,
		RunE: func(cmd *cobra.Command, args []string) error {
			scheme := args[0]
			switch scheme {
			case stdnum.SchemeISBN, stdnum.SchemeISSN, stdnum.SchemeLCCN, stdnum.SchemeOCLC:
			default:
				return fmt.Errorf("unknown scheme %q (use isbn, issn, lccn or oclc)", scheme)
			}

			opts := oclcOptions(noInputPrefix, prefixOutput)
			out := cmd.OutOrStdout()
			for _, raw := range args[1:] {
				normalized, ok := stdnum.Normalize(scheme, raw, opts)
				if !ok {
					normalized = "invalid"
				}
				fmt.Fprintf(out, "%s\t%s\n", raw, normalized)
			}
			return nil
		},
	}

	oclcFlags(cmd, &noInputPrefix, &prefixOutput)

	return cmd
}
