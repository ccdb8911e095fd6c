package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "bibmatch",
		Short: "Match key and standard number derivation for MARC records",
		Long: `Bibmatch derives fuzzy match keys and normalized standard numbers
(ISBN, ISSN, LCCN, OCLC) from MARC bibliographic records and uses them to
find records that describe the same work.

Records are read from ISO 2709 (.mrc, .marc), MARC mnemonic (.mrk, .txt) or
MARC-in-JSON lines (.jsonl) files.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			logLevel := slog.LevelInfo
			if verbose {
				logLevel = slog.LevelDebug
			}
			// stdout carries command output, so logs go to stderr
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
			slog.SetDefault(logger)
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newMatchKeyCmd())
	cmd.AddCommand(newStdnumCmd())
	cmd.AddCommand(newNormalizeCmd())
	cmd.AddCommand(newCallNumberCmd())
	cmd.AddCommand(newCompareCmd())
	cmd.AddCommand(newDedupCmd())
	cmd.AddCommand(newReportCmd())

	return cmd
}
