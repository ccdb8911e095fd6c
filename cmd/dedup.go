package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/bibmatch/internal/dedup"
	"github.com/lehigh-university-libraries/bibmatch/internal/store"
	"github.com/spf13/cobra"
)

type dedupOptions struct {
	concurrency   int
	reportPath    string
	parquetPath   string
	dbPath        string
	minGroup      int
	limit         int
	noInputPrefix bool
	prefixOutput  bool
}

func newDedupCmd() *cobra.Command {
	var opts dedupOptions

	cmd := &cobra.Command{
		Use:   "dedup FILE...",
		Short: "Find records that describe the same work",
		Long: `Derive match keys and standard numbers for every record, then group the
records sharing a key. Records that share a standard number but not a key are
reported as near misses with a segment comparison.

Records are identified by FILE:ID, where ID is the 001 or record-N for the
Nth record of a file without one, so equal 001 values from different files
stay distinct.

With --db the results are also added to a SQLite index and the duplicate
groups are read back from it, so repeated runs over different files
accumulate.`,
		Example: `  bibmatch dedup dump1.mrc dump2.mrc --report duplicates.yaml
  bibmatch dedup records.mrk --parquet keys.parquet --concurrency 8
  BIBMATCH_DB=index.db bibmatch dedup monthly.mrc`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// flags win over the environment, which is only final after .env is loaded
			if !cmd.Flags().Changed("concurrency") {
				opts.concurrency = envInt(envConcurrency, opts.concurrency)
			}
			if !cmd.Flags().Changed("db") {
				opts.dbPath = envString(envDatabase, opts.dbPath)
			}
			if !cmd.Flags().Changed("min-group") {
				opts.minGroup = envInt(envMinGroup, opts.minGroup)
			}
			return runDedup(cmd, args, opts)
		},
	}

	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 4, "Number of records to process concurrently (env "+envConcurrency+")")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "Write a YAML duplicate report to this path")
	cmd.Flags().StringVar(&opts.parquetPath, "parquet", "", "Export keys and identifiers to this Parquet file")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite index to accumulate results in (env "+envDatabase+")")
	cmd.Flags().IntVar(&opts.minGroup, "min-group", 2, "Minimum number of records that make a duplicate group (env "+envMinGroup+")")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Read at most this many records from each file (0 = all)")
	oclcFlags(cmd, &opts.noInputPrefix, &opts.prefixOutput)

	return cmd
}

func runDedup(cmd *cobra.Command, paths []string, opts dedupOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	index := dedup.NewIndex()
	runner := &dedup.Runner{
		Concurrency: opts.concurrency,
		OCLC:        oclcOptions(opts.noInputPrefix, opts.prefixOutput),
		Index:       index,
	}

	var results []dedup.Result
	for _, path := range paths {
		records, err := loadFile(path, opts.limit)
		if err != nil {
			return err
		}
		runner.Source = path
		batch, err := runner.Run(ctx, records)
		if err != nil {
			return err
		}
		results = append(results, batch...)
	}

	report := dedup.BuildReport(index, dedup.ReportConfig{
		Sources:      paths,
		MinGroupSize: opts.minGroup,
		OCLC:         runner.OCLC,
	})

	if opts.dbPath != "" {
		groups, err := accumulate(ctx, opts.dbPath, results, report.Config.MinGroupSize)
		if err != nil {
			return err
		}
		report.KeyGroups = groups
		report.Summary.KeyGroups = len(groups)
	}

	if opts.parquetPath != "" {
		slog.Info("Writing Parquet export", "path", opts.parquetPath)
		if err := dedup.WriteParquet(opts.parquetPath, results); err != nil {
			return err
		}
	}

	if opts.reportPath != "" {
		slog.Info("Saving report", "path", opts.reportPath)
		if err := dedup.SaveReport(opts.reportPath, report); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	for _, g := range report.KeyGroups {
		fmt.Fprintf(out, "%s\t%d", g.Key, len(g.Records))
		for _, id := range g.Records {
			fmt.Fprintf(out, "\t%s", id)
		}
		fmt.Fprintln(out)
	}

	slog.Info("Deduplication complete",
		"records", len(results),
		"key_groups", report.Summary.KeyGroups,
		"identifier_groups", report.Summary.IdentifierGroups,
		"near_misses", report.Summary.NearMisses)
	return nil
}

// accumulate adds results to the SQLite index at path and returns the
// duplicate groups across everything stored there.
func accumulate(ctx context.Context, path string, results []dedup.Result, minGroup int) ([]dedup.Group, error) {
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := db.PutAll(ctx, results); err != nil {
		return nil, fmt.Errorf("failed to store results: %w", err)
	}
	total, err := db.Count(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("Updated index", "path", path, "added", len(results), "total", total)

	return db.DuplicateKeys(ctx, minGroup)
}
