package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/lehigh-university-libraries/bibmatch/internal/marc"
)

// Environment variables read after .env is loaded.
const (
	envConcurrency = "BIBMATCH_CONCURRENCY"
	envDatabase    = "BIBMATCH_DB"
	envMinGroup    = "BIBMATCH_MIN_GROUP"
)

// envInt returns the integer value of name, or fallback when it is unset or
// not a number.
func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Ignoring non-numeric environment value", "name", name, "value", v)
		return fallback
	}
	return n
}

func envString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// loadRecords reads the records of every path, in order. A positive limit
// caps the records read from each file.
func loadRecords(paths []string, limit int) ([]*marc.Record, error) {
	var records []*marc.Record
	for _, path := range paths {
		loaded, err := loadFile(path, limit)
		if err != nil {
			return nil, err
		}
		records = append(records, loaded...)
	}
	return records, nil
}

func loadFile(path string, limit int) ([]*marc.Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("record file not found: %s", path)
	}
	loaded, err := marc.NewLoader(path).LoadSample(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	slog.Info("Loaded records", "path", path, "records", len(loaded), "limit", limit)
	return loaded, nil
}
