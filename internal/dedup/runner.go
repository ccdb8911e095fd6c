// Package dedup runs match key and standard number derivation over whole
// record batches and groups the records that describe the same work.
package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/lehigh-university-libraries/bibmatch/internal/callnumber"
	"github.com/lehigh-university-libraries/bibmatch/internal/marc"
	"github.com/lehigh-university-libraries/bibmatch/internal/matchkey"
	"github.com/lehigh-university-libraries/bibmatch/internal/stdnum"
)

// Result is everything derived from one record.
type Result struct {
	Source      string            `json:"source,omitempty" yaml:"source,omitempty"`
	Position    int               `json:"position" yaml:"position"`
	ID          string            `json:"id" yaml:"id"`
	Key         matchkey.Key      `json:"key" yaml:"key"`
	Identifiers stdnum.Set        `json:"identifiers" yaml:"identifiers"`
	CallNumber  callnumber.Parsed `json:"call_number" yaml:"callnumber"`
}

// Runner derives results for a batch of records on a bounded pool of
// goroutines.
type Runner struct {
	// Concurrency caps the number of records processed at once. Zero or
	// less means one worker per CPU.
	Concurrency int
	// OCLC controls OCLC number prefix handling.
	OCLC stdnum.OCLCOptions
	// Index, when set, receives every result as soon as it is derived.
	Index *Index
	// Source names the file the records came from. Record IDs are only
	// unique within a source, so results are indexed by Ref.
	Source string
}

// Ref identifies a record across sources: the record ID qualified by its
// source, or the bare ID when the source is unknown.
func Ref(source, id string) string {
	if source == "" {
		return id
	}
	return source + ":" + id
}

// Ref returns the source-qualified identity of the record behind r.
func (r Result) Ref() string {
	return Ref(r.Source, r.ID)
}

// NewRunner returns a Runner with the default OCLC options.
func NewRunner(concurrency int) *Runner {
	return &Runner{Concurrency: concurrency, OCLC: stdnum.DefaultOCLCOptions}
}

// Run derives a Result for every record, in input order. It stops handing
// out work once ctx is cancelled and returns the context error.
func (r *Runner) Run(ctx context.Context, records []*marc.Record) ([]Result, error) {
	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	slog.Info("Deriving match keys", "source", r.Source, "records", len(records), "concurrency", concurrency)

	results := make([]Result, len(records))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

dispatch:
	for i, rec := range records {
		select {
		case <-ctx.Done():
			break dispatch
		case semaphore <- struct{}{}: // Acquire
		}

		wg.Add(1)
		go func(idx int, rec *marc.Record) {
			defer wg.Done()
			defer func() { <-semaphore }() // Release

			result := Derive(idx, rec, r.OCLC)
			result.Source = r.Source
			results[idx] = result
			if r.Index != nil {
				r.Index.Add(result)
			}
			if (idx+1)%10000 == 0 {
				slog.Debug("Derivation progress", "progress", fmt.Sprintf("%d/%d", idx+1, len(records)))
			}
		}(i, rec)
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("derivation cancelled: %w", err)
	}
	return results, nil
}

// Derive computes the Result for a single record.
func Derive(position int, rec *marc.Record, opts stdnum.OCLCOptions) Result {
	return Result{
		Position:    position,
		ID:          RecordID(rec, position),
		Key:         matchkey.Build(rec),
		Identifiers: stdnum.FromRecord(rec, opts),
		CallNumber:  callnumber.FromRecord(rec),
	}
}

// RecordID returns the 001 of rec, or "record-N" for its 1-based position
// when the record has none.
func RecordID(rec *marc.Record, position int) string {
	if id := rec.ID(); id != "" {
		return id
	}
	return fmt.Sprintf("record-%d", position+1)
}
