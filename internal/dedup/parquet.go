package dedup

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/parquet-go/parquet-go"
)

// Row is the columnar form of a Result.
type Row struct {
	Source     string   `parquet:"source"`
	ID         string   `parquet:"id"`
	Key        string   `parquet:"match_key"`
	Format     string   `parquet:"format"`
	LCCN       []string `parquet:"lccn,list"`
	ISBN       []string `parquet:"isbn,list"`
	ISSN       []string `parquet:"issn,list"`
	OCLC       []string `parquet:"oclc,list"`
	CallNumber string   `parquet:"call_number"`
	LCClass    string   `parquet:"lc_class"`
}

// NewRow flattens r.
func NewRow(r Result) Row {
	return Row{
		Source:     r.Source,
		ID:         r.ID,
		Key:        string(r.Key),
		Format:     r.Key.Format(),
		LCCN:       r.Identifiers.LCCN,
		ISBN:       r.Identifiers.ISBN,
		ISSN:       r.Identifiers.ISSN,
		OCLC:       r.Identifiers.OCLC,
		CallNumber: r.CallNumber.String(),
		LCClass:    r.CallNumber.SubClass,
	}
}

// WriteParquet exports results to a Parquet file at path.
func WriteParquet(path string, results []Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	rows := make([]Row, 0, len(results))
	for _, r := range results {
		rows = append(rows, NewRow(r))
	}

	writer := parquet.NewGenericWriter[Row](file)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}

	slog.Debug("Wrote Parquet file", "path", path, "rows", len(rows))
	return file.Close()
}

// ReadParquet loads rows written by WriteParquet.
func ReadParquet(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	var out []Row
	for {
		// fresh batch each pass; the reader may reuse list storage
		rows := make([]Row, 128)
		n, err := reader.Read(rows)
		out = append(out, rows[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}

	slog.Debug("Read Parquet file", "path", path, "rows", len(out))
	return out, nil
}
