package marc

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Loader handles loading MARC records from a file (binary, mnemonic or JSONL)
type Loader struct {
	path string
}

// NewLoader creates a new record loader
func NewLoader(path string) *Loader {
	return &Loader{
		path: path,
	}
}

// Load loads every record from the file
func (l *Loader) Load() ([]*Record, error) {
	return l.LoadWithFilter(nil)
}

// LoadSample loads at most limit records (useful for testing). A limit of
// zero or less loads everything.
func (l *Loader) LoadSample(limit int) ([]*Record, error) {
	records, err := l.Load()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// LoadWithFilter loads records matching filterFn. A nil filter keeps all.
func (l *Loader) LoadWithFilter(filterFn func(*Record) bool) ([]*Record, error) {
	slog.Debug("Opening MARC file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MARC file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	slog.Debug("MARC file stats", "size_bytes", info.Size(), "size_mb", info.Size()/1024/1024)

	records, err := l.decode(file)
	if err != nil {
		return nil, err
	}

	if filterFn != nil {
		kept := records[:0]
		for _, rec := range records {
			if filterFn(rec) {
				kept = append(kept, rec)
			}
		}
		records = kept
	}

	slog.Debug("Finished reading MARC file", "path", l.path, "total_records", len(records))
	return records, nil
}

func (l *Loader) decode(r io.Reader) ([]*Record, error) {
	ext := strings.ToLower(filepath.Ext(l.path))

	switch ext {
	case ".mrc", ".marc", ".dat":
		records, err := ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read binary MARC: %w", err)
		}
		return records, nil
	case ".mrk", ".txt":
		return ParseMnemonic(r)
	case ".jsonl", ".json":
		return l.decodeJSONL(r)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .mrc, .mrk, .jsonl)", ext)
	}
}

func (l *Loader) decodeJSONL(r io.Reader) ([]*Record, error) {
	var records []*Record
	scanner := bufio.NewScanner(r)

	// Increase buffer size for large JSON lines
	const maxCapacity = 10 * 1024 * 1024 // 10MB per line
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		rec, err := UnmarshalJSONRecord(line)
		if err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		records = append(records, rec)

		// Log progress every 1000 records
		if lineNum%1000 == 0 {
			slog.Debug("Reading JSONL", "lines_read", lineNum)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading records: %w", err)
	}

	return records, nil
}
