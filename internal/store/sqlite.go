// Package store persists match keys and standard numbers in SQLite so that
// duplicate detection can span several dedup runs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/lehigh-university-libraries/bibmatch/internal/dedup"
	"github.com/lehigh-university-libraries/bibmatch/internal/matchkey"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	source      TEXT NOT NULL DEFAULT '',
	record_id   TEXT NOT NULL,
	match_key   TEXT NOT NULL,
	format      TEXT NOT NULL,
	call_number TEXT NOT NULL DEFAULT '',
	updated_at  INTEGER NOT NULL,
	PRIMARY KEY (source, record_id)
);
CREATE INDEX IF NOT EXISTS records_match_key ON records (match_key);
CREATE TABLE IF NOT EXISTS identifiers (
	source    TEXT NOT NULL DEFAULT '',
	record_id TEXT NOT NULL,
	scheme    TEXT NOT NULL,
	value     TEXT NOT NULL,
	PRIMARY KEY (source, record_id, scheme, value),
	FOREIGN KEY (source, record_id) REFERENCES records (source, record_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS identifiers_value ON identifiers (scheme, value);
`

// Store is a SQLite backed match key index. Records are keyed by source and
// record ID, and queries return refs built with dedup.Ref.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores r, replacing anything previously stored for the same source and
// record ID.
func (s *Store) Put(ctx context.Context, r dedup.Result) error {
	return s.PutAll(ctx, []dedup.Result{r})
}

// PutAll stores results in a single transaction.
func (s *Store) PutAll(ctx context.Context, results []dedup.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, r := range results {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO records (source, record_id, match_key, format, call_number, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (source, record_id) DO UPDATE SET
				match_key = excluded.match_key,
				format = excluded.format,
				call_number = excluded.call_number,
				updated_at = excluded.updated_at`,
			r.Source, r.ID, string(r.Key), r.Key.Format(), r.CallNumber.String(), now,
		); err != nil {
			return fmt.Errorf("put record %s: %w", r.Ref(), err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM identifiers WHERE source = ? AND record_id = ?`, r.Source, r.ID,
		); err != nil {
			return fmt.Errorf("clear identifiers for %s: %w", r.Ref(), err)
		}
		for _, id := range r.Identifiers.Identifiers() {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO identifiers (source, record_id, scheme, value) VALUES (?, ?, ?, ?)`,
				r.Source, r.ID, id.Scheme, id.Value,
			); err != nil {
				return fmt.Errorf("put identifier %s for %s: %w", id, r.Ref(), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// KeyOf returns the stored match key for a record.
func (s *Store) KeyOf(ctx context.Context, source, recordID string) (matchkey.Key, error) {
	var key string
	err := s.db.QueryRowContext(ctx,
		`SELECT match_key FROM records WHERE source = ? AND record_id = ?`, source, recordID,
	).Scan(&key)
	if err != nil {
		return "", fmt.Errorf("get key for %s: %w", dedup.Ref(source, recordID), err)
	}
	return matchkey.Key(key), nil
}

// RecordsForKey returns the refs of records stored under key, sorted.
func (s *Store) RecordsForKey(ctx context.Context, key matchkey.Key) ([]string, error) {
	return s.refs(ctx, `SELECT source, record_id FROM records WHERE match_key = ?`, string(key))
}

// RecordsForIdentifier returns the refs of records carrying the normalized
// identifier value under scheme, sorted.
func (s *Store) RecordsForIdentifier(ctx context.Context, scheme, value string) ([]string, error) {
	return s.refs(ctx,
		`SELECT source, record_id FROM identifiers WHERE scheme = ? AND value = ?`,
		scheme, value)
}

// DuplicateKeys returns every match key shared by at least minSize records,
// largest groups first.
func (s *Store) DuplicateKeys(ctx context.Context, minSize int) ([]dedup.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT match_key FROM records
		GROUP BY match_key HAVING COUNT(*) >= ?
		ORDER BY COUNT(*) DESC, match_key`, minSize)
	if err != nil {
		return nil, fmt.Errorf("list duplicate keys: %w", err)
	}

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan duplicate key: %w", err)
		}
		keys = append(keys, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list duplicate keys: %w", err)
	}

	groups := make([]dedup.Group, 0, len(keys))
	for _, key := range keys {
		ids, err := s.RecordsForKey(ctx, matchkey.Key(key))
		if err != nil {
			return nil, err
		}
		groups = append(groups, dedup.Group{Key: matchkey.Key(key), Records: ids})
	}
	return groups, nil
}

// refs runs a query selecting (source, record_id) and returns the refs sorted
// the same way dedup.Index sorts them.
func (s *Store) refs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var source, id string
		if err := rows.Scan(&source, &id); err != nil {
			return nil, fmt.Errorf("scan record id: %w", err)
		}
		refs = append(refs, dedup.Ref(source, id))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Sort(refs)
	return refs, nil
}
