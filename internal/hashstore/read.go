package hashstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Entry is the verdict metadata stored for a known digest.
type Entry struct {
	SHA256 string
	Name   string
	Family string
	Source string
}

// Lookup returns the entry for digest, or (nil, nil) when the digest is
// unknown. The digest is trimmed and lowercased before the query.
// Returns ErrNotInitialized when the table was never created.
func (s *Store) Lookup(ctx context.Context, digest string) (*Entry, error) {
	digest = strings.ToLower(strings.TrimSpace(digest))

	var e Entry
	err := s.db.QueryRowContext(ctx, `
		SELECT sha256, malware_name, malware_family, source
		FROM malware_hashes
		WHERE sha256 = ?
	`, digest).Scan(&e.SHA256, &e.Name, &e.Family, &e.Source)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if missingTable(err) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("lookup digest: %w", err)
	}

	return &e, nil
}

// Count returns the number of stored digests.
// Returns ErrNotInitialized when the table was never created.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM malware_hashes").Scan(&n)
	if missingTable(err) {
		return 0, ErrNotInitialized
	}
	if err != nil {
		return 0, fmt.Errorf("count digests: %w", err)
	}
	return n, nil
}

// LastSyncRun returns the most recent journal entry, or (nil, nil) when
// the journal is empty or was never created.
func (s *Store) LastSyncRun(ctx context.Context) (*SyncRun, error) {
	var run SyncRun
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, started_at, finished_at, result, record_count
		FROM sync_runs
		ORDER BY started_at DESC, run_id DESC
		LIMIT 1
	`).Scan(&run.RunID, &run.StartedAt, &run.FinishedAt, &run.Result, &run.RecordCount)
	if err == sql.ErrNoRows || missingTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sync journal: %w", err)
	}
	return &run, nil
}
