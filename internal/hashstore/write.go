package hashstore

import (
	"context"
	"fmt"

	"github.com/malscan/malscan/internal/feed"
)

// SyncRun is one entry of the synchronization journal.
type SyncRun struct {
	RunID       string
	StartedAt   string
	FinishedAt  string
	Result      string
	RecordCount int64
}

// RebuildFrom replaces the entire hash table with the given records in
// one transaction. Duplicate digests are ignored via ON CONFLICT DO
// NOTHING, so re-importing the same feed is idempotent. On any failure
// the transaction rolls back and prior content is untouched.
//
// The schema is created first if missing, so a rebuild doubles as
// initialization on first run.
//
// Returns the number of rows present after the rebuild.
func (s *Store) RebuildFrom(ctx context.Context, records []feed.Record) (int64, error) {
	if err := s.Init(); err != nil {
		return 0, fmt.Errorf("rebuild: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("rebuild: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, "DELETE FROM malware_hashes"); err != nil {
		return 0, fmt.Errorf("rebuild: clear table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO malware_hashes (sha256, malware_name, malware_family, source)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(sha256) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("rebuild: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.SHA256, r.Name, r.Family, r.Source); err != nil {
			return 0, fmt.Errorf("rebuild: insert %s: %w", r.SHA256, err)
		}
	}

	var count int64
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM malware_hashes").Scan(&count); err != nil {
		return 0, fmt.Errorf("rebuild: count rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("rebuild: commit: %w", err)
	}

	return count, nil
}

// RecordSyncRun appends a journal entry. Duplicate run ids are ignored.
func (s *Store) RecordSyncRun(ctx context.Context, run SyncRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_runs (run_id, started_at, finished_at, result, record_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`, run.RunID, run.StartedAt, run.FinishedAt, run.Result, run.RecordCount)
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	return nil
}
