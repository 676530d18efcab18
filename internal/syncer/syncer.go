// Package syncer replaces the local mirror with fresh remote content
// and rebuilds the hash store from it.
//
// The mirror swap is write-to-staging-then-rename: the candidate feed is
// downloaded next to the live mirror and promoted with an atomic rename,
// so a reader never observes a half-written file and a failed download
// never disturbs the previous mirror, store, or watermark. A content
// digest comparison short-circuits the rebuild when the downloaded feed
// is identical to the current mirror, unless a forced rebuild is
// requested to recover a damaged local store.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/malscan/malscan/internal/feed"
	"github.com/malscan/malscan/internal/hashing"
	"github.com/malscan/malscan/internal/hashstore"
	"github.com/malscan/malscan/internal/watermark"
)

// Result is the outcome of one synchronization attempt.
type Result string

const (
	// ResultNoChange means the downloaded feed matched the current
	// mirror byte-for-byte; nothing was touched.
	ResultNoChange Result = "no_change"

	// ResultReplaced means the store and watermark were rebuilt. The
	// mirror itself was swapped unless the rebuild was forced over
	// identical content.
	ResultReplaced Result = "replaced"

	// ResultFailed means the attempt aborted; all prior state is
	// intact and queryable.
	ResultFailed Result = "failed"
)

// StagingSuffix is appended to the mirror path to form the staging
// path. Same directory as the mirror, so the promotion rename is atomic.
const StagingSuffix = ".tmp"

// Downloader fetches the full remote feed into a local file.
// Implemented by bazaar.Client.
type Downloader interface {
	Download(ctx context.Context, dest string) error
}

// Synchronizer coordinates download, diff, swap, and rebuild.
type Synchronizer struct {
	Client     Downloader
	Store      *hashstore.Store
	Watermarks *watermark.Store
	MirrorPath string

	// Now is the wall clock, overridable in tests. Nil means time.Now.
	Now func() time.Time
}

// Sync runs one synchronization attempt.
//
// With force false, identical downloaded content is a no-op. With force
// true the store and watermark are rebuilt unconditionally, which
// recovers a corrupted local store without waiting for upstream content
// to change. A download failure always leaves every prior artifact
// untouched, forced or not.
func (s *Synchronizer) Sync(ctx context.Context, force bool) (Result, error) {
	runID := uuid.Must(uuid.NewV7()).String()
	started := s.now()
	log := slog.Default().With("run_id", runID)

	staging := s.MirrorPath + StagingSuffix

	log.Debug("downloading feed", "staging", staging)
	if err := s.Client.Download(ctx, staging); err != nil {
		return ResultFailed, newSyncError(KindTransientRemote, "download feed", err)
	}

	// First-run bootstrap: no live mirror yet.
	if _, err := os.Stat(s.MirrorPath); os.IsNotExist(err) {
		if err := os.Rename(staging, s.MirrorPath); err != nil {
			os.Remove(staging)
			return ResultFailed, newSyncError(KindStorage, "install initial mirror", err)
		}
		log.Info("initial mirror created", "path", s.MirrorPath)
		return s.rebuild(ctx, log, runID, started)
	}

	liveDigest, err := hashing.SHA256File(s.MirrorPath)
	if err != nil {
		os.Remove(staging)
		return ResultFailed, newSyncError(KindStorage, "digest live mirror", err)
	}
	stagingDigest, err := hashing.SHA256File(staging)
	if err != nil {
		os.Remove(staging)
		return ResultFailed, newSyncError(KindStorage, "digest staging file", err)
	}

	if liveDigest == stagingDigest {
		os.Remove(staging)
		if !force {
			log.Info("feed unchanged", "digest", liveDigest)
			return ResultNoChange, nil
		}
		// Content is identical, so the live mirror is reused as the
		// rebuild source.
		log.Info("feed unchanged, forced rebuild requested", "digest", liveDigest)
		return s.rebuild(ctx, log, runID, started)
	}

	if err := os.Rename(staging, s.MirrorPath); err != nil {
		os.Remove(staging)
		return ResultFailed, newSyncError(KindStorage, "replace mirror", err)
	}
	log.Info("mirror replaced", "old_digest", liveDigest, "new_digest", stagingDigest)

	return s.rebuild(ctx, log, runID, started)
}

// rebuild re-derives the hash store from the current mirror and writes
// a fresh watermark from the newest timestamp found there. The two
// halves cannot share one transaction, so the store rebuild commits
// first and the watermark follows: a failure between the halves leaves
// the watermark behind the mirror, which under-claims freshness and
// costs at most one redundant resync. The reverse order could leave a
// watermark claiming freshness the store does not back. A mirror with
// no parseable records clears the watermark for the same reason.
func (s *Synchronizer) rebuild(ctx context.Context, log *slog.Logger, runID string, started time.Time) (Result, error) {
	records, skipped, err := feed.ParseMirrorFile(s.MirrorPath)
	if err != nil {
		return ResultFailed, newSyncError(KindMalformedInput, "parse mirror", err)
	}
	if skipped > 0 {
		log.Warn("skipped malformed feed rows", "skipped", skipped)
	}

	count, err := s.Store.RebuildFrom(ctx, records)
	if err != nil {
		return ResultFailed, newSyncError(KindStorage, "rebuild hash store", err)
	}
	log.Info("hash store rebuilt", "records", count)

	if newest, raw, ok := feed.Newest(records); ok {
		wm := watermark.Watermark{
			LastAPITimestamp: raw,
			LastSyncTime:     s.now().UTC().Format(feed.TimeLayout),
		}
		if err := s.Watermarks.Write(wm); err != nil {
			// Store already committed; the stale watermark only
			// under-claims freshness, which is safe but still an
			// incomplete sync.
			return ResultFailed, newSyncError(KindStorage, "write watermark", err)
		}
		log.Debug("watermark updated", "last_api_timestamp", raw, "newest", newest)
	} else {
		// An empty mirror backs no freshness claim. A watermark left
		// over from earlier content would answer up-to-date and
		// suppress the resync that repairs the store.
		if err := s.Watermarks.Clear(); err != nil {
			return ResultFailed, newSyncError(KindStorage, "clear watermark", err)
		}
		log.Warn("mirror contains no parseable records, watermark cleared")
	}

	s.journal(ctx, log, hashstore.SyncRun{
		RunID:       runID,
		StartedAt:   started.UTC().Format(feed.TimeLayout),
		FinishedAt:  s.now().UTC().Format(feed.TimeLayout),
		Result:      string(ResultReplaced),
		RecordCount: count,
	})

	return ResultReplaced, nil
}

func (s *Synchronizer) journal(ctx context.Context, log *slog.Logger, run hashstore.SyncRun) {
	if err := s.Store.RecordSyncRun(ctx, run); err != nil {
		log.Warn("failed to journal sync run", "error", err)
	}
}

func (s *Synchronizer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Describe renders a Result for human output.
func (r Result) Describe() string {
	switch r {
	case ResultNoChange:
		return "mirror unchanged, no import required"
	case ResultReplaced:
		return "mirror imported, hash store rebuilt"
	case ResultFailed:
		return "synchronization failed, previous state retained"
	default:
		return fmt.Sprintf("unknown result %q", string(r))
	}
}
