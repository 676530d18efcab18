// Package watermark persists the import watermark: the newest feed
// timestamp known to be fully imported into the local store, plus when
// that import happened. The watermark lives in a small JSON file beside
// the mirror and is written only after a verified successful rebuild.
//
// A missing or unreadable watermark is not an error condition. Readers
// get nil and fall back to weaker freshness signals.
package watermark

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/malscan/malscan/internal/feed"
)

// Watermark records the newest imported feed timestamp and the wall
// time of the import that wrote it. Both are stored as feed-format
// strings so the file stays diffable and byte-comparable.
type Watermark struct {
	LastAPITimestamp string `json:"last_api_timestamp"`
	LastSyncTime     string `json:"last_sync_time"`
}

// LastKnown parses LastAPITimestamp. ok is false when the stored value
// is absent or unparseable.
func (w *Watermark) LastKnown() (time.Time, bool) {
	if w == nil || w.LastAPITimestamp == "" {
		return time.Time{}, false
	}
	ts, err := feed.ParseTime(w.LastAPITimestamp)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// Store reads and writes the watermark file at a fixed path.
type Store struct {
	path string
}

// NewStore returns a Store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the watermark file location.
func (s *Store) Path() string {
	return s.path
}

// Read loads the watermark. A missing or corrupt file yields (nil, nil):
// absence means "never synchronized" and must degrade, not abort.
func (s *Store) Read() (*Watermark, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil
	}

	var w Watermark
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, nil
	}
	return &w, nil
}

// Clear removes the watermark file. Called when a rebuild leaves no
// records for the watermark to back; a missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear watermark: %w", err)
	}
	return nil
}

// Write persists the watermark atomically: marshal to a temp file in the
// same directory, then rename over the target. A reader never observes a
// half-written watermark.
func (s *Store) Write(w Watermark) error {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal watermark: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".metadata-*.json")
	if err != nil {
		return fmt.Errorf("create watermark temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write watermark: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync watermark: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close watermark temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace watermark: %w", err)
	}
	return nil
}
