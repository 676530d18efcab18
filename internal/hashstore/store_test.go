package hashstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/malscan/malscan/internal/feed"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(digestByte byte, name, family string) feed.Record {
	return feed.Record{
		FirstSeen:    time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
		FirstSeenRaw: "2024-01-10 12:00:00",
		SHA256:       strings.Repeat(string(digestByte), 64),
		Name:         name,
		Family:       family,
		Source:       "tester",
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_DoesNotCreateSchema(t *testing.T) {
	s := createTestStore(t)

	ok, err := s.Initialized()
	if err != nil {
		t.Fatalf("Initialized() failed: %v", err)
	}
	if ok {
		t.Error("schema should not exist before Init()")
	}
}

func TestInit_Idempotent(t *testing.T) {
	s := createTestStore(t)

	for i := 0; i < 3; i++ {
		if err := s.Init(); err != nil {
			t.Fatalf("Init() iteration %d failed: %v", i, err)
		}
	}

	ok, err := s.Initialized()
	if err != nil {
		t.Fatalf("Initialized() failed: %v", err)
	}
	if !ok {
		t.Error("schema missing after Init()")
	}
}

func TestLookup_Uninitialized(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Lookup(context.Background(), strings.Repeat("a", 64))
	if err != ErrNotInitialized {
		t.Errorf("Lookup() err = %v, want ErrNotInitialized", err)
	}
}

func TestLookup_Miss(t *testing.T) {
	s := createTestStore(t)
	if err := s.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	e, err := s.Lookup(context.Background(), strings.Repeat("a", 64))
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if e != nil {
		t.Errorf("Lookup() = %+v, want nil for unknown digest", e)
	}
}

func TestRebuildFrom_ThenLookup(t *testing.T) {
	s := createTestStore(t)

	records := []feed.Record{
		testRecord('a', "AgentTesla", "exe"),
		testRecord('b', "RedLineStealer", "dll"),
	}
	n, err := s.RebuildFrom(context.Background(), records)
	if err != nil {
		t.Fatalf("RebuildFrom() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("RebuildFrom() = %d rows, want 2", n)
	}

	e, err := s.Lookup(context.Background(), strings.Repeat("a", 64))
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if e == nil {
		t.Fatal("Lookup() = nil for stored digest")
	}
	if e.Name != "AgentTesla" || e.Family != "exe" || e.Source != "tester" {
		t.Errorf("Lookup() = %+v", e)
	}
}

func TestRebuildFrom_IgnoresDuplicateDigests(t *testing.T) {
	s := createTestStore(t)

	records := []feed.Record{
		testRecord('a', "First", "exe"),
		testRecord('a', "Second", "dll"), // same digest, ignored
	}
	n, err := s.RebuildFrom(context.Background(), records)
	if err != nil {
		t.Fatalf("RebuildFrom() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("RebuildFrom() = %d rows, want 1", n)
	}

	e, err := s.Lookup(context.Background(), strings.Repeat("a", 64))
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if e.Name != "First" {
		t.Errorf("duplicate insert changed verdict: Name = %q", e.Name)
	}
}

func TestRebuildFrom_Idempotent(t *testing.T) {
	s := createTestStore(t)
	records := []feed.Record{testRecord('a', "AgentTesla", "exe")}

	for i := 0; i < 2; i++ {
		if _, err := s.RebuildFrom(context.Background(), records); err != nil {
			t.Fatalf("RebuildFrom() iteration %d failed: %v", i, err)
		}
	}

	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d after re-import, want 1", n)
	}
}

func TestRebuildFrom_ReplacesWholesale(t *testing.T) {
	s := createTestStore(t)

	if _, err := s.RebuildFrom(context.Background(), []feed.Record{testRecord('a', "Old", "exe")}); err != nil {
		t.Fatalf("first RebuildFrom() failed: %v", err)
	}
	if _, err := s.RebuildFrom(context.Background(), []feed.Record{testRecord('b', "New", "dll")}); err != nil {
		t.Fatalf("second RebuildFrom() failed: %v", err)
	}

	gone, err := s.Lookup(context.Background(), strings.Repeat("a", 64))
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if gone != nil {
		t.Errorf("old digest survived rebuild: %+v", gone)
	}

	kept, err := s.Lookup(context.Background(), strings.Repeat("b", 64))
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if kept == nil || kept.Name != "New" {
		t.Errorf("new digest missing after rebuild: %+v", kept)
	}
}

func TestLookup_NormalizesDigest(t *testing.T) {
	s := createTestStore(t)
	if _, err := s.RebuildFrom(context.Background(), []feed.Record{testRecord('a', "AgentTesla", "exe")}); err != nil {
		t.Fatalf("RebuildFrom() failed: %v", err)
	}

	e, err := s.Lookup(context.Background(), "  "+strings.Repeat("A", 64)+" ")
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if e == nil {
		t.Error("Lookup() missed digest with uppercase/whitespace input")
	}
}

func TestSyncJournal(t *testing.T) {
	s := createTestStore(t)
	if err := s.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	runs := []SyncRun{
		{RunID: "run-1", StartedAt: "2024-01-09 00:00:00", FinishedAt: "2024-01-09 00:00:05", Result: "replaced", RecordCount: 10},
		{RunID: "run-2", StartedAt: "2024-01-10 00:00:00", FinishedAt: "2024-01-10 00:00:05", Result: "no_change", RecordCount: 10},
	}
	for _, run := range runs {
		if err := s.RecordSyncRun(context.Background(), run); err != nil {
			t.Fatalf("RecordSyncRun(%s) failed: %v", run.RunID, err)
		}
	}

	last, err := s.LastSyncRun(context.Background())
	if err != nil {
		t.Fatalf("LastSyncRun() failed: %v", err)
	}
	if last == nil || last.RunID != "run-2" {
		t.Errorf("LastSyncRun() = %+v, want run-2", last)
	}
}

func TestLastSyncRun_EmptyJournal(t *testing.T) {
	s := createTestStore(t)

	last, err := s.LastSyncRun(context.Background())
	if err != nil {
		t.Fatalf("LastSyncRun() failed: %v", err)
	}
	if last != nil {
		t.Errorf("LastSyncRun() = %+v, want nil on uninitialized store", last)
	}
}
