package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleMirror = `###########################################
# abuse.ch hash feed (CSV)                #
###########################################
# "first_seen_utc","sha256_hash","md5_hash","sha1_hash","reporter","file_name","file_type_guess","mime_type","signature"
"2024-01-10 11:00:00","aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa","x","y","alice","a.exe","exe","application/x-dosexec","AgentTesla"
"2024-01-10 12:00:00","BBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB","x","y","bob","b.dll","dll","application/x-dosexec","RedLineStealer"
"2024-01-10 09:30:00","cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc","x","y","carol","c.doc","doc","application/msword","n/a"
`

func TestParseMirror_HeaderRecovery(t *testing.T) {
	records, skipped, err := ParseMirror(strings.NewReader(sampleMirror))
	if err != nil {
		t.Fatalf("ParseMirror() failed: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	first := records[0]
	if first.SHA256 != strings.Repeat("a", 64) {
		t.Errorf("SHA256 = %q", first.SHA256)
	}
	if first.Name != "AgentTesla" {
		t.Errorf("Name = %q, want AgentTesla", first.Name)
	}
	if first.Family != "exe" {
		t.Errorf("Family = %q, want exe", first.Family)
	}
	if first.Source != "alice" {
		t.Errorf("Source = %q, want alice", first.Source)
	}
	if first.FirstSeenRaw != "2024-01-10 11:00:00" {
		t.Errorf("FirstSeenRaw = %q", first.FirstSeenRaw)
	}
}

func TestParseMirror_DigestLowercased(t *testing.T) {
	records, _, err := ParseMirror(strings.NewReader(sampleMirror))
	if err != nil {
		t.Fatalf("ParseMirror() failed: %v", err)
	}
	if records[1].SHA256 != strings.Repeat("b", 64) {
		t.Errorf("digest not lowercased: %q", records[1].SHA256)
	}
}

func TestParseMirror_LabelFallbacks(t *testing.T) {
	records, _, err := ParseMirror(strings.NewReader(sampleMirror))
	if err != nil {
		t.Fatalf("ParseMirror() failed: %v", err)
	}
	// signature "n/a" degrades to Unknown
	if records[2].Name != UnknownLabel {
		t.Errorf("Name = %q, want %q", records[2].Name, UnknownLabel)
	}
}

func TestParseMirror_SkipsMalformedRows(t *testing.T) {
	mirror := `# "first_seen_utc","sha256_hash","reporter","file_type_guess","signature"
"not a timestamp","aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa","r","exe","Foo"
"2024-01-10 12:00:00","tooshort","r","exe","Bar"
"2024-01-10 12:00:00","dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd","r","exe","Baz"
`
	records, skipped, err := ParseMirror(strings.NewReader(mirror))
	if err != nil {
		t.Fatalf("ParseMirror() failed: %v", err)
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
	if len(records) != 1 || records[0].Name != "Baz" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestParseMirror_Empty(t *testing.T) {
	records, skipped, err := ParseMirror(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParseMirror() failed: %v", err)
	}
	if len(records) != 0 || skipped != 0 {
		t.Errorf("records = %v, skipped = %d; want none", records, skipped)
	}
}

func TestParseMirror_MissingDigestColumn(t *testing.T) {
	_, _, err := ParseMirror(strings.NewReader("first_seen,foo\n2024-01-01 00:00:00,x\n"))
	if err == nil {
		t.Error("expected error for header without sha256_hash, got nil")
	}
}

func TestScanNewest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashes.csv")
	if err := os.WriteFile(path, []byte(sampleMirror), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	ts, raw, err := ScanNewest(path)
	if err != nil {
		t.Fatalf("ScanNewest() failed: %v", err)
	}
	want := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("ScanNewest() ts = %v, want %v", ts, want)
	}
	if raw != "2024-01-10 12:00:00" {
		t.Errorf("ScanNewest() raw = %q", raw)
	}
}

func TestScanNewest_MissingFile(t *testing.T) {
	_, _, err := ScanNewest(filepath.Join(t.TempDir(), "absent.csv"))
	if err == nil {
		t.Error("expected error for missing mirror, got nil")
	}
}
