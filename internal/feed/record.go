package feed

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// TimeLayout is the timestamp format used throughout the feed:
// UTC wall time at second precision.
const TimeLayout = "2006-01-02 15:04:05"

// Record is one entry of the hash feed. SHA256 is the natural key;
// duplicate digests within one feed are ignored, not merged.
type Record struct {
	// FirstSeen is when the sample was first observed upstream (UTC).
	FirstSeen time.Time

	// FirstSeenRaw preserves the timestamp exactly as it appeared in
	// the feed, for byte-wise comparisons against remote responses.
	FirstSeenRaw string

	// SHA256 is the lowercase hex digest of the sample.
	SHA256 string

	// Name is the malware signature name ("Unknown" when absent).
	Name string

	// Family is the malware family or file-type classification.
	Family string

	// Source attributes the record to its reporter.
	Source string
}

var digestPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// ParseTime parses a feed timestamp. The value is interpreted as UTC.
func ParseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse feed timestamp %q: %w", s, err)
	}
	return t, nil
}

// NormalizeDigest lowercases and trims a SHA-256 hex string.
// Returns an error if the result is not 64 hex characters.
func NormalizeDigest(s string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(s))
	if !digestPattern.MatchString(d) {
		return "", fmt.Errorf("invalid sha256 digest %q", s)
	}
	return d, nil
}

// NormalizeLabel canonicalizes a name/family/source field: trims
// whitespace and applies Unicode NFC so that visually identical
// signature names compare equal regardless of upstream encoding.
// Empty values fall back to fallback.
func NormalizeLabel(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "n/a" {
		return fallback
	}
	return norm.NFC.String(s)
}

// Newest returns the record with the maximum FirstSeen timestamp.
// ok is false for an empty slice.
func Newest(records []Record) (ts time.Time, raw string, ok bool) {
	for _, r := range records {
		if !ok || r.FirstSeen.After(ts) {
			ts, raw, ok = r.FirstSeen, r.FirstSeenRaw, true
		}
	}
	return ts, raw, ok
}
