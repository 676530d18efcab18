package feed

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Column names recognized in the recovered header. The bulk export and
// the query API disagree on the timestamp column name, so both spellings
// are accepted.
const (
	colFirstSeen    = "first_seen"
	colFirstSeenUTC = "first_seen_utc"
	colSHA256       = "sha256_hash"
	colSignature    = "signature"
	colFamily       = "file_type_guess"
	colReporter     = "reporter"
)

// Fallbacks for optional columns, matching what the feed itself reports.
const (
	UnknownLabel  = "Unknown"
	DefaultSource = "MalwareBazaar"
)

// ParseMirror reads a mirror CSV stream and returns its records.
// skipped counts data rows dropped for malformed timestamps or digests.
//
// Returns an error only when the stream itself is unreadable or no
// usable header can be recovered; row-level problems never fail the
// whole parse.
func ParseMirror(r io.Reader) (records []Record, skipped int, err error) {
	cleaned, err := stripComments(r)
	if err != nil {
		return nil, 0, err
	}

	cr := csv.NewReader(strings.NewReader(cleaned))
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read feed header: %w", err)
	}

	cols := indexColumns(header)
	if _, ok := cols[colSHA256]; !ok {
		return nil, 0, fmt.Errorf("feed header missing %q column", colSHA256)
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Quoting damage on a single row; skip it.
			skipped++
			continue
		}

		rec, ok := parseRow(row, cols)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	return records, skipped, nil
}

// ParseMirrorFile is ParseMirror over a file path.
func ParseMirrorFile(path string) ([]Record, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open mirror: %w", err)
	}
	defer f.Close()

	return ParseMirror(f)
}

// ScanNewest returns the newest first-seen timestamp embedded in the
// mirror at path, with its raw string form. Used as the freshness
// fallback when no watermark exists.
func ScanNewest(path string) (time.Time, string, error) {
	records, _, err := ParseMirrorFile(path)
	if err != nil {
		return time.Time{}, "", err
	}
	ts, raw, ok := Newest(records)
	if !ok {
		return time.Time{}, "", fmt.Errorf("mirror %s contains no parseable records", path)
	}
	return ts, raw, nil
}

// stripComments drops pure comment lines and un-comments the header.
// The header is the one "#"-prefixed line that carries quoted,
// comma-separated column names.
func stripComments(r io.Reader) (string, error) {
	var b strings.Builder
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") {
			if strings.Contains(line, ",") && strings.Contains(line, `"`) {
				line = strings.TrimLeft(line, "# ")
			} else {
				continue
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("scan feed: %w", err)
	}
	return b.String(), nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	return cols
}

func parseRow(row []string, cols map[string]int) (Record, bool) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	rawTS := field(colFirstSeenUTC)
	if rawTS == "" {
		rawTS = field(colFirstSeen)
	}
	if rawTS == "" && len(row) > 0 {
		// Fixed column order puts the timestamp first.
		rawTS = row[0]
	}
	rawTS = strings.TrimSpace(rawTS)

	ts, err := ParseTime(rawTS)
	if err != nil {
		return Record{}, false
	}

	digest, err := NormalizeDigest(field(colSHA256))
	if err != nil {
		return Record{}, false
	}

	return Record{
		FirstSeen:    ts,
		FirstSeenRaw: rawTS,
		SHA256:       digest,
		Name:         NormalizeLabel(field(colSignature), UnknownLabel),
		Family:       NormalizeLabel(field(colFamily), UnknownLabel),
		Source:       NormalizeLabel(field(colReporter), DefaultSource),
	}, true
}
