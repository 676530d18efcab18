// Package hashing computes content digests for files and byte streams.
//
// SHA-256 is used everywhere a digest appears: file identity for lookups
// and change detection between mirror generations. Digests are rendered
// as 64-character lowercase hex, matching the feed's native format.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// SHA256File streams the file at path through SHA-256 and returns the
// lowercase hex digest. The file is never loaded into memory whole.
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	defer f.Close()

	return SHA256Reader(f)
}

// SHA256Reader consumes r to EOF and returns the lowercase hex digest.
func SHA256Reader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash stream: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
