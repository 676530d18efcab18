package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/malscan/malscan/internal/hashstore"
)

// Detection method strings reported in verdicts.
const (
	MethodHashMatch      = "Threat intelligence hash match"
	MethodNoMatch        = "No match in threat intelligence database"
	MethodNotInitialized = "Threat intelligence store not initialized; run 'malscan sync' or 'malscan initdb'"
)

// Verdict is the structured answer to "is this digest known malicious".
type Verdict struct {
	FileHash        string `json:"file_hash"`
	KnownMalware    bool   `json:"known_malware"`
	MalwareName     string `json:"malware_name,omitempty"`
	MalwareFamily   string `json:"malware_family,omitempty"`
	Source          string `json:"source,omitempty"`
	DetectionMethod string `json:"detection_method"`
}

// buildVerdict maps a store lookup outcome onto a Verdict. A store that
// was never initialized yields a distinct no-match reason rather than a
// storage error; every other lookup error propagates.
func buildVerdict(digest string, entry *hashstore.Entry, lookupErr error) (Verdict, error) {
	if errors.Is(lookupErr, hashstore.ErrNotInitialized) {
		return Verdict{
			FileHash:        digest,
			KnownMalware:    false,
			DetectionMethod: MethodNotInitialized,
		}, nil
	}
	if lookupErr != nil {
		return Verdict{}, lookupErr
	}

	if entry == nil {
		return Verdict{
			FileHash:        digest,
			KnownMalware:    false,
			DetectionMethod: MethodNoMatch,
		}, nil
	}

	return Verdict{
		FileHash:        digest,
		KnownMalware:    true,
		MalwareName:     entry.Name,
		MalwareFamily:   entry.Family,
		Source:          entry.Source,
		DetectionMethod: MethodHashMatch,
	}, nil
}

// renderText writes the human-readable form of a verdict.
func (v Verdict) renderText(w io.Writer) {
	fmt.Fprintf(w, "hash:      %s\n", v.FileHash)
	if v.KnownMalware {
		fmt.Fprintf(w, "verdict:   KNOWN MALWARE\n")
		fmt.Fprintf(w, "name:      %s\n", v.MalwareName)
		fmt.Fprintf(w, "family:    %s\n", v.MalwareFamily)
		if v.Source != "" {
			fmt.Fprintf(w, "source:    %s\n", v.Source)
		}
	} else {
		fmt.Fprintf(w, "verdict:   no match\n")
	}
	fmt.Fprintf(w, "method:    %s\n", v.DetectionMethod)
}
