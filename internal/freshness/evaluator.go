// Package freshness decides whether the local mirror is current with
// respect to the remote feed.
//
// Three signals exist, consulted most-authoritative first: the persisted
// watermark, a direct scan of the mirror for its newest embedded
// timestamp, and finally a byte-wise comparison of the raw timestamp
// strings. Exactly one precedence chain runs; the signals are fallbacks,
// never parallel voters. When no signal can be computed the verdict is
// Unknown and callers choose the conservative default (attempt an
// update).
package freshness

import (
	"context"
	"time"

	"github.com/malscan/malscan/internal/feed"
	"github.com/malscan/malscan/internal/watermark"
)

// State is the freshness verdict.
type State int

const (
	// Unknown means no signal could be computed. Not stale, not
	// fresh; callers should attempt an update.
	Unknown State = iota

	// UpToDate means the local mirror is at least as new as the
	// remote feed.
	UpToDate

	// Stale means the remote feed holds newer records.
	Stale
)

func (s State) String() string {
	switch s {
	case UpToDate:
		return "up_to_date"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// Signal identifies which fallback decided the verdict.
type Signal string

const (
	SignalWatermark  Signal = "watermark"
	SignalMirrorScan Signal = "mirror_scan"
	SignalRawString  Signal = "raw_string"
	SignalNone       Signal = "none"
)

// Verdict is the evaluation result, carrying the deciding signal and
// the raw timestamp strings that were compared, for diagnostics.
type Verdict struct {
	State  State
	Signal Signal
	Remote string
	Local  string
}

// IsUpToDate is a convenience accessor.
func (v Verdict) IsUpToDate() bool {
	return v.State == UpToDate
}

// TimestampOracle answers "what is the newest record timestamp the
// remote service currently holds". Implemented by bazaar.Client.
type TimestampOracle interface {
	LatestTimestamp(ctx context.Context) (time.Time, string, error)
}

// Evaluator combines oracle, watermark, and mirror content into one
// freshness verdict.
type Evaluator struct {
	Oracle     TimestampOracle
	Watermarks *watermark.Store
	MirrorPath string
}

// Evaluate runs the precedence chain:
//
//  1. watermark vs remote timestamp
//  2. newest mirror timestamp vs remote timestamp
//  3. raw string equality of the last observed timestamp strings
//
// An unavailable remote timestamp short-circuits to Unknown: "remote
// unreachable" must never read as stale or as fresh.
func (e *Evaluator) Evaluate(ctx context.Context) Verdict {
	remoteTS, remoteRaw, err := e.Oracle.LatestTimestamp(ctx)
	if err != nil {
		return Verdict{State: Unknown, Signal: SignalNone}
	}

	wm, _ := e.Watermarks.Read()
	if wm != nil {
		if localTS, ok := wm.LastKnown(); ok {
			return compare(localTS, wm.LastAPITimestamp, remoteTS, remoteRaw, SignalWatermark)
		}
	}

	if localTS, localRaw, scanErr := feed.ScanNewest(e.MirrorPath); scanErr == nil {
		return compare(localTS, localRaw, remoteTS, remoteRaw, SignalMirrorScan)
	}

	// Neither local signal parsed. Fall back to the exact string
	// comparison against whatever raw value the watermark still holds.
	if wm != nil && wm.LastAPITimestamp != "" {
		state := Stale
		if wm.LastAPITimestamp == remoteRaw {
			state = UpToDate
		}
		return Verdict{State: state, Signal: SignalRawString, Remote: remoteRaw, Local: wm.LastAPITimestamp}
	}

	return Verdict{State: Unknown, Signal: SignalNone, Remote: remoteRaw}
}

// compare applies the single comparison rule: up-to-date iff the local
// timestamp is not strictly older than the remote one.
func compare(localTS time.Time, localRaw string, remoteTS time.Time, remoteRaw string, sig Signal) Verdict {
	state := UpToDate
	if localTS.Before(remoteTS) {
		state = Stale
	}
	return Verdict{State: state, Signal: sig, Remote: remoteRaw, Local: localRaw}
}
