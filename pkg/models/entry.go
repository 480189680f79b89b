package models

import (
	"encoding/hex"
	"time"
)

// Decision is the per-file classification computed before any write occurs
type Decision string

const (
	// DecisionCreate copies a file that is absent from the target
	DecisionCreate Decision = "create"
	// DecisionReplace overwrites a target file whose content differs
	DecisionReplace Decision = "replace"
	// DecisionSkip leaves an identical target file untouched
	DecisionSkip Decision = "skip"
)

// Reason returns the human-readable reason logged for the decision
func (d Decision) Reason() string {
	switch d {
	case DecisionCreate:
		return "new file"
	case DecisionReplace:
		return "modified file"
	case DecisionSkip:
		return "unchanged"
	default:
		return string(d)
	}
}

// RequiresCopy reports whether the decision results in a write to the target
func (d Decision) RequiresCopy() bool {
	return d == DecisionCreate || d == DecisionReplace
}

// Fingerprint is the MD5 digest of a file's full byte stream.
// MD5 is only used as an equality check here.
type Fingerprint [16]byte

// String renders the fingerprint as 32 lowercase hex characters
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// IsZero reports whether the fingerprint was never computed
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// MarshalText implements encoding.TextMarshaler
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// EntryResult records what happened to one relative entry during a run
type EntryResult struct {
	// RelativePath is the slash-separated path relative to both roots
	RelativePath string `json:"path"`
	// Decision is empty when the entry failed before a decision was reached
	Decision Decision `json:"decision,omitempty"`
	// Reason is the decision reason ("new file", "modified file", "unchanged")
	Reason string `json:"reason,omitempty"`
	// SourceHash and TargetHash are only set when both sides were compared
	SourceHash string `json:"source_hash,omitempty"`
	TargetHash string `json:"target_hash,omitempty"`
	// BytesCopied is the number of bytes written to the target
	BytesCopied int64 `json:"bytes_copied,omitempty"`
	// Duration is the time spent on the entry
	Duration time.Duration `json:"duration_ns"`
	// Error holds the failure message for entries that could not be processed
	Error string `json:"error,omitempty"`
}

// Failed reports whether the entry ended in an error
func (r *EntryResult) Failed() bool {
	return r.Error != ""
}
