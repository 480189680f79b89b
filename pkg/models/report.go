package models

import (
	"fmt"
	"time"
)

// SyncOutcome is the aggregate result of one run.
// Only the executor mutates it, and only while the run is in flight.
type SyncOutcome struct {
	// Run details
	RunID      string
	SourcePath string
	TargetPath string
	DryRun     bool

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Statistics
	Stats Statistics

	// Entries holds one result per evaluated entry, in evaluation order
	Entries []EntryResult

	// Errors lists per-entry failures; they never abort the run
	Errors []SyncError

	// Fatal is the message of the error that aborted the run, if any
	Fatal string

	// Log is the ordered sequence of log lines emitted during the run
	Log []string

	// Overall status
	Status SyncStatus
}

// Statistics holds run counters
type Statistics struct {
	FilesScanned  int
	FilesCreated  int
	FilesReplaced int
	FilesSkipped  int
	FilesFailed   int
	DirsCreated   int
	BytesCopied   int64
}

// SyncStatus represents the overall result
type SyncStatus string

const (
	// StatusSuccess indicates every entry was processed without error
	StatusSuccess SyncStatus = "success"
	// StatusPartial indicates the run completed but some entries failed
	StatusPartial SyncStatus = "partial"
	// StatusFailed indicates a fatal error aborted the run
	StatusFailed SyncStatus = "failed"
	// StatusCancelled indicates the run was cancelled between entries
	StatusCancelled SyncStatus = "cancelled"
)

// SyncError records a per-entry failure
type SyncError struct {
	FilePath  string    `json:"path"`
	Decision  Decision  `json:"decision,omitempty"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// ExitCode returns the appropriate exit code for the sync status
func (s SyncStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}

// Summary renders the one-line count summary logged at the end of a run
func (o *SyncOutcome) Summary() string {
	s := o.Stats
	return fmt.Sprintf("Scanned %d files: %d created, %d replaced, %d skipped, %d failed",
		s.FilesScanned, s.FilesCreated, s.FilesReplaced, s.FilesSkipped, s.FilesFailed)
}

// Succeeded reports whether the run finished without fatal errors or cancellation.
// A partial run counts as succeeded; inspect Errors for per-entry failures.
func (o *SyncOutcome) Succeeded() bool {
	return o.Status == StatusSuccess || o.Status == StatusPartial
}
