package models

import "time"

// EventKind categorizes a log event
type EventKind string

const (
	EventRunStarted    EventKind = "run_started"
	EventScanCompleted EventKind = "scan_completed"
	EventEntryStarted  EventKind = "entry_started"
	EventFingerprint   EventKind = "fingerprint"
	EventDecision      EventKind = "decision"
	EventDirCreate     EventKind = "dir_create"
	EventCopyStarted   EventKind = "copy_started"
	EventCopyCompleted EventKind = "copy_completed"
	EventEntryFailed   EventKind = "entry_failed"
	EventRunCompleted  EventKind = "run_completed"
	EventRunFailed     EventKind = "run_failed"
)

// LogEvent is one line of the run log.
// Seq is 1-based and strictly increasing within a run.
type LogEvent struct {
	Seq          int       `json:"seq"`
	Time         time.Time `json:"time"`
	Kind         EventKind `json:"kind"`
	RelativePath string    `json:"path,omitempty"`
	Message      string    `json:"message"`
	// Count carries the number of files found for EventScanCompleted
	Count int `json:"count,omitempty"`
	// EntryDone marks the last event emitted for an entry
	EntryDone bool `json:"entry_done,omitempty"`
}

// String returns the human-readable log line
func (e LogEvent) String() string {
	return e.Message
}
