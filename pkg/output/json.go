package output

import (
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"

	"github.com/sdejongh/drivebridge/pkg/models"
)

// JSONFormatter buffers the run and writes a single JSON report on completion
type JSONFormatter struct {
	writer io.Writer
	events []models.LogEvent
}

// JSONReportData represents the final report document
type JSONReportData struct {
	RunID      string               `json:"run_id"`
	Source     string               `json:"source"`
	Target     string               `json:"target"`
	DryRun     bool                 `json:"dry_run"`
	Status     string               `json:"status"`
	ExitCode   int                  `json:"exit_code"`
	StartTime  time.Time            `json:"start_time"`
	EndTime    time.Time            `json:"end_time"`
	Duration   string               `json:"duration"`
	DurationMs int64                `json:"duration_ms"`
	Stats      JSONStatsData        `json:"stats"`
	Transfer   JSONTransferData     `json:"transfer"`
	Entries    []models.EntryResult `json:"entries"`
	Errors     []models.SyncError   `json:"errors,omitempty"`
	Fatal      string               `json:"fatal,omitempty"`
	Log        []models.LogEvent    `json:"log"`
}

// JSONStatsData represents run counters
type JSONStatsData struct {
	FilesScanned  int `json:"files_scanned"`
	FilesCreated  int `json:"files_created"`
	FilesReplaced int `json:"files_replaced"`
	FilesSkipped  int `json:"files_skipped"`
	FilesFailed   int `json:"files_failed"`
	DirsCreated   int `json:"dirs_created"`
}

// JSONTransferData represents transfer statistics
type JSONTransferData struct {
	BytesCopied     int64  `json:"bytes_copied"`
	BytesCopiedStr  string `json:"bytes_copied_human"`
	AverageSpeed    int64  `json:"average_speed_bytes_per_sec,omitempty"`
	AverageSpeedStr string `json:"average_speed,omitempty"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Start initializes the formatter
func (f *JSONFormatter) Start(writer io.Writer) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.events = f.events[:0]
	return nil
}

// Event records the event. Nothing is written until Complete so that the
// output stays a single parseable document.
func (f *JSONFormatter) Event(ev models.LogEvent) error {
	f.events = append(f.events, ev)
	return nil
}

// Complete writes the report
func (f *JSONFormatter) Complete(outcome *models.SyncOutcome) error {
	if f.writer == nil {
		f.writer = io.Discard
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewJSONReport(outcome, f.events))
}

// Error writes a minimal failure document
func (f *JSONFormatter) Error(err error) error {
	if f.writer == nil {
		return nil
	}
	encoder := json.NewEncoder(f.writer)
	return encoder.Encode(map[string]string{
		"status": string(models.StatusFailed),
		"error":  err.Error(),
	})
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return FormatJSON
}

// NewJSONReport converts an outcome into its JSON document form.
// When events is nil the log is rebuilt from the outcome's log lines.
func NewJSONReport(outcome *models.SyncOutcome, events []models.LogEvent) JSONReportData {
	s := outcome.Stats

	if events == nil {
		events = make([]models.LogEvent, 0, len(outcome.Log))
		for i, line := range outcome.Log {
			events = append(events, models.LogEvent{Seq: i + 1, Message: line})
		}
	}

	entries := outcome.Entries
	if entries == nil {
		entries = []models.EntryResult{}
	}

	report := JSONReportData{
		RunID:      outcome.RunID,
		Source:     outcome.SourcePath,
		Target:     outcome.TargetPath,
		DryRun:     outcome.DryRun,
		Status:     string(outcome.Status),
		ExitCode:   outcome.Status.ExitCode(),
		StartTime:  outcome.StartTime,
		EndTime:    outcome.EndTime,
		Duration:   outcome.Duration.Round(time.Millisecond).String(),
		DurationMs: outcome.Duration.Milliseconds(),
		Stats: JSONStatsData{
			FilesScanned:  s.FilesScanned,
			FilesCreated:  s.FilesCreated,
			FilesReplaced: s.FilesReplaced,
			FilesSkipped:  s.FilesSkipped,
			FilesFailed:   s.FilesFailed,
			DirsCreated:   s.DirsCreated,
		},
		Transfer: JSONTransferData{
			BytesCopied:    s.BytesCopied,
			BytesCopiedStr: humanize.IBytes(uint64(s.BytesCopied)),
		},
		Entries: entries,
		Errors:  outcome.Errors,
		Fatal:   outcome.Fatal,
		Log:     events,
	}

	if speed := averageSpeed(outcome); speed > 0 {
		report.Transfer.AverageSpeed = speed
		report.Transfer.AverageSpeedStr = humanize.IBytes(uint64(speed)) + "/s"
	}

	return report
}
