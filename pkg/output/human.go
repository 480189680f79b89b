package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/drivebridge/pkg/models"
)

const separatorWidth = 80

// HumanFormatter prints the run log line by line followed by a summary
type HumanFormatter struct {
	writer io.Writer
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// Start initializes the formatter
func (f *HumanFormatter) Start(writer io.Writer) error {
	f.writer = writer
	return nil
}

// Event prints one log line. Entries are separated by a rule.
func (f *HumanFormatter) Event(ev models.LogEvent) error {
	if f.writer == nil {
		return nil
	}

	if _, err := fmt.Fprintln(f.writer, ev.Message); err != nil {
		return err
	}
	if ev.EntryDone {
		_, err := fmt.Fprintln(f.writer, strings.Repeat("-", separatorWidth))
		return err
	}
	return nil
}

// Complete displays the summary
func (f *HumanFormatter) Complete(outcome *models.SyncOutcome) error {
	if f.writer == nil {
		f.writer = io.Discard
	}
	writeSummary(f.writer, outcome)
	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	if f.writer != nil {
		fmt.Fprintf(f.writer, "Error: %v\n", err)
	}
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return FormatHuman
}

// writeSummary prints the statistics block shared by the human and progress formatters
func writeSummary(w io.Writer, outcome *models.SyncOutcome) {
	s := outcome.Stats

	fmt.Fprintf(w, "\n")
	if outcome.DryRun {
		fmt.Fprintf(w, "Dry run finished in %s\n", formatDuration(outcome.Duration))
	} else {
		fmt.Fprintf(w, "Sync finished in %s\n", formatDuration(outcome.Duration))
	}
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Files scanned:    %d\n", s.FilesScanned)
	fmt.Fprintf(w, "  Files created:    %d\n", s.FilesCreated)
	fmt.Fprintf(w, "  Files replaced:   %d\n", s.FilesReplaced)
	fmt.Fprintf(w, "  Files unchanged:  %d\n", s.FilesSkipped)
	fmt.Fprintf(w, "  Files failed:     %d\n", s.FilesFailed)
	fmt.Fprintf(w, "  Dirs created:     %d\n", s.DirsCreated)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Transfer:\n")
	fmt.Fprintf(w, "    Data:           %s\n", humanize.IBytes(uint64(s.BytesCopied)))
	if speed := averageSpeed(outcome); speed > 0 {
		fmt.Fprintf(w, "    Average speed:  %s/s\n", humanize.IBytes(uint64(speed)))
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Status: %s\n", outcome.Status)
	if outcome.Fatal != "" {
		fmt.Fprintf(w, "Error: %s\n", outcome.Fatal)
	}

	if len(outcome.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, e := range outcome.Errors {
			fmt.Fprintf(w, "  %s: %s\n", e.FilePath, e.Error)
		}
	}
}

// averageSpeed returns bytes per second over the whole run
func averageSpeed(outcome *models.SyncOutcome) int64 {
	if outcome.Duration.Seconds() <= 0 {
		return 0
	}
	return int64(float64(outcome.Stats.BytesCopied) / outcome.Duration.Seconds())
}

// formatDuration formats duration in human-readable format
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
