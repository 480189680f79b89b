package output

import (
	"fmt"
	"io"
	"os"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"github.com/sdejongh/drivebridge/pkg/models"
)

const (
	progressTemplate pb.ProgressBarTemplate = `{{counters . }} {{bar . }} {{percent . }} {{etime . }}{{with string . "path"}} {{.}}{{end}}`
	maxBarWidth                             = 120
)

// ProgressFormatter shows a single progress bar over the files found in the
// source, then prints the summary
type ProgressFormatter struct {
	writer   io.Writer
	bar      *pb.ProgressBar
	terminal bool
}

// NewProgressFormatter creates a new progress bar formatter
func NewProgressFormatter() *ProgressFormatter {
	return &ProgressFormatter{}
}

// Start initializes the formatter
func (f *ProgressFormatter) Start(writer io.Writer) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.bar = nil
	f.terminal = false
	if file, ok := writer.(*os.File); ok {
		f.terminal = term.IsTerminal(int(file.Fd()))
	}
	return nil
}

// Event advances the bar
func (f *ProgressFormatter) Event(ev models.LogEvent) error {
	switch ev.Kind {
	case models.EventScanCompleted:
		f.startBar(ev.Count)
	case models.EventEntryStarted:
		if f.bar != nil && ev.RelativePath != "" {
			f.bar.Set("path", ev.RelativePath)
		}
	}

	if ev.EntryDone && f.bar != nil {
		f.bar.Increment()
	}
	return nil
}

func (f *ProgressFormatter) startBar(total int) {
	bar := progressTemplate.New(total)
	bar.SetWriter(f.writer)
	bar.SetMaxWidth(maxBarWidth)
	bar.Set(pb.Terminal, f.terminal)

	if f.terminal {
		if file, ok := f.writer.(*os.File); ok {
			if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
				bar.SetWidth(min(width, maxBarWidth))
			}
		}
	} else {
		// Redirected output gets one final render instead of carriage returns
		bar.Set(pb.Static, true)
	}

	f.bar = bar.Start()
}

// Complete finishes the bar and displays the summary
func (f *ProgressFormatter) Complete(outcome *models.SyncOutcome) error {
	if f.writer == nil {
		f.writer = io.Discard
	}

	if f.bar != nil {
		f.bar.Set("path", "")
		if f.terminal {
			f.bar.Finish()
		} else {
			f.bar.Write()
			f.bar.Finish()
			fmt.Fprintln(f.writer)
		}
	}

	writeSummary(f.writer, outcome)
	return nil
}

// Error reports an error
func (f *ProgressFormatter) Error(err error) error {
	if f.bar != nil {
		f.bar.Finish()
	}
	if f.writer != nil {
		fmt.Fprintf(f.writer, "Error: %v\n", err)
	}
	return nil
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return FormatProgress
}
