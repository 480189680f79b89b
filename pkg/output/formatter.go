package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/sdejongh/drivebridge/pkg/models"
)

// Formatter defines the interface for output formatting
// Implementations include human-readable, progress bar and JSON formatters
type Formatter interface {
	// Start initializes the formatter for a new run
	Start(writer io.Writer) error

	// Event receives each run log event in emission order
	Event(ev models.LogEvent) error

	// Complete finalizes output and displays summary
	Complete(outcome *models.SyncOutcome) error

	// Error reports an error that prevented a run from producing an outcome
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

// Format names accepted by New
const (
	FormatHuman    = "human"
	FormatJSON     = "json"
	FormatProgress = "progress"
)

// New returns the formatter registered under name
func New(name string) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", FormatHuman:
		return NewHumanFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatProgress:
		return NewProgressFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected human, json or progress)", name)
	}
}
