package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sdejongh/drivebridge/internal/platform"
	"github.com/sdejongh/drivebridge/pkg/models"
	"github.com/sdejongh/drivebridge/pkg/output"
	"github.com/sdejongh/drivebridge/pkg/sync"
)

// SyncFlags holds sync command flags
type SyncFlags struct {
	Source       string
	Target       string
	DryRun       bool
	Bandwidth    string
	Exclude      []string
	Output       string
	Progress     bool
	Report       string
	ReportFormat string
	NoLock       bool
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var syncFlags SyncFlags

// ExitCodeError carries the process exit code of a finished run. The run's
// own output has already reported what went wrong.
type ExitCodeError struct {
	Code   int
	Status models.SyncStatus
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("synchronization finished with status %s", e.Status)
}

// NewSyncCommand creates the sync command
func NewSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy new and modified files from source to target",
		Long: `Synchronize the target folder with the source folder.
Every file under the source is copied to the same relative path in the target
when the target lacks it or its MD5 fingerprint differs. Files that exist only
in the target are never touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, syncFlags.DryRun)
		},
	}

	addSyncFlags(cmd)
	cmd.Flags().BoolVar(&syncFlags.DryRun, "dry-run", false, "decide and log every file without writing anything")

	return cmd
}

// NewPlanCommand creates the plan command, a sync that never writes
func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what sync would do without writing (dry-run)",
		Long: `Compare source and target folders and log the action each file needs
without performing any file operations. This is equivalent to sync --dry-run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, true)
		},
	}

	addSyncFlags(cmd)

	return cmd
}

func addSyncFlags(cmd *cobra.Command) {
	// Required flags
	cmd.Flags().StringVarP(&syncFlags.Source, "source", "s", "", "source directory path (required)")
	cmd.Flags().StringVarP(&syncFlags.Target, "dest", "d", "", "target directory path (required)")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("dest")

	// Optional flags
	cmd.Flags().StringVarP(&syncFlags.Bandwidth, "bandwidth", "b", "", "read bandwidth limit (e.g., \"10M\", \"512KiB\")")
	cmd.Flags().StringSliceVar(&syncFlags.Exclude, "exclude", []string{}, "glob patterns to exclude (e.g., \"*.tmp\", \".git/\")")
	cmd.Flags().StringVarP(&syncFlags.Output, "output", "o", "", "output format: human, json")
	cmd.Flags().BoolVar(&syncFlags.Progress, "progress", false, "show a progress bar instead of the full log")
	cmd.Flags().StringVar(&syncFlags.Report, "report", "", "write a report of copied and failed files")
	cmd.Flags().StringVar(&syncFlags.ReportFormat, "report-format", "human", "report format: human, json")
	cmd.Flags().BoolVar(&syncFlags.NoLock, "no-lock", false, "do not take the per-target run lock")

	// Logging flags
	cmd.Flags().StringVar(&syncFlags.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.Flags().StringVar(&syncFlags.LogFormat, "log-format", "", "log format: text, json")
	cmd.Flags().StringVar(&syncFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
}

func runSync(cmd *cobra.Command, dryRun bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Validate flags
	source, target, err := validateSyncFlags()
	if err != nil {
		return err
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	applyFlagsToConfig(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	bandwidth, err := cfg.BandwidthBytes()
	if err != nil {
		return err
	}

	formatter, err := createFormatter(cfg.Output.Format, cfg.Output.Progress)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if cfg.Output.Quiet {
		out = io.Discard
	}
	if err := formatter.Start(out); err != nil {
		return err
	}

	logger, err := createLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	// One writer per target across processes
	if cfg.Lock && !dryRun && target != "" {
		lock, err := platform.AcquireRunLock(target)
		if err != nil {
			formatter.Error(err)
			return err
		}
		defer lock.Release()
	}

	runner := sync.NewRunner(sync.RunnerConfig{
		ExcludePatterns: cfg.Exclude,
		DryRun:          dryRun,
		BufferSize:      cfg.Performance.BufferSize,
		BandwidthLimit:  bandwidth,
		Logger:          logger,
	})

	var (
		outcome *models.SyncOutcome
		runErr  error
	)
	onLog := func(ev models.LogEvent) {
		formatter.Event(ev)
	}
	onComplete := func(o *models.SyncOutcome, err error) {
		outcome, runErr = o, err
	}

	if err := runner.Start(ctx, source, target, onLog, onComplete); err != nil {
		return err
	}
	runner.Wait()

	if outcome == nil {
		return fmt.Errorf("sync failed: %w", runErr)
	}

	if err := formatter.Complete(outcome); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if syncFlags.Report != "" {
		if err := output.WriteDecisionReport(outcome, syncFlags.Report, syncFlags.ReportFormat); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if code := outcome.Status.ExitCode(); code != 0 {
		return &ExitCodeError{Code: code, Status: outcome.Status}
	}
	return nil
}

// createFormatter picks the output formatter; progress only applies to human output
func createFormatter(format string, progress bool) (output.Formatter, error) {
	if progress && (format == "" || format == output.FormatHuman) {
		return output.NewProgressFormatter(), nil
	}
	return output.New(format)
}
