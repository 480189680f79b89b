package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdejongh/drivebridge/internal/platform"
	"github.com/sdejongh/drivebridge/pkg/config"
	"github.com/sdejongh/drivebridge/pkg/logging"
)

// validateSyncFlags resolves the roots given on the command line. Blank roots
// are passed through so the engine reports them like any other invalid input.
func validateSyncFlags() (source, target string, err error) {
	if strings.TrimSpace(syncFlags.Source) != "" {
		if source, err = platform.ResolveRoot(syncFlags.Source); err != nil {
			return "", "", fmt.Errorf("failed to resolve source path: %w", err)
		}
	}

	if strings.TrimSpace(syncFlags.Target) != "" {
		if target, err = platform.ResolveRoot(syncFlags.Target); err != nil {
			return "", "", fmt.Errorf("failed to resolve target path: %w", err)
		}
	}

	// Validate paths are neither identical nor nested
	if source != "" && target != "" {
		if err := platform.CheckRoots(source, target); err != nil {
			return "", "", err
		}
	}

	switch syncFlags.ReportFormat {
	case "", "human", "json":
	default:
		return "", "", fmt.Errorf("invalid report format: %s (valid: human, json)", syncFlags.ReportFormat)
	}

	return source, target, nil
}

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cmd *cobra.Command, cfg *config.Config) {
	// Exclude patterns
	if len(syncFlags.Exclude) > 0 {
		cfg.Exclude = syncFlags.Exclude
	}

	// Bandwidth limit
	if syncFlags.Bandwidth != "" {
		cfg.Performance.BandwidthLimit = syncFlags.Bandwidth
	}

	// Output format
	if syncFlags.Output != "" {
		cfg.Output.Format = syncFlags.Output
	}
	if cmd.Flags().Changed("progress") {
		cfg.Output.Progress = syncFlags.Progress
	}

	if syncFlags.NoLock {
		cfg.Lock = false
	}

	// Logging
	if syncFlags.LogFile != "" {
		cfg.Logging.Enabled = true
		cfg.Logging.File = syncFlags.LogFile
	}
	if syncFlags.LogFormat != "" {
		cfg.Logging.Format = syncFlags.LogFormat
	}
	if syncFlags.LogLevel != "" {
		cfg.Logging.Level = syncFlags.LogLevel
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}

	// Verbose streams debug diagnostics to stderr unless a log file is set
	if globalFlags.Verbose {
		cfg.Logging.Enabled = true
		if cfg.Logging.File == "" {
			cfg.Logging.Level = "debug"
		}
	}
}

// createLogger creates a logger based on configuration
func createLogger(cfg *config.Config, stderr io.Writer) (logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NewNullLogger(), nil
	}

	level := logging.ParseLevel(cfg.Logging.Level)

	// Without a file, log to the console
	if cfg.Logging.File == "" {
		return logging.NewConsoleLogger(stderr, level), nil
	}

	// Parse log format
	var format logging.Format
	switch cfg.Logging.Format {
	case "json":
		format = logging.FormatJSON
	default:
		format = logging.FormatText
	}

	// Create file logger
	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       cfg.Logging.File,
		Format:     format,
		Level:      level,
		MaxSize:    10 * 1024 * 1024, // 10 MB
		MaxBackups: 5,
	})
}
