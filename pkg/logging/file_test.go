package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileLogger(t *testing.T, config FileLoggerConfig) (*FileLogger, string) {
	t.Helper()
	if config.Path == "" {
		config.Path = filepath.Join(t.TempDir(), "test.log")
	}
	logger, err := NewFileLogger(config)
	require.NoError(t, err)
	return logger, config.Path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func TestNewFileLogger(t *testing.T) {
	t.Run("CreatesFile", func(t *testing.T) {
		logger, path := newTestFileLogger(t, FileLoggerConfig{Format: FormatText, Level: InfoLevel})
		defer logger.Close()

		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("CreatesDirectory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "test.log")
		logger, _ := newTestFileLogger(t, FileLoggerConfig{Path: path})
		defer logger.Close()

		info, err := os.Stat(filepath.Dir(path))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestFileLogger_LogLevels(t *testing.T) {
	logger, path := newTestFileLogger(t, FileLoggerConfig{Format: FormatText, Level: InfoLevel})
	ctx := context.Background()

	logger.Debug(ctx, "debug message", nil)
	logger.Info(ctx, "info message", nil)
	logger.Warn(ctx, "warn message", nil)
	logger.Error(ctx, "error message", nil, nil)
	require.NoError(t, logger.Close())

	content := strings.Join(readLines(t, path), "\n")
	assert.NotContains(t, content, "debug message")
	assert.Contains(t, content, "info message")
	assert.Contains(t, content, "warn message")
	assert.Contains(t, content, "error message")
}

func TestFileLogger_DebugLevel(t *testing.T) {
	logger, path := newTestFileLogger(t, FileLoggerConfig{Format: FormatText, Level: DebugLevel})
	logger.Debug(context.Background(), "debug message", nil)
	require.NoError(t, logger.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "level=DEBUG")
}

func TestFileLogger_TextFormat(t *testing.T) {
	logger, path := newTestFileLogger(t, FileLoggerConfig{Format: FormatText, Level: InfoLevel})
	logger.Info(context.Background(), "copy done", Fields{"path": "a/b.txt", "bytes": 42})
	require.NoError(t, logger.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "timestamp="))
	assert.Contains(t, lines[0], "level=INFO")
	assert.Contains(t, lines[0], `message="copy done"`)
	assert.Contains(t, lines[0], "bytes=42 path=a/b.txt")
}

func TestFileLogger_JSONFormat(t *testing.T) {
	logger, path := newTestFileLogger(t, FileLoggerConfig{Format: FormatJSON, Level: InfoLevel})
	logger.Info(context.Background(), "run started", Fields{"run_id": "abc", "dry_run": true})
	require.NoError(t, logger.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "run started", entry["message"])
	assert.Equal(t, "abc", entry["run_id"])
	assert.Equal(t, true, entry["dry_run"])
	assert.NotEmpty(t, entry["timestamp"])
}

func TestFileLogger_ErrorWithErr(t *testing.T) {
	logger, path := newTestFileLogger(t, FileLoggerConfig{Format: FormatJSON, Level: InfoLevel})
	logger.Error(context.Background(), "copy failed", errors.New("disk full"), Fields{"path": "x"})
	require.NoError(t, logger.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "disk full", entry["error"])
	assert.Equal(t, "x", entry["path"])
}

func TestFileLogger_WithFields(t *testing.T) {
	logger, path := newTestFileLogger(t, FileLoggerConfig{Format: FormatJSON, Level: InfoLevel})

	child := logger.WithFields(Fields{"component": "sync"})
	child.Info(context.Background(), "with fields", Fields{"action": "copy"})
	logger.Info(context.Background(), "parent", nil)
	require.NoError(t, logger.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "sync", entry["component"])
	assert.Equal(t, "copy", entry["action"])

	var parent map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &parent))
	assert.NotContains(t, parent, "component")
}

func TestFileLogger_Rotation(t *testing.T) {
	logger, path := newTestFileLogger(t, FileLoggerConfig{
		Format:     FormatText,
		Level:      InfoLevel,
		MaxSize:    100,
		MaxBackups: 2,
	})

	for i := 0; i < 20; i++ {
		logger.Info(context.Background(), "This is a test message that is long enough to trigger rotation eventually", nil)
	}
	require.NoError(t, logger.Close())

	_, err := os.Stat(path + ".1")
	assert.NoError(t, err, "backup .1 should exist")
	_, err = os.Stat(path + ".2")
	assert.NoError(t, err, "backup .2 should exist")
	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err), "backups beyond MaxBackups are removed")
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestFileLogger_WriteAfterClose(t *testing.T) {
	logger, _ := newTestFileLogger(t, FileLoggerConfig{Level: InfoLevel})
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	// Must not panic
	logger.Info(context.Background(), "dropped", nil)
}

func TestFileLogger_ConcurrentWrites(t *testing.T) {
	logger, path := newTestFileLogger(t, FileLoggerConfig{Format: FormatJSON, Level: InfoLevel})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				logger.Info(context.Background(), "concurrent", Fields{"worker": id, "n": j})
			}
		}(i)
	}
	wg.Wait()
	require.NoError(t, logger.Close())

	lines := readLines(t, path)
	assert.Len(t, lines, 500)
	for _, line := range lines {
		var entry map[string]interface{}
		assert.NoError(t, json.Unmarshal([]byte(line), &entry))
	}
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(&buf, InfoLevel)

	logger.Debug(context.Background(), "hidden", nil)
	logger.WithFields(Fields{"run_id": "r1"}).Warn(context.Background(), "visible", Fields{"path": "a.txt"})
	require.NoError(t, logger.Close())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "run_id=r1")
	assert.Contains(t, out, "path=a.txt")
	assert.NotContains(t, out, "\x1b[", "no colour for non-terminal writers")
}

func TestNullLogger(t *testing.T) {
	logger := NewNullLogger()
	ctx := context.Background()

	logger.Debug(ctx, "debug", nil)
	logger.Info(ctx, "info", nil)
	logger.Warn(ctx, "warn", nil)
	logger.Error(ctx, "error", nil, nil)

	assert.NotNil(t, logger.WithFields(Fields{"key": "value"}))
	assert.NoError(t, logger.Close())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"INFO", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"ERROR", ErrorLevel},
		{"bogus", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, LevelString(tt.level))
		})
	}
}
