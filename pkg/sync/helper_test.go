package sync

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sdejongh/drivebridge/pkg/compare"
	"github.com/sdejongh/drivebridge/pkg/models"
	"github.com/sdejongh/drivebridge/pkg/storage"
)

// TestHelper provides utilities for sync tests
type TestHelper struct {
	t         *testing.T
	sourceDir string
	targetDir string
	source    *storage.Local
	target    *storage.Local
}

// NewTestHelper creates source and target directories under t.TempDir
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()

	tempDir := t.TempDir()
	sourceDir := filepath.Join(tempDir, "source")
	targetDir := filepath.Join(tempDir, "target")
	require.NoError(t, os.MkdirAll(sourceDir, 0o755))
	require.NoError(t, os.MkdirAll(targetDir, 0o755))

	source, err := storage.NewLocal(sourceDir)
	require.NoError(t, err)
	target, err := storage.NewLocal(targetDir)
	require.NoError(t, err)

	return &TestHelper{
		t:         t,
		sourceDir: sourceDir,
		targetDir: targetDir,
		source:    source,
		target:    target,
	}
}

func (h *TestHelper) CreateSourceFile(name, content string) {
	h.t.Helper()
	writeTestFile(h.t, filepath.Join(h.sourceDir, filepath.FromSlash(name)), content)
}

func (h *TestHelper) CreateTargetFile(name, content string) {
	h.t.Helper()
	writeTestFile(h.t, filepath.Join(h.targetDir, filepath.FromSlash(name)), content)
}

func (h *TestHelper) ReadTargetFile(name string) string {
	h.t.Helper()
	data, err := os.ReadFile(filepath.Join(h.targetDir, filepath.FromSlash(name)))
	require.NoError(h.t, err)
	return string(data)
}

func (h *TestHelper) TargetFileExists(name string) bool {
	_, err := os.Stat(filepath.Join(h.targetDir, filepath.FromSlash(name)))
	return err == nil
}

// TargetTree lists every path under the target root
func (h *TestHelper) TargetTree() []string {
	h.t.Helper()
	var paths []string
	err := filepath.Walk(h.targetDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == h.targetDir {
			return nil
		}
		rel, _ := filepath.Rel(h.targetDir, p)
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(h.t, err)
	sort.Strings(paths)
	return paths
}

// SetTargetModTime backdates a target file so untouched files can be detected
func (h *TestHelper) SetTargetModTime(name string, modTime time.Time) {
	h.t.Helper()
	p := filepath.Join(h.targetDir, filepath.FromSlash(name))
	require.NoError(h.t, os.Chtimes(p, modTime, modTime))
}

func (h *TestHelper) NewOperation() *models.SyncOperation {
	return &models.SyncOperation{
		ID:         "test-run",
		SourcePath: h.sourceDir,
		TargetPath: h.targetDir,
		BufferSize: 4096,
		CreatedAt:  time.Now(),
	}
}

func (h *TestHelper) NewExecutor(op *models.SyncOperation) *Executor {
	h.t.Helper()
	return h.NewExecutorWith(h.source, h.target, op)
}

func (h *TestHelper) NewExecutorWith(source, target storage.Backend, op *models.SyncOperation) *Executor {
	h.t.Helper()
	executor, err := NewExecutor(source, target, compare.NewMD5Comparator(op.BufferSize), nil, op)
	require.NoError(h.t, err)
	return executor
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// eventRecorder collects emitted events
type eventRecorder struct {
	events []models.LogEvent
}

func (r *eventRecorder) sink(ev models.LogEvent) {
	r.events = append(r.events, ev)
}

func (r *eventRecorder) messages() []string {
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Message)
	}
	return out
}

// forEntry returns the events emitted for one relative path
func (r *eventRecorder) forEntry(rel string) []models.LogEvent {
	var out []models.LogEvent
	for _, ev := range r.events {
		if ev.RelativePath == rel {
			out = append(out, ev)
		}
	}
	return out
}

func kinds(events []models.LogEvent) []models.EventKind {
	out := make([]models.EventKind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

var errInjected = errors.New("injected read failure")

// faultyBackend fails reads of selected paths
type faultyBackend struct {
	storage.Backend
	failRead map[string]bool
}

func (b *faultyBackend) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	if b.failRead[path] {
		return nil, errInjected
	}
	return b.Backend.Read(ctx, path)
}
