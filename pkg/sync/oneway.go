package sync

import (
	"context"
	"fmt"
	"path"

	"github.com/sdejongh/drivebridge/pkg/models"
	"github.com/sdejongh/drivebridge/pkg/ratelimit"
	"github.com/sdejongh/drivebridge/pkg/storage"
)

// OneWaySync applies create and replace decisions from source to target
type OneWaySync struct {
	source  storage.Backend
	target  storage.Backend
	limiter *ratelimit.Limiter
}

// NewOneWaySync creates a new one-way sync handler. A nil limiter copies at
// full speed.
func NewOneWaySync(source, target storage.Backend, limiter *ratelimit.Limiter) *OneWaySync {
	return &OneWaySync{
		source:  source,
		target:  target,
		limiter: limiter,
	}
}

// ShouldSync determines if a decision results in a copy
func (s *OneWaySync) ShouldSync(decision models.Decision) bool {
	return decision.RequiresCopy()
}

// EnsureParent creates the parent directory chain of relativePath in the
// target. It reports whether anything had to be created.
func (s *OneWaySync) EnsureParent(ctx context.Context, relativePath string) (bool, error) {
	parent := path.Dir(relativePath)
	if parent == "." || parent == "/" {
		return false, nil
	}

	exists, err := s.target.Exists(ctx, parent)
	if err != nil {
		return false, models.IOError("check directory", parent, err)
	}
	if exists {
		return false, nil
	}

	if err := s.target.MkdirAll(ctx, parent); err != nil {
		return false, models.IOError("create directory", parent, err)
	}
	return true, nil
}

// CopyFile copies the full content of relativePath from source to target,
// overwriting any existing target content, and returns the bytes written
func (s *OneWaySync) CopyFile(ctx context.Context, relativePath string) (int64, error) {
	// Get source metadata to preserve timestamps and permissions
	sourceInfo, err := s.source.Stat(ctx, relativePath)
	if err != nil {
		return 0, models.IOError("copy", relativePath, fmt.Errorf("failed to get source metadata: %w", err))
	}

	reader, err := s.source.Read(ctx, relativePath)
	if err != nil {
		return 0, models.IOError("copy", relativePath, fmt.Errorf("failed to read source file: %w", err))
	}
	defer reader.Close()

	limited := ratelimit.NewReader(ctx, reader, s.limiter)

	written, err := s.target.Write(ctx, relativePath, limited, sourceInfo.Size, sourceInfo)
	if err != nil {
		return written, models.IOError("copy", relativePath, fmt.Errorf("failed to write target file: %w", err))
	}

	return written, nil
}
