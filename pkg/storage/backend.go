package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo represents metadata about a file
type FileInfo struct {
	Path         string
	RelativePath string
	Size         int64
	ModTime      time.Time
	IsDir        bool
	IsSymlink    bool
	IsRegular    bool
	Permissions  uint32
}

// Backend is the filesystem provider consumed by the sync engine.
// A backend is rooted at one directory; every path argument is relative to
// that root and uses forward slashes. The empty path names the root itself.
type Backend interface {
	// Root returns the absolute root path
	Root() string

	// Abs returns the absolute native path of a relative entry
	Abs(path string) string

	// Stat returns file metadata, following symbolic links
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// Lstat returns file metadata without following symbolic links
	Lstat(ctx context.Context, path string) (*FileInfo, error)

	// Exists checks if a file or directory exists
	Exists(ctx context.Context, path string) (bool, error)

	// ReadDir lists the direct children of a directory, sorted by name.
	// Symbolic links are reported as links, not as their targets.
	ReadDir(ctx context.Context, path string) ([]FileInfo, error)

	// Read opens a file for reading
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write creates or replaces a file with the given content. The
	// destination only changes once the full content has been written.
	// If metadata is provided, attempts to preserve timestamps and permissions
	Write(ctx context.Context, path string, reader io.Reader, size int64, metadata *FileInfo) (int64, error)

	// MkdirAll creates a directory and all necessary parents
	MkdirAll(ctx context.Context, path string) error

	// Close releases any resources held by the backend
	Close() error
}
