package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// tempPrefix names in-flight writes in the destination directory
const tempPrefix = ".drivebridge-"

// Local is a storage backend over a go-billy filesystem
type Local struct {
	rootPath string
	fs       billy.Filesystem
	// native is set when rootPath is a real directory on the host
	native bool
}

// NewLocal creates a backend for a directory on the local filesystem.
// The directory is not required to exist yet; the engine validates roots
// before touching them.
func NewLocal(rootPath string) (*Local, error) {
	if rootPath == "" {
		return nil, errors.New("root path is empty")
	}

	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	return &Local{rootPath: absPath, fs: osfs.New(absPath), native: true}, nil
}

// NewBilly wraps an arbitrary billy filesystem. rootPath is only used to
// render absolute paths in logs.
func NewBilly(fsys billy.Filesystem, rootPath string) *Local {
	return &Local{rootPath: rootPath, fs: fsys}
}

// Root returns the absolute root path
func (l *Local) Root() string {
	return l.rootPath
}

// Abs returns the absolute native path of a relative entry
func (l *Local) Abs(p string) string {
	return filepath.Join(l.rootPath, filepath.FromSlash(p))
}

// name converts a slash-separated relative path to the billy name
func (l *Local) name(p string) string {
	if p == "" || p == "." {
		return "."
	}
	return filepath.FromSlash(path.Clean(p))
}

// Stat returns file metadata, following symbolic links
func (l *Local) Stat(ctx context.Context, p string) (*FileInfo, error) {
	info, err := l.fs.Stat(l.name(p))
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return l.fileInfo(p, info), nil
}

// Lstat returns file metadata without following symbolic links
func (l *Local) Lstat(ctx context.Context, p string) (*FileInfo, error) {
	info, err := l.fs.Lstat(l.name(p))
	if err != nil {
		return nil, fmt.Errorf("failed to lstat file: %w", err)
	}
	return l.fileInfo(p, info), nil
}

// Exists checks if a file or directory exists
func (l *Local) Exists(ctx context.Context, p string) (bool, error) {
	_, err := l.fs.Stat(l.name(p))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check existence: %w", err)
}

// ReadDir lists the direct children of a directory, sorted by name
func (l *Local) ReadDir(ctx context.Context, p string) ([]FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	infos, err := l.fs.ReadDir(l.name(p))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	entries := make([]FileInfo, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, *l.fileInfo(path.Join(p, info.Name()), info))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelativePath < entries[j].RelativePath
	})

	return entries, nil
}

// Read opens a file for reading
func (l *Local) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	file, err := l.fs.Open(l.name(p))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Write creates or overwrites a file and returns the number of bytes written.
// Content goes to a temporary file next to the destination, which is renamed
// over it once complete. A failed or cancelled write leaves any existing file
// untouched.
func (l *Local) Write(ctx context.Context, p string, reader io.Reader, size int64, metadata *FileInfo) (int64, error) {
	name := l.name(p)
	dir := filepath.Dir(name)

	if err := l.fs.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := l.fs.TempFile(dir, tempPrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	// memfs reports only the base name
	tmpName := filepath.Join(dir, filepath.Base(tmp.Name()))

	written, err := io.Copy(tmp, &contextReader{ctx: ctx, r: reader})
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		l.discard(tmpName)
		return written, fmt.Errorf("failed to write file: %w", err)
	}

	if size >= 0 && written != size {
		l.discard(tmpName)
		return written, fmt.Errorf("incomplete write: expected %d bytes, wrote %d", size, written)
	}

	meta := FileInfo{Permissions: 0o644}
	if metadata != nil {
		meta.ModTime = metadata.ModTime
		if metadata.Permissions != 0 {
			meta.Permissions = metadata.Permissions
		}
	}
	if err := l.applyMetadata(tmpName, &meta); err != nil {
		l.discard(tmpName)
		return written, err
	}

	if err := l.fs.Rename(tmpName, name); err != nil {
		l.discard(tmpName)
		return written, fmt.Errorf("failed to replace file: %w", err)
	}

	return written, nil
}

func (l *Local) discard(name string) {
	_ = l.fs.Remove(name)
}

// applyMetadata copies the modification time and permission bits.
// The chroot osfs does not implement billy.Change, so native roots go
// through the host path instead.
func (l *Local) applyMetadata(name string, metadata *FileInfo) error {
	var chtimes func(string, time.Time, time.Time) error
	var chmod func(string, os.FileMode) error
	target := name

	switch change := l.fs.(type) {
	case billy.Change:
		chtimes, chmod = change.Chtimes, change.Chmod
	default:
		if !l.native {
			return nil
		}
		chtimes, chmod = os.Chtimes, os.Chmod
		target = filepath.Join(l.rootPath, name)
	}

	if !metadata.ModTime.IsZero() {
		if err := chtimes(target, metadata.ModTime, metadata.ModTime); err != nil {
			return fmt.Errorf("failed to set modification time: %w", err)
		}
	}
	if metadata.Permissions != 0 {
		if err := chmod(target, os.FileMode(metadata.Permissions)); err != nil {
			return fmt.Errorf("failed to set permissions: %w", err)
		}
	}
	return nil
}

// MkdirAll creates a directory and all necessary parents
func (l *Local) MkdirAll(ctx context.Context, p string) error {
	if err := l.fs.MkdirAll(l.name(p), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}

func (l *Local) fileInfo(p string, info os.FileInfo) *FileInfo {
	rel := path.Clean(filepath.ToSlash(p))
	if rel == "." {
		rel = ""
	}
	return &FileInfo{
		Path:         l.Abs(rel),
		RelativePath: rel,
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		IsDir:        info.IsDir(),
		IsSymlink:    info.Mode()&os.ModeSymlink != 0,
		IsRegular:    info.Mode().IsRegular(),
		Permissions:  uint32(info.Mode().Perm()),
	}
}

// contextReader stops a copy once the context is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
