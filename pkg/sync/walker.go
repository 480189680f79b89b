package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sdejongh/drivebridge/pkg/logging"
	"github.com/sdejongh/drivebridge/pkg/models"
	"github.com/sdejongh/drivebridge/pkg/storage"
)

// Walker enumerates every regular file under a backend root.
//
// Traversal is depth-first with the children of each directory visited in
// name order, so a static tree always yields the same sequence. Hidden files
// are included. Pipes, sockets and device nodes are skipped. Symbolic links
// to regular files are yielded and read through, links to directories are
// not descended, and dangling links are yielded so the per-entry error path
// reports them.
type Walker struct {
	patterns []string
	logger   logging.Logger
}

// NewWalker creates a walker that skips paths matching any of the exclude
// patterns. Patterns use doublestar syntax and are matched against the
// slash-separated relative path; a bare name such as "*.tmp" or ".git"
// matches at any depth, and a trailing slash restricts a pattern to
// directories.
func NewWalker(patterns []string, logger logging.Logger) (*Walker, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	clean := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(strings.TrimSuffix(p, "/")) {
			return nil, &models.ValidationError{
				Field:   "ExcludePatterns",
				Message: fmt.Sprintf("invalid pattern %q", p),
			}
		}
		clean = append(clean, p)
	}

	return &Walker{patterns: clean, logger: logger}, nil
}

// Walk returns the relative paths of all files under the backend root
func (w *Walker) Walk(ctx context.Context, backend storage.Backend) ([]string, error) {
	root, err := backend.Stat(ctx, "")
	if err != nil {
		return nil, walkError("walk", backend.Root(), err)
	}
	if !root.IsDir {
		return nil, models.NewOpError(models.ErrPathNotFound, "walk", backend.Root(), errors.New("not a directory"))
	}

	var files []string
	if err := w.walkDir(ctx, backend, "", &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (w *Walker) walkDir(ctx context.Context, backend storage.Backend, dir string, files *[]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := backend.ReadDir(ctx, dir)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return walkError("read directory", backend.Abs(dir), err)
	}

	for _, entry := range entries {
		rel := entry.RelativePath

		if w.excluded(rel, entry.IsDir) {
			w.logger.Debug(ctx, "Excluded by pattern", logging.Fields{"path": rel})
			continue
		}

		switch {
		case entry.IsSymlink:
			target, err := backend.Stat(ctx, rel)
			switch {
			case err != nil:
				*files = append(*files, rel)
			case target.IsDir:
				w.logger.Debug(ctx, "Not following directory symlink", logging.Fields{"path": rel})
			case !target.IsRegular:
				w.logger.Debug(ctx, "Skipping symlink to non-regular file", logging.Fields{"path": rel})
			default:
				*files = append(*files, rel)
			}

		case entry.IsDir:
			if err := w.walkDir(ctx, backend, rel, files); err != nil {
				return err
			}

		case entry.IsRegular:
			*files = append(*files, rel)

		default:
			w.logger.Debug(ctx, "Skipping non-regular file", logging.Fields{"path": rel})
		}
	}

	return nil
}

// excluded reports whether rel matches one of the exclude patterns
func (w *Walker) excluded(rel string, isDir bool) bool {
	base := path.Base(rel)
	for _, pattern := range w.patterns {
		dirOnly := strings.HasSuffix(pattern, "/")
		if dirOnly {
			if !isDir {
				continue
			}
			pattern = strings.TrimSuffix(pattern, "/")
		}

		if strings.Contains(pattern, "/") {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				return true
			}
			continue
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// walkError maps a filesystem failure during enumeration onto the error kinds
func walkError(op, p string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return models.NewOpError(models.ErrPathNotFound, op, p, err)
	case errors.Is(err, fs.ErrPermission):
		return models.NewOpError(models.ErrAccess, op, p, err)
	default:
		return models.IOError(op, p, err)
	}
}
