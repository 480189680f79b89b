package platform

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"Empty", "", true},
		{"Blank", "   ", true},
		{"NulByte", "a\x00b", true},
		{"Relative", "some/dir", false},
		{"Absolute", filepath.Join(os.TempDir(), "x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr {
				var pe *PathError
				assert.True(t, errors.As(err, &pe))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolveRoot(t *testing.T) {
	dir := t.TempDir()

	abs, err := ResolveRoot(filepath.Join(dir, "a", "..", "b") + string(filepath.Separator))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b"), abs)

	_, err = ResolveRoot("")
	assert.Error(t, err)
}

func TestCheckRoots(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	dst := filepath.Join(base, "dst")

	tests := []struct {
		name    string
		source  string
		target  string
		wantErr string
	}{
		{"Siblings", src, dst, ""},
		{"SharedPrefix", src, src + "-copy", ""},
		{"Identical", src, src, "cannot be the same"},
		{"TargetInsideSource", src, filepath.Join(src, "backup"), "target cannot be inside source"},
		{"SourceInsideTarget", filepath.Join(dst, "data"), dst, "source cannot be inside target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRoots(tt.source, tt.target)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestRunLock(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("runtime dir layout differs on windows")
	}

	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	xdg.Reload()

	target := filepath.Join(t.TempDir(), "target")

	first, err := AcquireRunLock(target)
	require.NoError(t, err)
	assert.Equal(t, LockPath(target), first.Path())

	_, err = AcquireRunLock(target)
	assert.ErrorIs(t, err, ErrLocked)

	other, err := AcquireRunLock(target + "-other")
	require.NoError(t, err, "different targets use different locks")
	require.NoError(t, other.Release())

	require.NoError(t, first.Release())
	require.NoError(t, first.Release())

	again, err := AcquireRunLock(target)
	require.NoError(t, err)
	assert.NoError(t, again.Release())
}
