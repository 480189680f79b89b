package models

import (
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============== Decision Tests ==============

func TestDecision(t *testing.T) {
	tests := []struct {
		decision     Decision
		reason       string
		requiresCopy bool
	}{
		{DecisionCreate, "new file", true},
		{DecisionReplace, "modified file", true},
		{DecisionSkip, "unchanged", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.decision), func(t *testing.T) {
			assert.Equal(t, tt.reason, tt.decision.Reason())
			assert.Equal(t, tt.requiresCopy, tt.decision.RequiresCopy())
		})
	}
}

func TestFingerprint(t *testing.T) {
	t.Run("ZeroValue", func(t *testing.T) {
		var f Fingerprint
		assert.True(t, f.IsZero())
		assert.Equal(t, "00000000000000000000000000000000", f.String())
	})

	t.Run("LowercaseHex", func(t *testing.T) {
		f := Fingerprint{0xAB, 0xCD, 0xEF}
		assert.False(t, f.IsZero())
		assert.Len(t, f.String(), 32)
		assert.Equal(t, "abcdef", f.String()[:6])

		text, err := f.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, f.String(), string(text))
	})
}

func TestEntryResultFailed(t *testing.T) {
	assert.False(t, (&EntryResult{RelativePath: "a"}).Failed())
	assert.True(t, (&EntryResult{RelativePath: "a", Error: "boom"}).Failed())
}

// ============== SyncOperation Tests ==============

func TestSyncOperationValidate(t *testing.T) {
	valid := func() *SyncOperation {
		return &SyncOperation{
			SourcePath: "/source",
			TargetPath: "/target",
			BufferSize: 4096,
		}
	}

	t.Run("ValidOperation", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	tests := []struct {
		name   string
		mutate func(op *SyncOperation)
		field  string
	}{
		{"EmptySourcePath", func(op *SyncOperation) { op.SourcePath = "" }, "SourcePath"},
		{"EmptyTargetPath", func(op *SyncOperation) { op.TargetPath = "" }, "TargetPath"},
		{"SmallBufferSize", func(op *SyncOperation) { op.BufferSize = 512 }, "BufferSize"},
		{"NegativeBandwidth", func(op *SyncOperation) { op.BandwidthLimit = -1 }, "BandwidthLimit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := valid()
			tt.mutate(op)

			err := op.Validate()
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "TestField", Message: "test message"}
	assert.Equal(t, "TestField: test message", err.Error())
}

// ============== Error Tests ==============

func TestOpError(t *testing.T) {
	t.Run("MatchesKindAndCause", func(t *testing.T) {
		err := IOError("copy", "a/b.txt", fs.ErrPermission)

		assert.True(t, errors.Is(err, ErrIO))
		assert.True(t, errors.Is(err, fs.ErrPermission))
		assert.False(t, errors.Is(err, ErrInvalidInput))
		assert.Equal(t, "copy a/b.txt: permission denied", err.Error())
	})

	t.Run("NoCause", func(t *testing.T) {
		err := NewOpError(ErrPathNotFound, "walk", "/root", nil)
		assert.True(t, errors.Is(err, ErrPathNotFound))
		assert.Equal(t, "walk /root: path not found", err.Error())
	})

	t.Run("NoPath", func(t *testing.T) {
		err := NewOpError(ErrInvalidInput, "validate", "", errors.New("missing roots"))
		assert.Equal(t, "validate: missing roots", err.Error())
	})

	t.Run("As", func(t *testing.T) {
		var wrapped error = IOError("fingerprint", "x", errors.New("eof"))

		var opErr *OpError
		require.True(t, errors.As(wrapped, &opErr))
		assert.Equal(t, "fingerprint", opErr.Op)
		assert.Equal(t, ErrIO, opErr.Kind)
	})
}

// ============== SyncOutcome Tests ==============

func TestSyncStatusExitCode(t *testing.T) {
	tests := []struct {
		status SyncStatus
		code   int
	}{
		{StatusSuccess, 0},
		{StatusPartial, 1},
		{StatusFailed, 2},
		{StatusCancelled, 3},
		{SyncStatus("unknown"), 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.code, tt.status.ExitCode())
		})
	}
}

func TestSyncOutcome(t *testing.T) {
	outcome := &SyncOutcome{
		StartTime: time.Now(),
		Stats: Statistics{
			FilesScanned:  10,
			FilesCreated:  3,
			FilesReplaced: 2,
			FilesSkipped:  4,
			FilesFailed:   1,
		},
		Status: StatusPartial,
	}

	assert.Equal(t, "Scanned 10 files: 3 created, 2 replaced, 4 skipped, 1 failed", outcome.Summary())
	assert.True(t, outcome.Succeeded())

	outcome.Status = StatusFailed
	assert.False(t, outcome.Succeeded())

	outcome.Status = StatusCancelled
	assert.False(t, outcome.Succeeded())
}

func TestLogEventString(t *testing.T) {
	ev := LogEvent{Seq: 1, Kind: EventEntryStarted, RelativePath: "a", Message: "Processing: a"}
	assert.Equal(t, "Processing: a", ev.String())
}
