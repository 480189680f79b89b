package ratelimit

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewLimiter tests the Limiter constructor
func TestNewLimiter(t *testing.T) {
	t.Run("ValidBytesPerSecond", func(t *testing.T) {
		limiter := NewLimiter(1024 * 1024)
		require.NotNil(t, limiter)
		assert.Equal(t, int64(1024*1024), limiter.BytesPerSecond())
	})

	t.Run("ZeroBytesPerSecond", func(t *testing.T) {
		assert.Nil(t, NewLimiter(0))
	})

	t.Run("NegativeBytesPerSecond", func(t *testing.T) {
		assert.Nil(t, NewLimiter(-100))
	})

	t.Run("SmallBytesPerSecond", func(t *testing.T) {
		limiter := NewLimiter(1000)
		require.NotNil(t, limiter)
		assert.Equal(t, 65536, limiter.Burst())
	})

	t.Run("LargeBytesPerSecond", func(t *testing.T) {
		limiter := NewLimiter(100 * 1024 * 1024)
		require.NotNil(t, limiter)
		assert.Equal(t, 100*1024*1024, limiter.Burst())
	})
}

func TestNewReader(t *testing.T) {
	t.Run("NilLimiterReturnsOriginal", func(t *testing.T) {
		src := strings.NewReader("data")
		assert.Same(t, src, NewReader(context.Background(), src, nil).(*strings.Reader))
	})

	t.Run("WithLimiter", func(t *testing.T) {
		r := NewReader(context.Background(), strings.NewReader("data"), NewLimiter(1024))
		_, ok := r.(*Reader)
		assert.True(t, ok)
	})
}

func TestReaderRead(t *testing.T) {
	t.Run("BasicRead", func(t *testing.T) {
		data := []byte("hello, rate limited world")
		r := NewReader(context.Background(), bytes.NewReader(data), NewLimiter(1024*1024))

		got, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("ContextCancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r := NewReader(ctx, strings.NewReader("data"), NewLimiter(1024))
		_, err := r.Read(make([]byte, 4))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("ReadsAreCappedAtBurst", func(t *testing.T) {
		limiter := NewLimiter(1000)
		r := NewReader(context.Background(), bytes.NewReader(make([]byte, 200*1024)), limiter)

		n, err := r.Read(make([]byte, 200*1024))
		require.NoError(t, err)
		assert.Equal(t, limiter.Burst(), n)
	})
}

func TestReadCloser(t *testing.T) {
	t.Run("NilLimiterReturnsOriginal", func(t *testing.T) {
		rc := io.NopCloser(strings.NewReader("data"))
		assert.Equal(t, rc, NewReadCloser(context.Background(), rc, nil))
	})

	t.Run("CloseAfterRead", func(t *testing.T) {
		closer := &closeTracker{Reader: strings.NewReader("payload")}
		rc := NewReadCloser(context.Background(), closer, NewLimiter(1024*1024))

		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(got))
		require.NoError(t, rc.Close())
		assert.True(t, closer.closed)
	})
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestRateLimiting(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing test in short mode")
	}

	t.Run("SlowRate", func(t *testing.T) {
		// 64KB/s with a 64KB burst: the second 16KB must wait ~250ms
		limiter := NewLimiter(64 * 1024)
		data := make([]byte, 80*1024)
		r := NewReader(context.Background(), bytes.NewReader(data), limiter)

		start := time.Now()
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Len(t, got, len(data))
		assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	})
}

func TestParseBandwidth(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"1024", 1024, false},
		{"10M", 10 * 1000 * 1000, false},
		{"512KiB", 512 * 1024, false},
		{"1GiB", 1 << 30, false},
		{"fast", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBandwidth(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
