package compare

import (
	"context"
	"crypto/md5"
	"errors"
	"io"
	"sync"

	"github.com/sdejongh/drivebridge/pkg/models"
	"github.com/sdejongh/drivebridge/pkg/storage"
)

// minBufferSize is the smallest chunk streamed through the hash
const minBufferSize = 4096

// Digester computes content fingerprints by streaming whole files through MD5
type Digester struct {
	bufferPool    *sync.Pool
	readerWrapper ReaderWrapper
}

// NewDigester creates a digester reading in chunks of bufferSize bytes
func NewDigester(bufferSize int) *Digester {
	if bufferSize < minBufferSize {
		bufferSize = minBufferSize
	}
	return &Digester{
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// SetReaderWrapper sets a function to wrap readers (e.g., for rate limiting)
func (d *Digester) SetReaderWrapper(wrapper ReaderWrapper) {
	d.readerWrapper = wrapper
}

// Fingerprint reads the full content of path and returns its MD5 digest.
// The file is closed on every return path.
func (d *Digester) Fingerprint(ctx context.Context, backend storage.Backend, path string) (models.Fingerprint, error) {
	var sum models.Fingerprint

	reader, err := backend.Read(ctx, path)
	if err != nil {
		return sum, models.IOError("fingerprint", path, err)
	}
	defer reader.Close()

	if d.readerWrapper != nil {
		reader = d.readerWrapper(ctx, reader)
	}

	hash := md5.New()
	bufPtr := d.bufferPool.Get().(*[]byte)
	defer d.bufferPool.Put(bufPtr)
	buf := *bufPtr

	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		n, err := reader.Read(buf)
		if n > 0 {
			hash.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, models.IOError("fingerprint", path, err)
		}
	}

	copy(sum[:], hash.Sum(nil))
	return sum, nil
}

// Sum fingerprints an in-memory byte slice
func Sum(data []byte) models.Fingerprint {
	return models.Fingerprint(md5.Sum(data))
}
