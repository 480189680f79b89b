package compare

import (
	"context"
	"io"

	"github.com/sdejongh/drivebridge/pkg/models"
	"github.com/sdejongh/drivebridge/pkg/storage"
)

// Comparison holds the decision reached for one relative entry
type Comparison struct {
	RelativePath string
	Decision     models.Decision
	Reason       string
	// Compared is true when both sides were fingerprinted
	Compared   bool
	SourceHash models.Fingerprint
	TargetHash models.Fingerprint
}

// Comparator decides, per relative entry, whether a copy is required.
// Implementations perform no writes.
type Comparator interface {
	// Compare inspects the entry on both backends and returns the decision
	Compare(ctx context.Context, source, target storage.Backend, path string) (*Comparison, error)

	// Name returns the name of the comparison method
	Name() string
}

// ReaderWrapper wraps readers opened for hashing (e.g., for rate limiting)
type ReaderWrapper func(ctx context.Context, rc io.ReadCloser) io.ReadCloser
