package compare

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/drivebridge/pkg/models"
	"github.com/sdejongh/drivebridge/pkg/storage"
)

// MD5Comparator decides per entry by comparing whole-file MD5 digests.
// A missing target short-circuits to a create without hashing the source.
type MD5Comparator struct {
	digester *Digester
}

// NewMD5Comparator creates a new MD5-based comparator
func NewMD5Comparator(bufferSize int) *MD5Comparator {
	return &MD5Comparator{digester: NewDigester(bufferSize)}
}

// SetReaderWrapper sets a function to wrap readers (e.g., for rate limiting)
func (c *MD5Comparator) SetReaderWrapper(wrapper ReaderWrapper) {
	c.digester.SetReaderWrapper(wrapper)
}

// Digester returns the digester used for fingerprinting
func (c *MD5Comparator) Digester() *Digester {
	return c.digester
}

// Compare decides whether path must be created, replaced or skipped
func (c *MD5Comparator) Compare(ctx context.Context, source, target storage.Backend, path string) (*Comparison, error) {
	targetExists, err := target.Exists(ctx, path)
	if err != nil {
		return nil, models.IOError("check target", path, err)
	}
	if !targetExists {
		return &Comparison{
			RelativePath: path,
			Decision:     models.DecisionCreate,
			Reason:       models.DecisionCreate.Reason(),
		}, nil
	}

	// Hash both sides in parallel
	var sourceHash, targetHash models.Fingerprint
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sourceHash, err = c.digester.Fingerprint(gctx, source, path)
		return err
	})
	g.Go(func() error {
		var err error
		targetHash, err = c.digester.Fingerprint(gctx, target, path)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	decision := models.DecisionSkip
	if sourceHash != targetHash {
		decision = models.DecisionReplace
	}

	return &Comparison{
		RelativePath: path,
		Decision:     decision,
		Reason:       decision.Reason(),
		Compared:     true,
		SourceHash:   sourceHash,
		TargetHash:   targetHash,
	}, nil
}

// Name returns the comparator name
func (c *MD5Comparator) Name() string {
	return "md5"
}
