package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sdejongh/drivebridge/pkg/compare"
	"github.com/sdejongh/drivebridge/pkg/logging"
	"github.com/sdejongh/drivebridge/pkg/models"
	"github.com/sdejongh/drivebridge/pkg/ratelimit"
	"github.com/sdejongh/drivebridge/pkg/storage"
)

// Log lines emitted by the executor
const (
	bannerStarted   = "=== File Synchronization Started ==="
	bannerCompleted = "=== File Synchronization Completed ==="
	lineIdentical   = "Action Required: None (files are identical)"
	lineMkdir       = "Creating directory structure if needed..."
	lineCopying     = "Copying file..."
	lineCopied      = "Copy completed successfully!"
)

// EventSink receives log events in the order they are produced
type EventSink func(models.LogEvent)

// Executor runs one synchronization pass over a source and target backend.
// Entries are processed strictly one after another in walk order.
type Executor struct {
	source     storage.Backend
	target     storage.Backend
	walker     *Walker
	comparator compare.Comparator
	copier     *OneWaySync
	logger     logging.Logger
	operation  *models.SyncOperation
}

// NewExecutor creates a new sync executor.
// When the operation sets a bandwidth limit, the same limiter throttles both
// hashing and copying reads.
func NewExecutor(
	source, target storage.Backend,
	comparator compare.Comparator,
	logger logging.Logger,
	operation *models.SyncOperation,
) (*Executor, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if err := operation.Validate(); err != nil {
		return nil, models.NewOpError(models.ErrInvalidInput, "configure", "", err)
	}

	walker, err := NewWalker(operation.ExcludePatterns, logger)
	if err != nil {
		return nil, models.NewOpError(models.ErrInvalidInput, "configure", "", err)
	}

	limiter := ratelimit.NewLimiter(operation.BandwidthLimit)
	if limiter != nil {
		if wrappable, ok := comparator.(interface{ SetReaderWrapper(compare.ReaderWrapper) }); ok {
			wrappable.SetReaderWrapper(func(ctx context.Context, rc io.ReadCloser) io.ReadCloser {
				return ratelimit.NewReadCloser(ctx, rc, limiter)
			})
		}
	}

	return &Executor{
		source:     source,
		target:     target,
		walker:     walker,
		comparator: comparator,
		copier:     NewOneWaySync(source, target, limiter),
		logger:     logger.WithFields(logging.Fields{"run_id": operation.ID}),
		operation:  operation,
	}, nil
}

// Run executes the synchronization and returns its outcome.
//
// The outcome is never nil. The returned error is non-nil only when the run
// did not complete: invalid roots (ErrInvalidInput), enumeration failures
// (ErrPathNotFound, ErrAccess) or cancellation. Per-entry failures are
// recorded in the outcome and downgrade its status to partial.
func (e *Executor) Run(ctx context.Context, emit EventSink) (*models.SyncOutcome, error) {
	outcome := &models.SyncOutcome{
		RunID:      e.operation.ID,
		SourcePath: e.source.Root(),
		TargetPath: e.target.Root(),
		DryRun:     e.operation.DryRun,
		StartTime:  time.Now(),
		Status:     models.StatusSuccess,
	}
	events := newEventLog(outcome, emit)

	if err := e.validateRoots(ctx); err != nil {
		return e.fail(ctx, events, outcome, err)
	}

	events.add(models.EventRunStarted, "", bannerStarted)
	events.add(models.EventRunStarted, "", "Source: "+e.source.Root())
	events.add(models.EventRunStarted, "", "Target: "+e.target.Root())
	if e.operation.DryRun {
		events.add(models.EventRunStarted, "", "Dry run: no files will be written")
	}

	e.logger.Info(ctx, "Starting sync run", logging.Fields{
		"source":  e.source.Root(),
		"target":  e.target.Root(),
		"dry_run": e.operation.DryRun,
	})

	files, err := e.walker.Walk(ctx, e.source)
	if err != nil {
		if ctx.Err() != nil {
			return e.finish(ctx, events, outcome, ctx.Err())
		}
		return e.fail(ctx, events, outcome, err)
	}

	outcome.Stats.FilesScanned = len(files)
	events.emit(models.LogEvent{
		Kind:    models.EventScanCompleted,
		Message: fmt.Sprintf("Found %d files in source directory", len(files)),
		Count:   len(files),
	})

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return e.finish(ctx, events, outcome, err)
		}

		result, dirCreated := e.processEntry(ctx, events, rel)
		if result.Failed() && ctx.Err() != nil {
			// interrupted mid-entry; the entry is neither done nor failed
			if dirCreated {
				outcome.Stats.DirsCreated++
			}
			return e.finish(ctx, events, outcome, ctx.Err())
		}
		outcome.Entries = append(outcome.Entries, result)
		e.tally(outcome, &result, dirCreated)
	}

	return e.finish(ctx, events, outcome, nil)
}

// validateRoots checks both roots exist and are directories before any I/O
func (e *Executor) validateRoots(ctx context.Context) error {
	roots := []struct {
		name    string
		backend storage.Backend
	}{
		{"source", e.source},
		{"target", e.target},
	}

	for _, root := range roots {
		info, err := root.backend.Stat(ctx, "")
		if err != nil {
			return models.NewOpError(models.ErrInvalidInput, "validate "+root.name, root.backend.Root(), err)
		}
		if !info.IsDir {
			return models.NewOpError(models.ErrInvalidInput, "validate "+root.name, root.backend.Root(),
				errors.New("not a directory"))
		}
	}
	return nil
}

// processEntry decides and applies one entry. It never returns an error:
// failures are logged and recorded on the result.
func (e *Executor) processEntry(ctx context.Context, events *eventLog, rel string) (models.EntryResult, bool) {
	start := time.Now()
	result := models.EntryResult{RelativePath: rel}

	events.add(models.EventEntryStarted, rel, "Processing: "+rel)
	events.add(models.EventEntryStarted, rel, "Source: "+e.source.Abs(rel))
	events.add(models.EventEntryStarted, rel, "Target: "+e.target.Abs(rel))

	cmp, err := e.comparator.Compare(ctx, e.source, e.target, rel)
	if err != nil {
		return e.entryFailed(ctx, events, result, start, err), false
	}

	result.Decision = cmp.Decision
	result.Reason = cmp.Reason
	if cmp.Compared {
		result.SourceHash = cmp.SourceHash.String()
		result.TargetHash = cmp.TargetHash.String()
		events.add(models.EventFingerprint, rel, "Source Hash: "+result.SourceHash)
		events.add(models.EventFingerprint, rel, "Target Hash: "+result.TargetHash)
	}

	if !e.copier.ShouldSync(cmp.Decision) {
		events.done(models.EventDecision, rel, lineIdentical)
		result.Duration = time.Since(start)
		return result, false
	}

	if e.operation.DryRun {
		events.done(models.EventDecision, rel, "Action Required: "+cmp.Reason+" (dry run, not copied)")
		result.Duration = time.Since(start)
		return result, false
	}

	events.add(models.EventDecision, rel, "Action Required: "+cmp.Reason)
	events.add(models.EventDirCreate, rel, lineMkdir)

	dirCreated, err := e.copier.EnsureParent(ctx, rel)
	if err != nil {
		return e.entryFailed(ctx, events, result, start, err), false
	}

	events.add(models.EventCopyStarted, rel, lineCopying)

	written, err := e.copier.CopyFile(ctx, rel)
	if err != nil {
		return e.entryFailed(ctx, events, result, start, err), dirCreated
	}

	result.BytesCopied = written
	result.Duration = time.Since(start)
	events.done(models.EventCopyCompleted, rel, lineCopied)

	e.logger.Debug(ctx, "Entry synchronized", logging.Fields{
		"path":     rel,
		"decision": string(result.Decision),
		"bytes":    written,
	})

	return result, dirCreated
}

func (e *Executor) entryFailed(ctx context.Context, events *eventLog, result models.EntryResult, start time.Time, err error) models.EntryResult {
	result.Error = err.Error()
	result.Duration = time.Since(start)

	if ctx.Err() != nil {
		e.logger.Debug(ctx, "Entry interrupted", logging.Fields{"path": result.RelativePath})
		return result
	}

	events.done(models.EventEntryFailed, result.RelativePath,
		fmt.Sprintf("Error processing %s: %v", result.RelativePath, err))

	e.logger.Error(ctx, "Failed to process entry", err, logging.Fields{
		"path":     result.RelativePath,
		"decision": string(result.Decision),
	})

	return result
}

// tally folds one entry result into the outcome counters
func (e *Executor) tally(outcome *models.SyncOutcome, result *models.EntryResult, dirCreated bool) {
	if dirCreated {
		outcome.Stats.DirsCreated++
	}

	if result.Failed() {
		outcome.Stats.FilesFailed++
		outcome.Errors = append(outcome.Errors, models.SyncError{
			FilePath:  result.RelativePath,
			Decision:  result.Decision,
			Error:     result.Error,
			Timestamp: time.Now(),
		})
		return
	}

	switch result.Decision {
	case models.DecisionCreate:
		outcome.Stats.FilesCreated++
	case models.DecisionReplace:
		outcome.Stats.FilesReplaced++
	case models.DecisionSkip:
		outcome.Stats.FilesSkipped++
	}
	outcome.Stats.BytesCopied += result.BytesCopied
}

// finish emits the closing banner and summary. cancelErr is non-nil when the
// run stopped early because ctx was done.
func (e *Executor) finish(ctx context.Context, events *eventLog, outcome *models.SyncOutcome, cancelErr error) (*models.SyncOutcome, error) {
	switch {
	case cancelErr != nil:
		outcome.Status = models.StatusCancelled
		outcome.Fatal = "synchronization cancelled"
		events.add(models.EventRunCompleted, "", "Synchronization cancelled")
	case outcome.Stats.FilesFailed > 0:
		outcome.Status = models.StatusPartial
	default:
		outcome.Status = models.StatusSuccess
	}

	events.add(models.EventRunCompleted, "", bannerCompleted)
	events.add(models.EventRunCompleted, "", outcome.Summary())

	stamp(outcome)

	fields := logging.Fields{
		"status":   string(outcome.Status),
		"scanned":  outcome.Stats.FilesScanned,
		"created":  outcome.Stats.FilesCreated,
		"replaced": outcome.Stats.FilesReplaced,
		"skipped":  outcome.Stats.FilesSkipped,
		"failed":   outcome.Stats.FilesFailed,
		"bytes":    outcome.Stats.BytesCopied,
		"duration": outcome.Duration.String(),
	}
	if cancelErr != nil {
		e.logger.Warn(ctx, "Sync run cancelled", fields)
		return outcome, cancelErr
	}
	e.logger.Info(ctx, "Sync run completed", fields)
	return outcome, nil
}

// fail reports a fatal error and closes the outcome
func (e *Executor) fail(ctx context.Context, events *eventLog, outcome *models.SyncOutcome, err error) (*models.SyncOutcome, error) {
	failOutcome(events, outcome, err)
	e.logger.Error(ctx, "Sync run failed", err, logging.Fields{
		"source": outcome.SourcePath,
		"target": outcome.TargetPath,
	})
	return outcome, err
}

func stamp(outcome *models.SyncOutcome) {
	outcome.EndTime = time.Now()
	outcome.Duration = outcome.EndTime.Sub(outcome.StartTime)
}

// failOutcome marks outcome as failed with err and emits the single
// run_failed event
func failOutcome(events *eventLog, outcome *models.SyncOutcome, err error) {
	outcome.Status = models.StatusFailed
	outcome.Fatal = err.Error()
	events.add(models.EventRunFailed, "", "Error: "+err.Error())
	stamp(outcome)
}
