package sync

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/drivebridge/pkg/compare"
	"github.com/sdejongh/drivebridge/pkg/logging"
	"github.com/sdejongh/drivebridge/pkg/models"
	"github.com/sdejongh/drivebridge/pkg/storage"
)

// DefaultBufferSize is the read chunk used for hashing when none is configured
const DefaultBufferSize = 64 * 1024

var errMissingRoots = errors.New("please select both source and target folders")

// eventBuffer decouples the worker from a slow log consumer
const eventBuffer = 256

// LogFunc receives one log event. Calls for a run never overlap and arrive in
// production order.
type LogFunc func(models.LogEvent)

// CompleteFunc receives the terminal result of a run, exactly once, after
// every LogFunc call for that run. err is nil on success and partial runs.
type CompleteFunc func(outcome *models.SyncOutcome, err error)

// Dispatcher marshals callbacks onto the caller's context, typically a UI
// event loop. Implementations must run callbacks in submission order.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatchFunc adapts a function to the Dispatcher interface
type DispatchFunc func(fn func())

// Dispatch calls f(fn)
func (f DispatchFunc) Dispatch(fn func()) {
	f(fn)
}

// RunnerConfig holds the settings applied to every run started by a Runner
type RunnerConfig struct {
	ExcludePatterns []string
	DryRun          bool
	BufferSize      int
	BandwidthLimit  int64
	Logger          logging.Logger
	// Dispatcher defaults to invoking callbacks on the runner's own
	// delivery goroutine
	Dispatcher Dispatcher
}

// Runner executes synchronization runs off the caller's goroutine, one at a
// time
type Runner struct {
	config RunnerConfig

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewRunner creates a runner
func NewRunner(config RunnerConfig) *Runner {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}
	if config.Logger == nil {
		config.Logger = logging.NewNullLogger()
	}
	return &Runner{config: config}
}

// Start begins a run and returns immediately. It returns
// models.ErrRunInProgress if a previous run has not delivered its completion
// yet. Every other failure, including invalid roots, is reported through
// onComplete. Cancelling ctx stops the run between entries.
func (r *Runner) Start(ctx context.Context, source, target string, onLog LogFunc, onComplete CompleteFunc) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return models.ErrRunInProgress
	}
	r.running = true
	done := make(chan struct{})
	r.done = done
	r.mu.Unlock()

	type completion struct {
		outcome *models.SyncOutcome
		err     error
	}

	events := make(chan models.LogEvent, eventBuffer)
	finished := make(chan completion, 1)

	// Worker
	go func() {
		outcome, err := r.execute(ctx, source, target, func(ev models.LogEvent) {
			events <- ev
		})
		close(events)
		finished <- completion{outcome: outcome, err: err}
	}()

	// Delivery
	go func() {
		for ev := range events {
			ev := ev
			r.dispatch(func() {
				if onLog != nil {
					onLog(ev)
				}
			})
		}

		c := <-finished
		r.dispatch(func() {
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()

			if onComplete != nil {
				onComplete(c.outcome, c.err)
			}
			close(done)
		})
	}()

	return nil
}

// Running reports whether a run is in flight
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Wait blocks until the most recently started run has delivered its
// completion callback and that callback has returned. It must not be called
// from onLog or onComplete: with the default dispatcher the callbacks run on
// the delivery goroutine, which Wait is waiting for.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (r *Runner) dispatch(fn func()) {
	if r.config.Dispatcher != nil {
		r.config.Dispatcher.Dispatch(fn)
		return
	}
	fn()
}

// execute builds the backends and executor for one run and runs it
func (r *Runner) execute(ctx context.Context, source, target string, emit EventSink) (*models.SyncOutcome, error) {
	operation := &models.SyncOperation{
		ID:              uuid.NewString(),
		SourcePath:      source,
		TargetPath:      target,
		ExcludePatterns: r.config.ExcludePatterns,
		DryRun:          r.config.DryRun,
		BandwidthLimit:  r.config.BandwidthLimit,
		BufferSize:      r.config.BufferSize,
		CreatedAt:       time.Now(),
	}

	if strings.TrimSpace(source) == "" || strings.TrimSpace(target) == "" {
		return reject(operation, emit, models.NewOpError(models.ErrInvalidInput, "validate", "", errMissingRoots))
	}

	sourceBackend, err := storage.NewLocal(source)
	if err != nil {
		return reject(operation, emit, models.NewOpError(models.ErrInvalidInput, "validate source", source, err))
	}
	defer sourceBackend.Close()

	targetBackend, err := storage.NewLocal(target)
	if err != nil {
		return reject(operation, emit, models.NewOpError(models.ErrInvalidInput, "validate target", target, err))
	}
	defer targetBackend.Close()

	executor, err := NewExecutor(
		sourceBackend,
		targetBackend,
		compare.NewMD5Comparator(operation.BufferSize),
		r.config.Logger,
		operation,
	)
	if err != nil {
		return reject(operation, emit, err)
	}

	return executor.Run(ctx, emit)
}

// reject fails a run before an executor exists
func reject(operation *models.SyncOperation, emit EventSink, err error) (*models.SyncOutcome, error) {
	outcome := &models.SyncOutcome{
		RunID:      operation.ID,
		SourcePath: operation.SourcePath,
		TargetPath: operation.TargetPath,
		DryRun:     operation.DryRun,
		StartTime:  time.Now(),
	}
	failOutcome(newEventLog(outcome, emit), outcome, err)
	return outcome, err
}
