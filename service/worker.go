/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/acronis/go-busy/log"
)

// ErrPeriodicWorkerStop may be returned by the underlying worker to break PeriodicWorker's loop without an error.
var ErrPeriodicWorkerStop = errors.New("stop periodic worker")

// Worker is one unit of background work, e.g. a single probing round.
type Worker interface {
	Run(ctx context.Context) error
}

// WorkerFunc lets a plain function be a Worker.
type WorkerFunc func(ctx context.Context) error

// Run implements Worker interface.
func (f WorkerFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// IntervalDelayFunc calculates a delay before the next iteration of PeriodicWorker.
type IntervalDelayFunc func(worker Worker, err error) time.Duration

// PeriodicWorkerOpts represents an options for PeriodicWorker.
type PeriodicWorkerOpts struct {
	// InitialDelay is a delay before the first iteration.
	InitialDelay time.Duration

	// IntervalDelayFunc overrides the constant interval delay (e.g. to back off after a failed iteration).
	IntervalDelayFunc IntervalDelayFunc

	// Name is used in log messages.
	Name string
}

// PeriodicWorker runs the underlying worker again and again until the context is done.
// busymon uses it for probing targets.
type PeriodicWorker struct {
	worker        Worker
	logger        log.FieldLogger
	intervalDelay time.Duration
	opts          PeriodicWorkerOpts
}

// NewPeriodicWorker creates a PeriodicWorker that waits intervalDelay between iterations.
func NewPeriodicWorker(worker Worker, intervalDelay time.Duration, logger log.FieldLogger) *PeriodicWorker {
	return NewPeriodicWorkerWithOpts(worker, intervalDelay, logger, PeriodicWorkerOpts{})
}

// NewPeriodicWorkerWithOpts is a more configurable version of NewPeriodicWorker.
func NewPeriodicWorkerWithOpts(
	worker Worker, intervalDelay time.Duration, logger log.FieldLogger, opts PeriodicWorkerOpts,
) *PeriodicWorker {
	if opts.Name == "" {
		opts.Name = "periodic worker"
	}
	if opts.IntervalDelayFunc == nil {
		opts.IntervalDelayFunc = func(Worker, error) time.Duration { return intervalDelay }
	}
	return &PeriodicWorker{worker: worker, logger: logger, intervalDelay: intervalDelay, opts: opts}
}

// Run runs the loop. Errors of the underlying worker are logged and don't break the loop,
// except ErrPeriodicWorkerStop which stops it and is returned to the caller.
func (pw *PeriodicWorker) Run(ctx context.Context) (resErr error) {
	logger := pw.logger.With(log.String("worker", pw.opts.Name))
	defer func() {
		if p := recover(); p != nil {
			stack := make([]byte, 8192)
			stack = stack[:runtime.Stack(stack, false)]
			logger.Error(fmt.Sprintf("panic: %+v", p), log.Bytes("stack", stack))
			panic(p)
		}
		if resErr != nil && !errors.Is(resErr, ErrPeriodicWorkerStop) {
			logger.Error("periodic worker stopped with error", log.Error(resErr))
			return
		}
		logger.Info("periodic worker stopped")
	}()

	logger.Info("starting periodic worker", log.Duration("initial_delay", pw.opts.InitialDelay), log.Duration("interval", pw.intervalDelay))

	timer := time.NewTimer(pw.opts.InitialDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		err := pw.worker.Run(ctx)
		if err != nil {
			if errors.Is(err, ErrPeriodicWorkerStop) {
				return err
			}
			logger.Warn("periodic worker iteration failed", log.Error(err))
		}
		timer.Reset(pw.opts.IntervalDelayFunc(pw.worker, err))
	}
}
