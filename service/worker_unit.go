/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"time"
)

// ErrWorkerUnitStopTimeoutExceeded is returned by WorkerUnit.Stop when the worker doesn't finish in time.
var ErrWorkerUnitStopTimeoutExceeded = errors.New("worker unit stop timeout exceeded")

// WorkerUnitOpts contains optional parameters for constructing WorkerUnit.
type WorkerUnitOpts struct {
	MetricsRegisterer MetricsRegisterer

	// GracefulStopTimeout limits the graceful stop. Zero means waiting without limit.
	GracefulStopTimeout time.Duration
}

// WorkerUnit presents Worker as Unit: Start runs the worker and Stop cancels its context.
type WorkerUnit struct {
	worker    Worker
	opts      WorkerUnitOpts
	ctx       context.Context
	ctxCancel context.CancelFunc
	done      chan struct{}
}

var _ Unit = (*WorkerUnit)(nil)

// NewWorkerUnit creates a new instance of WorkerUnit.
func NewWorkerUnit(worker Worker) *WorkerUnit {
	return NewWorkerUnitWithOpts(worker, WorkerUnitOpts{})
}

// NewWorkerUnitWithOpts creates a new instance of WorkerUnit with options.
func NewWorkerUnitWithOpts(worker Worker, opts WorkerUnitOpts) *WorkerUnit {
	ctx, ctxCancel := context.WithCancel(context.Background())
	return &WorkerUnit{worker: worker, opts: opts, ctx: ctx, ctxCancel: ctxCancel, done: make(chan struct{})}
}

// Start runs the underlying worker and blocks until it returns.
// ErrPeriodicWorkerStop isn't treated as a fatal error.
func (u *WorkerUnit) Start(fatalError chan<- error) {
	defer close(u.done)
	if err := u.worker.Run(u.ctx); err != nil && !errors.Is(err, ErrPeriodicWorkerStop) {
		fatalError <- err
	}
}

// Stop cancels the worker context and, if gracefully is true, waits until the worker returns.
func (u *WorkerUnit) Stop(gracefully bool) error {
	u.ctxCancel()
	if !gracefully {
		return nil
	}
	if u.opts.GracefulStopTimeout == 0 {
		<-u.done
		return nil
	}
	timer := time.NewTimer(u.opts.GracefulStopTimeout)
	defer timer.Stop()
	select {
	case <-u.done:
		return nil
	case <-timer.C:
		return ErrWorkerUnitStopTimeoutExceeded
	}
}

// MustRegisterMetrics implements MetricsRegisterer interface.
func (u *WorkerUnit) MustRegisterMetrics() {
	if u.opts.MetricsRegisterer != nil {
		u.opts.MetricsRegisterer.MustRegisterMetrics()
	}
}

// UnregisterMetrics implements MetricsRegisterer interface.
func (u *WorkerUnit) UnregisterMetrics() {
	if u.opts.MetricsRegisterer != nil {
		u.opts.MetricsRegisterer.UnregisterMetrics()
	}
}
