/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestWorkerUnit_Start_Stop(t *testing.T) {
	t.Run("stop not gracefully", func(t *testing.T) {
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		}))
		fatalErr := make(chan error, 1)
		startDone := make(chan struct{})
		go func() {
			defer close(startDone)
			unit.Start(fatalErr)
		}()
		require.NoError(t, unit.Stop(false))
		<-startDone
		require.Len(t, fatalErr, 0)
	})

	t.Run("stop gracefully with exceeded timeout", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		unit := NewWorkerUnitWithOpts(WorkerFunc(func(ctx context.Context) error {
			<-release
			return nil
		}), WorkerUnitOpts{GracefulStopTimeout: time.Millisecond * 100})
		go unit.Start(make(chan error, 1))
		require.ErrorIs(t, unit.Stop(true), ErrWorkerUnitStopTimeoutExceeded)
	})

	t.Run("stop gracefully waits for worker", func(t *testing.T) {
		var finished atomic.Bool
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			time.Sleep(time.Millisecond * 50)
			finished.Store(true)
			return nil
		}))
		go unit.Start(make(chan error, 1))
		require.NoError(t, unit.Stop(true))
		require.True(t, finished.Load())
	})

	t.Run("worker error is fatal", func(t *testing.T) {
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			return errors.New("boom")
		}))
		fatalErr := make(chan error, 1)
		unit.Start(fatalErr)
		require.EqualError(t, <-fatalErr, "boom")
	})

	t.Run("periodic worker stop is not fatal", func(t *testing.T) {
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			return ErrPeriodicWorkerStop
		}))
		fatalErr := make(chan error, 1)
		unit.Start(fatalErr)
		require.Len(t, fatalErr, 0)
	})
}
