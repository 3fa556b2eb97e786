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

	"github.com/acronis/go-busy/log"
	"github.com/acronis/go-busy/log/logtest"
)

func TestPeriodicWorker_Run(t *testing.T) {
	t.Run("stopped by context", func(t *testing.T) {
		var c atomic.Int32
		pw := NewPeriodicWorker(WorkerFunc(func(ctx context.Context) error {
			c.Inc()
			return nil
		}), time.Millisecond*50, log.NewDisabledLogger())

		ctx, ctxCancel := context.WithTimeout(context.Background(), time.Millisecond*275)
		defer ctxCancel()

		require.NoError(t, pw.Run(ctx))
		require.GreaterOrEqual(t, int(c.Load()), 4)
		require.LessOrEqual(t, int(c.Load()), 7)
	})

	t.Run("stopped by worker", func(t *testing.T) {
		c := 0
		pw := NewPeriodicWorker(WorkerFunc(func(ctx context.Context) error {
			c++
			if c == 2 {
				return ErrPeriodicWorkerStop
			}
			return nil
		}), time.Millisecond*10, log.NewDisabledLogger())

		ctx, ctxCancel := context.WithTimeout(context.Background(), time.Minute)
		defer ctxCancel()

		require.ErrorIs(t, pw.Run(ctx), ErrPeriodicWorkerStop)
		require.Equal(t, 2, c)
		require.NoError(t, ctx.Err())
	})

	t.Run("initial delay", func(t *testing.T) {
		var c atomic.Int32
		pw := NewPeriodicWorkerWithOpts(WorkerFunc(func(ctx context.Context) error {
			c.Inc()
			return nil
		}), time.Millisecond*10, log.NewDisabledLogger(), PeriodicWorkerOpts{InitialDelay: time.Hour})

		ctx, ctxCancel := context.WithTimeout(context.Background(), time.Millisecond*100)
		defer ctxCancel()

		require.NoError(t, pw.Run(ctx))
		require.Equal(t, int32(0), c.Load())
	})

	t.Run("failed iteration is logged and loop continues", func(t *testing.T) {
		logRecorder := logtest.NewRecorder()
		var delays []bool
		c := 0
		pw := NewPeriodicWorkerWithOpts(WorkerFunc(func(ctx context.Context) error {
			c++
			switch c {
			case 1:
				return errors.New("probe failed")
			case 3:
				return ErrPeriodicWorkerStop
			}
			return nil
		}), time.Millisecond*10, logRecorder, PeriodicWorkerOpts{
			Name: "prober",
			IntervalDelayFunc: func(_ Worker, err error) time.Duration {
				delays = append(delays, err != nil)
				return time.Millisecond
			},
		})

		require.ErrorIs(t, pw.Run(context.Background()), ErrPeriodicWorkerStop)
		require.Equal(t, 3, c)
		require.Equal(t, []bool{true, false}, delays)

		entry, found := logRecorder.FindEntry("periodic worker iteration failed")
		require.True(t, found)
		require.Equal(t, log.LevelWarn, entry.Level)
		workerField, found := entry.FindField("worker")
		require.True(t, found)
		require.Equal(t, "prober", string(workerField.Bytes))
	})
}
