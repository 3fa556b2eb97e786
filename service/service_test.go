/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/acronis/go-busy/log"
	"github.com/acronis/go-busy/log/logtest"
)

func TestService_Start(t *testing.T) {
	logRecorder := logtest.NewRecorder()
	var running atomic.Int32
	unit := newBlockingUnit("server", &running, nil)
	svc := New(logRecorder, unit)

	startErr := make(chan error, 1)
	go func() { startErr <- svc.Start() }()
	require.NoError(t, waitTrue(func() bool { return running.Load() == 1 }, time.Second*3))

	svc.Signals <- os.Interrupt

	require.NoError(t, <-startErr)
	require.NoError(t, waitTrue(func() bool { return running.Load() == 0 }, time.Second*3))
	require.Equal(t, 1, unit.metricsRegistered)
	require.Equal(t, 1, unit.metricsUnregistered)
	_, graceful := unit.stopCounts()
	require.Equal(t, 1, graceful)

	_, found := logRecorder.FindEntry("service got signal")
	require.True(t, found)
}

func TestService_StartContext(t *testing.T) {
	ctx, ctxCancel := context.WithCancel(context.Background())
	defer ctxCancel()

	var running atomic.Int32
	unit := newBlockingUnit("server", &running, nil)
	svc := New(logtest.NewRecorder(), unit)

	startErr := make(chan error, 1)
	go func() { startErr <- svc.StartContext(ctx) }()
	require.NoError(t, waitTrue(func() bool { return running.Load() == 1 }, time.Second*3))

	ctxCancel()

	require.NoError(t, <-startErr)
	_, graceful := unit.stopCounts()
	require.Equal(t, 1, graceful)
}

func TestService_StartContext_FatalError(t *testing.T) {
	logRecorder := logtest.NewRecorder()
	fatal := errors.New("listen failed")
	svc := New(logRecorder, unitFunc(func(fatalError chan<- error) { fatalError <- fatal }))

	err := svc.StartContext(context.Background())
	require.ErrorIs(t, err, fatal)

	entry, found := logRecorder.FindEntry("service fatal error")
	require.True(t, found)
	require.Equal(t, log.LevelError, entry.Level)
	_, found = entry.FindField("error")
	require.True(t, found)
}

type unitFunc func(fatalError chan<- error)

func (f unitFunc) Start(fatalError chan<- error) { f(fatalError) }

func (f unitFunc) Stop(bool) error { return nil }
