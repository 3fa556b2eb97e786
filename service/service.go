/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/acronis/go-busy/log"
)

// Opts represents an options for Service.
type Opts struct {
	// ShutdownSignals trigger a graceful stop. SIGINT and SIGTERM are used by New.
	ShutdownSignals []os.Signal
}

// Service is the top of busymon's lifecycle: it runs a unit until a shutdown signal arrives,
// the context is done, or the unit reports a fatal error.
type Service struct {
	Unit   Unit
	Logger log.FieldLogger
	Opts   Opts

	// Signals receives the OS signals. Tests may send to it directly.
	Signals chan os.Signal
}

// New creates a Service stopped by SIGINT and SIGTERM.
func New(logger log.FieldLogger, unit Unit) *Service {
	return NewWithOpts(logger, unit, Opts{ShutdownSignals: []os.Signal{syscall.SIGINT, syscall.SIGTERM}})
}

// NewWithOpts is a more configurable version of New.
func NewWithOpts(logger log.FieldLogger, unit Unit, opts Opts) *Service {
	return &Service{Unit: unit, Logger: logger, Opts: opts, Signals: make(chan os.Signal, 1)}
}

// Start is StartContext with the background context.
func (s *Service) Start() error {
	return s.StartContext(context.Background())
}

// StartContext registers the unit's metrics (if it has any), starts the unit and blocks.
// A fatal error of the unit is returned as is, wrapped. Otherwise the unit is stopped gracefully
// and the stop error, if any, is returned.
func (s *Service) StartContext(ctx context.Context) error {
	if mr, ok := s.Unit.(MetricsRegisterer); ok {
		mr.MustRegisterMetrics()
		defer mr.UnregisterMetrics()
	}

	signal.Notify(s.Signals, s.Opts.ShutdownSignals...)
	defer signal.Stop(s.Signals)

	fatalError := make(chan error, 1)
	go s.Unit.Start(fatalError)

	select {
	case err := <-fatalError:
		s.Logger.Error("service fatal error", log.Error(err))
		return fmt.Errorf("fatal error: %w", err)
	case sig := <-s.Signals:
		s.Logger.Info("service got signal", log.String("signal", sig.String()))
	case <-ctx.Done():
		s.Logger.Info("service context is done", log.Error(ctx.Err()))
	}

	if err := s.Unit.Stop(true); err != nil {
		s.Logger.Error("service graceful stop failed", log.Error(err))
		return fmt.Errorf("stop gracefully: %w", err)
	}
	s.Logger.Info("service stopped")
	return nil
}
