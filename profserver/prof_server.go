/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package profserver runs an optional pprof server next to the busymon status server.
package profserver

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/atomic"

	"github.com/acronis/go-busy/httpserver/middleware"
	"github.com/acronis/go-busy/log"
	"github.com/acronis/go-busy/service"
)

const readHeaderTimeout = 5 * time.Second

// ProfServer serves /debug/pprof/ endpoints. It's a service.Unit.
type ProfServer struct {
	HTTPServer *http.Server
	Logger     log.FieldLogger

	addr    atomic.String
	started chan struct{} // closed once Start has listened or failed
	served  chan struct{} // closed when Start returns
}

var _ service.Unit = (*ProfServer)(nil)

// New creates the pprof server. Requests are logged with the given logger.
func New(cfg *Config, logger log.FieldLogger) *ProfServer {
	router := chi.NewRouter()
	router.Use(middleware.RequestID(), middleware.LoggingWithOpts(logger, middleware.LoggingOpts{RequestStart: true}))
	router.Mount("/debug", chimiddleware.Profiler())

	return &ProfServer{
		HTTPServer: &http.Server{Addr: cfg.Address, Handler: router, ReadHeaderTimeout: readHeaderTimeout},
		Logger:     logger,
		started:    make(chan struct{}),
		served:     make(chan struct{}),
	}
}

// Start listens and serves until Stop. A listen or serve failure goes to fatalError.
func (s *ProfServer) Start(fatalError chan<- error) {
	defer close(s.served)
	logger := s.Logger.With(log.String("address", s.HTTPServer.Addr))

	ln, err := net.Listen("tcp", s.HTTPServer.Addr)
	if err != nil {
		close(s.started)
		logger.Error("profiling server failed", log.Error(err))
		fatalError <- err
		return
	}
	s.addr.Store(ln.Addr().String())
	close(s.started)
	logger.Info("profiling server is listening", log.String("listen_address", ln.Addr().String()))

	if err = s.HTTPServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("profiling server failed", log.Error(err))
		fatalError <- err
		return
	}
	logger.Info("profiling server closed")
}

// URL waits until Start has listened and returns the server's base URL,
// or an empty string if listening failed.
func (s *ProfServer) URL() string {
	<-s.started
	if addr := s.addr.Load(); addr != "" {
		return "http://" + addr
	}
	return ""
}

// Stop closes the server immediately, graceful is ignored.
func (s *ProfServer) Stop(bool) error {
	if err := s.HTTPServer.Close(); err != nil {
		s.Logger.Error("profiling server closing failed", log.Error(err))
		return err
	}
	select {
	case <-s.started:
		<-s.served
	default:
	}
	return nil
}
