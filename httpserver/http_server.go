/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"

	"github.com/acronis/go-busy/httpserver/middleware"
	"github.com/acronis/go-busy/log"
	"github.com/acronis/go-busy/service"
)

const (
	networkTCP  = "tcp"
	networkUnix = "unix"
)

// DefaultServiceNameInURL is used for building API routes prefix ("/api/busy/v1") when Opts.ServiceNameInURL is empty.
const DefaultServiceNameInURL = "busy"

// APIVersion is the N in /api/{name}/vN.
type APIVersion = int

// APIRoute registers the handlers of one API version.
type APIRoute = func(router chi.Router)

// HTTPRequestMetricsOpts represents options for HTTPRequestMetrics middleware that used in HTTPServer.
type HTTPRequestMetricsOpts struct {
	Namespace             string
	DurationBuckets       []float64
	StreamDurationBuckets []float64
	ConstLabels           prometheus.Labels

	GetRoutePattern middleware.RoutePatternGetterFunc
}

// Opts holds what New cannot read from Config.
type Opts struct {
	// ServiceNameInURL is a prefix for API routes (e.g., "/api/busy/v1"). DefaultServiceNameInURL is used if it's empty.
	ServiceNameInURL string

	// BusyAPI is mounted as BusyAPIVersion of the API. Its event streams are finished when the server shuts down.
	BusyAPI *BusyAPI

	// APIRoutes is a map of additional API versions to their route configuration functions.
	APIRoutes map[APIVersion]APIRoute

	// RootMiddlewares run after the built-in middlewares, for every route.
	RootMiddlewares []func(http.Handler) http.Handler

	// ErrorDomain is the "domain" of JSON error responses.
	ErrorDomain string

	// HealthCheck is served on /healthz. Without it /healthz reports no components.
	HealthCheck HealthCheck

	// MetricsHandler serves /metrics. promhttp.Handler() if nil.
	MetricsHandler http.Handler

	// HTTPRequestMetrics configures the request and event stream histograms.
	HTTPRequestMetrics HTTPRequestMetricsOpts

	// Listener, if set, is served instead of listening on Config.Address.
	Listener net.Listener
}

// apiRoutes merges APIRoutes with the BusyAPI route. BusyAPI wins over an APIRoutes entry of the same version.
func (opts *Opts) apiRoutes() map[APIVersion]APIRoute {
	routes := make(map[APIVersion]APIRoute, len(opts.APIRoutes)+1)
	for ver, route := range opts.APIRoutes {
		routes[ver] = route
	}
	if opts.BusyAPI != nil {
		routes[BusyAPIVersion] = opts.BusyAPI.Route
	}
	return routes
}

// HTTPServer is the busy status server: the busy API, /healthz and /metrics behind
// request id, access log, recovery and metrics middlewares.
// It implements service.Unit and service.MetricsRegisterer.
type HTTPServer struct {
	// URL is the base URL built from the configuration. With a unix socket its host is "localhost".
	URL string

	HTTPServer      *http.Server
	HTTPRouter      chi.Router
	UnixSocketPath  string
	TLS             TLSConfig
	Logger          log.FieldLogger
	ShutdownTimeout time.Duration

	listener          net.Listener
	port              atomic.Int32
	served            atomic.Value // chan struct{}, closed when Start returns
	httpReqMetrics    *middleware.HTTPRequestMetricsCollector
	metricsRegistered atomic.Bool
}

var _ service.Unit = (*HTTPServer)(nil)
var _ service.MetricsRegisterer = (*HTTPServer)(nil)

// New creates a status server. Nothing is listened on until Start.
func New(cfg *Config, logger log.FieldLogger, opts Opts) *HTTPServer { //nolint:gocritic // opts is heavy, it's ok in this case.
	httpReqMetrics := middleware.NewHTTPRequestMetricsCollectorWithOpts(middleware.HTTPRequestMetricsCollectorOpts{
		Namespace:             opts.HTTPRequestMetrics.Namespace,
		DurationBuckets:       opts.HTTPRequestMetrics.DurationBuckets,
		StreamDurationBuckets: opts.HTTPRequestMetrics.StreamDurationBuckets,
		ConstLabels:           opts.HTTPRequestMetrics.ConstLabels,
	})

	router := newRouter(cfg, logger, &opts, httpReqMetrics)

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadTimeout:       time.Duration(cfg.Timeouts.Read),
		ReadHeaderTimeout: time.Duration(cfg.Timeouts.ReadHeader),
		WriteTimeout:      time.Duration(cfg.Timeouts.Write),
		IdleTimeout:       time.Duration(cfg.Timeouts.Idle),
	}
	if opts.BusyAPI != nil {
		// Shutdown waits for connections to become idle, an open event stream never does.
		srv.RegisterOnShutdown(opts.BusyAPI.Close)
	}

	scheme, host := "http", cfg.Address
	if cfg.TLS.Enabled {
		scheme = "https"
	}
	if cfg.UnixSocketPath != "" {
		host = "localhost"
	}

	return &HTTPServer{
		URL:             scheme + "://" + host,
		HTTPServer:      srv,
		HTTPRouter:      router,
		UnixSocketPath:  cfg.UnixSocketPath,
		TLS:             cfg.TLS,
		Logger:          logger,
		ShutdownTimeout: time.Duration(cfg.Timeouts.Shutdown),
		listener:        opts.Listener,
		httpReqMetrics:  httpReqMetrics,
	}
}

// Start serves requests until Stop is called. It blocks, so it's run in its own goroutine.
// Errors other than the server being closed are sent to fatalError.
func (s *HTTPServer) Start(fatalError chan<- error) {
	served := make(chan struct{})
	defer close(served)
	s.served.Store(served)

	network, addr := s.NetworkAndAddr()
	logger := s.Logger.With(
		log.String("network", network),
		log.String("address", addr),
		log.Bool("tls", s.TLS.Enabled),
		log.Duration("shutdown_timeout", s.ShutdownTimeout),
	)
	fail := func(msg string, err error) {
		logger.Error(msg, log.Error(err))
		fatalError <- err
	}

	if err := s.listen(network, addr); err != nil {
		fail("status server cannot listen", err)
		return
	}
	logger.Info("status server is listening", log.Int("port", s.GetPort()))

	var err error
	if s.TLS.Enabled {
		err = s.HTTPServer.ServeTLS(s.listener, s.TLS.Certificate, s.TLS.Key)
	} else {
		err = s.HTTPServer.Serve(s.listener)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		fail("status server failed", err)
		return
	}
	logger.Info("status server closed")
}

// listen opens the listener unless one was passed in Opts. A stale unix socket file is removed first.
func (s *HTTPServer) listen(network, addr string) error {
	if s.listener == nil {
		if network == networkUnix {
			if err := os.Remove(addr); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove stale unix socket %q: %w", addr, err)
			}
		}
		l, err := net.Listen(network, addr)
		if err != nil {
			return err
		}
		s.listener = l
	}
	if tcpAddr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		s.port.Store(int32(tcpAddr.Port))
	}
	return nil
}

// Stop stops the server. A graceful stop finishes open event streams and waits for in-flight requests
// up to ShutdownTimeout, otherwise all connections are closed at once.
func (s *HTTPServer) Stop(gracefully bool) error {
	if gracefully {
		ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
		defer cancel()
		s.Logger.Info("shutting down status server", log.Duration("timeout", s.ShutdownTimeout))
		if err := s.HTTPServer.Shutdown(ctx); err != nil {
			s.Logger.Error("status server shutdown failed", log.Error(err))
			return err
		}
	} else {
		s.Logger.Info("closing status server")
		if err := s.HTTPServer.Close(); err != nil {
			s.Logger.Error("status server closing failed", log.Error(err))
			return err
		}
	}
	if served, ok := s.served.Load().(chan struct{}); ok {
		<-served
	}
	return nil
}

// MustRegisterMetrics implements service.MetricsRegisterer. Repeated calls are no-ops.
func (s *HTTPServer) MustRegisterMetrics() {
	if s.metricsRegistered.CompareAndSwap(false, true) {
		s.httpReqMetrics.MustRegister()
	}
}

// UnregisterMetrics implements service.MetricsRegisterer.
func (s *HTTPServer) UnregisterMetrics() {
	if s.metricsRegistered.CompareAndSwap(true, false) {
		s.httpReqMetrics.Unregister()
	}
}

// NetworkAndAddr returns "unix" and the socket path if the server is configured with one, "tcp" and the address otherwise.
func (s *HTTPServer) NetworkAndAddr() (network, addr string) {
	if s.UnixSocketPath != "" {
		return networkUnix, s.UnixSocketPath
	}
	return networkTCP, s.HTTPServer.Addr
}

// GetPort returns the TCP port the server listens on. It's zero until the server is listening.
func (s *HTTPServer) GetPort() int {
	return int(s.port.Load())
}
