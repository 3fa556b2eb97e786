/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/acronis/go-busy/busy"
	"github.com/acronis/go-busy/busy/presenter"
	"github.com/acronis/go-busy/httpclient"
	"github.com/acronis/go-busy/httpserver"
	"github.com/acronis/go-busy/log"
	"github.com/acronis/go-busy/profserver"
	"github.com/acronis/go-busy/restapi"
	"github.com/acronis/go-busy/service"
)

const (
	metricsNamespace = "busymon"
	errorDomain      = "BusyMon"
)

// App is the busymon unit: the status HTTP server and the periodic prober sharing a single busy tracker.
type App struct {
	*service.CompositeUnit

	Tracker    *busy.Tracker
	BusyAPI    *httpserver.BusyAPI
	HTTPServer *httpserver.HTTPServer
	Presenters map[string]*presenter.Element

	busyMetrics   *busy.PrometheusMetrics
	clientMetrics *httpclient.PrometheusMetricsCollector
}

var _ service.Unit = (*App)(nil)
var _ service.MetricsRegisterer = (*App)(nil)

// NewApp builds all busymon components from the configuration.
func NewApp(cfg *AppConfig, logger log.FieldLogger) (*App, error) {
	busyMetrics := busy.NewPrometheusMetricsWithOpts(busy.PrometheusMetricsOpts{Namespace: metricsNamespace})
	bus := busy.NewBroadcasterWithOpts(busy.BroadcasterOpts{Logger: logger})
	tracker := busy.NewTrackerWithOpts(bus, busy.TrackerOpts{
		Logger:           logger.With(log.String("component", "busy_tracker")),
		MetricsCollector: busyMetrics,
	})

	presenters := make(map[string]*presenter.Element, len(cfg.Presenters.Elements))
	for name, pc := range cfg.Presenters.Elements {
		el := presenter.NewElementWithOpts(pc.Options, presenter.ElementOpts{
			Content:  pc.Content,
			Classes:  pc.Classes,
			Disabled: pc.Disabled,
			Logger:   logger.With(log.String("presenter", name)),
		})
		tracker.Broadcaster().Subscribe(el)
		presenters[name] = el
	}

	clientMetrics := httpclient.NewPrometheusMetricsCollector(metricsNamespace)
	client, err := httpclient.NewWithOpts(cfg.Client, httpclient.Opts{
		Tracker:          tracker,
		LoggerProvider:   func(context.Context) log.FieldLogger { return logger },
		MetricsCollector: clientMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	busyAPI := httpserver.NewBusyAPI(tracker, httpserver.BusyAPIOpts{
		EventsBufferSize: cfg.Server.Events.BufferSize,
		Presenters:       presenters,
		ErrorDomain:      errorDomain,
	})
	httpServer := httpserver.New(cfg.Server, logger, httpserver.Opts{
		BusyAPI:     busyAPI,
		ErrorDomain: errorDomain,
		HealthCheck: func(context.Context) (httpserver.HealthCheckResult, error) {
			return httpserver.HealthCheckResult{"busy_tracker": httpserver.HealthCheckStatusOK}, nil
		},
		HTTPRequestMetrics: httpserver.HTTPRequestMetricsOpts{
			Namespace:   metricsNamespace,
			ConstLabels: prometheus.Labels{"server": "status"},
		},
	})

	units := []service.Unit{httpServer}
	if len(cfg.Probe.Targets) != 0 {
		prober := service.NewPeriodicWorkerWithOpts(
			NewProber(client, cfg.Probe.Targets, logger), cfg.Probe.Interval, logger,
			service.PeriodicWorkerOpts{Name: "prober"})
		units = append(units, service.NewWorkerUnit(prober))
	} else {
		logger.Warn("no probe targets configured, only the status server will be started")
	}

	if cfg.ProfServer.Enabled {
		units = append(units, profserver.New(cfg.ProfServer, logger))
	}

	return &App{
		CompositeUnit: service.NewCompositeUnit(units...),
		Tracker:       tracker,
		BusyAPI:       busyAPI,
		HTTPServer:    httpServer,
		Presenters:    presenters,
		busyMetrics:   busyMetrics,
		clientMetrics: clientMetrics,
	}, nil
}

// MustRegisterMetrics registers busy tracking, HTTP client, HTTP server and REST API error metrics.
func (a *App) MustRegisterMetrics() {
	a.busyMetrics.MustRegister()
	a.clientMetrics.MustRegister()
	restapi.MustInitAndRegisterMetrics(metricsNamespace)
	a.CompositeUnit.MustRegisterMetrics()
}

// UnregisterMetrics unregisters all metrics registered by MustRegisterMetrics.
func (a *App) UnregisterMetrics() {
	a.CompositeUnit.UnregisterMetrics()
	restapi.UnregisterMetrics()
	a.clientMetrics.Unregister()
	a.busyMetrics.Unregister()
}
