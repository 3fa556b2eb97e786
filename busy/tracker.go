/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package busy

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"github.com/acronis/go-busy/log"
)

// ErrRequestAlreadyCompleted is returned when Request.Complete is called more than once.
var ErrRequestAlreadyCompleted = errors.New("busy request is already completed")

// RequestConfig describes a single network call from the busy-tracking point of view.
type RequestConfig struct {
	// URL is the request target.
	URL string

	// Name is an optional caller-assigned logical identifier
	// that distinguishes requests hitting the same URL.
	Name string

	// OptOut makes the request invisible to busy tracking end-to-end.
	OptOut bool
}

// TrackerOpts represents options for Tracker.
type TrackerOpts struct {
	// Logger is used for debug logging of emitted events. Disabled logger is used by default.
	Logger log.FieldLogger

	// MetricsCollector receives counter changes and emitted events. Optional.
	MetricsCollector MetricsCollector
}

// Tracker counts in-flight requests and broadcasts busy notifications.
// It's intended to be created once per application and passed by reference to all integration points.
type Tracker struct {
	mu      sync.Mutex
	counter Counter
	bus     *Broadcaster
	logger  log.FieldLogger
	metrics MetricsCollector
}

// NewTracker creates a new Tracker that broadcasts notifications via the given Broadcaster.
func NewTracker(bus *Broadcaster) *Tracker {
	return NewTrackerWithOpts(bus, TrackerOpts{})
}

// NewTrackerWithOpts creates a new Tracker with options.
func NewTrackerWithOpts(bus *Broadcaster, opts TrackerOpts) *Tracker {
	if bus == nil {
		bus = NewBroadcaster()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	metrics := opts.MetricsCollector
	if metrics == nil {
		metrics = disabledMetrics{}
	}
	return &Tracker{bus: bus, logger: logger, metrics: metrics}
}

// Broadcaster returns the Broadcaster the tracker emits notifications to.
func (t *Tracker) Broadcaster() *Broadcaster {
	return t.bus
}

// Outstanding returns the number of tracked requests that were started but not completed yet.
// It doesn't take the tracker lock, so it's safe to call from listeners.
func (t *Tracker) Outstanding() int {
	return t.counter.Value()
}

// Start registers the beginning of a request.
// If cfg.OptOut is true, nothing is counted or emitted and the returned Request is a no-op.
// Otherwise, the counter is incremented and BeginEvent is broadcast before Start returns.
// The returned Request must be completed exactly once.
func (t *Tracker) Start(cfg RequestConfig) *Request {
	r := &Request{tracker: t, url: cfg.URL, name: cfg.Name, tracked: !cfg.OptOut}
	if !r.tracked {
		return r
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	outstanding := t.counter.Increment()
	t.metrics.SetOutstanding(outstanding)
	if outstanding == 1 {
		t.metrics.IncEpisodes()
	}
	t.emit(BeginEvent{URL: r.url, Name: r.name})
	return r
}

// OnRequestStart is a pass-through form of Start for composing into request pipelines:
// it returns the config unchanged together with the Request handle that must be completed later.
func (t *Tracker) OnRequestStart(cfg RequestConfig) (RequestConfig, *Request) {
	return cfg, t.Start(cfg)
}

func (t *Tracker) complete(r *Request) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	remaining, err := t.counter.Decrement()
	if err != nil {
		// Every tracked Start is paired with exactly one Complete, so getting here means a pairing bug.
		panic(fmt.Errorf("complete request %q (%s): %w", r.name, r.url, err))
	}
	t.metrics.SetOutstanding(remaining)
	t.emit(EndOneEvent{URL: r.url, Name: r.name, Remaining: remaining})
	if remaining == 0 {
		t.emit(EndAllEvent{})
	}
	return remaining
}

func (t *Tracker) emit(e Event) {
	t.metrics.IncEvents(e.Kind())
	t.logger.AtLevel(log.LevelDebug, func(logFunc log.LogFunc) {
		switch ev := e.(type) {
		case BeginEvent:
			logFunc(ev.Kind().String(), log.String("url", ev.URL), log.String("name", ev.Name))
		case EndOneEvent:
			logFunc(ev.Kind().String(),
				log.String("url", ev.URL), log.String("name", ev.Name), log.Int("remaining", ev.Remaining))
		default:
			logFunc(e.Kind().String())
		}
	})
	t.bus.Broadcast(e)
}

// Request is a handle of a started request.
// It carries the tracking decision made at start time, so completion never re-evaluates the opt-out flag.
type Request struct {
	tracker   *Tracker
	url       string
	name      string
	tracked   bool
	completed atomic.Bool
}

// Tracked reports whether the request participates in counting and notification.
func (r *Request) Tracked() bool {
	return r.tracked
}

// URL returns the request target.
func (r *Request) URL() string {
	return r.url
}

// Name returns the logical name of the request.
func (r *Request) Name() string {
	return r.name
}

// Complete registers the completion of the request (both successful and failed outcomes are handled identically).
// For a tracked request the counter is decremented, EndOneEvent is broadcast and, if there are no more
// outstanding requests, EndAllEvent follows it.
// Calling Complete more than once returns ErrRequestAlreadyCompleted and has no other effect.
func (r *Request) Complete() error {
	if !r.completed.CompareAndSwap(false, true) {
		return ErrRequestAlreadyCompleted
	}
	if r.tracked {
		r.tracker.complete(r)
	}
	return nil
}

// Track starts a request described by cfg, performs the call and completes the request
// regardless of the call's outcome. The call's result and error are returned unchanged.
func Track[T any](t *Tracker, cfg RequestConfig, call func() (T, error)) (T, error) {
	r := t.Start(cfg)
	defer func() { _ = r.Complete() }()
	return call()
}

// OnRequestComplete is a pass-through form of Request.Complete for composing into request pipelines:
// it completes the request and returns the outcome of the call unchanged (a failure is not special-cased).
// The request is completed only once, repeated calls don't affect the counter.
func OnRequestComplete[T any](r *Request, val T, err error) (T, error) {
	_ = r.Complete()
	return val, err
}
