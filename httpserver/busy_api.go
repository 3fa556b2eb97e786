/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/atomic"

	"github.com/acronis/go-busy/busy"
	"github.com/acronis/go-busy/busy/presenter"
	"github.com/acronis/go-busy/httpserver/middleware"
	"github.com/acronis/go-busy/log"
	"github.com/acronis/go-busy/restapi"
)

// BusyAPIVersion is the version of the busy API (routes are served under /api/busy/v1).
const BusyAPIVersion APIVersion = 1

// DefaultEventsBufferSize is the number of notifications buffered per events stream connection by default.
const DefaultEventsBufferSize = 16

// StatusResponse is the body of the status endpoint.
type StatusResponse struct {
	Outstanding int                        `json:"outstanding"`
	Busy        bool                       `json:"busy"`
	Presenters  map[string]presenter.State `json:"presenters,omitempty"`
}

// BusyAPIOpts represents options for BusyAPI.
type BusyAPIOpts struct {
	// EventsBufferSize is the per-connection buffer of the events stream. DefaultEventsBufferSize is used if it's zero.
	EventsBufferSize int

	// Presenters are reported by the status endpoint by their names.
	Presenters map[string]*presenter.Element

	// ErrorDomain is used in error responses.
	ErrorDomain string
}

// BusyAPI exposes the state of a busy.Tracker over HTTP:
// a status snapshot and a server-sent events stream of notifications.
type BusyAPI struct {
	tracker    *busy.Tracker
	opts       BusyAPIOpts
	closed     chan struct{}
	closeOnce  sync.Once
	streams    atomic.Int32
	dropsTotal atomic.Int64
}

// NewBusyAPI creates a new BusyAPI.
func NewBusyAPI(tracker *busy.Tracker, opts BusyAPIOpts) *BusyAPI {
	if opts.EventsBufferSize <= 0 {
		opts.EventsBufferSize = DefaultEventsBufferSize
	}
	return &BusyAPI{tracker: tracker, opts: opts, closed: make(chan struct{})}
}

// Route registers the API endpoints. It's supposed to be used as an APIRoute.
func (a *BusyAPI) Route(router chi.Router) {
	router.Get("/status", a.ServeStatus)
	router.Get("/events", a.ServeEvents)
}

// Close finishes all active event streams. New streams are finished right after they start.
func (a *BusyAPI) Close() {
	a.closeOnce.Do(func() { close(a.closed) })
}

// ActiveStreams returns the number of connected events stream clients.
func (a *BusyAPI) ActiveStreams() int {
	return int(a.streams.Load())
}

// DroppedEvents returns the number of notifications dropped because stream buffers were full.
func (a *BusyAPI) DroppedEvents() int64 {
	return a.dropsTotal.Load()
}

// ServeStatus responds with the current number of outstanding requests and presenter states.
func (a *BusyAPI) ServeStatus(rw http.ResponseWriter, r *http.Request) {
	outstanding := a.tracker.Outstanding()
	resp := StatusResponse{Outstanding: outstanding, Busy: outstanding > 0}
	if len(a.opts.Presenters) != 0 {
		resp.Presenters = make(map[string]presenter.State, len(a.opts.Presenters))
		for name, el := range a.opts.Presenters {
			resp.Presenters[name] = el.State()
		}
	}
	restapi.RespondJSON(rw, resp, middleware.GetLoggerFromContext(r.Context()))
}

// ServeEvents streams busy notifications as server-sent events until the client goes away.
// Only notifications emitted while the client is connected are sent.
// A slow client never blocks the tracker: notifications that don't fit into its buffer are dropped.
func (a *BusyAPI) ServeEvents(rw http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLoggerFromContext(r.Context())
	if logger == nil {
		logger = log.NewDisabledLogger()
	}

	flusher, ok := rw.(http.Flusher)
	if !ok {
		apiErr := restapi.NewError(a.opts.ErrorDomain, restapi.ErrCodeNotStreamable, "")
		restapi.RespondError(rw, http.StatusNotImplemented, apiErr, logger)
		return
	}

	events := make(chan busy.Event, a.opts.EventsBufferSize)
	unsubscribe := a.tracker.Broadcaster().Subscribe(busy.ListenerFunc(func(e busy.Event) {
		select {
		case events <- e:
		default:
			a.dropsTotal.Inc()
			logger.Warn("busy event dropped, events stream buffer is full",
				log.String("event", e.Kind().String()), log.Int("buffer_size", a.opts.EventsBufferSize))
		}
	}))
	defer unsubscribe()

	a.streams.Inc()
	defer a.streams.Dec()

	rw.Header().Set("Content-Type", "text/event-stream")
	rw.Header().Set("Cache-Control", "no-cache")
	rw.Header().Set("Connection", "keep-alive")
	rw.Header().Set("X-Accel-Buffering", "no")
	rw.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-a.closed:
			return
		case e := <-events:
			if err := writeEvent(rw, e); err != nil {
				logger.Warn("failed to write busy event to stream", log.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, e busy.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", e.Kind(), err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind(), data)
	return err
}
