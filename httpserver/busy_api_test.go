/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/acronis/go-busy/busy"
	"github.com/acronis/go-busy/httpserver/middleware"
	"github.com/acronis/go-busy/log"
	"github.com/acronis/go-busy/log/logtest"
	"github.com/acronis/go-busy/restapi"
	"github.com/acronis/go-busy/testutil"
)

// streamRecorder is a concurrency-safe http.ResponseWriter with http.Flusher support.
// Writes block while the gate is closed.
type streamRecorder struct {
	mu      sync.Mutex
	header  http.Header
	status  int
	body    bytes.Buffer
	flushes int
	gate    chan struct{}
}

func newStreamRecorder() *streamRecorder {
	gate := make(chan struct{})
	close(gate)
	return &streamRecorder{header: http.Header{}, gate: gate}
}

func (sr *streamRecorder) Header() http.Header { return sr.header }

func (sr *streamRecorder) WriteHeader(status int) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.status = status
}

func (sr *streamRecorder) Write(p []byte) (int, error) {
	<-sr.gate
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.body.Write(p)
}

func (sr *streamRecorder) Flush() {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.flushes++
}

func (sr *streamRecorder) String() string {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.body.String()
}

func serveEventsAsync(api *BusyAPI, rw http.ResponseWriter, logger log.FieldLogger) (cancel func(), done <-chan struct{}) {
	ctx, ctxCancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/busy/v1/events", nil)
	req = req.WithContext(middleware.NewContextWithLogger(ctx, logger))
	doneCh := make(chan struct{})
	go func() {
		defer close(doneCh)
		api.ServeEvents(rw, req)
	}()
	return ctxCancel, doneCh
}

func TestBusyAPI_ServeStatus(t *testing.T) {
	tracker := busy.NewTracker(nil)
	api := NewBusyAPI(tracker, BusyAPIOpts{})

	resp := httptest.NewRecorder()
	api.ServeStatus(resp, httptest.NewRequest(http.MethodGet, "/api/busy/v1/status", nil))
	testutil.RequireJSONInRecorder(t, resp, &StatusResponse{}, &StatusResponse{})

	r1 := tracker.Start(busy.RequestConfig{URL: "/a"})
	r2 := tracker.Start(busy.RequestConfig{URL: "/b"})
	tracker.Start(busy.RequestConfig{URL: "/c", OptOut: true})

	resp = httptest.NewRecorder()
	api.ServeStatus(resp, httptest.NewRequest(http.MethodGet, "/api/busy/v1/status", nil))
	testutil.RequireJSONInRecorder(t, resp, &StatusResponse{Outstanding: 2, Busy: true}, &StatusResponse{})

	require.NoError(t, r1.Complete())
	require.NoError(t, r2.Complete())
}

func TestBusyAPI_ServeEvents(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	tracker := busy.NewTracker(nil)
	api := NewBusyAPI(tracker, BusyAPIOpts{})

	// Notifications emitted before the client connects are never delivered.
	_, _ = busy.Track(tracker, busy.RequestConfig{URL: "/before"}, func() (int, error) { return 0, nil })

	rw := newStreamRecorder()
	cancel, done := serveEventsAsync(api, rw, logtest.NewRecorder())
	require.NoError(t, waitTrue(func() bool { return api.ActiveStreams() == 1 }, time.Second*3))

	r1 := tracker.Start(busy.RequestConfig{URL: "/a", Name: "first"})
	r2 := tracker.Start(busy.RequestConfig{URL: "/b"})
	require.NoError(t, r1.Complete())
	require.NoError(t, r2.Complete())

	wantBody := "event: busy.begin\ndata: {\"url\":\"/a\",\"name\":\"first\"}\n\n" +
		"event: busy.begin\ndata: {\"url\":\"/b\"}\n\n" +
		"event: busy.end-one\ndata: {\"url\":\"/a\",\"name\":\"first\",\"remaining\":1}\n\n" +
		"event: busy.end-one\ndata: {\"url\":\"/b\",\"remaining\":0}\n\n" +
		"event: busy.end-all\ndata: {}\n\n"
	require.NoError(t, waitTrue(func() bool { return rw.String() == wantBody }, time.Second*3), rw.String())

	cancel()
	<-done
	require.Equal(t, http.StatusOK, rw.status)
	require.Equal(t, "text/event-stream", rw.Header().Get("Content-Type"))
	require.Equal(t, "no-cache", rw.Header().Get("Cache-Control"))
	require.Greater(t, rw.flushes, 5)
	require.Equal(t, 0, api.ActiveStreams())
	require.Equal(t, 0, tracker.Broadcaster().Len())
	require.Equal(t, int64(0), api.DroppedEvents())
}

func TestBusyAPI_ServeEvents_SlowClient(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	tracker := busy.NewTracker(nil)
	api := NewBusyAPI(tracker, BusyAPIOpts{EventsBufferSize: 1})
	logRecorder := logtest.NewRecorder()

	rw := newStreamRecorder()
	rw.gate = make(chan struct{}) // Client doesn't read anything.
	cancel, done := serveEventsAsync(api, rw, logRecorder)
	require.NoError(t, waitTrue(func() bool { return api.ActiveStreams() == 1 }, time.Second*3))

	// The tracker must not be blocked by the stuck client.
	trackDone := make(chan struct{})
	go func() {
		defer close(trackDone)
		for i := 0; i < 5; i++ {
			_, _ = busy.Track(tracker, busy.RequestConfig{URL: "/slow"}, func() (int, error) { return i, nil })
		}
	}()
	select {
	case <-trackDone:
	case <-time.After(time.Second * 3):
		require.Fail(t, "tracker is blocked by a slow events stream client")
	}
	require.Equal(t, 0, tracker.Outstanding())
	require.GreaterOrEqual(t, api.DroppedEvents(), int64(15-2))

	entry, found := logRecorder.FindEntry("busy event dropped, events stream buffer is full")
	require.True(t, found)
	require.Equal(t, log.LevelWarn, entry.Level)
	sizeField, found := entry.FindField("buffer_size")
	require.True(t, found)
	require.Equal(t, 1, int(sizeField.Int))

	cancel()
	close(rw.gate)
	<-done
}

func TestBusyAPI_ServeEvents_Close(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	api := NewBusyAPI(busy.NewTracker(nil), BusyAPIOpts{})
	_, done := serveEventsAsync(api, newStreamRecorder(), log.NewDisabledLogger())
	require.NoError(t, waitTrue(func() bool { return api.ActiveStreams() == 1 }, time.Second*3))

	api.Close()
	api.Close()
	select {
	case <-done:
	case <-time.After(time.Second * 3):
		require.Fail(t, "events stream is not finished after Close")
	}
}

func TestBusyAPI_ServeEvents_NotStreamable(t *testing.T) {
	api := NewBusyAPI(busy.NewTracker(nil), BusyAPIOpts{ErrorDomain: testErrDomain})
	rec := httptest.NewRecorder()
	rw := struct{ http.ResponseWriter }{rec} // hides http.Flusher

	api.ServeEvents(rw, httptest.NewRequest(http.MethodGet, "/api/busy/v1/events", nil))

	testutil.RequireErrorInRecorder(t, rec, http.StatusNotImplemented, testErrDomain, restapi.ErrCodeNotStreamable)
	require.Equal(t, 0, api.ActiveStreams())
}

func TestWriteEvent(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, writeEvent(&buf, busy.EndOneEvent{URL: "/x", Remaining: 3}))
	require.Equal(t, "event: busy.end-one\ndata: {\"url\":\"/x\",\"remaining\":3}\n\n", buf.String())
}
