/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/acronis/go-busy/busy"
)

// CompleteMode defines when a tracked outgoing request is considered completed.
type CompleteMode string

// Completion modes.
const (
	// CompleteOnBody completes the request when the response body is read to EOF or closed, whichever happens first.
	CompleteOnBody CompleteMode = "body"

	// CompleteOnHeaders completes the request as soon as response headers are received.
	CompleteOnHeaders CompleteMode = "headers"
)

// IsValid checks if the completion mode is valid.
func (m CompleteMode) IsValid() bool {
	switch m {
	case CompleteOnBody, CompleteOnHeaders:
		return true
	}
	return false
}

// BusyRoundTripperOpts represents an options for BusyRoundTripper.
type BusyRoundTripperOpts struct {
	// CompleteOn defines when the tracked request is completed. CompleteOnBody is used by default.
	CompleteOn CompleteMode
}

// BusyRoundTripper implements http.RoundTripper and reports every outgoing request to busy.Tracker.
// The request name and the opt-out flag are taken from the request context
// (see NewContextWithRequestName and NewContextWithNotBusy).
// Successful and failed outcomes (transport errors and any HTTP status) are handled identically,
// the response and the error are never altered.
//
// http.Client calls RoundTrip once per redirect hop. To keep a redirected call a single tracked request,
// the client's redirect policy must be wrapped with WrapCheckRedirect (clients built by New and NewWithOpts do it):
// the busy request of a followed redirect response is then taken over by the next hop
// instead of being completed when the client closes the redirect response body.
type BusyRoundTripper struct {
	// Delegate is the next RoundTripper in the chain.
	Delegate http.RoundTripper

	// Tracker counts outstanding requests and emits busy notifications.
	Tracker *busy.Tracker

	// Opts are the options for the busy round tripper.
	Opts BusyRoundTripperOpts

	redirects sync.Map // *http.Response -> *trackedBody
}

// NewBusyRoundTripper creates an HTTP transport that tracks outgoing requests.
func NewBusyRoundTripper(delegate http.RoundTripper, tracker *busy.Tracker) http.RoundTripper {
	return newBusyRoundTripper(delegate, tracker, BusyRoundTripperOpts{})
}

// NewBusyRoundTripperWithOpts creates an HTTP transport that tracks outgoing requests with options.
func NewBusyRoundTripperWithOpts(
	delegate http.RoundTripper, tracker *busy.Tracker, opts BusyRoundTripperOpts,
) http.RoundTripper {
	return newBusyRoundTripper(delegate, tracker, opts)
}

func newBusyRoundTripper(delegate http.RoundTripper, tracker *busy.Tracker, opts BusyRoundTripperOpts) *BusyRoundTripper {
	if opts.CompleteOn == "" {
		opts.CompleteOn = CompleteOnBody
	}
	return &BusyRoundTripper{Delegate: delegate, Tracker: tracker, Opts: opts}
}

// RoundTrip starts a tracked request (or takes over the one of a followed redirect),
// executes it using the delegate and completes it exactly once.
func (rt *BusyRoundTripper) RoundTrip(r *http.Request) (resp *http.Response, err error) {
	req := rt.takeOverRedirect(r)
	if req == nil {
		ctx := r.Context()
		req = rt.Tracker.Start(busy.RequestConfig{
			URL:    r.URL.String(),
			Name:   GetRequestNameFromContext(ctx),
			OptOut: GetNotBusyFromContext(ctx),
		})
	}
	if !req.Tracked() {
		return rt.Delegate.RoundTrip(r)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = req.Complete()
			panic(p)
		}
	}()

	resp, err = rt.Delegate.RoundTrip(r)
	if err != nil || resp == nil {
		_ = req.Complete()
		return resp, err
	}

	if isRedirect(resp) {
		if resp.Body == nil {
			resp.Body = http.NoBody
		}
		body := &trackedBody{ReadCloser: resp.Body, req: req}
		body.release = func() { rt.redirects.Delete(resp) }
		rt.redirects.Store(resp, body)
		resp.Body = body
		return resp, nil
	}

	if resp.Body == nil || resp.Body == http.NoBody || rt.Opts.CompleteOn == CompleteOnHeaders {
		_ = req.Complete()
		return resp, nil
	}
	resp.Body = &trackedBody{ReadCloser: resp.Body, req: req}
	return resp, nil
}

// WrapCheckRedirect returns a redirect policy for http.Client.CheckRedirect.
// The next policy decides whether the redirect is followed (http.Client's default policy is used if it's nil).
// When it's followed, the busy request stays outstanding and passes to the next hop.
func (rt *BusyRoundTripper) WrapCheckRedirect(
	next func(req *http.Request, via []*http.Request) error,
) func(req *http.Request, via []*http.Request) error {
	if next == nil {
		next = defaultCheckRedirect
	}
	return func(req *http.Request, via []*http.Request) error {
		if err := next(req, via); err != nil {
			return err
		}
		if req.Response != nil {
			if v, ok := rt.redirects.Load(req.Response); ok {
				v.(*trackedBody).follow()
			}
		}
		return nil
	}
}

func (rt *BusyRoundTripper) takeOverRedirect(r *http.Request) *busy.Request {
	if r.Response == nil {
		return nil
	}
	v, ok := rt.redirects.LoadAndDelete(r.Response)
	if !ok {
		return nil
	}
	return v.(*trackedBody).takeOver()
}

// defaultCheckRedirect mirrors the policy http.Client uses when CheckRedirect is nil.
func defaultCheckRedirect(_ *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}
	return nil
}

func isRedirect(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return resp.Header.Get("Location") != ""
	}
	return false
}

// trackedBody completes the busy request on EOF or Close.
// A body of a followed redirect doesn't complete it, the request is taken over by the next hop.
type trackedBody struct {
	io.ReadCloser
	req     *busy.Request
	release func()

	mu       sync.Mutex
	followed bool
	done     bool
}

func (b *trackedBody) complete() {
	b.mu.Lock()
	if b.done || b.followed {
		b.mu.Unlock()
		return
	}
	b.done = true
	b.mu.Unlock()

	if b.release != nil {
		b.release()
	}
	_ = b.req.Complete()
}

func (b *trackedBody) follow() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.done {
		b.followed = true
	}
}

func (b *trackedBody) takeOver() *busy.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done || !b.followed {
		return nil
	}
	b.done = true
	return b.req
}

func (b *trackedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if errors.Is(err, io.EOF) {
		b.complete()
	}
	return n, err
}

func (b *trackedBody) Close() error {
	err := b.ReadCloser.Close()
	b.complete()
	return err
}
