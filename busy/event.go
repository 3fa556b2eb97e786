/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package busy

// EventKind is a kind of busy notification.
type EventKind int

// Event kinds.
const (
	EventKindBegin EventKind = iota
	EventKindEndOne
	EventKindEndAll
)

// String returns the name under which the event kind is published (e.g. "busy.begin").
func (k EventKind) String() string {
	switch k {
	case EventKindBegin:
		return "busy.begin"
	case EventKindEndOne:
		return "busy.end-one"
	case EventKindEndAll:
		return "busy.end-all"
	}
	return "busy.unknown"
}

// Event is a busy notification. It's one of BeginEvent, EndOneEvent or EndAllEvent.
type Event interface {
	Kind() EventKind
}

// BeginEvent is emitted once per tracked request at dispatch time.
type BeginEvent struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

// Kind implements Event interface.
func (BeginEvent) Kind() EventKind { return EventKindBegin }

// EndOneEvent is emitted once per tracked request at completion time regardless of its outcome.
// Remaining is the number of outstanding requests right after this request was accounted as completed.
type EndOneEvent struct {
	URL       string `json:"url"`
	Name      string `json:"name,omitempty"`
	Remaining int    `json:"remaining"`
}

// Kind implements Event interface.
func (EndOneEvent) Kind() EventKind { return EventKindEndOne }

// EndAllEvent is emitted exactly when a completion drives the number of outstanding requests to zero.
type EndAllEvent struct{}

// Kind implements Event interface.
func (EndAllEvent) Kind() EventKind { return EventKindEndAll }
