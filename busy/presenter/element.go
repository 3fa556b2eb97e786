/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package presenter

import (
	"strings"
	"sync"

	"github.com/acronis/go-busy/busy"
	"github.com/acronis/go-busy/log"
)

// State is a snapshot of the element presentation.
type State struct {
	Content  string   `json:"content"`
	Classes  []string `json:"classes"`
	Disabled bool     `json:"disabled"`
	Busy     bool     `json:"busy"`
}

// ElementOpts represents initial presentation and hooks of the Element.
type ElementOpts struct {
	// Content is the original content that is swapped with the busy text.
	Content string

	// Classes is a whitespace-separated list of initial classes.
	Classes string

	// Disabled is the initial disabled flag.
	Disabled bool

	// Logger is used for logging state transitions at debug level. Disabled logger is used by default.
	Logger log.FieldLogger

	// OnChange is called after every transition with the new state. It's called without holding the element lock.
	OnChange func(State)
}

// Element presents the busy state of a single UI element driven by busy notifications.
// It's either idle or busy: it becomes busy on a matching BeginEvent
// and becomes idle again on a matching EndOneEvent. EndAllEvent is ignored.
type Element struct {
	mu             sync.Mutex
	opts           Options
	state          State
	notBusyContent string
	logger         log.FieldLogger
	onChange       func(State)
}

var _ busy.Listener = (*Element)(nil)

// NewElement creates a new idle Element.
func NewElement(opts Options) *Element {
	return NewElementWithOpts(opts, ElementOpts{})
}

// NewElementWithOpts creates a new idle Element with the initial presentation.
func NewElementWithOpts(opts Options, elOpts ElementOpts) *Element {
	logger := elOpts.Logger
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &Element{
		opts: opts,
		state: State{
			Content:  elOpts.Content,
			Classes:  strings.Fields(elOpts.Classes),
			Disabled: elOpts.Disabled,
		},
		logger:   logger,
		onChange: elOpts.OnChange,
	}
}

// Options returns the options the element was created with.
func (el *Element) Options() Options {
	return el.opts
}

// IsBusyFor reports whether the notification payload applies to the element using its busy criteria.
func (el *Element) IsBusyFor(p busy.Payload, begin bool) bool {
	return busy.IsBusyFor(p, begin, el.opts.BusyCriteria())
}

// State returns a snapshot of the element presentation.
func (el *Element) State() State {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.snapshot()
}

// NotBusyContent returns the content saved at the last transition to busy.
func (el *Element) NotBusyContent() string {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.notBusyContent
}

// OnBusyEvent implements busy.Listener interface.
func (el *Element) OnBusyEvent(e busy.Event) {
	p, ok := busy.PayloadOf(e)
	if !ok {
		return
	}

	var changed bool
	var st State

	el.mu.Lock()
	switch e.Kind() {
	case busy.EventKindBegin:
		changed = el.becomeBusy(p)
	case busy.EventKindEndOne:
		changed = el.becomeIdle(p)
	}
	if changed {
		st = el.snapshot()
	}
	el.mu.Unlock()

	if !changed {
		return
	}
	el.logger.AtLevel(log.LevelDebug, func(logFunc log.LogFunc) {
		logFunc("presenter state changed", log.Bool("busy", st.Busy), log.String("url", p.URL), log.String("name", p.Name))
	})
	if el.onChange != nil {
		el.onChange(st)
	}
}

func (el *Element) becomeBusy(p busy.Payload) bool {
	if el.state.Busy || !busy.IsBusyFor(p, true, el.opts.BusyCriteria()) {
		return false
	}
	el.notBusyContent = el.state.Content
	el.state.Content = el.opts.BusyText
	el.state.Classes = addClasses(removeClasses(el.state.Classes, el.opts.BusyRemoveClasses), el.opts.BusyAddClasses)
	if el.opts.BusyDisabled {
		el.state.Disabled = true
	}
	el.state.Busy = true
	return true
}

func (el *Element) becomeIdle(p busy.Payload) bool {
	if !el.state.Busy || !busy.IsBusyFor(p, false, el.opts.NotBusyCriteria()) {
		return false
	}
	el.state.Content = el.notBusyContent
	el.state.Classes = addClasses(removeClasses(el.state.Classes, el.opts.NotBusyRemoveClasses), el.opts.NotBusyAddClasses)
	el.state.Disabled = el.opts.NotBusyDisabled
	el.state.Busy = false
	return true
}

func (el *Element) snapshot() State {
	st := el.state
	st.Classes = append([]string(nil), el.state.Classes...)
	return st
}

func removeClasses(classes []string, toRemove string) []string {
	names := strings.Fields(toRemove)
	if len(names) == 0 {
		return classes
	}
	res := classes[:0:0]
	for _, c := range classes {
		if !containsString(names, c) {
			res = append(res, c)
		}
	}
	return res
}

func addClasses(classes []string, toAdd string) []string {
	for _, c := range strings.Fields(toAdd) {
		if !containsString(classes, c) {
			classes = append(classes, c)
		}
	}
	return classes
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
