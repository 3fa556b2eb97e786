/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package busy

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/acronis/go-busy/log"
)

// Listener receives busy notifications.
// OnBusyEvent is called synchronously by the emitting goroutine, so it should return quickly.
// It must not start or complete tracked requests.
type Listener interface {
	OnBusyEvent(e Event)
}

// ListenerFunc is an adapter to allow the use of ordinary functions as Listener.
type ListenerFunc func(e Event)

// OnBusyEvent implements Listener interface.
func (f ListenerFunc) OnBusyEvent(e Event) {
	f(e)
}

type subscription struct {
	id       uint64
	listener Listener
}

// Broadcaster delivers every event to all currently subscribed listeners (in subscription order).
// There is no queue and no replay: a listener subscribed after an event was broadcast never sees it.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	logger log.FieldLogger
}

// BroadcasterOpts represents options for Broadcaster.
type BroadcasterOpts struct {
	// Logger is used for reporting panics in listeners. Disabled logger is used by default.
	Logger log.FieldLogger
}

// NewBroadcaster creates a new Broadcaster.
func NewBroadcaster() *Broadcaster {
	return NewBroadcasterWithOpts(BroadcasterOpts{})
}

// NewBroadcasterWithOpts creates a new Broadcaster with options.
func NewBroadcasterWithOpts(opts BroadcasterOpts) *Broadcaster {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &Broadcaster{logger: logger}
}

// Subscribe adds the listener and returns a function that removes it.
// The returned function is idempotent.
func (b *Broadcaster) Subscribe(l Listener) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscription{id: id, listener: l})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Broadcaster) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.subs {
		if b.subs[i].id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of currently subscribed listeners.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Broadcast delivers the event to all currently subscribed listeners.
// A panic in a listener is recovered and logged, the remaining listeners still receive the event.
func (b *Broadcaster) Broadcast(e Event) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for i := range subs {
		b.deliver(subs[i].listener, e)
	}
}

func (b *Broadcaster) deliver(l Listener, e Event) {
	defer func() {
		if p := recover(); p != nil {
			const logStackSize = 8192
			stack := make([]byte, logStackSize)
			stack = stack[:runtime.Stack(stack, false)]
			b.logger.Error(fmt.Sprintf("panic in busy listener on %s: %+v", e.Kind(), p), log.Bytes("stack", stack))
		}
	}()
	l.OnBusyEvent(e)
}
