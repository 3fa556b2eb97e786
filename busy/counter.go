/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package busy

import (
	"errors"

	"go.uber.org/atomic"
)

// ErrCounterUnderflow is returned when Counter.Decrement is called while the counter is already zero.
var ErrCounterUnderflow = errors.New("outstanding requests counter underflow")

// Counter is a non-negative counter of outstanding (dispatched but not yet completed) requests.
// All methods are safe for concurrent use.
type Counter struct {
	n atomic.Int64
}

// Increment increases the counter by one and returns the new value.
func (c *Counter) Increment() int {
	return int(c.n.Inc())
}

// Decrement decreases the counter by one and returns the new value.
// The counter is never clamped: if it's already zero, ErrCounterUnderflow is returned and the value stays unchanged.
func (c *Counter) Decrement() (int, error) {
	for {
		cur := c.n.Load()
		if cur == 0 {
			return 0, ErrCounterUnderflow
		}
		if c.n.CompareAndSwap(cur, cur-1) {
			return int(cur - 1), nil
		}
	}
}

// Value returns the current number of outstanding requests.
func (c *Counter) Value() int {
	return int(c.n.Load())
}
