/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"errors"
	"strings"
	"sync"
)

// CompositeUnit runs several units as one. busymon composes the status server,
// the profiling server and the self-check worker with it.
type CompositeUnit struct {
	Units []Unit
}

var _ Unit = (*CompositeUnit)(nil)
var _ MetricsRegisterer = (*CompositeUnit)(nil)

// NewCompositeUnit creates a new composite unit.
func NewCompositeUnit(units ...Unit) *CompositeUnit {
	return &CompositeUnit{Units: units}
}

// Start starts all units concurrently and returns when all their Start calls have returned
// or when one of them reports a fatal error. In the latter case all units are stopped non-gracefully
// and CompositeUnitError with the fatal errors followed by stop errors is sent to fatalError.
func (cu *CompositeUnit) Start(fatalError chan<- error) {
	failed := make(chan error, len(cu.Units))
	var wg sync.WaitGroup
	for _, u := range cu.Units {
		wg.Add(1)
		go func(u Unit) {
			defer wg.Done()
			unitErr := make(chan error, 1)
			u.Start(unitErr)
			select {
			case err := <-unitErr:
				failed <- err
			default:
			}
		}(u)
	}
	allReturned := make(chan struct{})
	go func() {
		wg.Wait()
		close(allReturned)
	}()

	var first error
	select {
	case first = <-failed:
	case <-allReturned:
		select {
		case first = <-failed:
		default:
			return
		}
	}

	stopErr := cu.Stop(false)
	errs := []error{first}
	for more := true; more; {
		select {
		case err := <-failed:
			errs = append(errs, err)
		default:
			more = false
		}
	}
	var cuErr *CompositeUnitError
	if errors.As(stopErr, &cuErr) {
		errs = append(errs, cuErr.UnitErrors...)
	}
	fatalError <- &CompositeUnitError{UnitErrors: errs}
}

// Stop stops all units concurrently. Errors of the units are returned as CompositeUnitError.
func (cu *CompositeUnit) Stop(gracefully bool) error {
	results := make(chan error, len(cu.Units))
	var wg sync.WaitGroup
	for _, u := range cu.Units {
		wg.Add(1)
		go func(u Unit) {
			defer wg.Done()
			results <- u.Stop(gracefully)
		}(u)
	}
	wg.Wait()
	close(results)

	var errs []error
	for err := range results {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &CompositeUnitError{UnitErrors: errs}
}

// MustRegisterMetrics implements MetricsRegisterer for the units that implement it.
func (cu *CompositeUnit) MustRegisterMetrics() {
	cu.eachMetricsRegisterer(MetricsRegisterer.MustRegisterMetrics)
}

// UnregisterMetrics implements MetricsRegisterer for the units that implement it.
func (cu *CompositeUnit) UnregisterMetrics() {
	cu.eachMetricsRegisterer(MetricsRegisterer.UnregisterMetrics)
}

func (cu *CompositeUnit) eachMetricsRegisterer(fn func(MetricsRegisterer)) {
	for _, u := range cu.Units {
		if mr, ok := u.(MetricsRegisterer); ok {
			fn(mr)
		}
	}
}

// CompositeUnitError contains errors of the units of CompositeUnit.
type CompositeUnitError struct {
	UnitErrors []error
}

func (e *CompositeUnitError) Error() string {
	msgs := make([]string, len(e.UnitErrors))
	for i, err := range e.UnitErrors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets errors.Is and errors.As look through the unit errors.
func (e *CompositeUnitError) Unwrap() []error {
	return e.UnitErrors
}
