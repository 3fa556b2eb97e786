/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package busy tracks in-flight requests application-wide and broadcasts lifecycle notifications
// (busy.begin, busy.end-one, busy.end-all) so that interested consumers can present a busy state
// while requests are outstanding.
//
// Tracker is the only mutator of the outstanding counter and the only emitter of events.
// Every tracked Start is paired with exactly one Request.Complete, and the opt-out decision
// is bound to the Request handle at start time.
// IsBusyFor is a pure predicate that consumers use to decide whether a notification applies to them.
package busy
