// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source so that code with
// deadlines and deferred callbacks can be tested without sleeping.
//
// Production code holds a Clock field set to Real(). Tests use Fake(),
// which only moves when Advance is called:
//
//	fakeClock := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	manager := session.NewManager(session.Config{Clock: fakeClock, ...})
//	fakeClock.Advance(840 * time.Second) // fires the refresh timer
package clock

import "time"

// Clock is the subset of the time package used by the session client.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d
	// has elapsed. If d <= 0 the channel receives immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc calls f once d has elapsed and returns a Timer that can
	// cancel the pending call. The real clock runs f in its own
	// goroutine; the fake clock runs it synchronously inside Advance.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a pending AfterFunc callback.
type Timer struct {
	stopFunc func() bool
}

// Stop cancels the callback. Returns true if the call stopped the
// timer, false if it had already fired or been stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }
