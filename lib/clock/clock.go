// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the engine's view of time. Production code injects Real();
// tests inject Fake() and move time with Advance.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTimer starts a timer that delivers the current time on its
	// channel once d has elapsed. A timer with d <= 0 is already
	// expired when returned.
	NewTimer(d time.Duration) Timer
}

// Timer is a single pending deadline.
type Timer interface {
	// C delivers one value when the deadline passes.
	C() <-chan time.Time

	// Stop cancels the timer. It reports false if the timer already
	// fired or was stopped. The channel is never closed.
	Stop() bool
}
