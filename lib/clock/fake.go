// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// Fake returns a FakeClock reading initial. Time stands still until
// Advance is called.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{current: initial}
	clock.changed = sync.NewCond(&clock.mu)
	return clock
}

// FakeClock is a deterministic Clock. It is safe for concurrent use:
// the engine goroutine registers timers while the test goroutine
// advances time.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	pending []*fakeTimer
	changed *sync.Cond
}

type fakeTimer struct {
	clock    *FakeClock
	deadline time.Time
	channel  chan time.Time
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NewTimer registers a timer that fires when Advance moves the clock
// to or past now+d. A non-positive d fires immediately and never
// counts as pending.
func (c *FakeClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	timer := &fakeTimer{
		clock:    c,
		deadline: c.current.Add(d),
		channel:  make(chan time.Time, 1),
	}
	if d <= 0 {
		timer.channel <- c.current
		return timer
	}
	c.pending = append(c.pending, timer)
	c.changed.Broadcast()
	return timer
}

// Advance moves the clock forward by d and fires every timer whose
// deadline is reached, earliest first.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	now := c.current

	var due []*fakeTimer
	c.pending = slices.DeleteFunc(c.pending, func(timer *fakeTimer) bool {
		if timer.deadline.After(now) {
			return false
		}
		due = append(due, timer)
		return true
	})
	c.changed.Broadcast()
	c.mu.Unlock()

	slices.SortStableFunc(due, func(a, b *fakeTimer) int {
		return a.deadline.Compare(b.deadline)
	})
	for _, timer := range due {
		timer.channel <- now
	}
}

// WaitForTimers blocks until at least n timers are pending. Tests call
// it to know the engine has parked in a wait before advancing:
//
//	fakeClock.WaitForTimers(1)
//	fakeClock.Advance(syncInterval)
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.pending) < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of timers neither fired nor stopped.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (t *fakeTimer) C() <-chan time.Time { return t.channel }

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	index := slices.Index(t.clock.pending, t)
	if index < 0 {
		return false
	}
	t.clock.pending = slices.Delete(t.clock.pending, index, index+1)
	t.clock.changed.Broadcast()
	return true
}
