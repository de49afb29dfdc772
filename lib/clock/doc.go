// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source behind the sync
// engine's polling cadence.
//
// Every pause between sync calls, after success or failure, is a
// Timer from the engine's Clock. Tests drive the cadence without real
// sleeps:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	engine, _ := syncengine.New(syncengine.Config{Clock: c, ...})
//	go engine.Run(ctx)
//	c.WaitForTimers(1)     // engine is parked in sync.wait
//	c.Advance(time.Second) // next sync call begins
//
// A timer counts as pending from NewTimer until it fires or is
// stopped. WaitForTimers closes the race between the engine
// registering its timer and the test advancing time.
package clock
