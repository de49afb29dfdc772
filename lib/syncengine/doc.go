// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package syncengine runs the client's authentication and sync loop and
// publishes what it learns to observers.
//
// An [Engine] is a finite-state machine with named sub-states:
//
//	authenticating ─┬─> authenticating.token ────┬─> sync <─┬─> sync.wait
//	                └─> authenticating.password ─┘     │    └─> sync.failed
//	                                                   └─> authenticating (token rejected)
//	any authenticating.* ─> failed (terminal)
//
// Every transition is checked against an allow-list; an illegal one
// panics at the point of transition.
//
// Authentication failures are fatal: the engine enters failed, emits a
// single error notification wrapping the cause in a [*FailureError],
// and [Engine.Run] returns that error. Sync failures are transient:
// they are logged and retried after the fixed sync interval, forever,
// with the same cursor. A sync failure that carries
// messaging.ErrReauthRequired sends the engine back to authenticating
// instead; the cursor survives and connected is not emitted again.
//
// [Engine.Run] is the only goroutine that touches the network. Sends
// and room-state refreshes requested by consumers are handed to it and
// executed between sync calls, so at most one homeserver request is in
// flight at any time.
//
// Notifications (connected, room, message, error, and state changes)
// are delivered synchronously on the Run goroutine in the order the
// underlying changes were applied. Observers must not block for long
// and must not call back into Run-only operations; queries
// ([Engine.GetRoomByName], [Engine.Rooms], ...) are safe from any
// goroutine, including from within an observer.
package syncengine
