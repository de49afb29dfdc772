// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// EventType identifies a Matrix state, timeline, ephemeral, or
// account-data event type (e.g., "m.room.message"). Constants live in
// lib/schema.
//
// EventType is a named string type, not a struct wrapper: event types
// are opaque identifiers that need no parsing. Unknown types are legal
// protocol extensions and must round-trip unchanged.
type EventType string

// String returns the event type string.
func (t EventType) String() string { return string(t) }
