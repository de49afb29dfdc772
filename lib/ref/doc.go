// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated, immutable references for the Matrix
// identifiers that flow through the sync engine: user IDs, room IDs,
// room aliases, event IDs, and event types.
//
// The sigil-prefixed kinds share one grammar (see validate.go): a
// sigil, a non-empty local part, at most 255 bytes, no whitespace or
// control characters, and a ":server" suffix that is required for
// users and aliases, optional for rooms, and not inspected for events.
//
// Every type implements encoding.TextMarshaler and TextUnmarshaler, so
// decoding a /sync response validates identifiers at the transport
// boundary, map keys such as the room IDs under rooms.join included.
package ref
