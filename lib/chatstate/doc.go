// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chatstate is the in-memory state store the sync engine feeds:
// rooms, their ordered message indices, and the user directory.
//
// State is built incrementally. After the initial sync nothing is ever
// rebuilt from scratch; each batch is applied through a [Reducer],
// which mutates one [Room] and the shared [Directory] and reports the
// messages it inserted and any canonical alias change.
//
// Ordering:
//
//   - [MessageIndex] orders messages by (origin_server_ts, insertion
//     sequence), so equal timestamps keep arrival order and iteration
//     is deterministic.
//   - [Directory] keeps two indices over the same users, by ID and by
//     display name.
//
// Consumers on other goroutines may read any of these types
// concurrently with the engine's writes; every type guards its own
// fields. Handles returned to consumers are read-only: mutation happens
// only through the Reducer, which only the sync engine calls.
//
// A Room knows nothing about aliases other than its own current one.
// The alias table, the direct-message map, and the room table live in
// the sync engine, which owns all cross-room state.
package chatstate
