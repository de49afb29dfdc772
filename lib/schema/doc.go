// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the Matrix event types and content structures
// the sync engine understands. Event type constants (EventType*) are the
// "type" field of state, timeline, ephemeral, and account-data events;
// Go structs define the JSON content of the types the reducer acts on.
//
// Key event types:
//
//   - [EventTypeRoomName], [EventTypeRoomTopic],
//     [EventTypeRoomCanonicalAlias] -- room fields
//   - [EventTypeRoomMember] -- user directory updates
//   - [EventTypeRoomMessage] -- timeline messages
//   - [EventTypeDirect], [EventTypePushRules] -- account data
//   - [EventTypeReceipt], [EventTypeTyping] -- ephemeral signaling
//
// [DecodeContent] converts the generic content map carried by
// transport events into one of the typed content structs.
package schema
