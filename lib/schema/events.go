// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "github.com/bureau-foundation/mxchat/lib/ref"

// Room state event types acted on by the room reducer.
const (
	// EventTypeRoomName sets the room's display name.
	EventTypeRoomName ref.EventType = "m.room.name"

	// EventTypeRoomTopic sets the room's topic.
	EventTypeRoomTopic ref.EventType = "m.room.topic"

	// EventTypeRoomCanonicalAlias sets the room's primary alias. The
	// engine registers the room under the alias in its alias table.
	EventTypeRoomCanonicalAlias ref.EventType = "m.room.canonical_alias"

	// EventTypeRoomMember carries membership and the member's display
	// name. State key: the subject's user ID.
	EventTypeRoomMember ref.EventType = "m.room.member"

	// EventTypeRoomMessage is a timeline message.
	EventTypeRoomMessage ref.EventType = "m.room.message"
)

// Room state event types that are recognized but carry nothing a
// terminal client displays.
const (
	EventTypeRoomAliases           ref.EventType = "m.room.aliases"
	EventTypeRoomAvatar            ref.EventType = "m.room.avatar"
	EventTypeRoomRelatedGroups     ref.EventType = "m.room.related_groups"
	EventTypeRoomCreate            ref.EventType = "m.room.create"
	EventTypeRoomJoinRules         ref.EventType = "m.room.join_rules"
	EventTypeRoomHistoryVisibility ref.EventType = "m.room.history_visibility"
	EventTypeRoomPowerLevels       ref.EventType = "m.room.power_levels"
	EventTypeRoomGuestAccess       ref.EventType = "m.room.guest_access"
	EventTypeRoomEncryption        ref.EventType = "m.room.encryption"
	EventTypeRoomEncrypted         ref.EventType = "m.room.encrypted"
	EventTypeRoomThirdPartyInvite  ref.EventType = "m.room.third_party_invite"
	EventTypeRoomPreviewURLs       ref.EventType = "org.matrix.room.preview_urls"
)

// Ephemeral event types. Received in the per-room ephemeral section
// and intentionally not acted on.
const (
	EventTypeReceipt ref.EventType = "m.receipt"
	EventTypeTyping  ref.EventType = "m.typing"
)

// Account-data event types.
const (
	// EventTypeDirect maps peer user IDs to the room IDs of direct
	// conversations with them.
	EventTypeDirect ref.EventType = "m.direct"

	// EventTypePushRules holds the account's notification rules.
	EventTypePushRules ref.EventType = "m.push_rules"
)

// Message msgtype values.
const (
	MsgTypeText   = "m.text"
	MsgTypeNotice = "m.notice"
	MsgTypeEmote  = "m.emote"
)

// FormatHTML is the only formatted_body format defined by Matrix.
const FormatHTML = "org.matrix.custom.html"
