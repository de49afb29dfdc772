// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
)

// RoomNameContent is the content of an m.room.name state event.
type RoomNameContent struct {
	Name string `json:"name"`
}

// RoomTopicContent is the content of an m.room.topic state event.
type RoomTopicContent struct {
	Topic string `json:"topic"`
}

// RoomCanonicalAliasContent is the content of an m.room.canonical_alias
// state event. Alias is empty when the canonical alias was removed.
type RoomCanonicalAliasContent struct {
	Alias      string   `json:"alias,omitempty"`
	AltAliases []string `json:"alt_aliases,omitempty"`
}

// RoomMemberContent is the content of an m.room.member state event.
type RoomMemberContent struct {
	Membership  string `json:"membership"`
	DisplayName string `json:"displayname,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// MessageContent is the content of an m.room.message timeline event.
// Body is empty for redacted messages.
type MessageContent struct {
	MsgType       string `json:"msgtype,omitempty"`
	Body          string `json:"body,omitempty"`
	Format        string `json:"format,omitempty"`
	FormattedBody string `json:"formatted_body,omitempty"`
}

// DirectContent is the content of the m.direct account-data event:
// peer user ID to the list of direct-conversation room IDs, in the
// order the account's clients recorded them.
type DirectContent map[string][]string

// DecodeContent converts a generic event content map into T. Transport
// events carry content as map[string]any so that unknown event types
// survive decoding; handlers that understand a type decode it here.
func DecodeContent[T any](content map[string]any) (T, error) {
	var result T
	data, err := json.Marshal(content)
	if err != nil {
		return result, fmt.Errorf("encoding event content: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("decoding event content: %w", err)
	}
	return result, nil
}
