// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"time"

	"github.com/bureau-foundation/mxchat/lib/ref"
	"github.com/bureau-foundation/mxchat/lib/secret"
)

// LoginRequest holds the parameters for password login. The caller
// retains ownership of Password; Login reads it but does not close it.
type LoginRequest struct {
	Username string
	Password *secret.Buffer
	// DeviceName is the initial display name of the new device.
	// Defaults to DefaultDeviceName.
	DeviceName string
}

// loginBody is the wire form of an m.login.password request.
type loginBody struct {
	Type                     string         `json:"type"`
	Identifier               userIdentifier `json:"identifier"`
	Password                 string         `json:"password"`
	InitialDeviceDisplayName string         `json:"initial_device_display_name,omitempty"`
}

type userIdentifier struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// AuthResponse is returned by login.
type AuthResponse struct {
	UserID      ref.UserID `json:"user_id"`
	AccessToken string     `json:"access_token"`
	DeviceID    string     `json:"device_id"`
}

// WhoAmIResponse is returned by /account/whoami.
type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
}

// SendEventResponse is returned by SendMessage and SendEvent.
type SendEventResponse struct {
	EventID ref.EventID `json:"event_id"`
}

// Event represents a Matrix event from the server. Content stays
// generic so that unknown event types decode without loss; handlers
// decode the types they understand with schema.DecodeContent.
type Event struct {
	EventID        ref.EventID    `json:"event_id"`
	Type           ref.EventType  `json:"type"`
	Sender         ref.UserID     `json:"sender"`
	OriginServerTS int64          `json:"origin_server_ts,omitempty"`
	Content        map[string]any `json:"content"`
	RoomID         ref.RoomID     `json:"room_id"`
	StateKey       *string        `json:"state_key,omitempty"`
	Unsigned       *EventUnsigned `json:"unsigned,omitempty"`
}

// EventUnsigned holds optional unsigned data attached to events.
type EventUnsigned struct {
	Age           int64  `json:"age,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// SubjectKey returns the state key of a state event, or the empty
// string for timeline events.
func (e Event) SubjectKey() string {
	if e.StateKey == nil {
		return ""
	}
	return *e.StateKey
}

// SyncOptions controls the behavior of the /sync endpoint.
type SyncOptions struct {
	// Since is the next_batch cursor of the previous sync. Empty for
	// the initial sync.
	Since string
	// Timeout is how long the homeserver may hold the request open
	// waiting for new events.
	Timeout time.Duration
}

// SyncResponse is the top-level response from /sync.
type SyncResponse struct {
	NextBatch   string             `json:"next_batch"`
	AccountData AccountDataSection `json:"account_data"`
	Presence    PresenceSection    `json:"presence"`
	Rooms       RoomsSection       `json:"rooms"`
}

// AccountDataSection holds account-level (not room-scoped) metadata
// events such as m.direct and m.push_rules.
type AccountDataSection struct {
	Events []Event `json:"events"`
}

// PresenceSection holds m.presence events. The client receives these
// but does not act on them.
type PresenceSection struct {
	Events []Event `json:"events"`
}

// RoomsSection partitions room updates by the account's membership.
type RoomsSection struct {
	Join   map[ref.RoomID]JoinedRoom  `json:"join"`
	Invite map[ref.RoomID]InvitedRoom `json:"invite"`
	Leave  map[ref.RoomID]LeftRoom    `json:"leave"`
}

// JoinedRoom is the update for one joined room.
type JoinedRoom struct {
	State       StateSection       `json:"state"`
	Timeline    TimelineSection    `json:"timeline"`
	Ephemeral   EphemeralSection   `json:"ephemeral"`
	AccountData AccountDataSection `json:"account_data"`
}

// InvitedRoom is the stripped state of a room the account was invited to.
type InvitedRoom struct {
	InviteState StateSection `json:"invite_state"`
}

// LeftRoom is the final update for a room the account left.
type LeftRoom struct {
	State    StateSection    `json:"state"`
	Timeline TimelineSection `json:"timeline"`
}

// StateSection holds state events.
type StateSection struct {
	Events []Event `json:"events"`
}

// TimelineSection holds timeline events in the order they happened.
type TimelineSection struct {
	Events    []Event `json:"events"`
	Limited   bool    `json:"limited,omitempty"`
	PrevBatch string  `json:"prev_batch,omitempty"`
}

// EphemeralSection holds transient events (typing, receipts).
type EphemeralSection struct {
	Events []Event `json:"events"`
}
