// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatstate

import (
	"fmt"
	"time"

	"github.com/bureau-foundation/mxchat/lib/ref"
	"github.com/bureau-foundation/mxchat/lib/schema"
	"github.com/bureau-foundation/mxchat/messaging"
)

// Message is one m.room.message event as the client displays it. A
// Message never changes after construction.
type Message struct {
	room    ref.RoomID
	speaker *User
	event   messaging.Event
	msgType string
	body    string

	created int64
}

// newMessage builds a Message from a timeline event. The transport
// validates message events, so a malformed one here is a broken
// invariant and panics.
func newMessage(roomID ref.RoomID, speaker *User, event messaging.Event) *Message {
	if event.Type != schema.EventTypeRoomMessage {
		panic(fmt.Sprintf("chatstate: newMessage called with %s event", event.Type))
	}
	if event.Content == nil {
		panic(fmt.Sprintf("chatstate: message %s in %s has no content", event.EventID, roomID))
	}
	if event.OriginServerTS <= 0 {
		panic(fmt.Sprintf("chatstate: message %s in %s has no origin_server_ts", event.EventID, roomID))
	}
	if speaker == nil || speaker.id != event.Sender {
		panic(fmt.Sprintf("chatstate: message %s in %s: speaker does not match sender %s", event.EventID, roomID, event.Sender))
	}

	content, err := schema.DecodeContent[schema.MessageContent](event.Content)
	if err != nil {
		panic(fmt.Sprintf("chatstate: message %s in %s: %v", event.EventID, roomID, err))
	}

	return &Message{
		room:    roomID,
		speaker: speaker,
		event:   event,
		msgType: content.MsgType,
		body:    content.Body,
		created: event.OriginServerTS,
	}
}

// Room returns the ID of the room the message belongs to.
func (m *Message) Room() ref.RoomID { return m.room }

// Speaker returns the directory entry of the sender.
func (m *Message) Speaker() *User { return m.speaker }

// Event returns the raw event the message was built from.
func (m *Message) Event() messaging.Event { return m.event }

// ID returns the event ID. Zero if the homeserver omitted it.
func (m *Message) ID() ref.EventID { return m.event.EventID }

// MsgType returns the msgtype (m.text, m.notice, m.emote, ...).
func (m *Message) MsgType() string { return m.msgType }

// Body returns the plain-text body.
func (m *Message) Body() string { return m.body }

// Sender returns the sender's user ID.
func (m *Message) Sender() ref.UserID { return m.event.Sender }

// Created returns origin_server_ts in milliseconds since the epoch.
func (m *Message) Created() int64 { return m.created }

// Time returns the creation time.
func (m *Message) Time() time.Time { return time.UnixMilli(m.created) }
