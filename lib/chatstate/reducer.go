// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatstate

import (
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/mxchat/lib/ref"
	"github.com/bureau-foundation/mxchat/lib/schema"
	"github.com/bureau-foundation/mxchat/messaging"
)

// Batch is one room's slice of a sync response.
type Batch struct {
	State     []messaging.Event
	Timeline  []messaging.Event
	Ephemeral []messaging.Event
}

// BatchFromJoinedRoom extracts the parts of a joined-room update the
// reducer consumes.
func BatchFromJoinedRoom(room messaging.JoinedRoom) Batch {
	return Batch{
		State:     room.State.Events,
		Timeline:  room.Timeline.Events,
		Ephemeral: room.Ephemeral.Events,
	}
}

// Result reports what applying a batch changed beyond the room's own
// fields.
type Result struct {
	// Messages are the messages inserted into the room's index, in
	// timeline order. Duplicates of already indexed events are omitted.
	Messages []*Message

	// AliasChanged is set when the batch carried a canonical alias
	// event. PreviousAlias is the alias before the batch and Alias the
	// alias after it; either may be zero.
	AliasChanged  bool
	PreviousAlias ref.RoomAlias
	Alias         ref.RoomAlias
}

// eventKind classifies an event type for dispatch.
type eventKind uint8

const (
	kindUnknown eventKind = iota
	kindIgnored
	kindName
	kindTopic
	kindCanonicalAlias
	kindMember
	kindMessage
)

// roomEventKinds covers state and timeline events. Both sections share
// one dispatch.
var roomEventKinds = map[ref.EventType]eventKind{
	schema.EventTypeRoomName:           kindName,
	schema.EventTypeRoomTopic:          kindTopic,
	schema.EventTypeRoomCanonicalAlias: kindCanonicalAlias,
	schema.EventTypeRoomMember:         kindMember,
	schema.EventTypeRoomMessage:        kindMessage,

	schema.EventTypeRoomAliases:           kindIgnored,
	schema.EventTypeRoomAvatar:            kindIgnored,
	schema.EventTypeRoomRelatedGroups:     kindIgnored,
	schema.EventTypeRoomCreate:            kindIgnored,
	schema.EventTypeRoomJoinRules:         kindIgnored,
	schema.EventTypeRoomHistoryVisibility: kindIgnored,
	schema.EventTypeRoomPowerLevels:       kindIgnored,
	schema.EventTypeRoomGuestAccess:       kindIgnored,
	schema.EventTypeRoomEncryption:        kindIgnored,
	schema.EventTypeRoomEncrypted:         kindIgnored,
	schema.EventTypeRoomThirdPartyInvite:  kindIgnored,
	schema.EventTypeRoomPreviewURLs:       kindIgnored,
}

var ephemeralEventKinds = map[ref.EventType]eventKind{
	schema.EventTypeReceipt: kindIgnored,
	schema.EventTypeTyping:  kindIgnored,
}

type eventHandler func(reducer *Reducer, room *Room, event messaging.Event, result *Result)

var roomEventHandlers = [...]eventHandler{
	kindIgnored:        nil,
	kindName:           (*Reducer).applyName,
	kindTopic:          (*Reducer).applyTopic,
	kindCanonicalAlias: (*Reducer).applyCanonicalAlias,
	kindMember:         (*Reducer).applyMember,
	kindMessage:        (*Reducer).applyMessage,
}

// Reducer applies event batches to rooms. It is not safe for
// concurrent use; the sync engine calls it from its run loop only.
type Reducer struct {
	users  *Directory
	logger *slog.Logger
}

// NewReducer returns a Reducer that resolves users through users.
func NewReducer(users *Directory, logger *slog.Logger) *Reducer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reducer{users: users, logger: logger}
}

// Apply applies batch to room: state events first, so the timeline is
// interpreted against current state, then the timeline, then ephemeral
// events. Unknown event types are logged and skipped. Malformed events
// of known types panic: the transport rejects or drops them first.
func (reducer *Reducer) Apply(room *Room, batch Batch) Result {
	var result Result
	for _, event := range batch.State {
		reducer.dispatch(room, event, &result)
	}
	for _, event := range batch.Timeline {
		reducer.dispatch(room, event, &result)
	}
	for _, event := range batch.Ephemeral {
		if ephemeralEventKinds[event.Type] == kindUnknown {
			reducer.logger.Warn("unknown ephemeral event type",
				"room_id", room.ID(),
				"type", event.Type,
			)
		}
	}
	return result
}

func (reducer *Reducer) dispatch(room *Room, event messaging.Event, result *Result) {
	kind := roomEventKinds[event.Type]
	if kind == kindUnknown {
		reducer.logger.Warn("unknown room event type",
			"room_id", room.ID(),
			"type", event.Type,
			"event_id", event.EventID,
		)
		return
	}
	if handler := roomEventHandlers[kind]; handler != nil {
		handler(reducer, room, event, result)
	}
}

func (reducer *Reducer) applyName(room *Room, event messaging.Event, _ *Result) {
	content := mustDecode[schema.RoomNameContent](room, event)
	room.setName(content.Name)
}

func (reducer *Reducer) applyTopic(room *Room, event messaging.Event, _ *Result) {
	content := mustDecode[schema.RoomTopicContent](room, event)
	room.setTopic(content.Topic)
}

func (reducer *Reducer) applyCanonicalAlias(room *Room, event messaging.Event, result *Result) {
	content := mustDecode[schema.RoomCanonicalAliasContent](room, event)

	var alias ref.RoomAlias
	if content.Alias != "" {
		parsed, err := ref.ParseRoomAlias(content.Alias)
		if err != nil {
			panic(fmt.Sprintf("chatstate: %s event %s in %s: %v", event.Type, event.EventID, room.ID(), err))
		}
		alias = parsed
	}

	previous := room.setAlias(alias)
	if !result.AliasChanged {
		result.AliasChanged = true
		result.PreviousAlias = previous
	}
	result.Alias = alias
}

func (reducer *Reducer) applyMember(room *Room, event messaging.Event, _ *Result) {
	content := mustDecode[schema.RoomMemberContent](room, event)

	subject := event.Sender
	if stateKey := event.SubjectKey(); stateKey != "" {
		parsed, err := ref.ParseUserID(stateKey)
		if err != nil {
			panic(fmt.Sprintf("chatstate: %s event %s in %s: %v", event.Type, event.EventID, room.ID(), err))
		}
		subject = parsed
	}
	if subject.IsZero() {
		panic(fmt.Sprintf("chatstate: %s event %s in %s has neither state_key nor sender", event.Type, event.EventID, room.ID()))
	}

	switch content.Membership {
	case "leave", "ban":
		// The departing member's last event carries no profile; keep
		// the name they were known by.
		reducer.users.GetUser(subject)
	default:
		reducer.users.Update(subject, event.OriginServerTS, content.DisplayName)
	}
}

func (reducer *Reducer) applyMessage(room *Room, event messaging.Event, result *Result) {
	if event.Sender.IsZero() {
		panic(fmt.Sprintf("chatstate: message %s in %s has no sender", event.EventID, room.ID()))
	}
	speaker := reducer.users.GetUser(event.Sender)
	message := newMessage(room.ID(), speaker, event)
	if room.messages.Insert(message) {
		result.Messages = append(result.Messages, message)
	}
}

// mustDecode decodes the content of a known event type, panicking on
// failure.
func mustDecode[T any](room *Room, event messaging.Event) T {
	content, err := schema.DecodeContent[T](event.Content)
	if err != nil {
		panic(fmt.Sprintf("chatstate: %s event %s in %s: %v", event.Type, event.EventID, room.ID(), err))
	}
	return content
}
