// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/mxchat/lib/ref"
	"github.com/bureau-foundation/mxchat/lib/schema"
)

// Validate checks that every event the state reducer will consume
// carries the fields it relies on: a type, and for messages a sender,
// a content object and an origin_server_ts. A member event must name
// its subject through a parseable state_key or a sender. Those fields
// are stamped by the homeserver, so a miss is a broken server and
// fails the whole response.
//
// Content fields are written by room members and are not type-checked
// by homeservers; see [SyncResponse.DropMalformedContent].
func (r *SyncResponse) Validate() error {
	if r.NextBatch == "" {
		return errors.New("next_batch is missing")
	}

	var errs []error
	r.eachSection(func(section string, events *[]Event) {
		for index := range *events {
			if err := (*events)[index].validate(); err != nil {
				errs = append(errs, fmt.Errorf("%s[%d]: %w", section, index, err))
			}
		}
	})
	return errors.Join(errs...)
}

// DropMalformedContent removes events of known types whose content
// does not decode, logging each at Warn. One member sending a message
// with a numeric body must not stall the sync for everyone. Returns
// the number of events dropped.
func (r *SyncResponse) DropMalformedContent(logger *slog.Logger) int {
	dropped := 0
	r.eachSection(func(section string, events *[]Event) {
		before := len(*events)
		*events = dropMalformed(*events, section, logger)
		dropped += before - len(*events)
	})
	return dropped
}

// eachSection visits every event list the reducer consumes. Room
// sections are written back through the map since JoinedRoom is held
// by value.
func (r *SyncResponse) eachSection(visit func(section string, events *[]Event)) {
	visit("account_data", &r.AccountData.Events)
	for roomID, room := range r.Rooms.Join {
		prefix := "rooms.join." + roomID.String()
		visit(prefix+".state", &room.State.Events)
		visit(prefix+".timeline", &room.Timeline.Events)
		visit(prefix+".ephemeral", &room.Ephemeral.Events)
		r.Rooms.Join[roomID] = room
	}
}

func dropMalformed(events []Event, section string, logger *slog.Logger) []Event {
	kept := events[:0]
	for _, event := range events {
		if err := event.contentError(); err != nil {
			logger.Warn("dropping event with malformed content",
				"section", section,
				"type", event.Type,
				"event_id", event.EventID,
				"sender", event.Sender,
				"error", err,
			)
			continue
		}
		kept = append(kept, event)
	}
	return kept
}

func (e *Event) validate() error {
	if e.Type == "" {
		return errors.New("event has no type")
	}

	switch e.Type {
	case schema.EventTypeRoomMessage:
		switch {
		case e.Sender.IsZero():
			return fmt.Errorf("%s event %s has no sender", e.Type, e.EventID)
		case e.Content == nil:
			return fmt.Errorf("%s event %s has no content", e.Type, e.EventID)
		case e.OriginServerTS <= 0:
			return fmt.Errorf("%s event %s has no origin_server_ts", e.Type, e.EventID)
		}

	case schema.EventTypeRoomMember:
		if stateKey := e.SubjectKey(); stateKey != "" {
			if _, err := ref.ParseUserID(stateKey); err != nil {
				return fmt.Errorf("%s event %s: %w", e.Type, e.EventID, err)
			}
		} else if e.Sender.IsZero() {
			return fmt.Errorf("%s event %s has neither state_key nor sender", e.Type, e.EventID)
		}
	}
	return nil
}

// contentError decodes the content of a known event type the way the
// reducer will. Unknown types always pass.
func (e *Event) contentError() error {
	switch e.Type {
	case schema.EventTypeRoomMessage:
		return decodes[schema.MessageContent](e.Content)
	case schema.EventTypeRoomName:
		return decodes[schema.RoomNameContent](e.Content)
	case schema.EventTypeRoomTopic:
		return decodes[schema.RoomTopicContent](e.Content)
	case schema.EventTypeRoomMember:
		return decodes[schema.RoomMemberContent](e.Content)
	case schema.EventTypeRoomCanonicalAlias:
		decoded, err := schema.DecodeContent[schema.RoomCanonicalAliasContent](e.Content)
		if err != nil || decoded.Alias == "" {
			return err
		}
		_, err = ref.ParseRoomAlias(decoded.Alias)
		return err
	}
	return nil
}

func decodes[T any](content map[string]any) error {
	_, err := schema.DecodeContent[T](content)
	return err
}
