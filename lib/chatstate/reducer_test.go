// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatstate

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/bureau-foundation/mxchat/lib/ref"
	"github.com/bureau-foundation/mxchat/lib/schema"
	"github.com/bureau-foundation/mxchat/messaging"
)

func newTestReducer(t *testing.T) (*Reducer, *Directory, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	directory := NewDirectory()
	return NewReducer(directory, logger), directory, &logs
}

func stateEvent(eventType ref.EventType, stateKey string, timestamp int64, content map[string]any) messaging.Event {
	return messaging.Event{
		Type:           eventType,
		StateKey:       &stateKey,
		OriginServerTS: timestamp,
		Content:        content,
	}
}

func messageEvent(eventID, sender string, timestamp int64, body string) messaging.Event {
	event := messaging.Event{
		Type:           schema.EventTypeRoomMessage,
		Sender:         ref.MustParseUserID(sender),
		OriginServerTS: timestamp,
		Content:        map[string]any{"msgtype": "m.text", "body": body},
	}
	if eventID != "" {
		event.EventID = ref.MustParseEventID(eventID)
	}
	return event
}

func TestReducerRoomState(t *testing.T) {
	reducer, _, _ := newTestReducer(t)
	room := NewRoom(testRoomID)

	result := reducer.Apply(room, Batch{
		State: []messaging.Event{
			stateEvent(schema.EventTypeRoomName, "", 1, map[string]any{"name": "General"}),
			stateEvent(schema.EventTypeRoomTopic, "", 1, map[string]any{"topic": "Anything goes"}),
			stateEvent(schema.EventTypeRoomCanonicalAlias, "", 1, map[string]any{"alias": "#general:x"}),
		},
	})

	if room.Name() != "General" || room.Topic() != "Anything goes" {
		t.Errorf("name/topic = %q/%q", room.Name(), room.Topic())
	}
	if room.Alias().String() != "#general:x" {
		t.Errorf("alias = %q", room.Alias())
	}
	if !result.AliasChanged || !result.PreviousAlias.IsZero() || result.Alias.String() != "#general:x" {
		t.Errorf("unexpected alias result: %+v", result)
	}
	if room.DisplayName() != "General" {
		t.Errorf("DisplayName() = %q", room.DisplayName())
	}

	// Name and topic are last-writer-wins regardless of timestamp.
	reducer.Apply(room, Batch{
		State: []messaging.Event{stateEvent(schema.EventTypeRoomName, "", 0, map[string]any{"name": "Renamed"})},
	})
	if room.Name() != "Renamed" {
		t.Errorf("name = %q, want Renamed", room.Name())
	}
}

func TestReducerAliasReplacement(t *testing.T) {
	reducer, _, _ := newTestReducer(t)
	room := NewRoom(testRoomID)

	reducer.Apply(room, Batch{State: []messaging.Event{
		stateEvent(schema.EventTypeRoomCanonicalAlias, "", 1, map[string]any{"alias": "#old:x"}),
	}})
	result := reducer.Apply(room, Batch{State: []messaging.Event{
		stateEvent(schema.EventTypeRoomCanonicalAlias, "", 2, map[string]any{"alias": "#new:x"}),
	}})
	if result.PreviousAlias.String() != "#old:x" || result.Alias.String() != "#new:x" {
		t.Errorf("unexpected alias change: %+v", result)
	}

	result = reducer.Apply(room, Batch{State: []messaging.Event{
		stateEvent(schema.EventTypeRoomCanonicalAlias, "", 3, map[string]any{}),
	}})
	if !result.AliasChanged || !result.Alias.IsZero() || !room.Alias().IsZero() {
		t.Errorf("alias removal not applied: %+v", result)
	}
	if room.DisplayName() != testRoomID.String() {
		t.Errorf("DisplayName() = %q, want room ID", room.DisplayName())
	}
}

func TestReducerMembership(t *testing.T) {
	reducer, directory, _ := newTestReducer(t)
	room := NewRoom(testRoomID)
	bob := ref.MustParseUserID("@bob:x")

	// Applied in reverse arrival order: the newer name must survive.
	reducer.Apply(room, Batch{State: []messaging.Event{
		stateEvent(schema.EventTypeRoomMember, "@bob:x", 200, map[string]any{"membership": "join", "displayname": "Robert"}),
	}})
	reducer.Apply(room, Batch{State: []messaging.Event{
		stateEvent(schema.EventTypeRoomMember, "@bob:x", 100, map[string]any{"membership": "join", "displayname": "Bob"}),
	}})

	user := directory.GetUserByID(bob)
	if user == nil {
		t.Fatal("member event did not create the user")
	}
	if user.DisplayName() != "Robert" {
		t.Errorf("DisplayName() = %q, want Robert", user.DisplayName())
	}

	// Leaving keeps the last known name.
	reducer.Apply(room, Batch{State: []messaging.Event{
		stateEvent(schema.EventTypeRoomMember, "@bob:x", 300, map[string]any{"membership": "leave"}),
	}})
	if user.DisplayName() != "Robert" {
		t.Errorf("after leave DisplayName() = %q, want Robert", user.DisplayName())
	}
}

func TestReducerTimeline(t *testing.T) {
	reducer, directory, _ := newTestReducer(t)
	room := NewRoom(testRoomID)

	result := reducer.Apply(room, Batch{
		State: []messaging.Event{
			stateEvent(schema.EventTypeRoomMember, "@a:x", 50, map[string]any{"membership": "join", "displayname": "Alice"}),
		},
		Timeline: []messaging.Event{
			messageEvent("$1", "@a:x", 1000, "hi"),
			messageEvent("$2", "@b:x", 1001, "hello"),
			stateEvent(schema.EventTypeRoomTopic, "", 1002, map[string]any{"topic": "from the timeline"}),
		},
	})

	if len(result.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(result.Messages))
	}
	first := result.Messages[0]
	if first.Body() != "hi" || first.MsgType() != schema.MsgTypeText || first.Created() != 1000 {
		t.Errorf("unexpected first message: body=%q type=%q created=%d", first.Body(), first.MsgType(), first.Created())
	}
	if first.Room() != testRoomID || first.ID().String() != "$1" {
		t.Errorf("unexpected first message identity: %s %s", first.Room(), first.ID())
	}
	// State is applied before the timeline, so the speaker already has a name.
	if first.Speaker().DisplayName() != "Alice" {
		t.Errorf("speaker name = %q, want Alice", first.Speaker().DisplayName())
	}
	if directory.GetUserByID(ref.MustParseUserID("@b:x")) == nil {
		t.Error("sender of second message not created")
	}
	if room.Topic() != "from the timeline" {
		t.Errorf("timeline state event not applied: topic = %q", room.Topic())
	}
	if room.Messages().Len() != 2 {
		t.Errorf("index length = %d, want 2", room.Messages().Len())
	}
}

func TestReducerReplayIsHarmless(t *testing.T) {
	reducer, _, _ := newTestReducer(t)
	room := NewRoom(testRoomID)
	batch := Batch{
		State: []messaging.Event{
			stateEvent(schema.EventTypeRoomCanonicalAlias, "", 1, map[string]any{"alias": "#general:x"}),
		},
		Timeline: []messaging.Event{messageEvent("$1", "@a:x", 1000, "hi")},
	}

	reducer.Apply(room, batch)
	result := reducer.Apply(room, batch)

	if len(result.Messages) != 0 {
		t.Errorf("replayed batch produced %d new messages", len(result.Messages))
	}
	if result.PreviousAlias.String() != "#general:x" || result.Alias.String() != "#general:x" {
		t.Errorf("replayed alias should overwrite with the same value: %+v", result)
	}
	if room.Messages().Len() != 1 {
		t.Errorf("index length = %d, want 1", room.Messages().Len())
	}
}

func TestReducerUnknownAndIgnoredEvents(t *testing.T) {
	reducer, _, logs := newTestReducer(t)
	room := NewRoom(testRoomID)

	reducer.Apply(room, Batch{
		State: []messaging.Event{
			stateEvent(schema.EventTypeRoomPowerLevels, "", 1, map[string]any{"users": map[string]any{}}),
			stateEvent(schema.EventTypeRoomCreate, "", 1, map[string]any{}),
			stateEvent("com.example.widget", "", 1, map[string]any{}),
		},
		Ephemeral: []messaging.Event{
			{Type: schema.EventTypeTyping, Content: map[string]any{"user_ids": []any{"@a:x"}}},
			{Type: schema.EventTypeReceipt, Content: map[string]any{}},
			{Type: "com.example.ping", Content: map[string]any{}},
		},
	})

	output := logs.String()
	if !strings.Contains(output, "unknown room event type") || !strings.Contains(output, "com.example.widget") {
		t.Errorf("unknown state type not logged: %s", output)
	}
	if !strings.Contains(output, "unknown ephemeral event type") || !strings.Contains(output, "com.example.ping") {
		t.Errorf("unknown ephemeral type not logged: %s", output)
	}
	for _, ignored := range []string{"m.room.power_levels", "m.room.create", "m.typing", "m.receipt"} {
		if strings.Contains(output, ignored) {
			t.Errorf("ignored type %s was logged: %s", ignored, output)
		}
	}
	if room.Name() != "" || room.Messages().Len() != 0 {
		t.Error("ignored events changed the room")
	}
}

func TestReducerPanicsOnMalformedKnownEvent(t *testing.T) {
	reducer, _, _ := newTestReducer(t)
	room := NewRoom(testRoomID)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for m.room.name with non-string name")
		}
	}()
	reducer.Apply(room, Batch{State: []messaging.Event{
		stateEvent(schema.EventTypeRoomName, "", 1, map[string]any{"name": 42}),
	}})
}
