// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatstate

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/bureau-foundation/mxchat/lib/ref"
	"github.com/bureau-foundation/mxchat/lib/schema"
	"github.com/bureau-foundation/mxchat/messaging"
)

var testRoomID = ref.MustParseRoomID("!r1:x")

func testMessage(t *testing.T, directory *Directory, eventID string, timestamp int64, body string) *Message {
	t.Helper()
	sender := ref.MustParseUserID("@a:x")
	event := messaging.Event{
		Type:           schema.EventTypeRoomMessage,
		Sender:         sender,
		OriginServerTS: timestamp,
		Content:        map[string]any{"msgtype": "m.text", "body": body},
	}
	if eventID != "" {
		event.EventID = ref.MustParseEventID(eventID)
	}
	return newMessage(testRoomID, directory.GetUser(sender), event)
}

func bodies(index *MessageIndex) []string {
	var result []string
	index.ForEach(func(message *Message) bool {
		result = append(result, message.Body())
		return true
	})
	return result
}

func TestMessageIndexOrdering(t *testing.T) {
	directory := NewDirectory()
	index := NewMessageIndex()

	index.Insert(testMessage(t, directory, "$3", 300, "c"))
	index.Insert(testMessage(t, directory, "$1", 100, "a"))
	index.Insert(testMessage(t, directory, "$2a", 200, "b1"))
	index.Insert(testMessage(t, directory, "$2b", 200, "b2"))
	index.Insert(testMessage(t, directory, "$2c", 200, "b3"))

	got := fmt.Sprint(bodies(index))
	if got != "[a b1 b2 b3 c]" {
		t.Errorf("iteration order = %s, want [a b1 b2 b3 c]", got)
	}
	if index.Len() != 5 {
		t.Errorf("Len() = %d, want 5", index.Len())
	}
}

func TestMessageIndexRandomInsertOrder(t *testing.T) {
	directory := NewDirectory()
	index := NewMessageIndex()
	random := rand.New(rand.NewPCG(1, 2))

	// Few distinct timestamps so ties are common.
	type inserted struct {
		timestamp int64
		order     int
	}
	for order := range 200 {
		timestamp := int64(random.IntN(10) + 1)
		index.Insert(testMessage(t, directory, "", timestamp, fmt.Sprintf("%d/%d", timestamp, order)))
	}

	var previous *inserted
	index.ForEach(func(message *Message) bool {
		var current inserted
		fmt.Sscanf(message.Body(), "%d/%d", &current.timestamp, &current.order)
		if previous != nil {
			if current.timestamp < previous.timestamp {
				t.Fatalf("timestamp went backwards: %v after %v", current, *previous)
			}
			if current.timestamp == previous.timestamp && current.order < previous.order {
				t.Fatalf("equal timestamps out of insertion order: %v after %v", current, *previous)
			}
		}
		previous = &current
		return true
	})
}

func TestMessageIndexDeduplicates(t *testing.T) {
	directory := NewDirectory()
	index := NewMessageIndex()

	if !index.Insert(testMessage(t, directory, "$e1", 100, "first")) {
		t.Fatal("first insert rejected")
	}
	if index.Insert(testMessage(t, directory, "$e1", 100, "first again")) {
		t.Error("duplicate event ID inserted")
	}
	// Messages without an event ID cannot be recognized as duplicates.
	index.Insert(testMessage(t, directory, "", 100, "anonymous"))
	index.Insert(testMessage(t, directory, "", 100, "anonymous"))

	if index.Len() != 3 {
		t.Errorf("Len() = %d, want 3", index.Len())
	}
}

func TestMessageIndexTraversal(t *testing.T) {
	directory := NewDirectory()
	index := NewMessageIndex()
	for timestamp := int64(1); timestamp <= 5; timestamp++ {
		index.Insert(testMessage(t, directory, "", timestamp, fmt.Sprint(timestamp)))
	}

	t.Run("early stop", func(t *testing.T) {
		visited := 0
		index.ForEach(func(*Message) bool {
			visited++
			return visited < 2
		})
		if visited != 2 {
			t.Errorf("visited %d messages, want 2", visited)
		}
	})

	t.Run("restartable iterator", func(t *testing.T) {
		all := index.All()
		for pass := range 2 {
			count := 0
			for range all {
				count++
			}
			if count != 5 {
				t.Errorf("pass %d visited %d messages, want 5", pass, count)
			}
		}
	})

	t.Run("last", func(t *testing.T) {
		last := index.Last(2)
		if len(last) != 2 || last[0].Body() != "4" || last[1].Body() != "5" {
			t.Errorf("Last(2) = %v", last)
		}
		if got := len(index.Last(10)); got != 5 {
			t.Errorf("len(Last(10)) = %d, want 5", got)
		}
		if index.Last(0) != nil {
			t.Error("Last(0) should be nil")
		}
	})
}

func TestNewMessagePanicsOnMalformedEvent(t *testing.T) {
	directory := NewDirectory()
	sender := ref.MustParseUserID("@a:x")
	speaker := directory.GetUser(sender)

	tests := []struct {
		name  string
		event messaging.Event
	}{
		{"no content", messaging.Event{Type: schema.EventTypeRoomMessage, Sender: sender, OriginServerTS: 1}},
		{"no timestamp", messaging.Event{Type: schema.EventTypeRoomMessage, Sender: sender, Content: map[string]any{}}},
		{"wrong type", messaging.Event{Type: schema.EventTypeRoomName, Sender: sender, OriginServerTS: 1, Content: map[string]any{}}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			newMessage(testRoomID, speaker, test.event)
		})
	}
}

func TestMessageSharedBetweenIndexes(t *testing.T) {
	directory := NewDirectory()
	first := NewMessageIndex()
	second := NewMessageIndex()

	shared := testMessage(t, directory, "$shared", 100, "shared")
	for body := range 3 {
		first.Insert(testMessage(t, directory, "", 100, fmt.Sprint(body)))
	}
	first.Insert(shared)
	second.Insert(shared)
	second.Insert(testMessage(t, directory, "", 100, "after"))

	if got := fmt.Sprint(bodies(first)); got != "[0 1 2 shared]" {
		t.Errorf("first index = %s, want [0 1 2 shared]", got)
	}
	if got := fmt.Sprint(bodies(second)); got != "[shared after]" {
		t.Errorf("second index = %s, want [shared after]", got)
	}
}
