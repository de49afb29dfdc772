// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"slices"
	"strings"

	"github.com/bureau-foundation/mxchat/lib/chatstate"
	"github.com/bureau-foundation/mxchat/lib/ref"
	"github.com/bureau-foundation/mxchat/lib/schema"
	"github.com/bureau-foundation/mxchat/messaging"
)

// applyBatch applies a sync response: account data first, then every
// joined room. Invite and leave partitions are carried by the response
// but not acted on.
func (e *Engine) applyBatch(response *messaging.SyncResponse) {
	for _, event := range response.AccountData.Events {
		e.applyAccountData(event)
	}

	// Sorted so that notification order does not depend on map
	// iteration order.
	roomIDs := make([]ref.RoomID, 0, len(response.Rooms.Join))
	for roomID := range response.Rooms.Join {
		roomIDs = append(roomIDs, roomID)
	}
	slices.SortFunc(roomIDs, func(a, b ref.RoomID) int {
		return strings.Compare(a.String(), b.String())
	})

	for _, roomID := range roomIDs {
		e.applyJoinedRoom(roomID, response.Rooms.Join[roomID])
	}

	if count := len(response.Rooms.Invite) + len(response.Rooms.Leave); count > 0 {
		e.logger.Debug("ignoring invite and leave partitions",
			"invites", len(response.Rooms.Invite),
			"leaves", len(response.Rooms.Leave),
		)
	}
}

func (e *Engine) applyAccountData(event messaging.Event) {
	switch event.Type {
	case schema.EventTypeDirect:
		content, err := schema.DecodeContent[schema.DirectContent](event.Content)
		if err != nil {
			e.logger.Warn("malformed m.direct account data", "error", err)
			return
		}
		e.replaceDirect(content)
	case schema.EventTypePushRules:
		// Notification rules are not evaluated.
	default:
		e.logger.Warn("unknown account data event type", "type", event.Type)
	}
}

// replaceDirect installs a new direct-message map. m.direct always
// carries the complete mapping.
func (e *Engine) replaceDirect(content schema.DirectContent) {
	direct := make(map[ref.UserID][]ref.RoomID, len(content))
	for peer, rawRoomIDs := range content {
		peerID, err := ref.ParseUserID(peer)
		if err != nil {
			e.logger.Warn("skipping m.direct entry with invalid user ID", "peer", peer, "error", err)
			continue
		}
		roomIDs := make([]ref.RoomID, 0, len(rawRoomIDs))
		for _, raw := range rawRoomIDs {
			roomID, err := ref.ParseRoomID(raw)
			if err != nil {
				e.logger.Warn("skipping invalid room ID in m.direct", "peer", peer, "room_id", raw, "error", err)
				continue
			}
			roomIDs = append(roomIDs, roomID)
		}
		direct[peerID] = roomIDs
	}

	e.mu.Lock()
	e.direct = direct
	e.mu.Unlock()
}

// applyJoinedRoom reduces one room's update. A room seen for the first
// time is seeded with the whole update before it is published.
func (e *Engine) applyJoinedRoom(roomID ref.RoomID, update messaging.JoinedRoom) {
	e.mu.RLock()
	room, exists := e.rooms[roomID]
	e.mu.RUnlock()

	batch := chatstate.BatchFromJoinedRoom(update)

	if exists {
		result := e.reducer.Apply(room, batch)
		e.recordAlias(roomID, result)
		for _, message := range result.Messages {
			e.observers.emitMessage(message)
		}
		return
	}

	room = chatstate.NewRoom(roomID)
	result := e.reducer.Apply(room, batch)

	e.mu.Lock()
	e.rooms[roomID] = room
	e.mu.Unlock()
	e.recordAlias(roomID, result)

	e.logger.Info("joined room discovered",
		"room_id", roomID,
		"name", room.Name(),
		"messages", len(result.Messages),
	)
	e.observers.emitRoom(room)
	for _, message := range result.Messages {
		e.observers.emitMessage(message)
	}
}

// recordAlias applies a canonical alias change to the alias table. The
// newest registration of an alias wins; the room's previous alias is
// dropped if it still points at this room.
func (e *Engine) recordAlias(roomID ref.RoomID, result chatstate.Result) {
	if !result.AliasChanged {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if previous := result.PreviousAlias; !previous.IsZero() && previous != result.Alias {
		if e.aliases[previous] == roomID {
			delete(e.aliases, previous)
		}
	}
	if !result.Alias.IsZero() {
		e.aliases[result.Alias] = roomID
	}
}
