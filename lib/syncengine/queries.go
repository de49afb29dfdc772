// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"cmp"
	"slices"
	"strings"

	"github.com/bureau-foundation/mxchat/lib/chatstate"
	"github.com/bureau-foundation/mxchat/lib/ref"
)

// GetRoomByName resolves a room by ID or by canonical alias. Returns
// nil if no joined room matches.
func (e *Engine) GetRoomByName(name string) *chatstate.Room {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if roomID, err := ref.ParseRoomID(name); err == nil {
		if room, found := e.rooms[roomID]; found {
			return room
		}
	}
	if alias, err := ref.ParseRoomAlias(name); err == nil {
		if roomID, found := e.aliases[alias]; found {
			return e.rooms[roomID]
		}
	}
	return nil
}

// GetDirectByName returns the first joined room listed for peer in the
// account's m.direct data. Returns nil if there is none.
func (e *Engine) GetDirectByName(peer string) *chatstate.Room {
	peerID, err := ref.ParseUserID(peer)
	if err != nil {
		return nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, roomID := range e.direct[peerID] {
		if room, found := e.rooms[roomID]; found {
			return room
		}
	}
	return nil
}

// Room returns the joined room with the given ID, or nil.
func (e *Engine) Room(roomID ref.RoomID) *chatstate.Room {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rooms[roomID]
}

// Rooms returns every joined room, ordered by display name
// (case-insensitive) and then ID.
func (e *Engine) Rooms() []*chatstate.Room {
	e.mu.RLock()
	rooms := make([]*chatstate.Room, 0, len(e.rooms))
	for _, room := range e.rooms {
		rooms = append(rooms, room)
	}
	e.mu.RUnlock()

	slices.SortFunc(rooms, func(a, b *chatstate.Room) int {
		return cmp.Or(
			strings.Compare(strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName())),
			strings.Compare(a.ID().String(), b.ID().String()),
		)
	})
	return rooms
}

// Users returns the user directory.
func (e *Engine) Users() *chatstate.Directory { return e.users }

// Identity returns the authenticated user ID. Zero before
// authentication completes.
func (e *Engine) Identity() ref.UserID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.identity
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Cursor returns the current sync cursor, empty before the first
// successful sync.
func (e *Engine) Cursor() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cursor
}

// LastError returns the most recent authentication or sync error.
func (e *Engine) LastError() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastErr
}
