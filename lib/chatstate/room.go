// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatstate

import (
	"sync"

	"github.com/bureau-foundation/mxchat/lib/ref"
)

// Room is one joined room: its displayable state and its history.
type Room struct {
	id       ref.RoomID
	messages *MessageIndex

	mu    sync.RWMutex
	name  string
	topic string
	alias ref.RoomAlias
}

// NewRoom returns an empty room. Rooms are populated by a Reducer.
func NewRoom(id ref.RoomID) *Room {
	if id.IsZero() {
		panic("chatstate: NewRoom called with zero room ID")
	}
	return &Room{
		id:       id,
		messages: NewMessageIndex(),
	}
}

// ID returns the room ID.
func (r *Room) ID() ref.RoomID { return r.id }

// Messages returns the room's message index.
func (r *Room) Messages() *MessageIndex { return r.messages }

// Name returns the m.room.name value, or empty.
func (r *Room) Name() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.name
}

// Topic returns the m.room.topic value, or empty.
func (r *Room) Topic() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.topic
}

// Alias returns the canonical alias, or the zero alias.
func (r *Room) Alias() ref.RoomAlias {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.alias
}

// DisplayName returns the name, else the canonical alias, else the room ID.
func (r *Room) DisplayName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch {
	case r.name != "":
		return r.name
	case !r.alias.IsZero():
		return r.alias.String()
	default:
		return r.id.String()
	}
}

func (r *Room) setName(name string) {
	r.mu.Lock()
	r.name = name
	r.mu.Unlock()
}

func (r *Room) setTopic(topic string) {
	r.mu.Lock()
	r.topic = topic
	r.mu.Unlock()
}

// setAlias replaces the alias and returns the previous one.
func (r *Room) setAlias(alias ref.RoomAlias) ref.RoomAlias {
	r.mu.Lock()
	defer r.mu.Unlock()
	previous := r.alias
	r.alias = alias
	return previous
}
