// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// RoomID is a validated Matrix room ID. Rooms created before room
// version 12 are "!opaque:server"; later rooms are a bare "!hash".
// Both forms are accepted, but a present server must be non-empty.
//
// RoomID is comparable and keys the engine's room table. The zero
// value is unset; use IsZero to check.
type RoomID struct {
	id string
}

// ParseRoomID validates a raw room ID.
func ParseRoomID(raw string) (RoomID, error) {
	if err := roomIDGrammar.check(raw); err != nil {
		return RoomID{}, err
	}
	return RoomID{id: raw}, nil
}

// MustParseRoomID is ParseRoomID that panics on error.
func MustParseRoomID(raw string) RoomID {
	return mustParse("MustParseRoomID", raw, ParseRoomID)
}

func (r RoomID) String() string { return r.id }

// IsZero reports whether the RoomID is unset.
func (r RoomID) IsZero() bool { return r.id == "" }

// MarshalText implements encoding.TextMarshaler, which also makes
// RoomID usable as a JSON object key (rooms.join in /sync).
func (r RoomID) MarshalText() ([]byte, error) { return []byte(r.id), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Empty input
// yields the zero value.
func (r *RoomID) UnmarshalText(data []byte) error {
	return unmarshalText(r, data, ParseRoomID)
}
