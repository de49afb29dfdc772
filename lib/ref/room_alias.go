// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// RoomAlias is a validated Matrix room alias, "#localpart:server".
// Aliases arrive in m.room.canonical_alias state and in /room
// commands typed by the user. The zero value is unset.
type RoomAlias struct {
	alias string
}

// ParseRoomAlias validates a raw room alias.
func ParseRoomAlias(raw string) (RoomAlias, error) {
	if err := roomAliasGrammar.check(raw); err != nil {
		return RoomAlias{}, err
	}
	return RoomAlias{alias: raw}, nil
}

// MustParseRoomAlias is ParseRoomAlias that panics on error.
func MustParseRoomAlias(raw string) RoomAlias {
	return mustParse("MustParseRoomAlias", raw, ParseRoomAlias)
}

func (a RoomAlias) String() string { return a.alias }

// IsZero reports whether the RoomAlias is unset.
func (a RoomAlias) IsZero() bool { return a.alias == "" }

// MarshalText implements encoding.TextMarshaler.
func (a RoomAlias) MarshalText() ([]byte, error) { return []byte(a.alias), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Empty input
// yields the zero value.
func (a *RoomAlias) UnmarshalText(data []byte) error {
	return unmarshalText(a, data, ParseRoomAlias)
}
