// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// UserID is a validated Matrix user ID, "@localpart:server". User IDs
// double as user names: the user directory looks both up in one
// namespace. The zero value is unset; use IsZero to check.
type UserID struct {
	id string
}

// ParseUserID validates a raw user ID.
func ParseUserID(raw string) (UserID, error) {
	if err := userIDGrammar.check(raw); err != nil {
		return UserID{}, err
	}
	return UserID{id: raw}, nil
}

// MustParseUserID is ParseUserID that panics on error.
func MustParseUserID(raw string) UserID {
	return mustParse("MustParseUserID", raw, ParseUserID)
}

func (u UserID) String() string { return u.id }

// IsZero reports whether the UserID is unset.
func (u UserID) IsZero() bool { return u.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (u UserID) MarshalText() ([]byte, error) { return []byte(u.id), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Empty input
// yields the zero value.
func (u *UserID) UnmarshalText(data []byte) error {
	return unmarshalText(u, data, ParseUserID)
}
