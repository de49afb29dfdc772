// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// EventID is a validated Matrix event ID. Room versions 4 and later
// use "$base64hash"; older rooms append ":server". Either way the ID
// is opaque and only the '$' sigil is checked. Message deduplication
// keys on it.
type EventID struct {
	id string
}

// ParseEventID validates a raw event ID.
func ParseEventID(raw string) (EventID, error) {
	if err := eventIDGrammar.check(raw); err != nil {
		return EventID{}, err
	}
	return EventID{id: raw}, nil
}

// MustParseEventID is ParseEventID that panics on error.
func MustParseEventID(raw string) EventID {
	return mustParse("MustParseEventID", raw, ParseEventID)
}

func (e EventID) String() string { return e.id }

// IsZero reports whether the EventID is unset.
func (e EventID) IsZero() bool { return e.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (e EventID) MarshalText() ([]byte, error) { return []byte(e.id), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Empty input
// yields the zero value.
func (e *EventID) UnmarshalText(data []byte) error {
	return unmarshalText(e, data, ParseEventID)
}
