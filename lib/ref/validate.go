// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
	"unicode"
)

// maxIdentifierLength is the Matrix limit on user IDs, room IDs, room
// aliases, and event IDs, in bytes including the sigil.
const maxIdentifierLength = 255

// serverPart says how an identifier treats a ":server" suffix.
type serverPart int

const (
	// serverRequired identifiers are "<sigil>localpart:server".
	serverRequired serverPart = iota
	// serverOptional identifiers may omit the suffix, but a present
	// one must be non-empty (room IDs from room version 12 on).
	serverOptional
	// serverOpaque identifiers are not split at all (event IDs).
	serverOpaque
)

// grammar describes one sigil-prefixed identifier kind.
type grammar struct {
	kind   string
	sigil  byte
	server serverPart
}

var (
	userIDGrammar    = grammar{kind: "user ID", sigil: '@', server: serverRequired}
	roomIDGrammar    = grammar{kind: "room ID", sigil: '!', server: serverOptional}
	roomAliasGrammar = grammar{kind: "room alias", sigil: '#', server: serverRequired}
	eventIDGrammar   = grammar{kind: "event ID", sigil: '$', server: serverOpaque}
)

// check validates raw against the grammar. Everything after the first
// ':' is the server, so ports and IPv6 literals pass through.
func (g grammar) check(raw string) error {
	switch {
	case raw == "":
		return fmt.Errorf("empty %s", g.kind)
	case len(raw) > maxIdentifierLength:
		return fmt.Errorf("%s exceeds %d bytes: %.32q...", g.kind, maxIdentifierLength, raw)
	case raw[0] != g.sigil:
		return fmt.Errorf("%s must start with '%c': %q", g.kind, g.sigil, raw)
	case len(raw) == 1:
		return fmt.Errorf("%s has empty local part: %q", g.kind, raw)
	case strings.IndexFunc(raw, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0:
		return fmt.Errorf("%s contains whitespace or control characters: %q", g.kind, raw)
	}
	if g.server == serverOpaque {
		return nil
	}

	localpart, server, found := strings.Cut(raw[1:], ":")
	switch {
	case localpart == "":
		return fmt.Errorf("%s has empty local part: %q", g.kind, raw)
	case !found && g.server == serverRequired:
		return fmt.Errorf("%s is missing :server: %q", g.kind, raw)
	case found && server == "":
		return fmt.Errorf("%s has empty server name: %q", g.kind, raw)
	}
	return nil
}

// mustParse panics with the caller's name when parse fails. For tests
// and known-valid constants.
func mustParse[T any](name, raw string, parse func(string) (T, error)) T {
	value, err := parse(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.%s(%q): %v", name, raw, err))
	}
	return value
}

// unmarshalText decodes data into target with parse. Empty input
// yields the zero value so optional JSON fields stay unset.
func unmarshalText[T any](target *T, data []byte, parse func(string) (T, error)) error {
	if len(data) == 0 {
		var zero T
		*target = zero
		return nil
	}
	parsed, err := parse(string(data))
	if err != nil {
		return err
	}
	*target = parsed
	return nil
}
