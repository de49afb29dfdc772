// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil bounds the homeserver response bodies the client
// reads and formats the ones it cannot parse.
//
// A sync response for a large account is the biggest body the client
// sees. ReadLimited rejects anything past the limit instead of handing
// a truncated document to the JSON decoder.
package netutil

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxResponseSize is the default bound on response body reads: 256 MB.
const MaxResponseSize int64 = 256 << 20

// maxSnippet is how much of an unparseable body goes into an error.
const maxSnippet = 512

// ErrResponseTooLarge reports a body longer than the read limit.
var ErrResponseTooLarge = errors.New("netutil: response body exceeds limit")

// ReadLimited reads body to EOF. A body longer than limit bytes is an
// error wrapping ErrResponseTooLarge; nothing is returned for it.
func ReadLimited(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrResponseTooLarge, limit)
	}
	return data, nil
}

// ReadResponse is ReadLimited with MaxResponseSize.
func ReadResponse(body io.Reader) ([]byte, error) {
	return ReadLimited(body, MaxResponseSize)
}

// Snippet returns the start of an unexpected response body as one
// printable line for an error message. Proxies in front of a
// homeserver answer errors with HTML pages; those collapse to their
// first few hundred characters.
func Snippet(body []byte) string {
	text := strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case !unicode.IsPrint(r):
			return -1
		}
		return r
	}, string(body))
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > maxSnippet {
		cut := maxSnippet
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	if text == "" {
		return "(empty body)"
	}
	return text
}
