// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"strings"
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"

	"github.com/bureau-foundation/mxchat/lib/chatstate"
)

var fuzzyInitOnce sync.Once

// FuzzyResult is the outcome of matching one candidate. A zero Score
// means no match.
type FuzzyResult struct {
	Score     int
	Positions []int
}

// fuzzyMatch scores text against pattern with fzf's V2 algorithm,
// case-insensitively. slab may be nil; passing one reuses scratch
// memory across calls.
func fuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{}
	}
	fuzzyInitOnce.Do(func() { algo.Init("default") })

	lowered := []rune(strings.ToLower(string(pattern)))
	chars := util.ToChars([]byte(text))
	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, lowered, true, slab)
	if result.Start < 0 || result.Score <= 0 {
		return FuzzyResult{}
	}

	match := FuzzyResult{Score: result.Score}
	if positions != nil {
		match.Positions = append([]int(nil), (*positions)...)
	}
	return match
}

// roomSearchText is what a room is matched on: its display name, its
// alias, and its ID, so any of them can be typed.
func roomSearchText(room *chatstate.Room) string {
	parts := []string{room.DisplayName()}
	if alias := room.Alias(); !alias.IsZero() {
		parts = append(parts, alias.String())
	}
	parts = append(parts, room.ID().String())
	return strings.Join(parts, " ")
}

// matchRoom returns the best-scoring room for query, or nil. Ties keep
// the earlier room, so callers control precedence through order.
func matchRoom(rooms []*chatstate.Room, query string) *chatstate.Room {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	pattern := []rune(query)
	slab := util.MakeSlab(100*1024, 2048)

	var best *chatstate.Room
	bestScore := 0
	for _, room := range rooms {
		// An exact name or alias always wins.
		if strings.EqualFold(room.DisplayName(), query) || room.Alias().String() == query || room.ID().String() == query {
			return room
		}
		if result := fuzzyMatch(roomSearchText(room), pattern, slab); result.Score > bestScore {
			best = room
			bestScore = result.Score
		}
	}
	return best
}
