// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatstate

import (
	"iter"
	"slices"
	"sync"

	"github.com/google/btree"

	"github.com/bureau-foundation/mxchat/lib/ref"
)

// MessageIndex is a room's history, ordered by creation time with ties
// kept in insertion order. It is append-only.
type MessageIndex struct {
	mu       sync.RWMutex
	tree     *btree.BTreeG[indexEntry]
	seen     map[ref.EventID]struct{}
	sequence uint64
}

// NewMessageIndex returns an empty index.
func NewMessageIndex() *MessageIndex {
	return &MessageIndex{
		tree: btree.NewG(btreeDegree, indexEntryLess),
		seen: make(map[ref.EventID]struct{}),
	}
}

// Insert adds message to the index. A message whose event ID is
// already indexed is not added again; Insert reports whether the
// message was added. Messages without an event ID are always added.
// The message itself is not modified, so it may sit in several
// indexes.
func (index *MessageIndex) Insert(message *Message) bool {
	index.mu.Lock()
	defer index.mu.Unlock()

	if id := message.ID(); !id.IsZero() {
		if _, duplicate := index.seen[id]; duplicate {
			return false
		}
		index.seen[id] = struct{}{}
	}

	index.sequence++
	index.tree.ReplaceOrInsert(indexEntry{sequence: index.sequence, message: message})
	return true
}

// ForEach visits messages in order until visitor returns false. Each
// call starts a fresh traversal from the oldest message.
func (index *MessageIndex) ForEach(visitor func(*Message) bool) {
	index.mu.RLock()
	defer index.mu.RUnlock()
	index.tree.Ascend(func(entry indexEntry) bool { return visitor(entry.message) })
}

// All returns an iterator over the messages in order. The iterator is
// lazy and may be ranged over any number of times.
func (index *MessageIndex) All() iter.Seq[*Message] {
	return func(yield func(*Message) bool) {
		index.ForEach(yield)
	}
}

// Last returns up to n of the newest messages, oldest first.
func (index *MessageIndex) Last(n int) []*Message {
	if n <= 0 {
		return nil
	}
	index.mu.RLock()
	defer index.mu.RUnlock()

	result := make([]*Message, 0, min(n, index.tree.Len()))
	index.tree.Descend(func(entry indexEntry) bool {
		result = append(result, entry.message)
		return len(result) < n
	})
	slices.Reverse(result)
	return result
}

// Len returns the number of indexed messages.
func (index *MessageIndex) Len() int {
	index.mu.RLock()
	defer index.mu.RUnlock()
	return index.tree.Len()
}
