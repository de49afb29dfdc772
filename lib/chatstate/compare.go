// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatstate

import "cmp"

// indexEntry is one row of a MessageIndex. Entries order by creation
// time, then by the sequence number the index assigned at insertion.
type indexEntry struct {
	sequence uint64
	message  *Message
}

func indexEntryLess(a, b indexEntry) bool {
	if order := cmp.Compare(a.message.created, b.message.created); order != 0 {
		return order < 0
	}
	return a.sequence < b.sequence
}

func userLess(a, b *User) bool {
	return a.id.String() < b.id.String()
}

// nameEntry is one row of the directory's display-name index. The user
// ID breaks ties so that users sharing a display name are all indexed.
type nameEntry struct {
	name string
	user *User
}

func nameEntryLess(a, b nameEntry) bool {
	if a.name != b.name {
		return a.name < b.name
	}
	return a.user.id.String() < b.user.id.String()
}
