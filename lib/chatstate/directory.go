// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatstate

import (
	"sync"

	"github.com/google/btree"

	"github.com/bureau-foundation/mxchat/lib/ref"
)

// btreeDegree is the branching factor for every index in this package.
const btreeDegree = 16

// Directory indexes every user the client has seen, by ID and by
// display name. Users are created lazily the first time an event
// references them and are never removed.
type Directory struct {
	mu     sync.RWMutex
	byID   *btree.BTreeG[*User]
	byName *btree.BTreeG[nameEntry]
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		byID:   btree.NewG(btreeDegree, userLess),
		byName: btree.NewG(btreeDegree, nameEntryLess),
	}
}

// GetUserByID returns the user with the given ID, or nil.
func (d *Directory) GetUserByID(id ref.UserID) *User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lookup(id)
}

// GetUserByName resolves a user by name. User IDs are the names users
// are addressed by, so this is an ID lookup; a string that is not a
// valid user ID matches nobody. Use [Directory.FindByDisplayName] to
// search display names.
func (d *Directory) GetUserByName(name string) *User {
	id, err := ref.ParseUserID(name)
	if err != nil {
		return nil
	}
	return d.GetUserByID(id)
}

// GetUser returns the user with the given ID, creating and indexing it
// if absent.
func (d *Directory) GetUser(id ref.UserID) *User {
	if id.IsZero() {
		panic("chatstate: GetUser called with zero user ID")
	}

	d.mu.RLock()
	user := d.lookup(id)
	d.mu.RUnlock()
	if user != nil {
		return user
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.getOrCreateLocked(id)
}

// Update records a display name for id observed in an event with
// origin_server_ts timestamp. The update is applied only if timestamp
// is strictly newer than the last accepted one, so replayed or
// out-of-order events cannot revert a name. An empty displayName
// clears the name. The user is created if absent. Reports whether the
// update was applied.
func (d *Directory) Update(id ref.UserID, timestamp int64, displayName string) bool {
	if id.IsZero() {
		panic("chatstate: Update called with zero user ID")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	user := d.getOrCreateLocked(id)

	user.mu.Lock()
	defer user.mu.Unlock()

	if timestamp <= user.updatedAt {
		return false
	}

	d.byName.Delete(nameEntry{name: effectiveName(user.id, user.displayName), user: user})
	user.displayName = displayName
	user.updatedAt = timestamp
	d.byName.ReplaceOrInsert(nameEntry{name: effectiveName(user.id, displayName), user: user})
	return true
}

// FindByDisplayName returns every user whose display name is exactly
// name, ordered by user ID. Users without a display name are indexed
// under their ID.
func (d *Directory) FindByDisplayName(name string) []*User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var matches []*User
	d.byName.AscendGreaterOrEqual(nameEntry{name: name, user: &User{}}, func(entry nameEntry) bool {
		if entry.name != name {
			return false
		}
		matches = append(matches, entry.user)
		return true
	})
	return matches
}

// Len returns the number of known users.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.byID.Len()
}

// ForEach visits users in ID order until visitor returns false.
func (d *Directory) ForEach(visitor func(*User) bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	d.byID.Ascend(func(user *User) bool { return visitor(user) })
}

func (d *Directory) lookup(id ref.UserID) *User {
	user, found := d.byID.Get(&User{id: id})
	if !found {
		return nil
	}
	return user
}

// getOrCreateLocked requires d.mu held for writing.
func (d *Directory) getOrCreateLocked(id ref.UserID) *User {
	if user := d.lookup(id); user != nil {
		return user
	}
	user := &User{id: id}
	d.byID.ReplaceOrInsert(user)
	d.byName.ReplaceOrInsert(nameEntry{name: id.String(), user: user})
	return user
}

func effectiveName(id ref.UserID, displayName string) string {
	if displayName == "" {
		return id.String()
	}
	return displayName
}
