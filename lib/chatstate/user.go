// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatstate

import (
	"sync"

	"github.com/bureau-foundation/mxchat/lib/ref"
)

// User is a directory entry. The ID is fixed; the display name changes
// through [Directory.Update] only.
type User struct {
	id ref.UserID

	mu          sync.RWMutex
	displayName string
	updatedAt   int64
}

// ID returns the user's Matrix ID.
func (u *User) ID() ref.UserID { return u.id }

// DisplayName returns the user's display name, or the user ID when no
// display name is known.
func (u *User) DisplayName() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.displayName == "" {
		return u.id.String()
	}
	return u.displayName
}

// UpdatedAt returns the origin_server_ts of the event that last
// changed the user, or zero if no update has been accepted.
func (u *User) UpdatedAt() int64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.updatedAt
}
