// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"fmt"
	"slices"
)

// State names a state of the engine's state machine.
type State string

const (
	StateAuthenticating         State = "authenticating"
	StateAuthenticatingToken    State = "authenticating.token"
	StateAuthenticatingPassword State = "authenticating.password"
	StateSync                   State = "sync"
	StateSyncWait               State = "sync.wait"
	StateSyncFailed             State = "sync.failed"
	StateFailed                 State = "failed"
)

// validTransitions is the allow-list consulted on every transition.
var validTransitions = map[State][]State{
	StateAuthenticating:         {StateAuthenticatingToken, StateAuthenticatingPassword},
	StateAuthenticatingToken:    {StateSync, StateFailed},
	StateAuthenticatingPassword: {StateSync, StateFailed},
	StateSync:                   {StateSyncWait, StateSyncFailed, StateAuthenticating},
	StateSyncWait:               {StateSync},
	StateSyncFailed:             {StateSync},
	StateFailed:                 nil,
}

// CanTransition reports whether the machine may move from from to to.
func CanTransition(from, to State) bool {
	return slices.Contains(validTransitions[from], to)
}

// Terminal reports whether no transition leaves state.
func (s State) Terminal() bool {
	return len(validTransitions[s]) == 0
}

func (s State) String() string { return string(s) }

// StateEvent describes one transition. Err is the engine's last error
// when the transition was caused by a failure, nil otherwise.
type StateEvent struct {
	Old State
	New State
	Err error
}

func (event StateEvent) String() string {
	if event.Err != nil {
		return fmt.Sprintf("%s -> %s (%v)", event.Old, event.New, event.Err)
	}
	return fmt.Sprintf("%s -> %s", event.Old, event.New)
}
