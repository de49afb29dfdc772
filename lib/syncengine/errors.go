// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"errors"
	"fmt"
)

// FailureError is the terminal failure of an engine. It is delivered
// once to OnError observers and returned from Run.
type FailureError struct {
	// State is the state the engine failed in.
	State State
	// Err is the engine's last error.
	Err error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("syncengine: matrix client failure in %s: %v", e.State, e.Err)
}

func (e *FailureError) Unwrap() error { return e.Err }

var (
	// ErrStopped is returned by requests made after Run has exited.
	ErrStopped = errors.New("syncengine: engine stopped")

	// ErrUnknownRoom is returned for operations on a room the engine
	// has not seen in a joined-rooms batch.
	ErrUnknownRoom = errors.New("syncengine: unknown room")

	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("syncengine: Run called more than once")
)
