// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"sync"

	"github.com/bureau-foundation/mxchat/lib/chatstate"
)

// observers holds registered callbacks. Emission copies the relevant
// slice under the lock and calls outside it, so an observer may
// register further observers or query the engine.
type observers struct {
	mu          sync.Mutex
	connected   []func()
	room        []func(*chatstate.Room)
	message     []func(*chatstate.Message)
	err         []func(error)
	stateChange []func(StateEvent)
}

// OnConnected registers a callback for the first successful sync.
func (e *Engine) OnConnected(callback func()) {
	e.observers.mu.Lock()
	defer e.observers.mu.Unlock()
	e.observers.connected = append(e.observers.connected, callback)
}

// OnRoom registers a callback for newly discovered joined rooms. The
// room has already been seeded with its first batch.
func (e *Engine) OnRoom(callback func(*chatstate.Room)) {
	e.observers.mu.Lock()
	defer e.observers.mu.Unlock()
	e.observers.room = append(e.observers.room, callback)
}

// OnMessage registers a callback for every message inserted into any
// room, in the order they were applied.
func (e *Engine) OnMessage(callback func(*chatstate.Message)) {
	e.observers.mu.Lock()
	defer e.observers.mu.Unlock()
	e.observers.message = append(e.observers.message, callback)
}

// OnError registers a callback for the engine's terminal failure. The
// error is a *FailureError. It fires at most once.
func (e *Engine) OnError(callback func(error)) {
	e.observers.mu.Lock()
	defer e.observers.mu.Unlock()
	e.observers.err = append(e.observers.err, callback)
}

// OnStateChange registers a callback for every state transition.
func (e *Engine) OnStateChange(callback func(StateEvent)) {
	e.observers.mu.Lock()
	defer e.observers.mu.Unlock()
	e.observers.stateChange = append(e.observers.stateChange, callback)
}

func snapshot[T any](o *observers, list *[]T) []T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]T(nil), (*list)...)
}

func (o *observers) emitConnected() {
	for _, callback := range snapshot(o, &o.connected) {
		callback()
	}
}

func (o *observers) emitRoom(room *chatstate.Room) {
	for _, callback := range snapshot(o, &o.room) {
		callback(room)
	}
}

func (o *observers) emitMessage(message *chatstate.Message) {
	for _, callback := range snapshot(o, &o.message) {
		callback(message)
	}
}

func (o *observers) emitError(err error) {
	for _, callback := range snapshot(o, &o.err) {
		callback(err)
	}
}

func (o *observers) emitStateChange(event StateEvent) {
	for _, callback := range snapshot(o, &o.stateChange) {
		callback(event)
	}
}
