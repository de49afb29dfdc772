// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/mxchat/lib/chatstate"
	"github.com/bureau-foundation/mxchat/lib/chatui"
	"github.com/bureau-foundation/mxchat/lib/syncengine"
)

// runTail prints every message to output, one line each, until ctx is
// cancelled or the engine fails.
func runTail(ctx context.Context, engineConfig syncengine.Config, output io.Writer) error {
	engine, err := syncengine.New(engineConfig)
	if err != nil {
		return err
	}
	attachTail(engine, output)

	err = engine.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// attachTail registers the observers that print messages. Notifications
// arrive on the engine goroutine one at a time, so writes never
// interleave.
func attachTail(engine *syncengine.Engine, output io.Writer) {
	engine.OnConnected(func() {
		fmt.Fprintf(output, "-- connected as %s, %d rooms\n", engine.Identity(), len(engine.Rooms()))
	})
	engine.OnMessage(func(message *chatstate.Message) {
		room := engine.Room(message.Room())
		if room == nil {
			return
		}
		fmt.Fprintln(output, chatui.FormatPlain(room, message))
	})
}
