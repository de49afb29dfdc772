// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chatui is the interactive terminal client built on bubbletea.
//
// The Model reads rooms and messages from a [Source] (normally a
// *syncengine.Engine) and receives live updates as tea.Msg values
// forwarded by [Subscribe]. The screen has three parts: a header naming
// the current room, a scrolling message pane, and an input line.
//
// Input lines starting with a slash are commands:
//
//	/room <query>   switch to the best fuzzy match among joined rooms
//	/refresh        refetch the current room's state
//	/quit           exit
//
// Anything else is sent to the current room as markdown. Incoming
// message bodies are stripped of terminal escape sequences and rendered
// from markdown with [RenderMarkdown].
package chatui
