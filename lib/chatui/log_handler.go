// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg carries one log record into the model's status line.
type logRecordMsg struct {
	Summary string
	Level   slog.Level
}

// statusFadeMsg clears the status line if it still shows the record
// with the given sequence number.
type statusFadeMsg struct {
	sequence int
}

// statusFadeDelay is how long a log record stays in the status line.
const statusFadeDelay = 5 * time.Second

// LogHandler is a slog.Handler that delivers records into a running
// bubbletea program, where they appear in the status line. Writing to
// stderr while the program owns the terminal would corrupt the screen.
//
// Records arriving before SetProgram are dropped. Handlers derived with
// WithAttrs and WithGroup share the root's program.
type LogHandler struct {
	level  slog.Leveler
	send   *atomic.Pointer[func(tea.Msg)]
	attrs  []string
	groups []string
}

// NewLogHandler returns a handler for records at or above level.
func NewLogHandler(level slog.Leveler) *LogHandler {
	return &LogHandler{
		level: level,
		send:  &atomic.Pointer[func(tea.Msg)]{},
	}
}

// SetProgram starts delivery to program. Safe to call from any
// goroutine.
func (handler *LogHandler) SetProgram(program *tea.Program) {
	handler.setSender(program.Send)
}

func (handler *LogHandler) setSender(send func(tea.Msg)) {
	handler.send.Store(&send)
}

func (handler *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level.Level()
}

// Handle formats the record as "message (key=value, ...)" and sends
// it to the program.
func (handler *LogHandler) Handle(_ context.Context, record slog.Record) error {
	send := handler.send.Load()
	if send == nil {
		return nil
	}

	parts := append([]string(nil), handler.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		parts = appendAttr(parts, handler.groups, attr)
		return true
	})

	summary := record.Message
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}
	(*send)(logRecordMsg{Summary: summary, Level: record.Level})
	return nil
}

func (handler *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := handler.clone()
	for _, attr := range attrs {
		derived.attrs = appendAttr(derived.attrs, handler.groups, attr)
	}
	return derived
}

func (handler *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}
	derived := handler.clone()
	derived.groups = append(derived.groups, name)
	return derived
}

func (handler *LogHandler) clone() *LogHandler {
	return &LogHandler{
		level:  handler.level,
		send:   handler.send,
		attrs:  append([]string(nil), handler.attrs...),
		groups: append([]string(nil), handler.groups...),
	}
}

// appendAttr renders attr as key=value with group-qualified keys,
// flattening group-valued attributes.
func appendAttr(parts []string, groups []string, attr slog.Attr) []string {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return parts
	}
	if attr.Value.Kind() == slog.KindGroup {
		nested := groups
		if attr.Key != "" {
			nested = append(append([]string(nil), groups...), attr.Key)
		}
		for _, member := range attr.Value.Group() {
			parts = appendAttr(parts, nested, member)
		}
		return parts
	}
	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	return append(parts, key+"="+attr.Value.String())
}
