// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/mxchat/lib/chatstate"
	"github.com/bureau-foundation/mxchat/lib/ref"
	"github.com/bureau-foundation/mxchat/lib/schema"
)

// Sanitize removes terminal escape sequences and control characters
// other than newline and tab from text received from the homeserver.
func Sanitize(value string) string {
	return strings.Map(func(character rune) rune {
		if character == '\n' || character == '\t' {
			return character
		}
		if unicode.IsControl(character) {
			return -1
		}
		return character
	}, ansi.Strip(value))
}

// singleLine sanitizes value and folds it onto one line.
func singleLine(value string) string {
	return strings.Join(strings.Fields(Sanitize(value)), " ")
}

// FormatPlain renders a message as a single uncolored line, for tail
// output.
func FormatPlain(room *chatstate.Room, message *chatstate.Message) string {
	name := singleLine(message.Speaker().DisplayName())
	body := strings.ReplaceAll(Sanitize(message.Body()), "\n", "\n    ")
	prefix := message.Time().Format("2006-01-02 15:04:05") + " [" + singleLine(room.DisplayName()) + "] "
	if message.MsgType() == schema.MsgTypeEmote {
		return prefix + "* " + name + " " + body
	}
	return prefix + "<" + name + "> " + body
}

// renderMessage renders one message for the message pane: a faint
// timestamp, the colored sender, and the markdown-rendered body with
// continuation lines indented under the first.
func renderMessage(message *chatstate.Message, theme Theme, width int, self ref.UserID) string {
	timestamp := lipgloss.NewStyle().Foreground(theme.FaintText).Render(message.Time().Format("15:04"))

	color := theme.SenderColor(message.Sender())
	if !self.IsZero() && message.Sender() == self {
		color = theme.OwnColor
	}
	name := lipgloss.NewStyle().Foreground(color).Bold(true).Render(singleLine(message.Speaker().DisplayName()))
	body := Sanitize(message.Body())

	indent := strings.Repeat(" ", lipgloss.Width(timestamp)+1)
	plainWidth := max(width-len(indent), 10)

	var prefix, rendered string
	switch message.MsgType() {
	case schema.MsgTypeEmote:
		prefix = timestamp + " " + lipgloss.NewStyle().Foreground(color).Render("* ") + name + " "
		rendered = ansi.Wrap(lipgloss.NewStyle().Foreground(theme.NormalText).Italic(true).Render(body), plainWidth, wrapBreakpoints)
	case schema.MsgTypeNotice:
		prefix = timestamp + " " + name + " "
		rendered = ansi.Wrap(lipgloss.NewStyle().Foreground(theme.NoticeForeground).Render(body), plainWidth, wrapBreakpoints)
	default:
		prefix = timestamp + " " + name + ": "
		rendered = RenderMarkdown(body, theme, width-lipgloss.Width(prefix))
	}
	return prefix + strings.ReplaceAll(rendered, "\n", "\n"+indent)
}

// renderRoom renders every indexed message of room in order.
func renderRoom(room *chatstate.Room, theme Theme, width int, self ref.UserID) string {
	var lines []string
	for message := range room.Messages().All() {
		lines = append(lines, renderMessage(message, theme, width, self))
	}
	if len(lines) == 0 {
		return lipgloss.NewStyle().Foreground(theme.FaintText).Render("No messages yet.")
	}
	return strings.Join(lines, "\n")
}
