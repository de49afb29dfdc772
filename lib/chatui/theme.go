// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/mxchat/lib/ref"
)

// Theme is the color palette. All colors are ANSI 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	HeaderForeground lipgloss.Color
	HeaderBackground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// SenderColors are assigned to users by a hash of their user ID, so
	// a given user keeps the same color across sessions.
	SenderColors []lipgloss.Color

	// OwnColor marks messages from the logged-in user.
	OwnColor lipgloss.Color

	NoticeForeground lipgloss.Color
	LinkForeground   lipgloss.Color

	WarnForeground  lipgloss.Color
	ErrorForeground lipgloss.Color

	// State indicator colors for the header.
	StateOK      lipgloss.Color
	StatePending lipgloss.Color
	StateFailed  lipgloss.Color
}

// SenderColor returns the stable color for a user.
func (theme Theme) SenderColor(userID ref.UserID) lipgloss.Color {
	if len(theme.SenderColors) == 0 {
		return theme.NormalText
	}
	hash := fnv.New32a()
	hash.Write([]byte(userID.String()))
	return theme.SenderColors[hash.Sum32()%uint32(len(theme.SenderColors))]
}

// DefaultTheme targets 256-color terminals with a dark background.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	HeaderForeground: lipgloss.Color("255"),
	HeaderBackground: lipgloss.Color("236"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	SenderColors: []lipgloss.Color{
		lipgloss.Color("75"),  // blue
		lipgloss.Color("114"), // green
		lipgloss.Color("141"), // light purple
		lipgloss.Color("208"), // orange
		lipgloss.Color("176"), // pink
		lipgloss.Color("80"),  // teal
		lipgloss.Color("185"), // khaki
	},
	OwnColor: lipgloss.Color("255"),

	NoticeForeground: lipgloss.Color("245"),
	LinkForeground:   lipgloss.Color("75"),

	WarnForeground:  lipgloss.Color("220"),
	ErrorForeground: lipgloss.Color("196"),

	StateOK:      lipgloss.Color("114"),
	StatePending: lipgloss.Color("220"),
	StateFailed:  lipgloss.Color("196"),
}
