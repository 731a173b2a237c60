// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette for nagarniti's terminal output. All
// colors use lipgloss ANSI 256-color codes for broad terminal
// compatibility.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Session status colors.
	StatusAuthenticated   lipgloss.Color
	StatusAuthenticating  lipgloss.Color
	StatusRefreshing      lipgloss.Color
	StatusUnauthenticated lipgloss.Color

	// Role badge colors.
	RoleVoter      lipgloss.Color
	RoleWardAdmin  lipgloss.Color
	RoleSuperAdmin lipgloss.Color

	ErrorText        lipgloss.Color
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
}

// StatusColor returns the color for a session status string. Unknown
// values return FaintText.
func (theme Theme) StatusColor(status string) lipgloss.Color {
	switch status {
	case "authenticated":
		return theme.StatusAuthenticated
	case "authenticating":
		return theme.StatusAuthenticating
	case "refreshing":
		return theme.StatusRefreshing
	case "unauthenticated":
		return theme.StatusUnauthenticated
	default:
		return theme.FaintText
	}
}

// RoleColor returns the badge color for a user role string.
func (theme Theme) RoleColor(role string) lipgloss.Color {
	switch role {
	case "voter":
		return theme.RoleVoter
	case "ward_admin":
		return theme.RoleWardAdmin
	case "super_admin":
		return theme.RoleSuperAdmin
	default:
		return theme.NormalText
	}
}

// Style helpers. Each returns a fresh style so callers can extend it.

func (theme Theme) Header() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground)
}

func (theme Theme) Label() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.FaintText)
}

func (theme Theme) Value() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.NormalText)
}

func (theme Theme) Status(status string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(theme.StatusColor(status))
}

func (theme Theme) Role(role string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.RoleColor(role))
}

func (theme Theme) Error() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.ErrorText)
}

func (theme Theme) Help() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.HelpText)
}

func (theme Theme) Box() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.BorderColor).
		Padding(0, 1)
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	StatusAuthenticated:   lipgloss.Color("114"), // green
	StatusAuthenticating:  lipgloss.Color("220"), // amber
	StatusRefreshing:      lipgloss.Color("75"),  // blue
	StatusUnauthenticated: lipgloss.Color("245"), // gray

	RoleVoter:      lipgloss.Color("252"),
	RoleWardAdmin:  lipgloss.Color("141"), // light purple
	RoleSuperAdmin: lipgloss.Color("208"), // orange

	ErrorText:        lipgloss.Color("196"),
	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
}
