// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package watchui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nagarniti/nagarniti/lib/tui"
	"github.com/nagarniti/nagarniti/session"
	"github.com/nagarniti/nagarniti/wardapi"
)

// countdownInterval is how often the expiry countdowns are redrawn.
const countdownInterval = time.Second

// stateMsg carries a state delivered by the manager's subscription.
type stateMsg struct {
	state session.State
}

// closedMsg reports that the subscription channel was closed.
type closedMsg struct{}

// countdownMsg redraws the countdowns.
type countdownMsg struct{}

// refreshDoneMsg reports the outcome of a manual refresh.
type refreshDoneMsg struct {
	err error
}

// Config configures a Model.
type Config struct {
	// Updates is the manager subscription. Required.
	Updates <-chan session.State
	// Initial is shown until the first update arrives.
	Initial session.State
	// Refresh forces a token refresh when the user presses r. If nil,
	// the key does nothing.
	Refresh func() error
	// Theme defaults to tui.DefaultTheme.
	Theme *tui.Theme
	// Now defaults to time.Now. Countdowns are measured against it.
	Now func() time.Time
}

// Model is the bubbletea model for "nagarniti watch". It renders the
// newest session state and re-arms a read of the subscription after
// every delivery.
type Model struct {
	updates <-chan session.State
	refresh func() error
	theme   tui.Theme
	keys    KeyMap
	spinner spinner.Model
	now     func() time.Time

	state session.State
	// manualRefresh is true while a user-requested refresh runs.
	manualRefresh bool
	refreshError  string
	closed        bool
}

// New creates a Model.
func New(config Config) Model {
	theme := tui.DefaultTheme
	if config.Theme != nil {
		theme = *config.Theme
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	indicator := spinner.New()
	indicator.Spinner = spinner.Dot
	indicator.Style = lipgloss.NewStyle().Foreground(theme.StatusRefreshing)

	return Model{
		updates: config.Updates,
		refresh: config.Refresh,
		theme:   theme,
		keys:    DefaultKeyMap,
		spinner: indicator,
		now:     now,
		state:   config.Initial,
	}
}

// State returns the state currently displayed.
func (model Model) State() session.State { return model.state }

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return tea.Batch(
		waitForState(model.updates),
		model.spinner.Tick,
		countdown(),
	)
}

func waitForState(updates <-chan session.State) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return stateMsg{state: state}
	}
}

func countdown() tea.Cmd {
	return tea.Tick(countdownInterval, func(time.Time) tea.Msg {
		return countdownMsg{}
	})
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit
		case key.Matches(message, model.keys.Refresh):
			if model.refresh == nil || model.manualRefresh {
				return model, nil
			}
			model.manualRefresh = true
			model.refreshError = ""
			refresh := model.refresh
			return model, func() tea.Msg {
				return refreshDoneMsg{err: refresh()}
			}
		}
		return model, nil

	case stateMsg:
		model.state = message.state
		return model, waitForState(model.updates)

	case closedMsg:
		model.closed = true
		return model, tea.Quit

	case refreshDoneMsg:
		model.manualRefresh = false
		if message.err != nil {
			model.refreshError = wardapi.Message(message.err)
		}
		return model, nil

	case countdownMsg:
		return model, countdown()

	case spinner.TickMsg:
		var command tea.Cmd
		model.spinner, command = model.spinner.Update(message)
		return model, command
	}
	return model, nil
}

// View implements tea.Model.
func (model Model) View() string {
	theme := model.theme
	state := model.state
	label := theme.Label().Width(9)

	var lines []string
	lines = append(lines, theme.Header().Render("nagarniti session"), "")

	status := theme.Status(string(state.Status)).Render(string(state.Status))
	if state.Status == session.StatusRefreshing || state.Status == session.StatusAuthenticating || model.manualRefresh {
		status += " " + model.spinner.View()
	}
	lines = append(lines, label.Render("Status")+status)

	if user := state.User; user != nil {
		identity := user.Email
		if user.Name != "" {
			identity = fmt.Sprintf("%s <%s>", user.Name, user.Email)
		}
		lines = append(lines, label.Render("User")+theme.Value().Render(identity)+"  "+
			theme.Role(string(user.Role)).Render(string(user.Role)))
		if user.Ward != nil {
			lines = append(lines, label.Render("Ward")+theme.Value().Render(
				fmt.Sprintf("%s (%s)", user.Ward.Name, user.Ward.Slug)))
		}
	}

	now := model.now()
	switch {
	case state.IsAuthenticated && !state.HasAccessToken:
		lines = append(lines, label.Render("Token")+theme.Value().Render("none (cookie session)"))
	case !state.TokenExpiresAt.IsZero():
		lines = append(lines, label.Render("Token")+theme.Value().Render(
			"expires "+relative(state.TokenExpiresAt, now)))
	}
	if !state.NextRefreshAt.IsZero() {
		lines = append(lines, label.Render("Refresh")+theme.Value().Render(
			"next "+relative(state.NextRefreshAt, now)))
	}

	if state.Error != "" {
		lines = append(lines, "", theme.Error().Render(state.Error))
	}
	if model.refreshError != "" {
		lines = append(lines, "", theme.Error().Render("refresh failed: "+model.refreshError))
	}
	if model.closed {
		lines = append(lines, "", theme.Help().Render("session closed"))
	}

	help := model.keys.Quit.Help()
	footer := fmt.Sprintf("%s %s", help.Key, help.Desc)
	if model.refresh != nil {
		refreshHelp := model.keys.Refresh.Help()
		footer = fmt.Sprintf("%s %s • %s", refreshHelp.Key, refreshHelp.Desc, footer)
	}

	return theme.Box().Render(strings.Join(lines, "\n")) + "\n" + theme.Help().Render(footer) + "\n"
}

// relative renders t against now as "in 14m2s" or "3s ago".
func relative(t, now time.Time) string {
	delta := t.Sub(now).Round(time.Second)
	if delta < 0 {
		return (-delta).String() + " ago"
	}
	return "in " + delta.String()
}
