// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/nagarniti/nagarniti/cmd/nagarniti/cli"
	"github.com/nagarniti/nagarniti/lib/tui"
	"github.com/nagarniti/nagarniti/session"
	"github.com/nagarniti/nagarniti/wardapi"
)

type statusParams struct {
	cli.SessionParams
	cli.JSONOutput
}

// statusReport is the --json form of "nagarniti status".
type statusReport struct {
	Status         session.Status `json:"status"`
	Authenticated  bool           `json:"authenticated"`
	User           *wardapi.User  `json:"user,omitempty"`
	HasAccessToken bool           `json:"has_access_token"`
	TokenExpiresAt *time.Time     `json:"token_expires_at,omitempty"`
	NextRefreshAt  *time.Time     `json:"next_refresh_at,omitempty"`
	Server         string         `json:"server"`
	Environment    string         `json:"environment"`
}

func newStatusReport(state session.State, opened *cli.Session) statusReport {
	report := statusReport{
		Status:         state.Status,
		Authenticated:  state.IsAuthenticated,
		User:           state.User,
		HasAccessToken: state.HasAccessToken,
		Server:         opened.Client.BaseURL(),
		Environment:    string(opened.Config.Environment),
	}
	if !state.TokenExpiresAt.IsZero() {
		expires := state.TokenExpiresAt.UTC()
		report.TokenExpiresAt = &expires
	}
	if !state.NextRefreshAt.IsZero() {
		next := state.NextRefreshAt.UTC()
		report.NextRefreshAt = &next
	}
	return report
}

func statusCommand() *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Show who is signed in",
		Description: `Check the stored session with the server and print the result.

Exits 1 when no session is signed in, so scripts can test it.`,
		Usage: "nagarniti status [--json]",
		Examples: []cli.Example{
			{Description: "Check the session from a script", Command: "nagarniti status --json | jq -r .user.role"},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}

			opened, err := params.Open(logger)
			if err != nil {
				return err
			}
			defer opened.Close()

			if err := opened.Manager.CheckAuth(ctx); err != nil && !errors.Is(err, session.ErrNotAuthenticated) {
				return cli.Internal("checking session: %w", err)
			}
			state := opened.Manager.State()
			report := newStatusReport(state, opened)

			if params.OutputJSON {
				if err := cli.WriteJSON(stdout, report); err != nil {
					return cli.Internal("writing status: %w", err)
				}
			} else {
				renderStatus(stdout, report, tui.DefaultTheme, time.Now())
			}

			if !state.IsAuthenticated {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

// renderStatus writes the human-readable status.
func renderStatus(w io.Writer, report statusReport, theme tui.Theme, now time.Time) {
	label := theme.Label().Width(12)
	var lines []string
	add := func(name, value string) {
		lines = append(lines, label.Render(name)+value)
	}

	add("Status", theme.Status(string(report.Status)).Render(string(report.Status)))
	if report.User != nil {
		add("User", theme.Value().Render(describeUser(report.User)))
		if report.User.Ward != nil {
			add("Ward", theme.Value().Render(fmt.Sprintf("%s (%s)", report.User.Ward.Name, report.User.Ward.Slug)))
		}
		if !report.User.IsVerified {
			add("Verified", theme.Error().Render("no"))
		}
	}
	switch {
	case report.Authenticated && !report.HasAccessToken:
		add("Token", theme.Value().Render("none (cookie session)"))
	case report.TokenExpiresAt != nil:
		add("Token", theme.Value().Render(fmt.Sprintf("expires %s (in %s)",
			report.TokenExpiresAt.Format(time.RFC3339), report.TokenExpiresAt.Sub(now).Round(time.Second))))
	}
	add("Server", theme.Label().Render(report.Server+" ["+report.Environment+"]"))
	if !report.Authenticated {
		lines = append(lines, "", theme.Help().Render("Not signed in. Run 'nagarniti login <email>'."))
	}

	fmt.Fprintln(w, strings.Join(lines, "\n"))
}
