// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nagarniti/nagarniti/cmd/nagarniti/cli"
	"github.com/nagarniti/nagarniti/cmd/nagarniti/watchui"
)

func watchCommand() *cli.Command {
	var params cli.SessionParams

	return &cli.Command{
		Name:    "watch",
		Summary: "Keep the session alive and show it live",
		Description: `Restore the stored session and keep it signed in.

The access token is renewed shortly before it expires for as long as the
view is open. Press r to renew immediately, q to quit.`,
		Usage:  "nagarniti watch",
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

			if err := opened.Manager.CheckAuth(ctx); err != nil {
				return cli.Forbidden("not signed in").WithHint("Run 'nagarniti login <email>' first.")
			}

			updates, unsubscribe := opened.Manager.Subscribe()
			defer unsubscribe()

			model := watchui.New(watchui.Config{
				Updates: updates,
				Initial: opened.Manager.State(),
				Refresh: func() error { return opened.Manager.RefreshToken(ctx) },
			})
			program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
			if _, err := program.Run(); err != nil && ctx.Err() == nil {
				return cli.Internal("running session view: %w", err)
			}
			return nil
		},
	}
}
