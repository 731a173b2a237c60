// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nagarniti/nagarniti/cmd/nagarniti/cli"
	"github.com/nagarniti/nagarniti/session"
	"github.com/nagarniti/nagarniti/wardapi"
)

func logoutCommand() *cli.Command {
	var params cli.SessionParams

	return &cli.Command{
		Name:    "logout",
		Summary: "Sign out and forget the stored session",
		Description: `Ask the server to end the session, then clear it locally.

The local session is cleared even when the server cannot be reached;
the failure is reported as a warning.`,
		Usage:  "nagarniti logout",
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

			// The server wants the bearer, which only a check can produce.
			if err := opened.Manager.CheckAuth(ctx); err != nil && !errors.Is(err, session.ErrNotAuthenticated) {
				return cli.Internal("checking session: %w", err)
			}
			user := opened.Manager.State().User

			serverErr := opened.Manager.Logout(ctx)
			// Without the server's expiring Set-Cookie the refresh cookie
			// would survive and the next command would sign back in.
			if err := opened.Jar.Clear(); err != nil {
				return cli.Internal("clearing stored cookies: %w", err)
			}
			if serverErr != nil {
				logger.Warn("server logout failed", "error", serverErr)
				fmt.Fprintf(stderr, "Signed out locally (server said: %s)\n", wardapi.Message(serverErr))
				return nil
			}
			if user != nil {
				fmt.Fprintf(stderr, "Signed out %s\n", user.Email)
			} else {
				fmt.Fprintln(stderr, "Signed out")
			}
			return nil
		},
	}
}
