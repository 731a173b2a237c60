// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nagarniti/nagarniti/cmd/nagarniti/cli"
)

func refreshCommand() *cli.Command {
	var params cli.SessionParams

	return &cli.Command{
		Name:    "refresh",
		Summary: "Renew the access token from the stored cookie",
		Description: `Exchange the stored refresh cookie for a new access token.

A failed renewal ends the stored session; sign in again afterwards.`,
		Usage:  "nagarniti refresh",
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

			if err := opened.Manager.RefreshToken(ctx); err != nil {
				return cli.FromAPI("token refresh failed", err).
					WithHint("The stored session has ended. Run 'nagarniti login <email>' to sign in again.")
			}

			state := opened.Manager.State()
			fmt.Fprintf(stderr, "Token renewed; expires %s (next renewal due %s)\n",
				state.TokenExpiresAt.Format(time.RFC3339), state.NextRefreshAt.Format(time.RFC3339))
			return nil
		},
	}
}
