// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nagarniti/nagarniti/cmd/nagarniti/cli"
	"github.com/nagarniti/nagarniti/wardapi"
)

type loginParams struct {
	cli.SessionParams
	PasswordFile string `json:"-" flag:"password-file" desc:"read the password from this file, or - for one line of stdin (default: prompt)"`
}

func loginCommand() *cli.Command {
	var params loginParams

	return &cli.Command{
		Name:    "login",
		Summary: "Sign in with email and password",
		Description: `Sign in and keep the session on disk.

The server sets a refresh cookie that is stored in the state directory
(encrypted when session.seal_cookies is on). Later commands use it to
obtain fresh access tokens without asking for the password again.`,
		Usage: "nagarniti login <email> [flags]",
		Examples: []cli.Example{
			{
				Description: "Sign in interactively (prompts for the password)",
				Command:     "nagarniti login admin@nagarniti.gov.in",
			},
			{
				Description: "Sign in with the password from a file",
				Command:     "nagarniti login voter@example.org --password-file ~/.nagarniti-password",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) < 1 {
				return cli.Validation("email is required\n\nUsage: nagarniti login <email> [flags]")
			}
			if len(args) > 1 {
				return cli.Validation("unexpected argument: %s", args[1])
			}
			email := args[0]

			password, err := cli.ReadPassword(params.PasswordFile)
			if err != nil {
				return err
			}
			defer password.Close()

			opened, err := params.Open(logger)
			if err != nil {
				return err
			}
			defer opened.Close()

			if err := opened.Manager.Login(ctx, email, password); err != nil {
				return cli.FromAPI("login failed", err)
			}

			state := opened.Manager.State()
			fmt.Fprintf(stderr, "Signed in as %s\n", describeUser(state.User))
			return nil
		},
	}
}

// describeUser renders "Name <email> (role)".
func describeUser(user *wardapi.User) string {
	if user == nil {
		return "unknown user"
	}
	if user.Name == "" {
		return fmt.Sprintf("%s (%s)", user.Email, user.Role)
	}
	return fmt.Sprintf("%s <%s> (%s)", user.Name, user.Email, user.Role)
}
