// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nagarniti/nagarniti/cmd/nagarniti/cli"
	"github.com/nagarniti/nagarniti/wardapi"
)

type registerParams struct {
	cli.SessionParams
	Email        string `json:"email"     flag:"email"         desc:"account email (required)"`
	Name         string `json:"name"      flag:"name"          desc:"full name (required)"`
	Ward         string `json:"ward"      flag:"ward"          desc:"ward slug, e.g. ward-12 (required)"`
	Mobile       string `json:"mobile"    flag:"mobile"        desc:"mobile number"`
	VoterID      string `json:"voter_id"  flag:"voter-id"      desc:"voter ID card number"`
	Society      string `json:"society"   flag:"society"       desc:"housing society ID"`
	PasswordFile string `json:"-"         flag:"password-file" desc:"read the password from this file, or - for one line of stdin (default: prompt)"`
}

func registerCommand() *cli.Command {
	var params registerParams

	return &cli.Command{
		Name:    "register",
		Summary: "Create a voter account",
		Description: `Create an account in a ward.

Depending on the server's policy the new account is signed in straight
away or waits for verification by a ward administrator; in the second
case sign in with "nagarniti login" once it has been approved.`,
		Usage: "nagarniti register --email <email> --name <name> --ward <slug> [flags]",
		Examples: []cli.Example{
			{
				Description: "Register in ward 12",
				Command:     "nagarniti register --email asha@example.org --name 'Asha Patil' --ward ward-12 --mobile 9800000000",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			var missing []string
			for _, required := range []struct{ flag, value string }{
				{"--email", params.Email},
				{"--name", params.Name},
				{"--ward", params.Ward},
			} {
				if required.value == "" {
					missing = append(missing, required.flag)
				}
			}
			if len(missing) > 0 {
				return cli.Validation("missing required flags: %s", strings.Join(missing, ", "))
			}

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

			err = opened.Manager.Register(ctx, wardapi.RegisterRequest{
				Email:     params.Email,
				Name:      params.Name,
				Mobile:    params.Mobile,
				VoterID:   params.VoterID,
				WardSlug:  params.Ward,
				SocietyID: params.Society,
				Password:  password,
			})
			if err != nil {
				return cli.FromAPI("registration failed", err)
			}

			state := opened.Manager.State()
			if state.IsAuthenticated {
				fmt.Fprintf(stderr, "Registered and signed in as %s\n", describeUser(state.User))
				return nil
			}
			fmt.Fprintf(stderr, "Registration received for %s. Sign in once the account is verified.\n", params.Email)
			return nil
		},
	}
}
