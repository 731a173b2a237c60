// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the nagarniti CLI command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nagarniti/nagarniti/cmd/nagarniti/cli"
	"github.com/nagarniti/nagarniti/lib/version"
)

// Command output goes through these so tests can capture it. Data goes
// to stdout; progress and confirmations to stderr.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Root builds and returns the complete command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "nagarniti",
		Description: `nagarniti: command-line client for the Nagarniti ward portal.

Sign in once and the session is kept on disk: the refresh cookie (sealed
with a local age identity) and a snapshot of who you are. Later commands
renew the access token from the cookie as needed.`,
		Subcommands: []*cli.Command{
			loginCommand(),
			registerCommand(),
			logoutCommand(),
			statusCommand(),
			refreshCommand(),
			requestCommand(),
			watchCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(context.Context, []string, *slog.Logger) error {
					fmt.Fprintf(stdout, "nagarniti %s\n", version.Full())
					return nil
				},
			},
		},
	}
}
