// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/nagarniti/nagarniti/lib/secret"
)

// ReadPassword reads a password into a secret.Buffer. An empty
// passwordFile prompts on the terminal with echo disabled; "-" reads one
// line from stdin; anything else is a file path whose trailing newlines
// are stripped.
func ReadPassword(passwordFile string) (*secret.Buffer, error) {
	if passwordFile != "" {
		buffer, err := secret.ReadFile(passwordFile)
		if err != nil {
			return nil, Validation("reading password: %w", err)
		}
		return buffer, nil
	}

	stdinFileDescriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFileDescriptor) {
		return nil, Validation("no terminal available for interactive password prompt (use --password-file)")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	passwordBytes, err := term.ReadPassword(stdinFileDescriptor)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, Internal("reading password: %w", err)
	}
	if len(passwordBytes) == 0 {
		return nil, Validation("password is empty")
	}

	buffer, err := secret.NewFromBytes(passwordBytes)
	if err != nil {
		secret.Zero(passwordBytes)
		return nil, Internal("protecting password: %w", err)
	}
	return buffer, nil
}
