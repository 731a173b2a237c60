// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the nagarniti
// CLI.
//
// The central type is [Command], a named subcommand with optional
// nested [Command.Subcommands], a params struct whose tagged fields
// become pflag flags (see [BindFlags]), and a Run function. Commands
// are assembled into a tree in cmd/nagarniti/commands and dispatched
// via [Command.Execute], which handles flag parsing, subcommand
// routing, and help output with examples. Unknown subcommands and flags
// get a Levenshtein "did you mean" suggestion.
//
// Commands that talk to the server embed [SessionParams], which adds
// the global --config and --verbose flags, and call
// [SessionParams.Open] to get a [Session]: the resolved configuration,
// the local state store, the persistent cookie jar, the REST client and
// the session manager wired together the same way for every command.
//
// Errors returned by commands are [ToolError] values with a category;
// [FromAPI] maps REST failures onto those categories with the
// user-facing message.
package cli
