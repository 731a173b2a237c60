// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nagarniti/nagarniti/cmd/nagarniti/cli"
	"github.com/nagarniti/nagarniti/session"
)

type requestParams struct {
	cli.SessionParams
	Data string `json:"data" flag:"data,d" desc:"JSON request body"`
}

var requestMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

func requestCommand() *cli.Command {
	var params requestParams

	return &cli.Command{
		Name:    "request",
		Summary: "Send an authenticated API request",
		Description: `Send a request to any API endpoint with the stored session.

The access token is attached when the session has one. If the server
answers 401 the token is renewed once and the request retried. The JSON
response body is printed to stdout.`,
		Usage: "nagarniti request <METHOD> <path> [--data JSON]",
		Examples: []cli.Example{
			{Description: "List wards", Command: "nagarniti request GET /api/wards"},
			{Description: "File a grievance", Command: `nagarniti request POST /api/grievances --data '{"title":"Broken streetlight"}'`},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return cli.Validation("expected <METHOD> <path>\n\nUsage: nagarniti request <METHOD> <path> [--data JSON]")
			}
			method := strings.ToUpper(args[0])
			if !requestMethods[method] {
				return cli.Validation("unsupported method %q", args[0])
			}
			path := args[1]
			if !strings.HasPrefix(path, "/") {
				return cli.Validation("path must start with /: %q", path)
			}

			var body any
			if params.Data != "" {
				if !json.Valid([]byte(params.Data)) {
					return cli.Validation("--data is not valid JSON")
				}
				body = json.RawMessage(params.Data)
			}

			opened, err := params.Open(logger)
			if err != nil {
				return err
			}
			defer opened.Close()

			// Public endpoints work signed out, so a failed check is not fatal.
			if err := opened.Manager.CheckAuth(ctx); err != nil && !errors.Is(err, session.ErrNotAuthenticated) {
				return cli.Internal("checking session: %w", err)
			}

			var response json.RawMessage
			if err := opened.Manager.Do(ctx, method, path, body, &response); err != nil {
				return cli.FromAPI(method+" "+path, err)
			}
			if len(response) == 0 {
				return nil
			}

			var indented bytes.Buffer
			if err := json.Indent(&indented, response, "", "  "); err != nil {
				return cli.Internal("formatting response: %w", err)
			}
			fmt.Fprintln(stdout, indented.String())
			return nil
		},
	}
}
