// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"io"
)

// JSONOutput is an embeddable struct that adds a --json flag to a
// command's params struct.
//
//	type statusParams struct {
//	    cli.SessionParams
//	    cli.JSONOutput
//	}
//
//	if params.OutputJSON {
//	    return cli.WriteJSON(stdout, report)
//	}
type JSONOutput struct {
	OutputJSON bool `json:"-" flag:"json" desc:"output as JSON"`
}

// WriteJSON marshals value as indented JSON to w.
func WriteJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
