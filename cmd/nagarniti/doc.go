// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Nagarniti is the command-line client for the Nagarniti ward portal.
// It signs in, keeps the session on disk between runs, renews access
// tokens from the refresh cookie, and sends authenticated requests.
//
// Usage:
//
//	nagarniti login <email> [--password-file F]
//	nagarniti status [--json]
//	nagarniti request GET /api/wards
//	nagarniti watch
//	nagarniti logout
//
// Every command accepts --config (or NAGARNITI_CONFIG) and --verbose.
package main
