// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the nagarniti
// CLI and its REST client.
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//	go build -ldflags "-X github.com/nagarniti/nagarniti/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Builds without them ("go install") use the VCS stamp the toolchain
// embeds; see [Current]. [Info] and [Full] format the result for
// "nagarniti version", and [UserAgent] is sent with every API request.
package version
