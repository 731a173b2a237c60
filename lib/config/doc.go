// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the nagarniti
// client.
//
// Configuration comes from a single file named by the --config flag
// or the NAGARNITI_CONFIG environment variable (see [Resolve]). There
// is no ~/.config discovery and no automatic file search; with neither
// set, [Default] is used as-is.
//
// The file may contain environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Production is stricter by default:
// cookie sealing cannot be turned off.
//
// ${HOME}, ${XDG_STATE_HOME} and ${VAR:-default} patterns are expanded
// in session.state_dir after loading. No other environment variables
// override config values.
package config
