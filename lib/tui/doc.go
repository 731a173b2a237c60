// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui holds the shared terminal look for nagarniti: the color
// theme used by "nagarniti status" and the "nagarniti watch" view.
package tui
